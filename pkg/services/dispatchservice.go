package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/util"
)

// VerificationJob is the payload placed on the broker for the queue worker.
type VerificationJob struct {
	DocumentID primitive.ObjectID `json:"documentId"`
	RequestID  primitive.ObjectID `json:"requestId"`
}

// Broker is the message-queue collaborator. Enqueue must respect the
// context deadline; any error means the job was not accepted.
type Broker interface {
	Enqueue(ctx context.Context, job VerificationJob) (string, error)
}

const verificationQueue = "rentora:verification:jobs"

// RedisBroker queues verification jobs on a redis list consumed by the
// worker binary.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (rb *RedisBroker) Enqueue(ctx context.Context, job VerificationJob) (string, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return "", err
	}

	if err := rb.client.LPush(ctx, verificationQueue, payload).Err(); err != nil {
		return "", err
	}
	return job.DocumentID.Hex(), nil
}

// Dequeue blocks up to timeout waiting for the next job. A nil job with nil
// error means the wait timed out and the worker should poll again.
func (rb *RedisBroker) Dequeue(ctx context.Context, timeout time.Duration) (*VerificationJob, error) {
	res, err := rb.client.BRPop(ctx, timeout, verificationQueue).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}

	var job VerificationJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// JobRunner executes the verification routine for one document. Both the
// queue worker and the dispatch fallback call the same runner.
type JobRunner func(ctx context.Context, documentID primitive.ObjectID) error

// DispatchService tries the broker first with a bounded wait and falls back
// to detached in-process execution when the broker is unavailable. The
// upload caller never waits on verification and never sees its errors.
type DispatchService interface {
	Dispatch(job VerificationJob)
	SetRunner(run JobRunner)
}

type DispatchServiceImpl struct {
	broker  Broker
	store   VerificationStore
	run     JobRunner
	timeout time.Duration
}

func NewDispatchService(broker Broker, store VerificationStore, timeout time.Duration) *DispatchServiceImpl {
	return &DispatchServiceImpl{broker: broker, store: store, timeout: timeout}
}

// SetRunner wires the verification routine in after construction; the
// verification service and the dispatcher reference each other.
func (ds *DispatchServiceImpl) SetRunner(run JobRunner) {
	ds.run = run
}

func (ds *DispatchServiceImpl) Dispatch(job VerificationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), ds.timeout)
	defer cancel()

	_, err := ds.broker.Enqueue(ctx, job)
	if err == nil {
		return
	}

	// Broker outage must not fail the upload or drop the document. Run the
	// routine detached; its outcome is only observable through the persisted
	// state machine.
	util.LogWarning(fmt.Sprintf("enqueue failed for document %s, falling back to in-process verification: %v", job.DocumentID.Hex(), err))
	go ds.runDetached(job)
}

func (ds *DispatchServiceImpl) runDetached(job VerificationJob) {
	defer func() {
		if r := recover(); r != nil {
			ds.recordPanic(job, r)
		}
	}()

	if err := ds.run(context.Background(), job.DocumentID); err != nil {
		util.LogError(fmt.Sprintf("detached verification of document %s failed", job.DocumentID.Hex()), err)
	}
}

// recordPanic turns a panic in the detached path into a failure record so
// the document cannot end up stuck in_progress with no trace.
func (ds *DispatchServiceImpl) recordPanic(job VerificationJob, r any) {
	util.LogError("panic in detached verification", fmt.Errorf("%v", r))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := ds.store.SetDocumentResult(ctx, job.DocumentID, DocumentResult{
		Status:        models.DocumentStatusFailed,
		FailureReason: "internal error during verification",
	})
	if err != nil {
		util.LogError("unable to record verification failure", err)
		return
	}

	_ = ds.store.AppendHistory(ctx, &models.VerificationHistory{
		RequestID: job.RequestID,
		Action:    models.HistoryDocumentFailed,
		Actor:     models.SystemActor,
		Detail:    map[string]any{"document_id": job.DocumentID.Hex(), "reason": "internal error during verification"},
	})
}
