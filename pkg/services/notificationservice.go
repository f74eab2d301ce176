package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/util"
)

// NotificationService delivers status-change events to the external
// notification target. Delivery is best effort: failures are logged and
// recorded as retryable history entries, never surfaced to the caller and
// never retried inline.
type NotificationService interface {
	NotifyComplete(ctx context.Context, req *models.VerificationRequest)
	NotifyDocumentFailed(ctx context.Context, req *models.VerificationRequest, doc *models.VerificationDocument)
	NotifyAdminManualReview(ctx context.Context, req *models.VerificationRequest, doc *models.VerificationDocument)
}

type NotificationServiceImpl struct {
	baseURL   string
	sharedKey string
	client    *http.Client
	store     VerificationStore
}

func NewNotificationService(baseURL, sharedKey string, store VerificationStore) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		baseURL:   baseURL,
		sharedKey: sharedKey,
		client:    &http.Client{Timeout: 5 * time.Second},
		store:     store,
	}
}

func (ns *NotificationServiceImpl) NotifyComplete(ctx context.Context, req *models.VerificationRequest) {
	ns.post(ctx, "/notifications/verification-complete", req.ID, map[string]any{
		"requesterId":    req.RequesterID.Hex(),
		"requesterEmail": req.RequesterEmail,
		"status":         req.Status,
		"reason":         req.RejectionReason,
	})
}

func (ns *NotificationServiceImpl) NotifyDocumentFailed(ctx context.Context, req *models.VerificationRequest, doc *models.VerificationDocument) {
	ns.post(ctx, "/notifications/document-failed", req.ID, map[string]any{
		"requesterId":    req.RequesterID.Hex(),
		"requesterEmail": req.RequesterEmail,
		"documentType":   doc.Type,
		"reason":         doc.FailureReason,
	})
}

func (ns *NotificationServiceImpl) NotifyAdminManualReview(ctx context.Context, req *models.VerificationRequest, doc *models.VerificationDocument) {
	ns.post(ctx, "/notifications/admin-review-required", req.ID, map[string]any{
		"requesterId":    req.RequesterID.Hex(),
		"requesterEmail": req.RequesterEmail,
		"documentType":   doc.Type,
	})
}

func (ns *NotificationServiceImpl) post(ctx context.Context, path string, requestID primitive.ObjectID, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		ns.recordFailure(ctx, requestID, path, payload, err)
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ns.baseURL+path, bytes.NewReader(body))
	if err != nil {
		ns.recordFailure(ctx, requestID, path, payload, err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Notification-Key", ns.sharedKey)

	res, err := ns.client.Do(httpReq)
	if err != nil {
		ns.recordFailure(ctx, requestID, path, payload, err)
		return
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		ns.recordFailure(ctx, requestID, path, payload, fmt.Errorf("notification target returned status %d", res.StatusCode))
	}
}

// recordFailure writes a retryable history entry with enough detail for an
// out-of-band sweep to redeliver. No inline retry; the verification path
// must not pick up notification latency.
func (ns *NotificationServiceImpl) recordFailure(ctx context.Context, requestID primitive.ObjectID, path string, payload map[string]any, cause error) {
	util.LogWarning(fmt.Sprintf("notification %s for request %s failed: %v", path, requestID.Hex(), cause))

	err := ns.store.AppendHistory(ctx, &models.VerificationHistory{
		RequestID: requestID,
		Action:    models.HistoryNotificationFailed,
		Actor:     models.SystemActor,
		Detail: map[string]any{
			"path":      path,
			"payload":   payload,
			"error":     cause.Error(),
			"retryable": true,
		},
	})
	if err != nil {
		util.LogError("unable to record notification failure", err)
	}
}
