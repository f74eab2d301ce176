package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"rentora-api-io/api/pkg/util"
)

// QueueWorker drains the broker and runs the verification routine for each
// job. It is the asynchronous half of the dispatch contract; the routine it
// runs is identical to the dispatch fallback path.
type QueueWorker struct {
	broker *RedisBroker
	run    JobRunner
	quit   chan bool
}

type QueueWorkerPool struct {
	Workers []*QueueWorker
}

func NewQueueWorkerPool(size int, broker *RedisBroker, run JobRunner) *QueueWorkerPool {
	workers := make([]*QueueWorker, size)
	for i := 0; i < size; i++ {
		workers[i] = &QueueWorker{
			broker: broker,
			run:    run,
			quit:   make(chan bool),
		}
	}

	return &QueueWorkerPool{Workers: workers}
}

func (pool *QueueWorkerPool) Start() {
	for id, worker := range pool.Workers {
		log.Printf("Verification worker %d started!\n", id)
		worker.Start()
	}
}

func (pool *QueueWorkerPool) Stop() {
	for id, worker := range pool.Workers {
		log.Printf("Verification worker %d stopped!!\n", id)
		go worker.Stop()
	}
}

func (w *QueueWorker) Start() {
	go func() {
		for {
			select {
			case <-w.quit:
				return
			default:
			}

			job, err := w.broker.Dequeue(context.Background(), 5*time.Second)
			if err != nil {
				util.LogError("unable to read verification queue", err)
				time.Sleep(2 * time.Second)
				continue
			}
			if job == nil {
				continue
			}

			if err := w.run(context.Background(), job.DocumentID); err != nil {
				util.LogError(fmt.Sprintf("queued verification of document %s failed", job.DocumentID.Hex()), err)
			}
		}
	}()
}

func (w *QueueWorker) Stop() {
	w.quit <- true
}
