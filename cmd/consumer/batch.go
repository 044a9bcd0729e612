package main

import (
	"context"
	"time"

	"github.com/thep200/github-portfolio-sync/internal/model"
)

// processBatches hands messages to flush in groups of batchSize, or whatever
// has accumulated when batchTimeout passes. Remaining messages are flushed
// when ctx is cancelled.
func processBatches(ctx context.Context, messages <-chan model.SnapshotMessage, batchSize int,
	batchTimeout time.Duration, flush func([]model.SnapshotMessage)) {

	var batch []model.SnapshotMessage
	timer := time.NewTimer(batchTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				flush(batch)
			}
			return

		case msg := <-messages:
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				flush(batch)
				batch = nil
				timer.Reset(batchTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				flush(batch)
				batch = nil
			}
			timer.Reset(batchTimeout)
		}
	}
}
