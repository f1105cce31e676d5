package storage

import (
	"context"

	"fundCore/internal/model"
)

// Storage defines a sink for event records.
type Storage interface {
	PutEventBatch(ctx context.Context, records []model.EventRecord) error
}

// SnapshotStorage is a sink for pool valuations.
type SnapshotStorage interface {
	PutSnapshots(ctx context.Context, snapshots []model.FundSnapshot) error
}
