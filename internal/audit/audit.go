// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit records the decisions made during a job as an
// append-only list in the checkpoint store.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pdiddy/discovery-engine/internal/checkpoint"
	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Trail appends and reads audit entries for jobs.
type Trail struct {
	store checkpoint.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewTrail returns a Trail over store. A non-positive ttl uses
// checkpoint.DefaultTTL.
func NewTrail(store checkpoint.Store, ttl time.Duration) *Trail {
	if ttl <= 0 {
		ttl = checkpoint.DefaultTTL
	}
	return &Trail{store: store, ttl: ttl, now: time.Now}
}

// Append adds an entry to the job's trail, stamping it when the timestamp
// is unset.
func (t *Trail) Append(ctx context.Context, jobID string, e types.AuditEntry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = t.now().UTC()
	}
	key := checkpoint.AuditKey(jobID)
	data, err := json.Marshal(e)
	if err != nil {
		return &checkpoint.StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := t.store.Append(ctx, key, data, t.ttl); err != nil {
		return &checkpoint.StorageError{Op: "append", Key: key, Err: err}
	}
	return nil
}

// GetAll returns the job's entries in append order.
func (t *Trail) GetAll(ctx context.Context, jobID string) ([]types.AuditEntry, error) {
	key := checkpoint.AuditKey(jobID)
	items, err := t.store.GetList(ctx, key)
	if err != nil {
		return nil, &checkpoint.StorageError{Op: "list", Key: key, Err: err}
	}
	entries := make([]types.AuditEntry, 0, len(items))
	for _, it := range items {
		var e types.AuditEntry
		if err := json.Unmarshal(it, &e); err != nil {
			return nil, &checkpoint.StorageError{Op: "decode", Key: key, Err: err}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
