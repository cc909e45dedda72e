// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// Manager reads and writes job records, execution state, and results.
// Every store failure is returned as a *StorageError.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager wraps store. A non-positive ttl uses DefaultTTL.
func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// Store returns the underlying store.
func (m *Manager) Store() Store { return m.store }

// TTL returns the retention applied to job keys.
func (m *Manager) TTL() time.Duration { return m.ttl }

// CreateJob writes the job record and adds it to the job index.
func (m *Manager) CreateJob(ctx context.Context, job types.Job) error {
	if err := m.put(ctx, JobKey(job.ID), job, m.ttl); err != nil {
		return err
	}
	if err := m.store.Append(ctx, jobIndexKey, []byte(job.ID), m.ttl); err != nil {
		return &StorageError{Op: "append", Key: jobIndexKey, Err: err}
	}
	return nil
}

// GetJob loads a job record.
func (m *Manager) GetJob(ctx context.Context, id string) (types.Job, error) {
	var job types.Job
	if err := m.get(ctx, JobKey(id), &job); err != nil {
		return types.Job{}, err
	}
	return job, nil
}

// ListJobs returns every job still in the store, oldest first.
func (m *Manager) ListJobs(ctx context.Context) ([]types.Job, error) {
	ids, err := m.store.GetList(ctx, jobIndexKey)
	if err != nil {
		return nil, &StorageError{Op: "list", Key: jobIndexKey, Err: err}
	}
	var jobs []types.Job
	for _, id := range ids {
		job, err := m.GetJob(ctx, string(id))
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Checkpoint stamps and persists the execution state.
func (m *Manager) Checkpoint(ctx context.Context, st *types.ExecutionState) error {
	st.LastCheckpoint = m.now().UTC()
	return m.put(ctx, StateKey(st.JobID), st, m.ttl)
}

// LoadState returns the last checkpointed state of a job.
func (m *Manager) LoadState(ctx context.Context, id string) (*types.ExecutionState, error) {
	var st types.ExecutionState
	if err := m.get(ctx, StateKey(id), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveResults stores the synthesis report. Results do not expire.
func (m *Manager) SaveResults(ctx context.Context, id string, report types.Report) error {
	return m.put(ctx, ResultsKey(id), report, 0)
}

// LoadResults returns the stored synthesis report.
func (m *Manager) LoadResults(ctx context.Context, id string) (types.Report, error) {
	var r types.Report
	err := m.get(ctx, ResultsKey(id), &r)
	return r, err
}

func (m *Manager) put(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := m.store.Set(ctx, key, data, ttl); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (m *Manager) get(ctx context.Context, key string, v any) error {
	data, err := m.store.Get(ctx, key)
	if err != nil {
		return &StorageError{Op: "get", Key: key, Err: err}
	}
	if data == nil {
		return fmt.Errorf("%w: %s", ErrJobNotFound, key)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &StorageError{Op: "decode", Key: key, Err: err}
	}
	return nil
}

func isNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrJobNotFound)
}
