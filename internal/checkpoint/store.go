// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists jobs, their execution state, audit lists, and
// results in a key-value store with optional expiry.
//
// Three stores are provided: MemoryStore for tests and single-process runs,
// SQLiteStore for durable local runs, and RedisStore for shared
// deployments. All are safe for concurrent use.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// DefaultTTL is the retention of job keys.
const DefaultTTL = 7 * 24 * time.Hour

// Store is a key-value store with append-only lists. A zero ttl means the
// key never expires. Get returns nil, nil for a missing or expired key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Append(ctx context.Context, listKey string, item []byte, ttl time.Duration) error
	GetList(ctx context.Context, listKey string) ([][]byte, error)
	Close() error
}

// ErrJobNotFound is returned when a job or its state is not in the store.
var ErrJobNotFound = errors.New("job not found")

// StorageError wraps a failed store operation. The orchestrator treats it
// as fatal for the job.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Key layout.
const (
	jobPrefix     = "job:"
	statePrefix   = "agent_state:"
	auditPrefix   = "audit_log:"
	resultsPrefix = "results:"
	jobIndexKey   = "jobs"
)

// JobKey is the key of a job record.
func JobKey(id string) string { return jobPrefix + id }

// StateKey is the key of a job's execution state.
func StateKey(id string) string { return statePrefix + id }

// AuditKey is the list key of a job's audit trail.
func AuditKey(id string) string { return auditPrefix + id }

// ResultsKey is the key of a job's synthesis report.
func ResultsKey(id string) string { return resultsPrefix + id }

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg types.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", types.StoreMemory:
		return NewMemoryStore(), nil
	case types.StoreSQLite:
		return OpenSQLite(cfg.Path)
	case types.StoreRedis:
		return OpenRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
