// Package entitlement holds the durable mapping from a payment id to its
// settlement outcome. Whoever presents a settled payment id may invoke
// the gated resource; records are created only on successful settlement
// and never deleted, so entitlement is monotonic per key.
package entitlement

import (
	"context"
	"sync"
	"time"
)

// Record is the settlement outcome for one payment id. Records exist
// only for settled payments; an issued-but-unpaid id has no record, and
// callers must not read payment failure into a missing one.
type Record struct {
	Settled   bool      `json:"settled"`
	TxHash    string    `json:"txHash,omitempty"`
	SettledAt time.Time `json:"settledAt"`
}

// Store is the injectable keyed store behind the paywall. Implementations
// must tolerate concurrent reads and writes on different keys without
// coarse locking, and same-key writes must upsert atomically so a client
// retrying a settle call cannot race the record into a torn state.
type Store interface {
	// IsSettled reports whether a record exists for the id and is settled.
	// A false result is indistinguishable from "never attempted".
	IsSettled(ctx context.Context, paymentID string) (bool, error)

	// RecordSettlement idempotently upserts the settlement outcome for the
	// id. Repeated delivery with the same id is safe.
	RecordSettlement(ctx context.Context, paymentID, txHash string, at time.Time) error
}

// MemoryStore is the process-lifetime reference implementation: a
// mutex-guarded map, suitable for a single-node deployment.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) IsSettled(_ context.Context, paymentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[paymentID]
	return ok && rec.Settled, nil
}

func (s *MemoryStore) RecordSettlement(_ context.Context, paymentID, txHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[paymentID] = Record{Settled: true, TxHash: txHash, SettledAt: at}
	return nil
}

// Get returns the record for a payment id, primarily for audit surfaces.
func (s *MemoryStore) Get(paymentID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[paymentID]
	return rec, ok
}
