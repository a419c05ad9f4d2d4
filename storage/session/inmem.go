package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/darasa/core/session"
)

type inmemEntry struct {
	rec       record
	expiresAt time.Time
}

type inmemRegistry struct {
	mutex sync.RWMutex
	ttl   time.Duration
	table map[string]inmemEntry
}

var _ Registry = (*inmemRegistry)(nil)

// NewInmemRegistry is a process-local Registry for tests and local
// development without a redis instance.
func NewInmemRegistry(ttl time.Duration) Registry {
	return &inmemRegistry{
		ttl:   ttl,
		table: make(map[string]inmemEntry),
	}
}

func (reg *inmemRegistry) Save(_ context.Context, id string, sess *session.Session) error {
	rec, err := snapshot(sess)
	if err != nil {
		return err
	}

	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	reg.table[id] = inmemEntry{rec: rec, expiresAt: time.Now().Add(reg.ttl)}
	return nil
}

func (reg *inmemRegistry) Get(_ context.Context, id string) (*session.Session, error) {
	reg.mutex.RLock()
	entry, ok := reg.table[id]
	reg.mutex.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.expiresAt) {
		reg.mutex.Lock()
		delete(reg.table, id)
		reg.mutex.Unlock()
		return nil, ErrNotFound
	}
	return restore(entry.rec)
}

func (reg *inmemRegistry) Delete(_ context.Context, id string) error {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	delete(reg.table, id)
	return nil
}
