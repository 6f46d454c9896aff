package estimator

import (
	"sync"

	"roofquote/services"
)

// Pool hands out at most one Store per quote id, preserving the
// single-editor-session model across HTTP requests. Stores are opened
// lazily and kept until released.
type Pool struct {
	records  RecordStore
	defaults []services.CategoryDefaults
	opts     []Option

	mu     sync.Mutex
	stores map[string]*Store
}

func NewPool(records RecordStore, defaults []services.CategoryDefaults, opts ...Option) *Pool {
	return &Pool{
		records:  records,
		defaults: defaults,
		opts:     opts,
		stores:   make(map[string]*Store),
	}
}

// Get returns the open store for a quote, opening one on first use.
func (p *Pool) Get(quoteID string) (*Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.stores[quoteID]; ok {
		return s, nil
	}

	s, err := Open(p.records, p.defaults, quoteID, p.opts...)
	if err != nil {
		return nil, err
	}
	p.stores[quoteID] = s
	return s, nil
}

// Release closes a quote's store (flushing pending state) and forgets it.
// Safe to call for quotes that were never opened.
func (p *Pool) Release(quoteID string) error {
	p.mu.Lock()
	s, ok := p.stores[quoteID]
	delete(p.stores, quoteID)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Close()
}

// Discard forgets a quote's store without flushing. Used after the
// underlying record is deleted, when a flush could only fail.
func (p *Pool) Discard(quoteID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.stores[quoteID]; ok {
		s.stop()
		delete(p.stores, quoteID)
	}
}
