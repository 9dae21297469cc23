package bridge

import (
	"log/slog"
	"sync"

	"github.com/deepnoodle-ai/bridge/script"
)

// Ref is an owned handle to a runtime object. Whoever creates a Ref owns it
// and must Release it exactly once; releasing again is a no-op. The value is
// unreachable through the Ref after release.
type Ref struct {
	table    *refTable
	id       uint64
	value    script.Value
	released bool
}

// Value returns the runtime object, or nil once the Ref was released.
func (r *Ref) Value() script.Value {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	if r.released {
		return nil
	}
	return r.value
}

// Released reports whether the Ref was released.
func (r *Ref) Released() bool {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	return r.released
}

// Release drops the handle to the runtime object.
func (r *Ref) Release() {
	if r == nil {
		return
	}
	r.table.release(r)
}

// RefStats counts runtime object handles.
type RefStats struct {
	Live     int    `json:"live"`
	Created  uint64 `json:"created"`
	Released uint64 `json:"released"`
}

// refTable tracks every Ref handed out by a Handle.
type refTable struct {
	mu       sync.Mutex
	nextID   uint64
	live     map[uint64]*Ref
	created  uint64
	released uint64
	logger   *slog.Logger
}

func newRefTable(logger *slog.Logger) *refTable {
	return &refTable{
		live:   make(map[uint64]*Ref),
		logger: logger,
	}
}

func (t *refTable) track(v script.Value) *Ref {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	ref := &Ref{table: t, id: t.nextID, value: v}
	t.live[ref.id] = ref
	t.created++
	t.logger.Debug("acquired runtime ref", "ref", ref.id, "type", v.Type())
	return ref
}

func (t *refTable) release(r *Ref) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.value = nil
	delete(t.live, r.id)
	t.released++
	t.logger.Debug("released runtime ref", "ref", r.id)
}

// releaseAll force-releases every live Ref and returns how many there were.
func (t *refTable) releaseAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.live)
	for id, r := range t.live {
		r.released = true
		r.value = nil
		delete(t.live, id)
		t.released++
	}
	return n
}

func (t *refTable) stats() RefStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return RefStats{Live: len(t.live), Created: t.created, Released: t.released}
}

// scope owns the refs acquired during a single operation and releases all
// of them when closed, whichever way the operation exits.
type scope struct {
	table *refTable
	refs  []*Ref
}

func (t *refTable) scope() *scope {
	return &scope{table: t}
}

func (s *scope) track(v script.Value) *Ref {
	ref := s.table.track(v)
	s.refs = append(s.refs, ref)
	return ref
}

// close releases refs in reverse order of acquisition.
func (s *scope) close() {
	for i := len(s.refs) - 1; i >= 0; i-- {
		s.refs[i].Release()
	}
	s.refs = nil
}
