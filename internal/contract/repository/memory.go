package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/google/uuid"
)

// memoryStore keeps every collection in process memory behind one lock. It is
// used by tests and by the standalone service when no database is configured.
// Rows are copied on the way in and out so callers never share state with the store.
type memoryStore struct {
	mu          sync.RWMutex
	seq         int64
	contracts   map[string]*memRow[contract.Contract]
	obligations map[string]*memRow[contract.Obligation]
	categories  map[string]*memRow[contract.Category]
	files       map[string]*memRow[contract.File]
	history     map[string]*memRow[contract.StatusHistoryEntry]
}

type memRow[T any] struct {
	seq int64
	v   T
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		contracts:   map[string]*memRow[contract.Contract]{},
		obligations: map[string]*memRow[contract.Obligation]{},
		categories:  map[string]*memRow[contract.Category]{},
		files:       map[string]*memRow[contract.File]{},
		history:     map[string]*memRow[contract.StatusHistoryEntry]{},
	}
}

// NewMemoryStore returns a Store whose collections share one memoryStore.
func NewMemoryStore() *Store {
	m := newMemoryStore()
	return &Store{
		Contracts:   memContracts{m},
		Obligations: memObligations{m},
		Categories:  memCategories{m},
		Files:       memFiles{m},
		History:     memHistory{m},
		Cascade:     m,
	}
}

func (m *memoryStore) next() int64 {
	m.seq++
	return m.seq
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

// sortedRows returns copies of the rows matching keep, in insertion order.
func sortedRows[T any](rows map[string]*memRow[T], keep func(*T) bool) []*T {
	tmp := make([]*memRow[T], 0, len(rows))
	for _, r := range rows {
		if keep == nil || keep(&r.v) {
			tmp = append(tmp, r)
		}
	}
	sort.Slice(tmp, func(i, j int) bool { return tmp[i].seq < tmp[j].seq })
	out := make([]*T, 0, len(tmp))
	for _, r := range tmp {
		v := r.v
		out = append(out, &v)
	}
	return out
}

func deleteWhere[T any](rows map[string]*memRow[T], match func(*T) bool) {
	for id, r := range rows {
		if match(&r.v) {
			delete(rows, id)
		}
	}
}

// DeleteContractCascade removes a contract with its obligations, files and history.
func (m *memoryStore) DeleteContractCascade(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[id]; !ok {
		return ErrNotFound
	}
	deleteWhere(m.obligations, func(o *contract.Obligation) bool { return o.ContractID == id })
	deleteWhere(m.files, func(f *contract.File) bool { return f.ContractID == id })
	deleteWhere(m.history, func(h *contract.StatusHistoryEntry) bool { return h.ContractID == id })
	delete(m.contracts, id)
	return nil
}

type memContracts struct{ m *memoryStore }

func (r memContracts) Create(_ context.Context, c *contract.Contract) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c.ID = newID(c.ID)
	stamp(&c.CreatedAt)
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	r.m.contracts[c.ID] = &memRow[contract.Contract]{seq: r.m.next(), v: *c}
	return nil
}

func (r memContracts) Get(_ context.Context, id string) (*contract.Contract, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	row, ok := r.m.contracts[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := row.v
	return &c, nil
}

func (r memContracts) List(_ context.Context) ([]*contract.Contract, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := sortedRows(r.m.contracts, nil)
	// newest first; insertion order breaks ties
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memContracts) Update(_ context.Context, c *contract.Contract) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	row, ok := r.m.contracts[c.ID]
	if !ok {
		return ErrNotFound
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	c.CreatedAt = row.v.CreatedAt
	row.v = *c
	return nil
}

func (r memContracts) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.contracts[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.contracts, id)
	return nil
}

type memObligations struct{ m *memoryStore }

func (r memObligations) Create(_ context.Context, o *contract.Obligation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o.ID = newID(o.ID)
	stamp(&o.CreatedAt)
	r.m.obligations[o.ID] = &memRow[contract.Obligation]{seq: r.m.next(), v: *o}
	return nil
}

func (r memObligations) Get(_ context.Context, id string) (*contract.Obligation, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	row, ok := r.m.obligations[id]
	if !ok {
		return nil, ErrNotFound
	}
	o := row.v
	return &o, nil
}

func (r memObligations) List(_ context.Context) ([]*contract.Obligation, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := sortedRows(r.m.obligations, nil)
	contract.SortObligationsByDue(out)
	return out, nil
}

func (r memObligations) ListByContract(_ context.Context, contractID string) ([]*contract.Obligation, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := sortedRows(r.m.obligations, func(o *contract.Obligation) bool { return o.ContractID == contractID })
	contract.SortObligationsByDue(out)
	return out, nil
}

func (r memObligations) SetStatus(_ context.Context, id string, status contract.ObligationStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	row, ok := r.m.obligations[id]
	if !ok {
		return ErrNotFound
	}
	row.v.Status = status
	return nil
}

func (r memObligations) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.obligations[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.obligations, id)
	return nil
}

func (r memObligations) DeleteByContract(_ context.Context, contractID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	deleteWhere(r.m.obligations, func(o *contract.Obligation) bool { return o.ContractID == contractID })
	return nil
}

type memCategories struct{ m *memoryStore }

func (r memCategories) Create(_ context.Context, c *contract.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, row := range r.m.categories {
		if row.v.Slug == c.Slug {
			return contract.ErrConflict
		}
	}
	c.ID = newID(c.ID)
	stamp(&c.CreatedAt)
	r.m.categories[c.ID] = &memRow[contract.Category]{seq: r.m.next(), v: *c}
	return nil
}

func (r memCategories) Get(_ context.Context, id string) (*contract.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	row, ok := r.m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := row.v
	return &c, nil
}

func (r memCategories) GetBySlug(_ context.Context, slug string) (*contract.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, row := range r.m.categories {
		if row.v.Slug == slug {
			c := row.v
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r memCategories) List(_ context.Context) ([]*contract.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := sortedRows(r.m.categories, nil)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCategories) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.categories, id)
	return nil
}

type memFiles struct{ m *memoryStore }

func (r memFiles) Create(_ context.Context, f *contract.File) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f.ID = newID(f.ID)
	stamp(&f.CreatedAt)
	r.m.files[f.ID] = &memRow[contract.File]{seq: r.m.next(), v: *f}
	return nil
}

func (r memFiles) Get(_ context.Context, id string) (*contract.File, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	row, ok := r.m.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	f := row.v
	return &f, nil
}

func (r memFiles) ListByContract(_ context.Context, contractID string) ([]*contract.File, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := sortedRows(r.m.files, func(f *contract.File) bool { return f.ContractID == contractID })
	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r memFiles) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.files[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.files, id)
	return nil
}

func (r memFiles) DeleteByContract(_ context.Context, contractID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	deleteWhere(r.m.files, func(f *contract.File) bool { return f.ContractID == contractID })
	return nil
}

type memHistory struct{ m *memoryStore }

func (r memHistory) Append(_ context.Context, e *contract.StatusHistoryEntry) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e.ID = newID(e.ID)
	stamp(&e.CreatedAt)
	r.m.history[e.ID] = &memRow[contract.StatusHistoryEntry]{seq: r.m.next(), v: *e}
	return nil
}

func (r memHistory) ListByContract(_ context.Context, contractID string) ([]*contract.StatusHistoryEntry, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return sortedRows(r.m.history, func(h *contract.StatusHistoryEntry) bool { return h.ContractID == contractID }), nil
}

func (r memHistory) DeleteByContract(_ context.Context, contractID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	deleteWhere(r.m.history, func(h *contract.StatusHistoryEntry) bool { return h.ContractID == contractID })
	return nil
}
