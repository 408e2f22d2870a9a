package contracts

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/contractmanage/pkg/models"
)

// Op names a mutating store operation, used by the fault hook.
type Op string

const (
	OpInsertContract       Op = "insert_contract"
	OpDeleteContract       Op = "delete_contract"
	OpInsertElement        Op = "insert_element"
	OpUpdateElement        Op = "update_element"
	OpDeleteElement        Op = "delete_element"
	OpDeleteElements       Op = "delete_elements"
	OpInsertClause         Op = "insert_clause"
	OpInsertTemplateConfig Op = "insert_template_config"
)

// MemoryStore is a threadsafe in-memory Store. It backs `serve --memory` and
// the service tests.
//
// A transaction holds the write lock for its whole duration and works on a
// copy of the state which replaces the live state only on commit.
type MemoryStore struct {
	mu    sync.RWMutex
	st    *memState
	fault func(op Op) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{st: newMemState()}
}

// SetFault installs a hook consulted before every mutating operation; a
// non-nil return fails that operation. Pass nil to clear it.
func (s *MemoryStore) SetFault(fn func(op Op) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fn
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(memQueries{st: work, fault: s.fault}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *MemoryStore) write() (memQueries, func()) {
	s.mu.Lock()
	return memQueries{st: s.st, fault: s.fault}, s.mu.Unlock
}

func (s *MemoryStore) read() (memQueries, func()) {
	s.mu.RLock()
	return memQueries{st: s.st}, s.mu.RUnlock
}

func (s *MemoryStore) InsertContract(ctx context.Context, c *models.Contract) error {
	q, done := s.write()
	defer done()
	return q.InsertContract(ctx, c)
}

func (s *MemoryStore) GetContract(ctx context.Context, id int64) (*models.Contract, error) {
	q, done := s.read()
	defer done()
	return q.GetContract(ctx, id)
}

func (s *MemoryStore) DeleteContract(ctx context.Context, id int64) error {
	q, done := s.write()
	defer done()
	return q.DeleteContract(ctx, id)
}

func (s *MemoryStore) InsertElement(ctx context.Context, e *models.ContractElement) error {
	q, done := s.write()
	defer done()
	return q.InsertElement(ctx, e)
}

func (s *MemoryStore) GetElement(ctx context.Context, id int64) (*models.ContractElement, error) {
	q, done := s.read()
	defer done()
	return q.GetElement(ctx, id)
}

func (s *MemoryStore) UpdateElement(ctx context.Context, e *models.ContractElement) error {
	q, done := s.write()
	defer done()
	return q.UpdateElement(ctx, e)
}

func (s *MemoryStore) DeleteElement(ctx context.Context, id int64) error {
	q, done := s.write()
	defer done()
	return q.DeleteElement(ctx, id)
}

func (s *MemoryStore) ListElements(ctx context.Context, f ElementFilter) ([]models.ContractElement, error) {
	q, done := s.read()
	defer done()
	return q.ListElements(ctx, f)
}

func (s *MemoryStore) DeleteElements(ctx context.Context, f ElementFilter) (int64, error) {
	q, done := s.write()
	defer done()
	return q.DeleteElements(ctx, f)
}

func (s *MemoryStore) InsertClause(ctx context.Context, c *models.Clause) error {
	q, done := s.write()
	defer done()
	return q.InsertClause(ctx, c)
}

func (s *MemoryStore) GetClause(ctx context.Context, id int64) (*models.Clause, error) {
	q, done := s.read()
	defer done()
	return q.GetClause(ctx, id)
}

func (s *MemoryStore) ListClauses(ctx context.Context, f ClauseFilter) ([]models.Clause, error) {
	q, done := s.read()
	defer done()
	return q.ListClauses(ctx, f)
}

func (s *MemoryStore) InsertTemplateConfig(ctx context.Context, c *models.TemplateElementConfig) error {
	q, done := s.write()
	defer done()
	return q.InsertTemplateConfig(ctx, c)
}

func (s *MemoryStore) ListTemplateConfigs(ctx context.Context, templateID int64) ([]models.TemplateElementConfig, error) {
	q, done := s.read()
	defer done()
	return q.ListTemplateConfigs(ctx, templateID)
}

type memState struct {
	contracts map[int64]models.Contract
	elements  map[int64]models.ContractElement
	clauses   map[int64]models.Clause
	configs   map[int64]models.TemplateElementConfig

	lastContract int64
	lastElement  int64
	lastClause   int64
	lastConfig   int64
}

func newMemState() *memState {
	return &memState{
		contracts: make(map[int64]models.Contract),
		elements:  make(map[int64]models.ContractElement),
		clauses:   make(map[int64]models.Clause),
		configs:   make(map[int64]models.TemplateElementConfig),
	}
}

// clone copies the maps. Element pointers are shared: stored values are
// replaced on update, never mutated in place.
func (st *memState) clone() *memState {
	cp := *st
	cp.contracts = maps.Clone(st.contracts)
	cp.elements = maps.Clone(st.elements)
	cp.clauses = maps.Clone(st.clauses)
	cp.configs = maps.Clone(st.configs)
	return &cp
}

// memQueries operates on a state without locking; callers hold the lock.
type memQueries struct {
	st    *memState
	fault func(op Op) error
}

func (q memQueries) check(op Op) error {
	if q.fault == nil {
		return nil
	}
	return q.fault(op)
}

func (q memQueries) InsertContract(ctx context.Context, c *models.Contract) error {
	if err := q.check(OpInsertContract); err != nil {
		return err
	}
	q.st.lastContract++
	c.ContractID = q.st.lastContract
	q.st.contracts[c.ContractID] = *c
	return nil
}

func (q memQueries) GetContract(ctx context.Context, id int64) (*models.Contract, error) {
	c, ok := q.st.contracts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (q memQueries) DeleteContract(ctx context.Context, id int64) error {
	if err := q.check(OpDeleteContract); err != nil {
		return err
	}
	if _, ok := q.st.contracts[id]; !ok {
		return ErrNotFound
	}
	delete(q.st.contracts, id)
	return nil
}

func (q memQueries) InsertElement(ctx context.Context, e *models.ContractElement) error {
	if err := q.check(OpInsertElement); err != nil {
		return err
	}
	q.st.lastElement++
	e.ElementID = q.st.lastElement
	q.st.elements[e.ElementID] = e.Clone()
	return nil
}

func (q memQueries) GetElement(ctx context.Context, id int64) (*models.ContractElement, error) {
	e, ok := q.st.elements[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := e.Clone()
	return &cp, nil
}

func (q memQueries) UpdateElement(ctx context.Context, e *models.ContractElement) error {
	if err := q.check(OpUpdateElement); err != nil {
		return err
	}
	if _, ok := q.st.elements[e.ElementID]; !ok {
		return ErrNotFound
	}
	q.st.elements[e.ElementID] = e.Clone()
	return nil
}

func (q memQueries) DeleteElement(ctx context.Context, id int64) error {
	if err := q.check(OpDeleteElement); err != nil {
		return err
	}
	if _, ok := q.st.elements[id]; !ok {
		return ErrNotFound
	}
	delete(q.st.elements, id)
	return nil
}

func (f ElementFilter) match(e models.ContractElement) bool {
	if f.ContractID != 0 && e.ContractID != f.ContractID {
		return false
	}
	if f.ElementType != "" && e.ElementType != f.ElementType {
		return false
	}
	return true
}

func (q memQueries) ListElements(ctx context.Context, f ElementFilter) ([]models.ContractElement, error) {
	out := make([]models.ContractElement, 0)
	for _, e := range q.st.elements {
		if f.match(e) {
			out = append(out, e.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.ContractElement) int {
		return cmp.Or(cmp.Compare(a.OrderIndex, b.OrderIndex), cmp.Compare(a.ElementID, b.ElementID))
	})
	return out, nil
}

func (q memQueries) DeleteElements(ctx context.Context, f ElementFilter) (int64, error) {
	if err := q.check(OpDeleteElements); err != nil {
		return 0, err
	}
	var n int64
	for id, e := range q.st.elements {
		if f.match(e) {
			delete(q.st.elements, id)
			n++
		}
	}
	return n, nil
}

func (q memQueries) InsertClause(ctx context.Context, c *models.Clause) error {
	if err := q.check(OpInsertClause); err != nil {
		return err
	}
	if _, taken := q.st.clauses[c.ClauseID]; taken {
		return fmt.Errorf("clause %d: %w", c.ClauseID, ErrDuplicateID)
	}
	if c.ClauseID == 0 {
		q.st.lastClause++
		c.ClauseID = q.st.lastClause
	} else if c.ClauseID > q.st.lastClause {
		q.st.lastClause = c.ClauseID
	}
	q.st.clauses[c.ClauseID] = *c
	return nil
}

func (q memQueries) GetClause(ctx context.Context, id int64) (*models.Clause, error) {
	c, ok := q.st.clauses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (q memQueries) ListClauses(ctx context.Context, f ClauseFilter) ([]models.Clause, error) {
	needle := strings.ToLower(f.TitleContains)
	out := make([]models.Clause, 0)
	for _, c := range q.st.clauses {
		if needle != "" && !strings.Contains(strings.ToLower(c.Title), needle) {
			continue
		}
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b models.Clause) int { return cmp.Compare(a.ClauseID, b.ClauseID) })
	return out, nil
}

func (q memQueries) InsertTemplateConfig(ctx context.Context, c *models.TemplateElementConfig) error {
	if err := q.check(OpInsertTemplateConfig); err != nil {
		return err
	}
	if _, taken := q.st.configs[c.ConfigID]; taken {
		return fmt.Errorf("template config %d: %w", c.ConfigID, ErrDuplicateID)
	}
	if c.ConfigID == 0 {
		q.st.lastConfig++
		c.ConfigID = q.st.lastConfig
	} else if c.ConfigID > q.st.lastConfig {
		q.st.lastConfig = c.ConfigID
	}
	q.st.configs[c.ConfigID] = *c
	return nil
}

func (q memQueries) ListTemplateConfigs(ctx context.Context, templateID int64) ([]models.TemplateElementConfig, error) {
	out := make([]models.TemplateElementConfig, 0)
	for _, c := range q.st.configs {
		if c.TemplateID == templateID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b models.TemplateElementConfig) int { return cmp.Compare(a.ConfigID, b.ConfigID) })
	return out, nil
}
