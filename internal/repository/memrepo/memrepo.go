// Package memrepo holds in-memory repositories with the same semantics as the
// postgres ones. Tests use them in place of a database.
package memrepo

import (
	"context"
	"fmt"
	"sync"

	"country-service/internal/domain"
	"country-service/internal/query"
	xerrors "country-service/pkg/xerrors"
)

// Countries stores copies so callers can never mutate stored state by accident.
type Countries struct {
	mu   sync.RWMutex
	byID map[string]domain.Country

	// Injected failures.
	FindAllErr error
	UpsertErr  error
	CountErr   error
	TopErr     error

	Upserts int
}

func NewCountries(seed ...domain.Country) *Countries {
	r := &Countries{byID: make(map[string]domain.Country)}
	for _, c := range seed {
		r.byID[c.ID] = c
	}
	return r
}

func (r *Countries) all() []*domain.Country {
	out := make([]*domain.Country, 0, len(r.byID))
	for _, c := range r.byID {
		cp := c
		out = append(out, &cp)
	}
	return out
}

func (r *Countries) FindAll(_ context.Context) ([]*domain.Country, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.FindAllErr != nil {
		return nil, r.FindAllErr
	}
	return query.Spec{Order: &query.Order{Field: query.FieldName}}.Apply(r.all()), nil
}

func (r *Countries) Find(_ context.Context, spec query.Spec) ([]*domain.Country, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.FindAllErr != nil {
		return nil, r.FindAllErr
	}
	return spec.Apply(r.all()), nil
}

func (r *Countries) FindByName(_ context.Context, name string) (*domain.Country, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := domain.NameKey(name)
	for _, c := range r.byID {
		if domain.NameKey(c.Name) == key {
			cp := c
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

// UpsertAll is all-or-nothing and rejects a second record with the same lower-cased name.
func (r *Countries) UpsertAll(_ context.Context, countries []*domain.Country) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpsertErr != nil {
		return r.UpsertErr
	}

	next := make(map[string]domain.Country, len(r.byID)+len(countries))
	for id, c := range r.byID {
		next[id] = c
	}
	for _, c := range countries {
		next[c.ID] = *c
	}

	owner := make(map[string]string, len(next))
	for id, c := range next {
		key := domain.NameKey(c.Name)
		if other, ok := owner[key]; ok {
			return fmt.Errorf("duplicate name %q for %s and %s", c.Name, other, id)
		}
		owner[key] = id
	}

	r.byID = next
	r.Upserts++
	return nil
}

func (r *Countries) DeleteByName(_ context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.byID {
		if c.Name == name {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *Countries) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.CountErr != nil {
		return 0, r.CountErr
	}
	return int64(len(r.byID)), nil
}

func (r *Countries) TopByEstimatedGDP(_ context.Context, n int) ([]domain.CountryGDP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.TopErr != nil {
		return nil, r.TopErr
	}

	ranked := query.Spec{Order: &query.Order{Field: query.FieldEstimatedGDP, Desc: true}}.Apply(r.all())
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]domain.CountryGDP, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, domain.CountryGDP{Name: c.Name, EstimatedGDP: c.EstimatedGDP})
	}
	return out, nil
}

// Metadata is a key-value map.
type Metadata struct {
	mu     sync.Mutex
	values map[string]string

	GetErr error
	SetErr error
}

func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]string)}
}

func (m *Metadata) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Metadata) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.values[key] = value
	return nil
}
