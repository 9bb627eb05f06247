// Package memory is an in-process customer repository for local runs, the
// offline CLI and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ignite/loyalty-crm/internal/domain"
	"github.com/ignite/loyalty-crm/internal/service/loyalty"
)

// CustomerRepo implements loyalty.Repository in memory. Records are deep
// copied on the way in and out.
type CustomerRepo struct {
	mu    sync.RWMutex
	items map[string]domain.CustomerRecord
}

// NewCustomerRepo creates an empty repository.
func NewCustomerRepo() *CustomerRepo {
	return &CustomerRepo{items: make(map[string]domain.CustomerRecord)}
}

func (r *CustomerRepo) Get(_ context.Context, uid string) (*domain.CustomerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.items[uid]
	if !ok {
		return nil, loyalty.ErrNotFound
	}
	out := clone(rec)
	return &out, nil
}

func (r *CustomerRepo) Set(_ context.Context, rec *domain.CustomerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rec.UID] = clone(*rec)
	return nil
}

func (r *CustomerRepo) Update(_ context.Context, uid string, u domain.CustomerUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.items[uid]
	if !ok {
		return loyalty.ErrNotFound
	}
	u.Apply(&rec)
	r.items[uid] = rec
	return nil
}

func (r *CustomerRepo) AppendPurchase(_ context.Context, uid string, p domain.PurchaseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.items[uid]
	if !ok {
		return loyalty.ErrNotFound
	}
	for _, h := range rec.PurchaseHistory {
		if p.ID != "" && h.ID == p.ID {
			return nil
		}
	}
	rec.Purchases++
	rec.TotalSpent += p.Amount
	rec.LastActivity = p.Timestamp
	rec.PurchaseHistory = append(append([]domain.PurchaseRecord(nil), rec.PurchaseHistory...), p)
	r.items[uid] = rec
	return nil
}

func (r *CustomerRepo) List(_ context.Context, f loyalty.ListFilter) ([]domain.CustomerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.items))
	for id, rec := range r.items {
		if f.Category != "" && rec.Category != f.Category {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if f.Offset > 0 {
		if f.Offset >= len(ids) {
			ids = nil
		} else {
			ids = ids[f.Offset:]
		}
	}
	if f.Limit > 0 && len(ids) > f.Limit {
		ids = ids[:f.Limit]
	}

	out := make([]domain.CustomerRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(r.items[id]))
	}
	return out, nil
}

func clone(rec domain.CustomerRecord) domain.CustomerRecord {
	rec.PurchaseHistory = append([]domain.PurchaseRecord(nil), rec.PurchaseHistory...)
	if rec.AIOffer != nil {
		o := *rec.AIOffer
		rec.AIOffer = &o
	}
	if rec.ChurnRisk != nil {
		c := rec.ChurnRisk.Clone()
		rec.ChurnRisk = &c
	}
	return rec
}
