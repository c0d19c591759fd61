package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	domaininv "github.com/jhoicas/relief-inventory/internal/domain/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

var _ repository.StockRepository = (*stockRepo)(nil)

// stockRepo con tx nil lee y escribe directo en el store; con tx lee primero lo pendiente.
type stockRepo struct {
	s  *Store
	tx *txState
}

func cloneStock(st *entity.Stock) *entity.Stock {
	if st == nil {
		return nil
	}
	c := *st
	return &c
}

func (r *stockRepo) GetByID(_ context.Context, id string) (*entity.Stock, error) {
	if r.tx != nil {
		if st, ok := r.tx.stocks[id]; ok {
			return cloneStock(st), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneStock(r.s.stocks[id]), nil
}

func (r *stockRepo) GetByKey(_ context.Context, key entity.StockKey) (*entity.Stock, error) {
	if r.tx != nil {
		for _, st := range r.tx.stocks {
			if st.Key() == key {
				return cloneStock(st), nil
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byKey[key]
	if !ok {
		return nil, nil
	}
	return cloneStock(r.s.stocks[id]), nil
}

// GetForUpdate en memoria el bloqueo ya lo tomó Store.Run.
func (r *stockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.Stock, error) {
	return r.GetByKey(ctx, key)
}

func (r *stockRepo) Create(ctx context.Context, st *entity.Stock) error {
	if st.Quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	existing, err := r.GetByKey(ctx, st.Key())
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("create stock: %w", domain.ErrDuplicateStock)
	}
	if r.tx != nil {
		r.tx.stocks[st.ID] = cloneStock(st)
		r.tx.created[st.ID] = true
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.byKey[st.Key()]; ok {
		return fmt.Errorf("create stock: %w", domain.ErrDuplicateStock)
	}
	r.s.stocks[st.ID] = cloneStock(st)
	r.s.byKey[st.Key()] = st.ID
	return nil
}

func (r *stockRepo) Update(ctx context.Context, st *entity.Stock) error {
	if st.Quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	current, err := r.GetByID(ctx, st.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("update stock %s: %w", st.ID, domain.ErrNotFound)
	}
	if current.Key() != st.Key() {
		return fmt.Errorf("update stock %s: la clave (ítem, ubicación) es inmutable: %w", st.ID, domain.ErrInvalidInput)
	}
	if r.tx != nil {
		r.tx.stocks[st.ID] = cloneStock(st)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stocks[st.ID] = cloneStock(st)
	return nil
}

// ListByLocation lee solo datos confirmados, ordenados por nombre.
func (r *stockRepo) ListByLocation(_ context.Context, loc entity.Location, filter entity.StockFilter) ([]*entity.Stock, error) {
	r.s.mu.RLock()
	var out []*entity.Stock
	for _, st := range r.s.stocks {
		if !st.Location.Equal(loc) {
			continue
		}
		if st.Hidden && !filter.IncludeHidden {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(st.Category, filter.Category) {
			continue
		}
		if filter.Status != "" && domaininv.ClassifyStock(st) != filter.Status {
			continue
		}
		out = append(out, cloneStock(st))
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemName != out[j].ItemName {
			return out[i].ItemName < out[j].ItemName
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

// SummarizeByCategory agrega las filas visibles confirmadas de la ubicación.
func (r *stockRepo) SummarizeByCategory(_ context.Context, loc entity.Location) ([]entity.CategoryTotals, error) {
	byCategory := make(map[string]*entity.CategoryTotals)
	r.s.mu.RLock()
	for _, st := range r.s.stocks {
		if !st.Location.Equal(loc) || st.Hidden {
			continue
		}
		t, ok := byCategory[st.Category]
		if !ok {
			t = &entity.CategoryTotals{Category: st.Category}
			byCategory[st.Category] = t
		}
		domaininv.Tally(t, st)
	}
	r.s.mu.RUnlock()

	out := make([]entity.CategoryTotals, 0, len(byCategory))
	for _, t := range byCategory {
		t.FillPct = domaininv.FillPct(t.Sufficient, t.Items)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
