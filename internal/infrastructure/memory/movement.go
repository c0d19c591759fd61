package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

var _ repository.MovementRepository = (*movementRepo)(nil)

type movementRepo struct {
	s  *Store
	tx *txState
}

func cloneMovement(m *entity.Movement) *entity.Movement {
	c := *m
	if m.From != nil {
		from := *m.From
		c.From = &from
	}
	if m.To != nil {
		to := *m.To
		c.To = &to
	}
	return &c
}

// Create agrega al log. No hay Update ni Delete.
func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	if m.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, cloneMovement(m))
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, cloneMovement(m))
	return nil
}

// List filtra datos confirmados, más reciente primero (id como desempate).
func (r *movementRepo) List(_ context.Context, filter entity.MovementFilter) ([]*entity.Movement, error) {
	var locStocks map[string]bool
	r.s.mu.RLock()
	if filter.Location != nil {
		locStocks = make(map[string]bool)
		for id, st := range r.s.stocks {
			if st.Location.Equal(*filter.Location) {
				locStocks[id] = true
			}
		}
	}
	var out []*entity.Movement
	for _, m := range r.s.movements {
		if filter.StockID != "" && m.StockID != filter.StockID {
			continue
		}
		if locStocks != nil && !locStocks[m.StockID] {
			continue
		}
		if len(filter.Types) > 0 && !slices.Contains(filter.Types, m.Type) {
			continue
		}
		if filter.From != nil && m.PerformedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.PerformedAt.After(*filter.To) {
			continue
		}
		if filter.Before != nil && !filter.Before.After(m) {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].PerformedAt.Equal(out[j].PerformedAt) {
			return out[i].PerformedAt.After(out[j].PerformedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}
