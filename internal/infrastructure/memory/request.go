package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

var _ repository.RequestRepository = (*requestRepo)(nil)

type requestRepo struct {
	s  *Store
	tx *txState
}

func cloneRequest(r *entity.Request) *entity.Request {
	if r == nil {
		return nil
	}
	c := *r
	c.Items = append([]entity.RequestItem(nil), r.Items...)
	if r.ReviewedAt != nil {
		at := *r.ReviewedAt
		c.ReviewedAt = &at
	}
	return &c
}

func (r *requestRepo) Create(_ context.Context, req *entity.Request) error {
	if r.tx != nil {
		r.tx.requests[req.ID] = cloneRequest(req)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[req.ID]; ok {
		return fmt.Errorf("create request %s: %w", req.ID, domain.ErrInvalidInput)
	}
	r.s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *requestRepo) GetByID(_ context.Context, id string) (*entity.Request, error) {
	if r.tx != nil {
		if req, ok := r.tx.requests[id]; ok {
			return cloneRequest(req), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneRequest(r.s.requests[id]), nil
}

// GetForUpdate en memoria el bloqueo ya lo tomó Store.Run.
func (r *requestRepo) GetForUpdate(ctx context.Context, id string) (*entity.Request, error) {
	return r.GetByID(ctx, id)
}

func (r *requestRepo) UpdateReview(ctx context.Context, req *entity.Request) error {
	current, err := r.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("update request %s: %w", req.ID, domain.ErrNotFound)
	}
	current.Status = req.Status
	current.ReviewedBy = req.ReviewedBy
	current.ReviewedAt = req.ReviewedAt
	current.AdminNotes = req.AdminNotes
	current.UpdatedAt = req.UpdatedAt
	if r.tx != nil {
		r.tx.requests[req.ID] = cloneRequest(current)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.requests[req.ID] = cloneRequest(current)
	return nil
}

// List datos confirmados, más recientes primero.
func (r *requestRepo) List(_ context.Context, filter entity.RequestFilter) ([]*entity.Request, error) {
	r.s.mu.RLock()
	var out []*entity.Request
	for _, req := range r.s.requests {
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.ShelterID != "" && req.ShelterID != filter.ShelterID {
			continue
		}
		if filter.Urgency != "" && req.Urgency != filter.Urgency {
			continue
		}
		out = append(out, cloneRequest(req))
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RequestNumber > out[j].RequestNumber
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

// NextNumber consume el contador del día al momento, como una secuencia: un rollback deja hueco.
func (r *requestRepo) NextNumber(_ context.Context, now time.Time) (string, error) {
	day := now.UTC().Format("20060102")
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.daySeq[day]++
	return fmt.Sprintf("REQ-%s-%06d", day, r.s.daySeq[day]), nil
}
