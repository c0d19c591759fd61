package repository

import (
	"context"
	"time"

	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// RequestRepository puerto de persistencia de solicitudes.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, id string) (*entity.Request, error)
	// GetForUpdate bloquea la fila de la solicitud dentro de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Request, error)
	// UpdateReview persiste status, reviewed_by, reviewed_at y admin_notes.
	UpdateReview(ctx context.Context, req *entity.Request) error
	List(ctx context.Context, filter entity.RequestFilter) ([]*entity.Request, error)
	// NextNumber genera un número legible y único (REQ-YYYYMMDD-NNNNNN).
	NextNumber(ctx context.Context, now time.Time) (string, error)
}
