package repository

import (
	"context"

	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// MovementRepository puerto del log de movimientos: solo inserción y lectura.
// No existe Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	// List ordena por performed_at DESC (id como desempate) y pagina por offset.
	List(ctx context.Context, filter entity.MovementFilter) ([]*entity.Movement, error)
}
