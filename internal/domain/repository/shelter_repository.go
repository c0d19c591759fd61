package repository

import (
	"context"

	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// ShelterDirectory lectura del directorio externo de albergues.
type ShelterDirectory interface {
	// GetByID devuelve (nil, nil) si el albergue no existe.
	GetByID(ctx context.Context, id string) (*entity.Shelter, error)
}
