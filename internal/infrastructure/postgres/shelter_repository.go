package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

var _ repository.ShelterDirectory = (*ShelterRepo)(nil)

// ShelterRepo directorio de albergues (tabla shelters, alimentada por el sistema de catálogo).
type ShelterRepo struct {
	q Querier
}

// NewShelterRepository construye el adaptador.
func NewShelterRepository(q Querier) *ShelterRepo {
	return &ShelterRepo{q: q}
}

// GetByID devuelve (nil, nil) si el albergue no existe.
func (r *ShelterRepo) GetByID(ctx context.Context, id string) (*entity.Shelter, error) {
	var s entity.Shelter
	err := r.q.QueryRow(ctx, `SELECT id, name FROM shelters WHERE id = $1`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shelter: %w", err)
	}
	return &s, nil
}

// Upsert registra o renombra un albergue (semilla desde configuración).
func (r *ShelterRepo) Upsert(ctx context.Context, s *entity.Shelter) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO shelters (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, s.ID, s.Name)
	if err != nil {
		return fmt.Errorf("upsert shelter: %w", err)
	}
	return nil
}
