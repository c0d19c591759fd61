package memory

import (
	"context"

	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

var _ repository.ShelterDirectory = (*Store)(nil)

// AddShelter registra (o renombra) un albergue en el directorio.
func (s *Store) AddShelter(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shelters[id] = &entity.Shelter{ID: id, Name: name}
}

// GetByID implementa repository.ShelterDirectory.
func (s *Store) GetByID(_ context.Context, id string) (*entity.Shelter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shelters[id]
	if !ok {
		return nil, nil
	}
	c := *sh
	return &c, nil
}
