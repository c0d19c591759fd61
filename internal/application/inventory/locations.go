package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// Locations valida ubicaciones y resuelve su nombre para denormalizarlo en los movimientos.
type Locations struct {
	provincialID   string
	provincialName string
	shelters       repository.ShelterDirectory
}

// NewLocations construye el resolvedor. shelters puede ser nil: en ese caso cualquier
// id de albergue es aceptado y se usa el propio id como nombre.
func NewLocations(cfg LedgerConfig, shelters repository.ShelterDirectory) *Locations {
	name := cfg.ProvincialName
	if name == "" {
		name = cfg.ProvincialID
	}
	return &Locations{provincialID: cfg.ProvincialID, provincialName: name, shelters: shelters}
}

// Provincial devuelve la ubicación de la bodega provincial.
func (l *Locations) Provincial() entity.Location {
	return entity.Location{Type: entity.LocationProvincial, ID: l.provincialID}
}

// Shelter devuelve la ubicación de un albergue.
func (l *Locations) Shelter(id string) entity.Location {
	return entity.Location{Type: entity.LocationShelter, ID: id}
}

// Resolve verifica que la ubicación exista y devuelve su endpoint.
func (l *Locations) Resolve(ctx context.Context, loc entity.Location) (entity.Endpoint, error) {
	if !loc.Valid() {
		return entity.Endpoint{}, domain.ErrInvalidInput
	}
	switch loc.Type {
	case entity.LocationProvincial:
		if loc.ID != l.provincialID {
			return entity.Endpoint{}, fmt.Errorf("bodega provincial %q: %w", loc.ID, domain.ErrNotFound)
		}
		return entity.Endpoint{Type: loc.Type, Name: l.provincialName}, nil
	default:
		if l.shelters == nil {
			return entity.Endpoint{Type: loc.Type, Name: loc.ID}, nil
		}
		sh, err := l.shelters.GetByID(ctx, loc.ID)
		if err != nil {
			return entity.Endpoint{}, err
		}
		if sh == nil {
			return entity.Endpoint{}, fmt.Errorf("albergue %q: %w", loc.ID, domain.ErrNotFound)
		}
		return entity.Endpoint{Type: loc.Type, Name: sh.Name}, nil
	}
}
