package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// idealFactor stock ideal = mínimo * 1.5
var idealFactor = decimal.NewFromFloat(1.5)

// ReplenishmentUseCase genera la lista de reposición de una ubicación.
// Para albergues incluye el saldo provincial del mismo ítem (de dónde saldría el envío).
type ReplenishmentUseCase struct {
	stockRepo repository.StockRepository
	locations *Locations
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(stockRepo repository.StockRepository, locations *Locations) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{stockRepo: stockRepo, locations: locations}
}

// List devuelve las filas en low, critical u outOfStock con la cantidad sugerida
// y un ranking de prioridad (1 = más urgente).
func (uc *ReplenishmentUseCase) List(ctx context.Context, loc entity.Location) ([]dto.ReplenishmentSuggestionDTO, error) {
	if _, err := uc.locations.Resolve(ctx, loc); err != nil {
		return nil, err
	}

	// 1. Todo el stock visible de la ubicación
	rows, err := listAll(ctx, uc.stockRepo, loc, entity.StockFilter{})
	if err != nil {
		return nil, err
	}

	// 2. Filas bajo su mínimo con la cantidad sugerida
	provincial := uc.locations.Provincial()
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0)
	for _, s := range rows {
		status := inventory.ClassifyStock(s)
		if status == entity.StockSufficient {
			continue
		}
		ideal := decimal.NewFromInt(s.MinStockLevel).Mul(idealFactor)
		suggested := ideal.Ceil().Sub(decimal.NewFromInt(s.Quantity))
		if suggested.LessThan(decimal.Zero) {
			suggested = decimal.Zero
		}

		item := dto.ReplenishmentSuggestionDTO{
			StockID:           s.ID,
			ItemName:          s.ItemName,
			Category:          s.Category,
			Unit:              s.Unit,
			Status:            string(status),
			CurrentStock:      s.Quantity,
			MinStockLevel:     s.MinStockLevel,
			CriticalLevel:     s.CriticalLevel,
			IdealStock:        ideal,
			SuggestedOrderQty: suggested.IntPart(),
		}
		if !loc.Equal(provincial) {
			src, err := uc.stockRepo.GetByKey(ctx, entity.StockKey{Location: provincial, ItemKey: s.ItemKey})
			if err != nil {
				return nil, err
			}
			if src != nil {
				q := src.Quantity
				item.ProvincialStock = &q
			}
		}
		suggestions = append(suggestions, item)
	}

	// 3. Ordenar: estado más grave primero, luego mayor déficit bajo el mínimo, luego nombre
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		sa, sb := inventory.Severity(entity.StockStatus(a.Status)), inventory.Severity(entity.StockStatus(b.Status))
		if sa != sb {
			return sa < sb
		}
		defA := a.MinStockLevel - a.CurrentStock
		defB := b.MinStockLevel - b.CurrentStock
		if defA != defB {
			return defA > defB
		}
		return a.ItemName < b.ItemName
	})

	// 4. Asignar prioridad
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

// listAll recorre ListByLocation página a página.
func listAll(ctx context.Context, repo repository.StockRepository, loc entity.Location, filter entity.StockFilter) ([]*entity.Stock, error) {
	const pageSize = 100
	filter.Limit = pageSize
	filter.Offset = 0
	var out []*entity.Stock
	for {
		page, err := repo.ListByLocation(ctx, loc, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
		filter.Offset += len(page)
	}
}
