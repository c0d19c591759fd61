package repository

import (
	"context"

	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// StockRepository define el puerto para consultar y actualizar filas de stock.
// Las escrituras solo ocurren dentro de TxRunner.Run, con la fila ya bloqueada.
type StockRepository interface {
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Stock, error)
	// GetByKey devuelve (nil, nil) si no existe.
	GetByKey(ctx context.Context, key entity.StockKey) (*entity.Stock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). Devuelve (nil, nil) si no existe.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.Stock, error)
	Create(ctx context.Context, stock *entity.Stock) error
	Update(ctx context.Context, stock *entity.Stock) error
	ListByLocation(ctx context.Context, loc entity.Location, filter entity.StockFilter) ([]*entity.Stock, error)
	// SummarizeByCategory agrega las filas visibles de la ubicación, ordenado por categoría.
	SummarizeByCategory(ctx context.Context, loc entity.Location) ([]entity.CategoryTotals, error)
}
