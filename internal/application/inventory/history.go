package inventory

import (
	"context"
	"fmt"
	"iter"

	"github.com/rs/zerolog"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// streamPageSize tamaño de página con el que Stream recorre el log.
const streamPageSize = 200

// HistoryUseCase lecturas del log de movimientos.
type HistoryUseCase struct {
	txRunner  TxRunner
	stockRepo repository.StockRepository
	movRepo   repository.MovementRepository
	log       zerolog.Logger
}

// NewHistoryUseCase construye el caso de uso.
func NewHistoryUseCase(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	log zerolog.Logger,
) *HistoryUseCase {
	return &HistoryUseCase{txRunner: txRunner, stockRepo: stockRepo, movRepo: movRepo, log: log}
}

// Query devuelve una página del historial, más reciente primero.
func (uc *HistoryUseCase) Query(ctx context.Context, filter entity.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("rango de fechas: %w", domain.ErrInvalidInput)
	}
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	list, err := uc.movRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, ToMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Stream recorre todos los movimientos que cumplen el filtro, página a página.
// Ante un error lo entrega como último elemento y termina.
func (uc *HistoryUseCase) Stream(ctx context.Context, filter entity.MovementFilter) iter.Seq2[*entity.Movement, error] {
	return streamMovements(ctx, uc.movRepo, filter)
}

// streamMovements pagina por cursor (performed_at, id) desde el último movimiento entregado.
// Lo escrito durante el recorrido es más reciente que el cursor y no aparece; nada se repite.
// Limit, Offset y Before del filtro se ignoran.
func streamMovements(ctx context.Context, repo repository.MovementRepository, filter entity.MovementFilter) iter.Seq2[*entity.Movement, error] {
	return func(yield func(*entity.Movement, error) bool) {
		f := filter
		f.Limit = streamPageSize
		f.Offset = 0
		f.Before = nil
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page, err := repo.List(ctx, f)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < f.Limit {
				return
			}
			f.Before = entity.CursorOf(page[len(page)-1])
		}
	}
}

// Reconcile suma los movimientos de una fila y compara con el saldo guardado.
// Saldo y suma se leen con la fila bloqueada, así ninguna escritura queda a medias.
func (uc *HistoryUseCase) Reconcile(ctx context.Context, stockID string) (*dto.ReconcileResponse, error) {
	current, err := uc.stockRepo.GetByID(ctx, stockID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("stock %s: %w", stockID, domain.ErrNotFound)
	}

	var out *dto.ReconcileResponse
	err = uc.txRunner.Run(ctx, []entity.LockKey{current.Key().LockKey()}, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		_ repository.RequestRepository,
	) error {
		stock, err := stockRepo.GetByID(ctx, stockID)
		if err != nil {
			return err
		}
		if stock == nil {
			return fmt.Errorf("stock %s: %w", stockID, domain.ErrNotFound)
		}
		var sum int64
		var count int
		for m, err := range streamMovements(ctx, movRepo, entity.MovementFilter{StockID: stockID}) {
			if err != nil {
				return err
			}
			sum += m.Signed()
			count++
		}
		out = &dto.ReconcileResponse{
			StockID:    stock.ID,
			Quantity:   stock.Quantity,
			LedgerSum:  sum,
			Movements:  count,
			Consistent: sum == stock.Quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !out.Consistent {
		uc.log.Error().
			Str("stock_id", out.StockID).
			Int64("quantity", out.Quantity).
			Int64("ledger_sum", out.LedgerSum).
			Msg("saldo no coincide con el log de movimientos")
	}
	return out, nil
}
