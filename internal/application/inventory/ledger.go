package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// LedgerUseCase administra las filas de stock: alta, ajuste directo, umbrales y lecturas.
type LedgerUseCase struct {
	txRunner  TxRunner
	stockRepo repository.StockRepository
	locations *Locations
	recorder  Recorder
	log       zerolog.Logger
	now       func() time.Time
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	locations *Locations,
	recorder Recorder,
	log zerolog.Logger,
) *LedgerUseCase {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &LedgerUseCase{
		txRunner:  txRunner,
		stockRepo: stockRepo,
		locations: locations,
		recorder:  recorder,
		log:       log,
		now:       time.Now,
	}
}

// Initialize crea la fila de stock de un ítem en una ubicación. Si la cantidad inicial es
// mayor que cero escribe un movimiento receive en la misma transacción.
func (uc *LedgerUseCase) Initialize(ctx context.Context, userID string, in dto.InitializeStockRequest) (*dto.StockMutationResponse, error) {
	key := inventory.ItemKey(in.ItemName)
	if key == "" {
		return nil, uc.fail("initialize", domain.ErrInvalidInput)
	}
	if in.InitialQuantity < 0 {
		return nil, uc.fail("initialize", domain.ErrInvalidQuantity)
	}
	if !inventory.ValidThresholds(in.MinStockLevel, in.CriticalLevel) {
		return nil, uc.fail("initialize", domain.ErrInvalidThresholds)
	}
	loc := ToLocation(in.Location)
	locEP, err := uc.locations.Resolve(ctx, loc)
	if err != nil {
		return nil, uc.fail("initialize", err)
	}
	now := uc.now()
	stockKey := entity.StockKey{Location: loc, ItemKey: key}

	stock := &entity.Stock{
		ID:            uuid.New().String(),
		ItemID:        in.ItemID,
		ItemKey:       key,
		ItemName:      inventory.CleanName(in.ItemName),
		Category:      in.Category,
		Unit:          in.Unit,
		Location:      loc,
		Quantity:      in.InitialQuantity,
		MinStockLevel: in.MinStockLevel,
		CriticalLevel: in.CriticalLevel,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	var mov *entity.Movement
	err = uc.txRunner.Run(ctx, []entity.LockKey{stockKey.LockKey()}, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		_ repository.RequestRepository,
	) error {
		existing, err := stockRepo.GetForUpdate(ctx, stockKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%q en %s: %w", existing.ItemName, loc, domain.ErrDuplicateStock)
		}
		if err := stockRepo.Create(ctx, stock); err != nil {
			return err
		}
		if stock.Quantity == 0 {
			return nil
		}
		to := locEP
		mov = &entity.Movement{
			ID:            uuid.New().String(),
			TransactionID: uuid.New().String(),
			Type:          entity.MovementReceive,
			Direction:     entity.DirectionIn,
			StockID:       stock.ID,
			ItemName:      stock.ItemName,
			Quantity:      stock.Quantity,
			Unit:          stock.Unit,
			From:          externalEndpoint(entity.EndpointSupplier, in.Supplier),
			To:            &to,
			PerformedBy:   userID,
			PerformedAt:   now,
			ReferenceID:   in.ReferenceID,
			Notes:         in.Notes,
		}
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		return nil, uc.fail("initialize", err)
	}

	if mov != nil {
		uc.recorder.MovementRecorded(entity.MovementReceive, mov.Quantity)
	}
	uc.log.Info().
		Str("stock_id", stock.ID).
		Str("item", stock.ItemName).
		Str("location", loc.String()).
		Int64("quantity", stock.Quantity).
		Str("performed_by", userID).
		Msg("stock inicializado")
	return &dto.StockMutationResponse{Stock: ToStockResponse(stock), Movement: movementPtr(mov)}, nil
}

// AdjustTo fija el saldo a NewQuantity (correcciones de conteo). Escribe un movimiento adjust
// con el delta; si el delta es cero no escribe nada.
func (uc *LedgerUseCase) AdjustTo(ctx context.Context, userID string, in dto.AdjustRequest) (*dto.StockMutationResponse, error) {
	if in.NewQuantity < 0 {
		return nil, uc.fail("adjust", domain.ErrInvalidQuantity)
	}
	current, err := uc.mustGet(ctx, in.StockID)
	if err != nil {
		return nil, uc.fail("adjust", err)
	}
	locEP, err := uc.locations.Resolve(ctx, current.Location)
	if err != nil {
		return nil, uc.fail("adjust", err)
	}
	now := uc.now()

	var stock *entity.Stock
	var mov *entity.Movement
	err = uc.txRunner.Run(ctx, []entity.LockKey{current.Key().LockKey()}, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		_ repository.RequestRepository,
	) error {
		s, err := stockRepo.GetForUpdate(ctx, current.Key())
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("stock %s: %w", in.StockID, domain.ErrNotFound)
		}
		delta := in.NewQuantity - s.Quantity
		stock = s
		if delta == 0 {
			return nil
		}
		s.Quantity = in.NewQuantity
		s.UpdatedAt = now
		if err := stockRepo.Update(ctx, s); err != nil {
			return err
		}
		ep := locEP
		mov = &entity.Movement{
			ID:            uuid.New().String(),
			TransactionID: uuid.New().String(),
			Type:          entity.MovementAdjust,
			Direction:     entity.DirectionIn,
			StockID:       s.ID,
			ItemName:      s.ItemName,
			Quantity:      delta,
			Unit:          s.Unit,
			To:            &ep,
			PerformedBy:   userID,
			PerformedAt:   now,
			Notes:         in.Reason,
		}
		if delta < 0 {
			mov.Direction = entity.DirectionOut
			mov.Quantity = -delta
			mov.From, mov.To = &ep, nil
		}
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		return nil, uc.fail("adjust", err)
	}

	if mov != nil {
		uc.recorder.MovementRecorded(entity.MovementAdjust, mov.Quantity)
		uc.log.Info().
			Str("stock_id", stock.ID).
			Int64("delta", mov.Signed()).
			Int64("quantity", stock.Quantity).
			Str("reason", in.Reason).
			Str("performed_by", userID).
			Msg("saldo ajustado")
	}
	return &dto.StockMutationResponse{Stock: ToStockResponse(stock), Movement: movementPtr(mov)}, nil
}

// UpdateThresholds cambia los niveles mínimo y crítico de una fila.
func (uc *LedgerUseCase) UpdateThresholds(ctx context.Context, stockID string, in dto.UpdateThresholdsRequest) (*dto.StockResponse, error) {
	if !inventory.ValidThresholds(in.MinStockLevel, in.CriticalLevel) {
		return nil, uc.fail("thresholds", domain.ErrInvalidThresholds)
	}
	return uc.mutate(ctx, "thresholds", stockID, func(s *entity.Stock) error {
		s.MinStockLevel = in.MinStockLevel
		s.CriticalLevel = in.CriticalLevel
		return nil
	})
}

// Hide oculta una fila agotada de los listados. Una recepción o traslado entrante la vuelve visible.
func (uc *LedgerUseCase) Hide(ctx context.Context, stockID string) (*dto.StockResponse, error) {
	return uc.mutate(ctx, "hide", stockID, func(s *entity.Stock) error {
		if s.Quantity != 0 {
			return fmt.Errorf("solo se puede ocultar stock en cero (saldo %d): %w", s.Quantity, domain.ErrInvalidInput)
		}
		s.Hidden = true
		return nil
	})
}

// Get devuelve la vista de una fila con su estado actual.
func (uc *LedgerUseCase) Get(ctx context.Context, stockID string) (*dto.StockResponse, error) {
	s, err := uc.mustGet(ctx, stockID)
	if err != nil {
		return nil, err
	}
	out := ToStockResponse(s)
	return &out, nil
}

// ListByLocation lista el stock de una ubicación. El filtro por estado se evalúa con el
// clasificador sobre los saldos actuales.
func (uc *LedgerUseCase) ListByLocation(ctx context.Context, loc entity.Location, filter entity.StockFilter) (*dto.StockListResponse, error) {
	if _, err := uc.locations.Resolve(ctx, loc); err != nil {
		return nil, err
	}
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	list, err := uc.stockRepo.ListByLocation(ctx, loc, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		items = append(items, ToStockResponse(s))
	}
	return &dto.StockListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func (uc *LedgerUseCase) mutate(ctx context.Context, op, stockID string, apply func(*entity.Stock) error) (*dto.StockResponse, error) {
	current, err := uc.mustGet(ctx, stockID)
	if err != nil {
		return nil, uc.fail(op, err)
	}
	var stock *entity.Stock
	err = uc.txRunner.Run(ctx, []entity.LockKey{current.Key().LockKey()}, func(
		stockRepo repository.StockRepository,
		_ repository.MovementRepository,
		_ repository.RequestRepository,
	) error {
		s, err := stockRepo.GetForUpdate(ctx, current.Key())
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("stock %s: %w", stockID, domain.ErrNotFound)
		}
		if err := apply(s); err != nil {
			return err
		}
		s.UpdatedAt = uc.now()
		stock = s
		return stockRepo.Update(ctx, s)
	})
	if err != nil {
		return nil, uc.fail(op, err)
	}
	out := ToStockResponse(stock)
	return &out, nil
}

func (uc *LedgerUseCase) mustGet(ctx context.Context, stockID string) (*entity.Stock, error) {
	if stockID == "" {
		return nil, domain.ErrInvalidInput
	}
	s, err := uc.stockRepo.GetByID(ctx, stockID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("stock %s: %w", stockID, domain.ErrNotFound)
	}
	return s, nil
}

func (uc *LedgerUseCase) fail(op string, err error) error {
	return logFailure(uc.log, uc.recorder, op, err)
}
