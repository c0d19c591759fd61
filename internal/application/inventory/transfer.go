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

// TransferUseCase es el motor de inventario: traslados atómicos entre ubicaciones y las
// variantes de un solo lado (receive, dispense). Cada operación corre en una transacción
// con las filas involucradas bloqueadas; la validación de saldo ocurre dentro de ella.
type TransferUseCase struct {
	txRunner  TxRunner
	stockRepo repository.StockRepository
	locations *Locations
	cfg       LedgerConfig
	recorder  Recorder
	log       zerolog.Logger
	now       func() time.Time
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(
	txRunner TxRunner,
	stockRepo repository.StockRepository,
	locations *Locations,
	cfg LedgerConfig,
	recorder Recorder,
	log zerolog.Logger,
) *TransferUseCase {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &TransferUseCase{
		txRunner:  txRunner,
		stockRepo: stockRepo,
		locations: locations,
		cfg:       cfg,
		recorder:  recorder,
		log:       log,
		now:       time.Now,
	}
}

// TransferOp traslado ya validado y resuelto, listo para aplicarse dentro de una transacción.
type TransferOp struct {
	ItemKey       string
	ItemName      string
	Quantity      int64
	From          entity.Location
	To            entity.Location
	FromEndpoint  entity.Endpoint
	ToEndpoint    entity.Endpoint
	PerformedBy   string
	ReferenceID   string
	Notes         string
	TransactionID string
	Now           time.Time
}

// Locks devuelve los bloqueos de origen y destino.
func (op TransferOp) Locks() []entity.LockKey {
	return []entity.LockKey{
		entity.StockKey{Location: op.From, ItemKey: op.ItemKey}.LockKey(),
		entity.StockKey{Location: op.To, ItemKey: op.ItemKey}.LockKey(),
	}
}

// TransferOutcome filas resultantes y el par de movimientos escritos.
type TransferOutcome struct {
	From         *entity.Stock
	To           *entity.Stock
	FromMovement *entity.Movement
	ToMovement   *entity.Movement
}

// Transfer mueve quantity del stock de from al de to. Las cuatro escrituras (dos saldos y
// dos movimientos) se aplican juntas o ninguna.
func (uc *TransferUseCase) Transfer(ctx context.Context, userID string, in dto.TransferRequest) (*dto.TransferResponse, error) {
	op, err := uc.PrepareTransfer(ctx, in.StockID, in.ItemName, in.Quantity, ToLocation(in.From), ToLocation(in.To))
	if err != nil {
		return nil, uc.fail("transfer", err)
	}
	op.PerformedBy = userID
	op.ReferenceID = in.ReferenceID
	op.Notes = in.Notes

	var out *TransferOutcome
	err = uc.txRunner.Run(ctx, op.Locks(), func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		_ repository.RequestRepository,
	) error {
		var err error
		out, err = uc.TransferInTx(ctx, stockRepo, movRepo, op)
		return err
	})
	if err != nil {
		return nil, uc.fail("transfer", err)
	}

	uc.recorder.MovementRecorded(entity.MovementTransfer, op.Quantity)
	uc.log.Info().
		Str("transaction_id", op.TransactionID).
		Str("item", out.From.ItemName).
		Int64("quantity", op.Quantity).
		Str("from", op.From.String()).
		Str("to", op.To.String()).
		Str("performed_by", userID).
		Msg("traslado registrado")

	return &dto.TransferResponse{
		From:         ToStockResponse(out.From),
		To:           ToStockResponse(out.To),
		FromMovement: ToMovementResponse(out.FromMovement),
		ToMovement:   ToMovementResponse(out.ToMovement),
	}, nil
}

// PrepareTransfer valida la forma del traslado y resuelve ubicaciones e ítem, sin tocar stock.
func (uc *TransferUseCase) PrepareTransfer(
	ctx context.Context,
	stockID, itemName string,
	quantity int64,
	from, to entity.Location,
) (TransferOp, error) {
	if quantity <= 0 {
		return TransferOp{}, domain.ErrInvalidQuantity
	}
	if !from.Valid() || !to.Valid() {
		return TransferOp{}, domain.ErrInvalidInput
	}
	if from.Equal(to) {
		return TransferOp{}, domain.ErrSameLocation
	}
	fromEP, err := uc.locations.Resolve(ctx, from)
	if err != nil {
		return TransferOp{}, err
	}
	toEP, err := uc.locations.Resolve(ctx, to)
	if err != nil {
		return TransferOp{}, err
	}
	key, name, err := uc.resolveItem(ctx, stockID, itemName, from)
	if err != nil {
		return TransferOp{}, err
	}
	return TransferOp{
		ItemKey:       key,
		ItemName:      name,
		Quantity:      quantity,
		From:          from,
		To:            to,
		FromEndpoint:  fromEP,
		ToEndpoint:    toEP,
		TransactionID: uuid.New().String(),
		Now:           uc.now(),
	}, nil
}

// TransferInTx aplica un traslado con los repositorios de la transacción del caller.
// El caller debe haber adquirido op.Locks(). Si retorna error el caller hace rollback.
func (uc *TransferUseCase) TransferInTx(
	ctx context.Context,
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	op TransferOp,
) (*TransferOutcome, error) {
	// Bloquea fila origen y re-valida el saldo dentro de la transacción
	src, err := stockRepo.GetForUpdate(ctx, entity.StockKey{Location: op.From, ItemKey: op.ItemKey})
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("stock de %q en %s: %w", op.ItemName, op.From, domain.ErrNotFound)
	}
	if src.Quantity < op.Quantity {
		return nil, &domain.InsufficientStockError{
			StockID:   src.ID,
			ItemName:  src.ItemName,
			Location:  op.From.String(),
			Available: src.Quantity,
			Requested: op.Quantity,
		}
	}

	dst, err := stockRepo.GetForUpdate(ctx, entity.StockKey{Location: op.To, ItemKey: op.ItemKey})
	if err != nil {
		return nil, err
	}
	created := dst == nil
	if created {
		// Destino nuevo: mismos metadatos del ítem, umbrales por defecto
		dst = uc.newStock(src.ItemID, src.ItemName, src.Category, src.Unit, op.To,
			uc.cfg.DefaultMinStock, uc.cfg.DefaultCriticalLevel, op.Now)
	}

	src.Quantity -= op.Quantity
	src.UpdatedAt = op.Now
	dst.Quantity += op.Quantity
	dst.Hidden = false
	dst.UpdatedAt = op.Now

	if err := stockRepo.Update(ctx, src); err != nil {
		return nil, err
	}
	if created {
		err = stockRepo.Create(ctx, dst)
	} else {
		err = stockRepo.Update(ctx, dst)
	}
	if err != nil {
		return nil, err
	}

	fromEP, toEP := op.FromEndpoint, op.ToEndpoint
	outMov := &entity.Movement{
		ID:            uuid.New().String(),
		TransactionID: op.TransactionID,
		Type:          entity.MovementTransfer,
		Direction:     entity.DirectionOut,
		StockID:       src.ID,
		ItemName:      src.ItemName,
		Quantity:      op.Quantity,
		Unit:          src.Unit,
		From:          &fromEP,
		To:            &toEP,
		PerformedBy:   op.PerformedBy,
		PerformedAt:   op.Now,
		ReferenceID:   op.ReferenceID,
		Notes:         op.Notes,
	}
	if err := movRepo.Create(ctx, outMov); err != nil {
		return nil, err
	}
	inMov := *outMov
	inMov.ID = uuid.New().String()
	inMov.Direction = entity.DirectionIn
	inMov.StockID = dst.ID
	if err := movRepo.Create(ctx, &inMov); err != nil {
		return nil, err
	}
	return &TransferOutcome{From: src, To: dst, FromMovement: outMov, ToMovement: &inMov}, nil
}

// Receive suma stock en una ubicación (crea la fila si no existe) y escribe un movimiento receive.
func (uc *TransferUseCase) Receive(ctx context.Context, userID string, in dto.ReceiveRequest) (*dto.StockMutationResponse, error) {
	if in.Quantity <= 0 {
		return nil, uc.fail("receive", domain.ErrInvalidQuantity)
	}
	loc := ToLocation(in.Location)
	locEP, err := uc.locations.Resolve(ctx, loc)
	if err != nil {
		return nil, uc.fail("receive", err)
	}
	key, name, err := uc.resolveItem(ctx, in.StockID, in.ItemName, loc)
	if err != nil {
		return nil, uc.fail("receive", err)
	}
	now := uc.now()

	var stock *entity.Stock
	var mov *entity.Movement
	lock := entity.StockKey{Location: loc, ItemKey: key}.LockKey()
	err = uc.txRunner.Run(ctx, []entity.LockKey{lock}, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		_ repository.RequestRepository,
	) error {
		s, err := stockRepo.GetForUpdate(ctx, entity.StockKey{Location: loc, ItemKey: key})
		if err != nil {
			return err
		}
		created := s == nil
		if created {
			s = uc.newStock("", name, in.Category, in.Unit, loc,
				uc.cfg.DefaultMinStock, uc.cfg.DefaultCriticalLevel, now)
		}
		s.Quantity += in.Quantity
		s.Hidden = false
		s.UpdatedAt = now
		if created {
			err = stockRepo.Create(ctx, s)
		} else {
			err = stockRepo.Update(ctx, s)
		}
		if err != nil {
			return err
		}
		to := locEP
		m := &entity.Movement{
			ID:            uuid.New().String(),
			TransactionID: uuid.New().String(),
			Type:          entity.MovementReceive,
			Direction:     entity.DirectionIn,
			StockID:       s.ID,
			ItemName:      s.ItemName,
			Quantity:      in.Quantity,
			Unit:          s.Unit,
			From:          externalEndpoint(entity.EndpointSupplier, in.Supplier),
			To:            &to,
			PerformedBy:   userID,
			PerformedAt:   now,
			ReferenceID:   in.ReferenceID,
			Notes:         in.Notes,
		}
		if err := movRepo.Create(ctx, m); err != nil {
			return err
		}
		stock, mov = s, m
		return nil
	})
	if err != nil {
		return nil, uc.fail("receive", err)
	}

	uc.recorder.MovementRecorded(entity.MovementReceive, in.Quantity)
	uc.log.Info().
		Str("stock_id", stock.ID).
		Str("item", stock.ItemName).
		Int64("quantity", in.Quantity).
		Str("location", loc.String()).
		Str("performed_by", userID).
		Msg("recepción registrada")
	return &dto.StockMutationResponse{Stock: ToStockResponse(stock), Movement: movementPtr(mov)}, nil
}

// Dispense descuenta stock de una ubicación (entrega a beneficiarios) y escribe un movimiento dispense.
func (uc *TransferUseCase) Dispense(ctx context.Context, userID string, in dto.DispenseRequest) (*dto.StockMutationResponse, error) {
	if in.Quantity <= 0 {
		return nil, uc.fail("dispense", domain.ErrInvalidQuantity)
	}
	loc := ToLocation(in.Location)
	locEP, err := uc.locations.Resolve(ctx, loc)
	if err != nil {
		return nil, uc.fail("dispense", err)
	}
	key, name, err := uc.resolveItem(ctx, in.StockID, in.ItemName, loc)
	if err != nil {
		return nil, uc.fail("dispense", err)
	}
	now := uc.now()

	var stock *entity.Stock
	var mov *entity.Movement
	lock := entity.StockKey{Location: loc, ItemKey: key}.LockKey()
	err = uc.txRunner.Run(ctx, []entity.LockKey{lock}, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		_ repository.RequestRepository,
	) error {
		s, err := stockRepo.GetForUpdate(ctx, entity.StockKey{Location: loc, ItemKey: key})
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("stock de %q en %s: %w", name, loc, domain.ErrNotFound)
		}
		if s.Quantity < in.Quantity {
			return &domain.InsufficientStockError{
				StockID:   s.ID,
				ItemName:  s.ItemName,
				Location:  loc.String(),
				Available: s.Quantity,
				Requested: in.Quantity,
			}
		}
		s.Quantity -= in.Quantity
		s.UpdatedAt = now
		if err := stockRepo.Update(ctx, s); err != nil {
			return err
		}
		from := locEP
		m := &entity.Movement{
			ID:            uuid.New().String(),
			TransactionID: uuid.New().String(),
			Type:          entity.MovementDispense,
			Direction:     entity.DirectionOut,
			StockID:       s.ID,
			ItemName:      s.ItemName,
			Quantity:      in.Quantity,
			Unit:          s.Unit,
			From:          &from,
			To:            externalEndpoint(entity.EndpointRecipient, in.Recipient),
			PerformedBy:   userID,
			PerformedAt:   now,
			ReferenceID:   in.ReferenceID,
			Notes:         in.Notes,
		}
		if err := movRepo.Create(ctx, m); err != nil {
			return err
		}
		stock, mov = s, m
		return nil
	})
	if err != nil {
		return nil, uc.fail("dispense", err)
	}

	uc.recorder.MovementRecorded(entity.MovementDispense, in.Quantity)
	uc.log.Info().
		Str("stock_id", stock.ID).
		Str("item", stock.ItemName).
		Int64("quantity", in.Quantity).
		Str("location", loc.String()).
		Str("performed_by", userID).
		Msg("entrega registrada")
	return &dto.StockMutationResponse{Stock: ToStockResponse(stock), Movement: movementPtr(mov)}, nil
}

// resolveItem obtiene la clave del ítem desde el id de una fila (que debe estar en loc)
// o desde el nombre.
func (uc *TransferUseCase) resolveItem(ctx context.Context, stockID, itemName string, loc entity.Location) (key, name string, err error) {
	return resolveItem(ctx, uc.stockRepo, stockID, itemName, loc)
}

func resolveItem(ctx context.Context, stockRepo repository.StockRepository, stockID, itemName string, loc entity.Location) (string, string, error) {
	if stockID != "" {
		s, err := stockRepo.GetByID(ctx, stockID)
		if err != nil {
			return "", "", err
		}
		if s == nil {
			return "", "", fmt.Errorf("stock %s: %w", stockID, domain.ErrNotFound)
		}
		if !s.Location.Equal(loc) {
			return "", "", fmt.Errorf("el stock %s no pertenece a %s: %w", stockID, loc, domain.ErrInvalidInput)
		}
		return s.ItemKey, s.ItemName, nil
	}
	key := inventory.ItemKey(itemName)
	if key == "" {
		return "", "", domain.ErrInvalidInput
	}
	return key, inventory.CleanName(itemName), nil
}

func (uc *TransferUseCase) newStock(itemID, name, category, unit string, loc entity.Location, minLevel, critical int64, now time.Time) *entity.Stock {
	return &entity.Stock{
		ID:            uuid.New().String(),
		ItemID:        itemID,
		ItemKey:       inventory.ItemKey(name),
		ItemName:      inventory.CleanName(name),
		Category:      category,
		Unit:          unit,
		Location:      loc,
		MinStockLevel: minLevel,
		CriticalLevel: critical,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// fail registra la métrica y el log de un fallo y devuelve el error sin alterar.
func (uc *TransferUseCase) fail(op string, err error) error {
	return logFailure(uc.log, uc.recorder, op, err)
}

func logFailure(log zerolog.Logger, recorder Recorder, op string, err error) error {
	kind := domain.Kind(err)
	recorder.OperationFailed(op, kind)
	ev := log.Debug()
	switch kind {
	case "BUSY":
		ev = log.Warn()
	case "INTERNAL":
		ev = log.Error()
	}
	ev.Err(err).Str("operation", op).Str("kind", kind).Msg("operación rechazada")
	return err
}

func externalEndpoint(kind, name string) *entity.Endpoint {
	if name == "" {
		return nil
	}
	return &entity.Endpoint{Type: kind, Name: name}
}
