package request

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/application/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	domaininv "github.com/jhoicas/relief-inventory/internal/domain/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// WorkflowUseCase solicitudes de albergues: alta, revisión (aprobar/rechazar) y consultas.
type WorkflowUseCase struct {
	txRunner    inventory.TxRunner
	requestRepo repository.RequestRepository
	stockRepo   repository.StockRepository
	locations   *inventory.Locations
	transfers   Transfers
	slips       SlipPDFGenerator
	recorder    inventory.Recorder
	log         zerolog.Logger
	now         func() time.Time
}

// NewWorkflowUseCase construye el caso de uso. slips puede ser nil si no se generan guías.
func NewWorkflowUseCase(
	txRunner inventory.TxRunner,
	requestRepo repository.RequestRepository,
	stockRepo repository.StockRepository,
	locations *inventory.Locations,
	transfers Transfers,
	slips SlipPDFGenerator,
	recorder inventory.Recorder,
	log zerolog.Logger,
) *WorkflowUseCase {
	if recorder == nil {
		recorder = inventory.NopRecorder{}
	}
	return &WorkflowUseCase{
		txRunner:    txRunner,
		requestRepo: requestRepo,
		stockRepo:   stockRepo,
		locations:   locations,
		transfers:   transfers,
		slips:       slips,
		recorder:    recorder,
		log:         log,
		now:         time.Now,
	}
}

// Submit registra una solicitud pendiente. Cada línea apunta a una fila de stock provincial
// (por id o por nombre del ítem) y debe traer cantidad positiva y motivo.
func (uc *WorkflowUseCase) Submit(ctx context.Context, userID string, in dto.SubmitRequestRequest) (*dto.RequestResponse, error) {
	if len(in.Items) == 0 {
		return nil, uc.fail("submit", domain.ErrEmptyRequest)
	}
	for i, it := range in.Items {
		if it.RequestedQuantity <= 0 {
			return nil, uc.fail("submit", fmt.Errorf("línea %d: %w", i+1, domain.ErrInvalidQuantity))
		}
		if strings.TrimSpace(it.Reason) == "" {
			return nil, uc.fail("submit", fmt.Errorf("línea %d: %w", i+1, domain.ErrMissingReason))
		}
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = entity.UrgencyNormal
	}
	if !entity.ValidUrgency(urgency) {
		return nil, uc.fail("submit", fmt.Errorf("urgencia %q: %w", in.Urgency, domain.ErrInvalidInput))
	}
	if _, err := uc.locations.Resolve(ctx, uc.locations.Shelter(in.ShelterID)); err != nil {
		return nil, uc.fail("submit", err)
	}

	items := make([]entity.RequestItem, 0, len(in.Items))
	for i, it := range in.Items {
		stock, err := uc.provincialStock(ctx, it.StockID, it.ItemName)
		if err != nil {
			return nil, uc.fail("submit", fmt.Errorf("línea %d: %w", i+1, err))
		}
		items = append(items, entity.RequestItem{
			StockID:           stock.ID,
			ItemName:          stock.ItemName,
			RequestedQuantity: it.RequestedQuantity,
			Unit:              stock.Unit,
			Reason:            strings.TrimSpace(it.Reason),
		})
	}

	now := uc.now()
	req := &entity.Request{
		ID:          uuid.New().String(),
		ShelterID:   in.ShelterID,
		RequestedBy: userID,
		Urgency:     urgency,
		Items:       items,
		Status:      entity.RequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.txRunner.Run(ctx, nil, func(
		_ repository.StockRepository,
		_ repository.MovementRepository,
		requestRepo repository.RequestRepository,
	) error {
		number, err := requestRepo.NextNumber(ctx, now)
		if err != nil {
			return err
		}
		req.RequestNumber = number
		return requestRepo.Create(ctx, req)
	})
	if err != nil {
		return nil, uc.fail("submit", err)
	}

	uc.log.Info().
		Str("request_id", req.ID).
		Str("request_number", req.RequestNumber).
		Str("shelter_id", req.ShelterID).
		Str("urgency", req.Urgency).
		Int("items", len(req.Items)).
		Str("requested_by", userID).
		Msg("solicitud registrada")
	out := ToRequestResponse(req)
	return &out, nil
}

// approvalLine traslado preparado (o el error de preparación) de una línea.
type approvalLine struct {
	index int
	op    inventory.TransferOp
	err   error
}

// Review aprueba o rechaza una solicitud pendiente.
//
// La aprobación es todo o nada: en una sola transacción, con la solicitud y todas las filas
// de stock bloqueadas, valida todas las líneas (sumando las que descuentan de la misma fila)
// y solo si todas caben ejecuta los traslados y marca la solicitud como aprobada. Si alguna
// línea falla devuelve *domain.ApprovalError con todas las líneas fallidas y no escribe nada.
func (uc *WorkflowUseCase) Review(ctx context.Context, reviewerID, requestID string, in dto.ReviewRequestRequest) (*dto.RequestResponse, error) {
	current, err := uc.mustGet(ctx, requestID)
	if err != nil {
		return nil, uc.fail("review", err)
	}
	if !current.IsPending() {
		return nil, uc.fail("review", domain.ErrNotPending)
	}

	notes := strings.TrimSpace(in.AdminNotes)
	switch in.Status {
	case entity.RequestApproved:
	case entity.RequestRejected:
		if notes == "" {
			return nil, uc.fail("review", domain.ErrMissingNotes)
		}
	default:
		return nil, uc.fail("review", fmt.Errorf("decisión %q: %w", in.Status, domain.ErrInvalidInput))
	}

	// Preparar traslados fuera de la tx para conocer todos los bloqueos
	locks := []entity.LockKey{entity.RequestLockKey(current.ID)}
	var lines []approvalLine
	if in.Status == entity.RequestApproved {
		provincial := uc.locations.Provincial()
		shelter := uc.locations.Shelter(current.ShelterID)
		for i, it := range current.Items {
			op, err := uc.transfers.PrepareTransfer(ctx, it.StockID, it.ItemName, it.RequestedQuantity, provincial, shelter)
			if err == nil {
				op.PerformedBy = reviewerID
				op.ReferenceID = current.RequestNumber
				op.Notes = it.Reason
				locks = append(locks, op.Locks()...)
			}
			lines = append(lines, approvalLine{index: i, op: op, err: err})
		}
	}

	var reviewed *entity.Request
	var outcomes []*inventory.TransferOutcome
	err = uc.txRunner.Run(ctx, locks, func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		requestRepo repository.RequestRepository,
	) error {
		req, err := requestRepo.GetForUpdate(ctx, current.ID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("solicitud %s: %w", current.ID, domain.ErrNotFound)
		}
		if !req.IsPending() {
			return domain.ErrNotPending
		}
		now := uc.now()

		if in.Status == entity.RequestApproved {
			if err := preflight(ctx, stockRepo, req, lines); err != nil {
				return err
			}
			for _, l := range lines {
				l.op.Now = now
				out, err := uc.transfers.TransferInTx(ctx, stockRepo, movRepo, l.op)
				if err != nil {
					return err
				}
				outcomes = append(outcomes, out)
			}
		}

		req.Status = in.Status
		req.ReviewedBy = reviewerID
		req.ReviewedAt = &now
		req.AdminNotes = notes
		req.UpdatedAt = now
		if err := requestRepo.UpdateReview(ctx, req); err != nil {
			return err
		}
		reviewed = req
		return nil
	})
	if err != nil {
		return nil, uc.fail("review", err)
	}

	uc.recorder.RequestReviewed(reviewed.Status)
	for _, out := range outcomes {
		uc.recorder.MovementRecorded(entity.MovementTransfer, out.FromMovement.Quantity)
	}
	uc.log.Info().
		Str("request_id", reviewed.ID).
		Str("request_number", reviewed.RequestNumber).
		Str("status", reviewed.Status).
		Int("transfers", len(outcomes)).
		Str("reviewed_by", reviewerID).
		Msg("solicitud revisada")
	out := ToRequestResponse(reviewed)
	return &out, nil
}

// preflight valida todas las líneas contra los saldos bloqueados. Las líneas que descuentan
// de la misma fila se acumulan en orden: el disponible de cada una es lo que dejan las anteriores.
func preflight(ctx context.Context, stockRepo repository.StockRepository, req *entity.Request, lines []approvalLine) error {
	var failed []domain.LineError
	demand := make(map[entity.StockKey]int64)
	for _, l := range lines {
		item := req.Items[l.index]
		if l.err != nil {
			failed = append(failed, domain.LineError{Line: l.index, StockID: item.StockID, ItemName: item.ItemName, Err: l.err})
			continue
		}
		key := entity.StockKey{Location: l.op.From, ItemKey: l.op.ItemKey}
		src, err := stockRepo.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if src == nil {
			failed = append(failed, domain.LineError{
				Line: l.index, StockID: item.StockID, ItemName: item.ItemName,
				Err: fmt.Errorf("stock de %q en %s: %w", item.ItemName, l.op.From, domain.ErrNotFound),
			})
			continue
		}
		prior := demand[key]
		demand[key] = prior + l.op.Quantity
		if src.Quantity < prior+l.op.Quantity {
			failed = append(failed, domain.LineError{
				Line: l.index, StockID: src.ID, ItemName: src.ItemName,
				Err: &domain.InsufficientStockError{
					StockID:   src.ID,
					ItemName:  src.ItemName,
					Location:  l.op.From.String(),
					Available: max(src.Quantity-prior, 0),
					Requested: l.op.Quantity,
				},
			})
		}
	}
	if len(failed) > 0 {
		return &domain.ApprovalError{RequestNumber: req.RequestNumber, Lines: failed}
	}
	return nil
}

// Get devuelve una solicitud.
func (uc *WorkflowUseCase) Get(ctx context.Context, requestID string) (*dto.RequestResponse, error) {
	req, err := uc.mustGet(ctx, requestID)
	if err != nil {
		return nil, err
	}
	out := ToRequestResponse(req)
	return &out, nil
}

// List lista solicitudes, más recientes primero.
func (uc *WorkflowUseCase) List(ctx context.Context, filter entity.RequestFilter) (*dto.RequestListResponse, error) {
	if filter.Urgency != "" && !entity.ValidUrgency(filter.Urgency) {
		return nil, domain.ErrInvalidInput
	}
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	list, err := uc.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.RequestResponse, 0, len(list))
	for _, r := range list {
		items = append(items, ToRequestResponse(r))
	}
	return &dto.RequestListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func (uc *WorkflowUseCase) provincialStock(ctx context.Context, stockID, itemName string) (*entity.Stock, error) {
	provincial := uc.locations.Provincial()
	var stock *entity.Stock
	var err error
	switch {
	case stockID != "":
		stock, err = uc.stockRepo.GetByID(ctx, stockID)
	case domaininv.ItemKey(itemName) != "":
		stock, err = uc.stockRepo.GetByKey(ctx, entity.StockKey{Location: provincial, ItemKey: domaininv.ItemKey(itemName)})
	default:
		return nil, domain.ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, fmt.Errorf("stock provincial %s%s: %w", stockID, itemName, domain.ErrNotFound)
	}
	if !stock.Location.Equal(provincial) {
		return nil, fmt.Errorf("el stock %s no es provincial: %w", stock.ID, domain.ErrInvalidInput)
	}
	return stock, nil
}

func (uc *WorkflowUseCase) mustGet(ctx context.Context, requestID string) (*entity.Request, error) {
	if requestID == "" {
		return nil, domain.ErrInvalidInput
	}
	req, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("solicitud %s: %w", requestID, domain.ErrNotFound)
	}
	return req, nil
}

func (uc *WorkflowUseCase) fail(op string, err error) error {
	kind := domain.Kind(err)
	uc.recorder.OperationFailed(op, kind)
	ev := uc.log.Debug()
	switch kind {
	case "APPROVAL_FAILED", "BUSY":
		ev = uc.log.Warn()
	case "INTERNAL":
		ev = uc.log.Error()
	}
	ev.Err(err).Str("operation", op).Str("kind", kind).Msg("operación rechazada")
	return err
}
