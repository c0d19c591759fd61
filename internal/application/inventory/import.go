package inventory

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// Acciones de una fila de importación.
const (
	ImportInitialize = "initialize"
	ImportReceive    = "receive"
	ImportSkip       = "skip"
)

// ImportUseCase carga masiva: cada fila es un initialize (ítem nuevo en la ubicación) o un
// receive (ítem existente). Las filas son independientes; un fallo no revierte las demás.
type ImportUseCase struct {
	stockRepo repository.StockRepository
	ledger    *LedgerUseCase
	transfers *TransferUseCase
	log       zerolog.Logger
}

// NewImportUseCase construye el caso de uso.
func NewImportUseCase(stockRepo repository.StockRepository, ledger *LedgerUseCase, transfers *TransferUseCase, log zerolog.Logger) *ImportUseCase {
	return &ImportUseCase{stockRepo: stockRepo, ledger: ledger, transfers: transfers, log: log}
}

// Import procesa las filas en orden y devuelve el resultado de cada una.
func (uc *ImportUseCase) Import(ctx context.Context, userID string, in dto.ImportRequest) (*dto.ImportResponse, error) {
	if len(in.Rows) == 0 {
		return nil, domain.ErrInvalidInput
	}
	out := &dto.ImportResponse{Total: len(in.Rows), Rows: make([]dto.ImportRowResult, 0, len(in.Rows))}
	for i, row := range in.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := uc.importRow(ctx, userID, row)
		res.Row = i + 1
		if res.Code == "" {
			out.Succeeded++
		} else {
			out.Failed++
		}
		out.Rows = append(out.Rows, res)
	}
	uc.log.Info().
		Int("total", out.Total).
		Int("succeeded", out.Succeeded).
		Int("failed", out.Failed).
		Str("performed_by", userID).
		Msg("importación procesada")
	return out, nil
}

func (uc *ImportUseCase) importRow(ctx context.Context, userID string, row dto.ImportRow) dto.ImportRowResult {
	key := inventory.ItemKey(row.ItemName)
	if key == "" {
		return rowError(ImportSkip, domain.ErrInvalidInput)
	}
	existing, err := uc.stockRepo.GetByKey(ctx, entity.StockKey{Location: ToLocation(row.Location), ItemKey: key})
	if err != nil {
		return rowError(ImportSkip, err)
	}
	if existing == nil {
		res, err := uc.ledger.Initialize(ctx, userID, dto.InitializeStockRequest{
			ItemID:          row.ItemID,
			ItemName:        row.ItemName,
			Category:        row.Category,
			Unit:            row.Unit,
			InitialQuantity: row.Quantity,
			MinStockLevel:   row.MinStockLevel,
			CriticalLevel:   row.CriticalLevel,
			Location:        row.Location,
			Supplier:        row.Supplier,
			ReferenceID:     row.ReferenceID,
		})
		if err == nil {
			return dto.ImportRowResult{Action: ImportInitialize, StockID: res.Stock.ID}
		}
		if !errors.Is(err, domain.ErrDuplicateStock) {
			return rowError(ImportInitialize, err)
		}
		// Otra carga creó la fila entre la lectura y el alta: se registra como recepción
	}
	if row.Quantity == 0 {
		var stockID string
		if existing != nil {
			stockID = existing.ID
		}
		return dto.ImportRowResult{Action: ImportSkip, StockID: stockID}
	}
	res, err := uc.transfers.Receive(ctx, userID, dto.ReceiveRequest{
		ItemName:    row.ItemName,
		Category:    row.Category,
		Unit:        row.Unit,
		Quantity:    row.Quantity,
		Location:    row.Location,
		Supplier:    row.Supplier,
		ReferenceID: row.ReferenceID,
	})
	if err != nil {
		return rowError(ImportReceive, err)
	}
	return dto.ImportRowResult{Action: ImportReceive, StockID: res.Stock.ID}
}

func rowError(action string, err error) dto.ImportRowResult {
	return dto.ImportRowResult{Action: action, Code: domain.Kind(err), Message: err.Error()}
}
