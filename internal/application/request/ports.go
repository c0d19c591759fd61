package request

import (
	"context"

	"github.com/jhoicas/relief-inventory/internal/application/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// Transfers integra la aprobación con el motor de inventario.
// TransferInTx usa los repositorios de la transacción del caller; si retorna error
// (p. ej. stock insuficiente) el caller hace rollback.
type Transfers interface {
	PrepareTransfer(ctx context.Context, stockID, itemName string, quantity int64, from, to entity.Location) (inventory.TransferOp, error)
	TransferInTx(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		op inventory.TransferOp,
	) (*inventory.TransferOutcome, error)
}

// SlipLine línea de la guía de despacho.
type SlipLine struct {
	ItemName string
	Unit     string
	Quantity int64
	Reason   string
}

// SlipData datos para la guía de despacho de una solicitud aprobada.
type SlipData struct {
	Request     *entity.Request
	FromName    string
	ShelterName string
	Lines       []SlipLine
}

// SlipPDFGenerator genera el PDF de la guía de despacho.
type SlipPDFGenerator interface {
	GenerateDispatchSlip(ctx context.Context, data SlipData) ([]byte, error)
}
