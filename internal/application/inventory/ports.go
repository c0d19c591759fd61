package inventory

import (
	"context"

	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del ledger, pasando repositorios
// atados a esa transacción. Antes de invocar fn adquiere los bloqueos en orden lexicográfico
// (orden global, sin deadlocks entre traslados opuestos); si la espera supera el timeout
// devuelve domain.ErrBusy. Commit si fn devuelve nil, Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, locks []entity.LockKey, fn func(
		stockRepo repository.StockRepository,
		movRepo repository.MovementRepository,
		requestRepo repository.RequestRepository,
	) error) error
}

// Recorder recibe eventos de negocio para métricas. Puede ser NopRecorder.
type Recorder interface {
	MovementRecorded(movementType string, quantity int64)
	OperationFailed(operation, kind string)
	RequestReviewed(status string)
}

// NopRecorder descarta todos los eventos.
type NopRecorder struct{}

func (NopRecorder) MovementRecorded(string, int64) {}
func (NopRecorder) OperationFailed(string, string) {}
func (NopRecorder) RequestReviewed(string) {}

// LedgerConfig parámetros del ledger.
type LedgerConfig struct {
	ProvincialID         string
	ProvincialName       string
	DefaultMinStock      int64
	DefaultCriticalLevel int64
}
