package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/relief-inventory/internal/application/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool y la espera máxima por bloqueos.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, toma los advisory locks de transacción en orden lexicográfico
// (cubren también filas que aún no existen, como el stock destino de un traslado), ejecuta fn
// con repos atados a la tx y hace Commit o Rollback. lock_timeout limita tanto los advisory
// locks como los SELECT ... FOR UPDATE; al agotarse se devuelve domain.ErrBusy.
func (r *TxRunner) Run(ctx context.Context, locks []entity.LockKey, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.MovementRepository,
	requestRepo repository.RequestRepository,
) error) error {
	keys := slices.Clone(locks)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		// SET no admite parámetros
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}
	for _, key := range keys {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, string(key)); err != nil {
			return asBusy("lock "+string(key), fmt.Errorf("advisory lock: %w", err))
		}
	}

	stockRepo := NewStockRepository(tx)
	movRepo := NewMovementRepository(tx)
	requestRepo := NewRequestRepository(tx)

	if err := fn(stockRepo, movRepo, requestRepo); err != nil {
		return asBusy("transaction", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
