package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
	"github.com/jhoicas/relief-inventory/internal/infrastructure/memory"
)

var provincial = entity.Location{Type: entity.LocationProvincial, ID: "provincial"}

func newStock(id, key string, qty int64) *entity.Stock {
	now := time.Now()
	return &entity.Stock{
		ID: id, ItemKey: key, ItemName: key, Unit: "kg",
		Location: provincial, Quantity: qty, CreatedAt: now, UpdatedAt: now,
	}
}

func TestRun_CommitPublicaSaldoYMovimientoJuntos(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	st := newStock("s1", "arroz", 10)

	err := store.Run(ctx, []entity.LockKey{st.Key().LockKey()}, func(
		stocks repository.StockRepository, movs repository.MovementRepository, _ repository.RequestRepository,
	) error {
		require.NoError(t, stocks.Create(ctx, st))

		// Dentro de la tx todavía no es visible para lecturas externas
		outside, err := store.Stocks().GetByID(ctx, "s1")
		require.NoError(t, err)
		assert.Nil(t, outside)

		return movs.Create(ctx, &entity.Movement{
			ID: "m1", StockID: "s1", Type: entity.MovementReceive,
			Direction: entity.DirectionIn, Quantity: 10, PerformedAt: time.Now(),
		})
	})
	require.NoError(t, err)

	got, err := store.Stocks().GetByID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(10), got.Quantity)

	movs, err := store.Movements().List(ctx, entity.MovementFilter{StockID: "s1"})
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestRun_ErrorNoEscribeNada(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Stocks().Create(ctx, newStock("s1", "arroz", 10)))
	boom := errors.New("boom")

	err := store.Run(ctx, []entity.LockKey{"stock:provincial:provincial:arroz"}, func(
		stocks repository.StockRepository, movs repository.MovementRepository, _ repository.RequestRepository,
	) error {
		s, err := stocks.GetByID(ctx, "s1")
		require.NoError(t, err)
		s.Quantity = 3
		require.NoError(t, stocks.Update(ctx, s))
		require.NoError(t, movs.Create(ctx, &entity.Movement{
			ID: "m1", StockID: "s1", Direction: entity.DirectionOut, Quantity: 7, PerformedAt: time.Now(),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := store.Stocks().GetByID(ctx, "s1")
	assert.Equal(t, int64(10), got.Quantity)
	movs, _ := store.Movements().List(ctx, entity.MovementFilter{})
	assert.Empty(t, movs)
}

func TestRun_LecturaDentroDeTxVePendientes(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Stocks().Create(ctx, newStock("s1", "arroz", 10)))

	err := store.Run(ctx, nil, func(stocks repository.StockRepository, _ repository.MovementRepository, _ repository.RequestRepository) error {
		s, _ := stocks.GetForUpdate(ctx, entity.StockKey{Location: provincial, ItemKey: "arroz"})
		s.Quantity -= 4
		require.NoError(t, stocks.Update(ctx, s))

		again, _ := stocks.GetForUpdate(ctx, entity.StockKey{Location: provincial, ItemKey: "arroz"})
		assert.Equal(t, int64(6), again.Quantity)
		return nil
	})
	require.NoError(t, err)
}

func TestRun_TimeoutDevuelveBusy(t *testing.T) {
	store := memory.NewStore(memory.WithLockTimeout(50 * time.Millisecond))
	ctx := context.Background()
	key := entity.LockKey("stock:provincial:provincial:arroz")

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = store.Run(ctx, []entity.LockKey{key}, func(repository.StockRepository, repository.MovementRepository, repository.RequestRepository) error {
			close(holding)
			<-done
			return nil
		})
	}()
	<-holding

	err := store.Run(ctx, []entity.LockKey{key}, func(repository.StockRepository, repository.MovementRepository, repository.RequestRepository) error {
		t.Fatal("no debe ejecutarse sin el bloqueo")
		return nil
	})
	close(done)
	assert.ErrorIs(t, err, domain.ErrBusy)
	assert.Equal(t, "BUSY", domain.Kind(err))
}

func TestRun_CancelacionEsperandoBloqueoDevuelveBusy(t *testing.T) {
	store := memory.NewStore(memory.WithLockTimeout(time.Minute))
	key := entity.LockKey("stock:provincial:provincial:arroz")

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = store.Run(context.Background(), []entity.LockKey{key}, func(repository.StockRepository, repository.MovementRepository, repository.RequestRepository) error {
			close(holding)
			<-done
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := store.Run(ctx, []entity.LockKey{key}, func(repository.StockRepository, repository.MovementRepository, repository.RequestRepository) error {
		t.Fatal("no debe ejecutarse sin el bloqueo")
		return nil
	})
	close(done)
	assert.ErrorIs(t, err, domain.ErrBusy)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "BUSY", domain.Kind(err))
}

func TestRun_ClavesDuplicadasNoSeAutobloquean(t *testing.T) {
	store := memory.NewStore(memory.WithLockTimeout(50 * time.Millisecond))
	key := entity.LockKey("stock:shelter:a:arroz")
	err := store.Run(context.Background(), []entity.LockKey{key, key}, func(repository.StockRepository, repository.MovementRepository, repository.RequestRepository) error {
		return nil
	})
	assert.NoError(t, err)
}

// Dos transacciones que bloquean las mismas claves en orden inverso no se bloquean
// mutuamente: Run ordena las claves antes de adquirirlas.
func TestRun_OrdenGlobalEvitaDeadlock(t *testing.T) {
	store := memory.NewStore(memory.WithLockTimeout(2 * time.Second))
	a := entity.LockKey("stock:provincial:provincial:arroz")
	b := entity.LockKey("stock:shelter:s1:arroz")

	var wg sync.WaitGroup
	errs := make(chan error, 200)
	for i := 0; i < 100; i++ {
		keys := []entity.LockKey{a, b}
		if i%2 == 1 {
			keys = []entity.LockKey{b, a}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Run(context.Background(), keys, func(repository.StockRepository, repository.MovementRepository, repository.RequestRepository) error {
				time.Sleep(time.Millisecond)
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestStockCreate_DuplicadoPorClave(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Stocks().Create(ctx, newStock("s1", "arroz", 0)))
	err := store.Stocks().Create(ctx, newStock("s2", "arroz", 0))
	assert.ErrorIs(t, err, domain.ErrDuplicateStock)
}

func TestMovementList_OrdenDescendenteYPaginacion(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, store.Movements().Create(ctx, &entity.Movement{
			ID: id, StockID: "s1", Type: entity.MovementReceive, Direction: entity.DirectionIn,
			Quantity: 1, PerformedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	page, err := store.Movements().List(ctx, entity.MovementFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "m3", page[0].ID)
	assert.Equal(t, "m2", page[1].ID)

	rest, err := store.Movements().List(ctx, entity.MovementFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "m1", rest[0].ID)

	assert.ErrorIs(t, store.Movements().Create(ctx, &entity.Movement{ID: "m4", Quantity: 0}), domain.ErrInvalidQuantity)
}

func TestRequestNextNumber_Secuencial(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	n1, err := store.Requests().NextNumber(context.Background(), now)
	require.NoError(t, err)
	n2, _ := store.Requests().NextNumber(context.Background(), now)
	assert.Equal(t, "REQ-20261019-000001", n1)
	assert.Equal(t, "REQ-20261019-000002", n2)
}
