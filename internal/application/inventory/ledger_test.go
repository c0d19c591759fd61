package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/application/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/infrastructure/memory"
)

const shelterID = "albergue-norte"

var (
	provincialDTO = dto.LocationDTO{Type: entity.LocationProvincial, ID: "provincial"}
	shelterDTO    = dto.LocationDTO{Type: entity.LocationShelter, ID: shelterID}
	provincialLoc = entity.Location{Type: entity.LocationProvincial, ID: "provincial"}
	shelterLoc    = entity.Location{Type: entity.LocationShelter, ID: shelterID}
)

// fixture casos de uso del ledger sobre el store en memoria.
type fixture struct {
	store         *memory.Store
	ledger        *inventory.LedgerUseCase
	transfers     *inventory.TransferUseCase
	history       *inventory.HistoryUseCase
	importer      *inventory.ImportUseCase
	replenishment *inventory.ReplenishmentUseCase
	summary       *inventory.SummaryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddShelter(shelterID, "Albergue Norte")
	cfg := inventory.LedgerConfig{
		ProvincialID: "provincial", ProvincialName: "Bodega provincial",
		DefaultMinStock: 10, DefaultCriticalLevel: 5,
	}
	locations := inventory.NewLocations(cfg, store)
	log := zerolog.Nop()
	ledger := inventory.NewLedgerUseCase(store, store.Stocks(), locations, nil, log)
	transfers := inventory.NewTransferUseCase(store, store.Stocks(), locations, cfg, nil, log)
	return &fixture{
		store:         store,
		ledger:        ledger,
		transfers:     transfers,
		history:       inventory.NewHistoryUseCase(store, store.Stocks(), store.Movements(), log),
		importer:      inventory.NewImportUseCase(store.Stocks(), ledger, transfers, log),
		replenishment: inventory.NewReplenishmentUseCase(store.Stocks(), locations),
		summary:       inventory.NewSummaryUseCase(store.Stocks(), locations),
	}
}

func (f *fixture) seed(t *testing.T, name, category string, loc dto.LocationDTO, qty, minLevel, critical int64) dto.StockResponse {
	t.Helper()
	out, err := f.ledger.Initialize(context.Background(), "admin-1", dto.InitializeStockRequest{
		ItemName: name, Category: category, Unit: "u",
		InitialQuantity: qty, MinStockLevel: minLevel, CriticalLevel: critical, Location: loc,
	})
	require.NoError(t, err)
	return out.Stock
}

func (f *fixture) movements(t *testing.T, stockID string) []*entity.Movement {
	t.Helper()
	list, err := f.store.Movements().List(context.Background(), entity.MovementFilter{StockID: stockID})
	require.NoError(t, err)
	return list
}

func TestInitialize_CreaFilaYRecepcion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.ledger.Initialize(ctx, "admin-1", dto.InitializeStockRequest{
		ItemName: "  Arroz   blanco ", Category: "Alimentos", Unit: "kg",
		InitialQuantity: 100, MinStockLevel: 50, CriticalLevel: 20,
		Location: provincialDTO, Supplier: "Cruz Roja",
	})
	require.NoError(t, err)
	assert.Equal(t, "Arroz blanco", out.Stock.ItemName)
	assert.Equal(t, "sufficient", out.Stock.Status)
	require.NotNil(t, out.Movement)
	assert.Equal(t, entity.MovementReceive, out.Movement.Type)
	require.NotNil(t, out.Movement.From)
	assert.Equal(t, "Cruz Roja", out.Movement.From.Name)

	_, err = f.ledger.Initialize(ctx, "admin-1", dto.InitializeStockRequest{
		ItemName: "ARROZ BLANCO", Unit: "kg", Location: provincialDTO,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateStock, "misma clave normalizada en la misma ubicación")
}

func TestInitialize_SinCantidadNoEscribeMovimiento(t *testing.T) {
	f := newFixture(t)
	out, err := f.ledger.Initialize(context.Background(), "admin-1", dto.InitializeStockRequest{
		ItemName: "Mantas", Unit: "u", MinStockLevel: 10, CriticalLevel: 5, Location: shelterDTO,
	})
	require.NoError(t, err)
	assert.Nil(t, out.Movement)
	assert.Equal(t, "outOfStock", out.Stock.Status)
	assert.Empty(t, f.movements(t, out.Stock.ID))
}

func TestInitialize_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   dto.InitializeStockRequest
		want error
	}{
		{"nombre vacío", dto.InitializeStockRequest{ItemName: "  ", Location: provincialDTO}, domain.ErrInvalidInput},
		{"cantidad negativa", dto.InitializeStockRequest{ItemName: "Agua", InitialQuantity: -1, Location: provincialDTO}, domain.ErrInvalidQuantity},
		{"crítico sobre mínimo", dto.InitializeStockRequest{ItemName: "Agua", MinStockLevel: 5, CriticalLevel: 6, Location: provincialDTO}, domain.ErrInvalidThresholds},
		{"albergue desconocido", dto.InitializeStockRequest{ItemName: "Agua", Location: dto.LocationDTO{Type: "shelter", ID: "x"}}, domain.ErrNotFound},
		{"tipo inválido", dto.InitializeStockRequest{ItemName: "Agua", Location: dto.LocationDTO{Type: "bodega", ID: "x"}}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.Initialize(ctx, "admin-1", tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTransfer_EscenarioArroz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.seed(t, "Arroz", "Alimentos", provincialDTO, 100, 50, 20)

	out, err := f.transfers.Transfer(ctx, "admin-1", dto.TransferRequest{
		StockID: rice.ID, Quantity: 40, From: provincialDTO, To: shelterDTO, ReferenceID: "REQ-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(60), out.From.Quantity)
	assert.Equal(t, int64(40), out.To.Quantity)
	assert.Equal(t, "Arroz", out.To.ItemName)
	// Destino creado con los umbrales por defecto
	assert.Equal(t, int64(10), out.To.MinStockLevel)
	assert.Equal(t, int64(5), out.To.CriticalLevel)

	assert.Equal(t, out.FromMovement.TransactionID, out.ToMovement.TransactionID)
	assert.Equal(t, entity.DirectionOut, out.FromMovement.Direction)
	assert.Equal(t, entity.DirectionIn, out.ToMovement.Direction)
	assert.Equal(t, "Bodega provincial", out.FromMovement.From.Name)
	assert.Equal(t, "Albergue Norte", out.ToMovement.To.Name)

	// Segundo traslado excede lo disponible: nada cambia
	_, err = f.transfers.Transfer(ctx, "admin-1", dto.TransferRequest{
		ItemName: "arroz", Quantity: 61, From: provincialDTO, To: shelterDTO,
	})
	var short *domain.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, int64(60), short.Available)
	assert.Equal(t, int64(1), short.Shortfall())

	got, err := f.ledger.Get(ctx, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got.Quantity)
	assert.Len(t, f.movements(t, rice.ID), 2)
}

func TestTransfer_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.seed(t, "Arroz", "Alimentos", provincialDTO, 100, 50, 20)

	_, err := f.transfers.Transfer(ctx, "u", dto.TransferRequest{StockID: rice.ID, Quantity: 1, From: provincialDTO, To: provincialDTO})
	assert.ErrorIs(t, err, domain.ErrSameLocation)

	_, err = f.transfers.Transfer(ctx, "u", dto.TransferRequest{StockID: rice.ID, Quantity: 0, From: provincialDTO, To: shelterDTO})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.transfers.Transfer(ctx, "u", dto.TransferRequest{StockID: rice.ID, Quantity: 1, From: shelterDTO, To: provincialDTO})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "la fila indicada no está en el origen")

	_, err = f.transfers.Transfer(ctx, "u", dto.TransferRequest{ItemName: "Fideos", Quantity: 1, From: provincialDTO, To: shelterDTO})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransfer_ConcurrentesSoloUnoGana(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.seed(t, "Arroz", "Alimentos", provincialDTO, 50, 10, 5)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, short int
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.transfers.Transfer(ctx, "u", dto.TransferRequest{
				StockID: rice.ID, Quantity: 40, From: provincialDTO, To: shelterDTO,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, short)
	got, err := f.ledger.Get(ctx, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Quantity)
}

func TestTransfer_OpuestosConcurrentesNoSeBloquean(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "Agua", "Bebidas", provincialDTO, 100, 10, 5)
	f.seed(t, "Agua", "Bebidas", shelterDTO, 100, 10, 5)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			from, to := provincialDTO, shelterDTO
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := f.transfers.Transfer(ctx, "u", dto.TransferRequest{ItemName: "agua", Quantity: 1, From: from, To: to})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	list, err := f.ledger.ListByLocation(ctx, provincialLoc, entity.StockFilter{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, int64(100), list.Items[0].Quantity)
}

func TestReceiveYDispense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Recepción sobre una fila inexistente: la crea con umbrales por defecto
	out, err := f.transfers.Receive(ctx, "u", dto.ReceiveRequest{
		ItemName: "Pañales", Category: "Higiene", Unit: "paquete", Quantity: 12, Location: shelterDTO,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), out.Stock.Quantity)
	assert.Nil(t, out.Movement.From, "sin proveedor no hay origen")

	d, err := f.transfers.Dispense(ctx, "u", dto.DispenseRequest{
		StockID: out.Stock.ID, Quantity: 12, Location: shelterDTO, Recipient: "Familia Soto",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), d.Stock.Quantity)
	assert.Equal(t, "outOfStock", d.Stock.Status)
	require.NotNil(t, d.Movement.To)
	assert.Equal(t, entity.EndpointRecipient, d.Movement.To.Type)

	_, err = f.transfers.Dispense(ctx, "u", dto.DispenseRequest{StockID: out.Stock.ID, Quantity: 1, Location: shelterDTO})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.transfers.Receive(ctx, "u", dto.ReceiveRequest{StockID: out.Stock.ID, Quantity: -3, Location: shelterDTO})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAdjustTo_EscribeDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.seed(t, "Arroz", "Alimentos", provincialDTO, 100, 50, 20)

	out, err := f.ledger.AdjustTo(ctx, "u", dto.AdjustRequest{StockID: rice.ID, NewQuantity: 80, Reason: "conteo físico"})
	require.NoError(t, err)
	assert.Equal(t, int64(80), out.Stock.Quantity)
	require.NotNil(t, out.Movement)
	assert.Equal(t, entity.DirectionOut, out.Movement.Direction)
	assert.Equal(t, int64(20), out.Movement.Quantity)
	assert.Equal(t, "conteo físico", out.Movement.Notes)

	out, err = f.ledger.AdjustTo(ctx, "u", dto.AdjustRequest{StockID: rice.ID, NewQuantity: 80, Reason: "recuento"})
	require.NoError(t, err)
	assert.Nil(t, out.Movement, "delta cero no escribe movimiento")

	_, err = f.ledger.AdjustTo(ctx, "u", dto.AdjustRequest{StockID: rice.ID, NewQuantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Len(t, f.movements(t, rice.ID), 2)
}

func TestHide_SoloEnCeroYReapareceConTraslado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.seed(t, "Arroz", "Alimentos", provincialDTO, 100, 50, 20)
	shelterRice := f.seed(t, "Arroz", "Alimentos", shelterDTO, 0, 10, 5)

	_, err := f.ledger.Hide(ctx, rice.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	hidden, err := f.ledger.Hide(ctx, shelterRice.ID)
	require.NoError(t, err)
	assert.True(t, hidden.Hidden)

	list, err := f.ledger.ListByLocation(ctx, shelterLoc, entity.StockFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	_, err = f.transfers.Transfer(ctx, "u", dto.TransferRequest{StockID: rice.ID, Quantity: 5, From: provincialDTO, To: shelterDTO})
	require.NoError(t, err)

	list, err = f.ledger.ListByLocation(ctx, shelterLoc, entity.StockFilter{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.False(t, list.Items[0].Hidden)
	assert.Equal(t, int64(5), list.Items[0].Quantity)
}

func TestUpdateThresholds_CambiaEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.seed(t, "Arroz", "Alimentos", provincialDTO, 40, 30, 10)
	assert.Equal(t, "sufficient", rice.Status)

	out, err := f.ledger.UpdateThresholds(ctx, rice.ID, dto.UpdateThresholdsRequest{MinStockLevel: 60, CriticalLevel: 40})
	require.NoError(t, err)
	assert.Equal(t, "critical", out.Status)

	_, err = f.ledger.UpdateThresholds(ctx, rice.ID, dto.UpdateThresholdsRequest{MinStockLevel: 5, CriticalLevel: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidThresholds)
}

func TestListByLocation_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "Arroz", "Alimentos", provincialDTO, 100, 50, 20)
	f.seed(t, "Frijol", "Alimentos", provincialDTO, 15, 50, 20)
	f.seed(t, "Agua", "Bebidas", provincialDTO, 0, 50, 20)

	list, err := f.ledger.ListByLocation(ctx, provincialLoc, entity.StockFilter{Status: entity.StockCritical})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Frijol", list.Items[0].ItemName)

	list, err = f.ledger.ListByLocation(ctx, provincialLoc, entity.StockFilter{Category: "alimentos"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
}

func TestReconcile_SaldoReconstruibleDesdeElLog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rice := f.seed(t, "Arroz", "Alimentos", provincialDTO, 100, 50, 20)

	_, err := f.transfers.Transfer(ctx, "u", dto.TransferRequest{StockID: rice.ID, Quantity: 30, From: provincialDTO, To: shelterDTO})
	require.NoError(t, err)
	_, err = f.transfers.Receive(ctx, "u", dto.ReceiveRequest{StockID: rice.ID, Quantity: 7, Location: provincialDTO, Supplier: "ONG"})
	require.NoError(t, err)
	_, err = f.ledger.AdjustTo(ctx, "u", dto.AdjustRequest{StockID: rice.ID, NewQuantity: 70, Reason: "merma"})
	require.NoError(t, err)
	_, err = f.transfers.Dispense(ctx, "u", dto.DispenseRequest{StockID: rice.ID, Quantity: 5, Location: provincialDTO})
	require.NoError(t, err)

	rec, err := f.history.Reconcile(ctx, rice.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, int64(65), rec.Quantity)
	assert.Equal(t, int64(65), rec.LedgerSum)
	assert.Equal(t, 5, rec.Movements)

	_, err = f.history.Reconcile(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
