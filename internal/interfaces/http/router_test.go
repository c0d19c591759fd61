package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/application/inventory"
	"github.com/jhoicas/relief-inventory/internal/application/request"
	"github.com/jhoicas/relief-inventory/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/relief-inventory/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/relief-inventory/pkg/jwt"
)

type fakeSlips struct{}

func (fakeSlips) GenerateDispatchSlip(_ context.Context, data request.SlipData) ([]byte, error) {
	return []byte("%PDF-" + data.Request.RequestNumber), nil
}

// newAPI arma la API completa sobre el store en memoria con un albergue propio y uno ajeno.
func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	store.AddShelter(testShelterID, "Albergue Norte")
	store.AddShelter("albergue-sur", "Albergue Sur")

	cfg := inventory.LedgerConfig{ProvincialID: "provincial", ProvincialName: "Bodega provincial", DefaultMinStock: 10, DefaultCriticalLevel: 5}
	locations := inventory.NewLocations(cfg, store)
	log := zerolog.Nop()

	ledger := inventory.NewLedgerUseCase(store, store.Stocks(), locations, nil, log)
	transfers := inventory.NewTransferUseCase(store, store.Stocks(), locations, cfg, nil, log)
	history := inventory.NewHistoryUseCase(store, store.Stocks(), store.Movements(), log)
	workflow := request.NewWorkflowUseCase(store, store.Requests(), store.Stocks(), locations, transfers, fakeSlips{}, nil, log)

	app := fiber.New()
	app.Use(apphttp.RequestLogger(log))
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:        ledger,
		Transfers:     transfers,
		History:       history,
		Import:        inventory.NewImportUseCase(store.Stocks(), ledger, transfers, log),
		Replenishment: inventory.NewReplenishmentUseCase(store.Stocks(), locations),
		Summary:       inventory.NewSummaryUseCase(store.Stocks(), locations),
		Workflow:      workflow,
		JWTSecret:     testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedRice(t *testing.T, app *fiber.App, qty int64) dto.StockResponse {
	t.Helper()
	resp := call(t, app, http.MethodPost, "/api/stock/initialize", pkgjwt.RoleAdmin, dto.InitializeStockRequest{
		ItemName: "Arroz", Category: "Alimentos", Unit: "kg",
		InitialQuantity: qty, MinStockLevel: 50, CriticalLevel: 20,
		Location: dto.LocationDTO{Type: "provincial", ID: "provincial"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.StockMutationResponse](t, resp).Stock
}

var shelterNorte = dto.LocationDTO{Type: "shelter", ID: testShelterID}

func TestAPI_SinTokenRetorna401(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodGet, "/api/stock?location_type=provincial&location_id=provincial", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_TrasladoYStockInsuficiente(t *testing.T) {
	app := newAPI(t)
	rice := seedRice(t, app, 100)

	resp := call(t, app, http.MethodPost, "/api/stock/transfer", pkgjwt.RoleAdmin, dto.TransferRequest{
		StockID: rice.ID, Quantity: 40,
		From: dto.LocationDTO{Type: "provincial", ID: "provincial"}, To: shelterNorte,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.TransferResponse](t, resp)
	assert.Equal(t, int64(60), out.From.Quantity)
	assert.Equal(t, int64(40), out.To.Quantity)
	assert.Equal(t, out.FromMovement.TransactionID, out.ToMovement.TransactionID)

	resp = call(t, app, http.MethodPost, "/api/stock/transfer", pkgjwt.RoleAdmin, dto.TransferRequest{
		StockID: rice.ID, Quantity: 100,
		From: dto.LocationDTO{Type: "provincial", ID: "provincial"}, To: shelterNorte,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode[map[string]any](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody["code"])
	details, ok := errBody["details"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 60, details["available"])
	assert.EqualValues(t, 40, details["shortfall"])
}

func TestAPI_PersonalNoPuedeTrasladar(t *testing.T) {
	app := newAPI(t)
	rice := seedRice(t, app, 100)

	resp := call(t, app, http.MethodPost, "/api/stock/transfer", pkgjwt.RoleShelterStaff, dto.TransferRequest{
		StockID: rice.ID, Quantity: 1,
		From: dto.LocationDTO{Type: "provincial", ID: "provincial"}, To: shelterNorte,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_EntregaSoloEnAlberguePropio(t *testing.T) {
	app := newAPI(t)
	rice := seedRice(t, app, 100)
	resp := call(t, app, http.MethodPost, "/api/stock/transfer", pkgjwt.RoleAdmin, dto.TransferRequest{
		StockID: rice.ID, Quantity: 30,
		From: dto.LocationDTO{Type: "provincial", ID: "provincial"}, To: shelterNorte,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPost, "/api/stock/dispense", pkgjwt.RoleShelterStaff, dto.DispenseRequest{
		ItemName: "arroz", Quantity: 5, Location: dto.LocationDTO{Type: "shelter", ID: "albergue-sur"},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPost, "/api/stock/dispense", pkgjwt.RoleShelterStaff, dto.DispenseRequest{
		ItemName: "arroz", Quantity: 5, Location: shelterNorte, Recipient: "Familia Pérez",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.StockMutationResponse](t, resp)
	assert.Equal(t, int64(25), out.Stock.Quantity)
	require.NotNil(t, out.Movement)
	assert.Equal(t, "dispense", out.Movement.Type)
}

func TestAPI_FlujoDeSolicitud(t *testing.T) {
	app := newAPI(t)
	rice := seedRice(t, app, 100)

	// El personal omite shelter_id: se toma del token.
	resp := call(t, app, http.MethodPost, "/api/requests", pkgjwt.RoleShelterStaff, dto.SubmitRequestRequest{
		Urgency: "high",
		Items:   []dto.RequestItemDTO{{StockID: rice.ID, RequestedQuantity: 30, Reason: "familias nuevas"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	req := decode[dto.RequestResponse](t, resp)
	assert.Equal(t, testShelterID, req.ShelterID)
	assert.Equal(t, "pending", req.Status)

	// Guía no disponible mientras esté pendiente
	resp = call(t, app, http.MethodGet, "/api/requests/"+req.ID+"/slip", pkgjwt.RoleShelterStaff, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Solo admin revisa
	resp = call(t, app, http.MethodPatch, "/api/requests/"+req.ID, pkgjwt.RoleShelterStaff, dto.ReviewRequestRequest{Status: "approved"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPatch, "/api/requests/"+req.ID, pkgjwt.RoleAdmin, dto.ReviewRequestRequest{Status: "approved"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reviewed := decode[dto.RequestResponse](t, resp)
	assert.Equal(t, "approved", reviewed.Status)

	resp = call(t, app, http.MethodPatch, "/api/requests/"+req.ID, pkgjwt.RoleAdmin, dto.ReviewRequestRequest{Status: "approved"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOT_PENDING", decode[dto.ErrorResponse](t, resp).Code)

	resp = call(t, app, http.MethodGet, "/api/stock/"+rice.ID, pkgjwt.RoleShelterStaff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(70), decode[dto.StockResponse](t, resp).Quantity)

	resp = call(t, app, http.MethodGet, "/api/requests/"+req.ID+"/slip", pkgjwt.RoleShelterStaff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "despacho_"+req.RequestNumber+".pdf")
}

func TestAPI_AprobacionFallidaDetallaLineas(t *testing.T) {
	app := newAPI(t)
	rice := seedRice(t, app, 10)

	resp := call(t, app, http.MethodPost, "/api/requests", pkgjwt.RoleAdmin, dto.SubmitRequestRequest{
		ShelterID: testShelterID,
		Items:     []dto.RequestItemDTO{{StockID: rice.ID, RequestedQuantity: 25, Reason: "reposición"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	req := decode[dto.RequestResponse](t, resp)

	resp = call(t, app, http.MethodPatch, "/api/requests/"+req.ID, pkgjwt.RoleAdmin, dto.ReviewRequestRequest{Status: "approved"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var body struct {
		Code    string                `json:"code"`
		Details []dto.ApprovalLineDTO `json:"details"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "APPROVAL_FAILED", body.Code)
	require.Len(t, body.Details, 1)
	assert.Equal(t, 1, body.Details[0].Line)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Details[0].Code)
	require.NotNil(t, body.Details[0].Available)
	assert.Equal(t, int64(10), *body.Details[0].Available)

	resp = call(t, app, http.MethodGet, "/api/requests/"+req.ID, pkgjwt.RoleAdmin, nil)
	assert.Equal(t, "pending", decode[dto.RequestResponse](t, resp).Status)
}

func TestAPI_PersonalNoVeSolicitudesAjenas(t *testing.T) {
	app := newAPI(t)
	rice := seedRice(t, app, 10)

	resp := call(t, app, http.MethodPost, "/api/requests", pkgjwt.RoleAdmin, dto.SubmitRequestRequest{
		ShelterID: "albergue-sur",
		Items:     []dto.RequestItemDTO{{StockID: rice.ID, RequestedQuantity: 2, Reason: "cocina"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	req := decode[dto.RequestResponse](t, resp)

	resp = call(t, app, http.MethodGet, "/api/requests/"+req.ID, pkgjwt.RoleShelterStaff, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, "/api/requests", pkgjwt.RoleShelterStaff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[dto.RequestListResponse](t, resp).Items)

	resp = call(t, app, http.MethodPost, "/api/requests", pkgjwt.RoleShelterStaff, dto.SubmitRequestRequest{
		ShelterID: "albergue-sur",
		Items:     []dto.RequestItemDTO{{StockID: rice.ID, RequestedQuantity: 2, Reason: "cocina"}},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_HistorialFiltraPorTipo(t *testing.T) {
	app := newAPI(t)
	rice := seedRice(t, app, 100)
	resp := call(t, app, http.MethodPost, "/api/stock/transfer", pkgjwt.RoleAdmin, dto.TransferRequest{
		StockID: rice.ID, Quantity: 10,
		From: dto.LocationDTO{Type: "provincial", ID: "provincial"}, To: shelterNorte,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, "/api/movements?type=transfer", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.MovementListResponse](t, resp)
	assert.Len(t, list.Items, 2)

	resp = call(t, app, http.MethodGet, "/api/movements?type=robo", pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, "/api/stock/"+rice.ID+"/reconcile", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[dto.ReconcileResponse](t, resp)
	assert.True(t, rec.Consistent)
	assert.Equal(t, int64(90), rec.LedgerSum)
}

func TestAPI_ListadoRechazaEstadoDesconocido(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodGet, "/api/stock?location_type=provincial&location_id=provincial&status=raro", pkgjwt.RoleAdmin, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
