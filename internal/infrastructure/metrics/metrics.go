package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/relief-inventory/internal/application/inventory"
)

var _ inventory.Recorder = (*Metrics)(nil)

// Metrics agrupa los colectores de la API y del ledger sobre un registro propio.
type Metrics struct {
	registry *prometheus.Registry

	movementsTotal  *prometheus.CounterVec
	movedUnitsTotal *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
	reviewsTotal    *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	apiErrorsTotal  *prometheus.CounterVec
}

// New registra todos los colectores bajo el namespace indicado.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		movementsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_movements_total",
			Help:      "Movimientos registrados en el ledger",
		}, []string{"type"}),
		movedUnitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_moved_units_total",
			Help:      "Unidades movidas por tipo de movimiento",
		}, []string{"type"}),
		failuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operation_failures_total",
			Help:      "Operaciones del ledger rechazadas, por operación y código",
		}, []string{"operation", "kind"}),
		reviewsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_reviewed_total",
			Help:      "Solicitudes revisadas por resultado",
		}, []string{"status"}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total de peticiones HTTP",
		}, []string{"method", "path"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP en segundos",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		apiErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Peticiones HTTP con status >= 400",
		}, []string{"method", "path", "status"}),
	}
}

// Registry expone el registro (tests y colectores adicionales).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// MovementRecorded cuenta un movimiento y sus unidades.
func (m *Metrics) MovementRecorded(movementType string, quantity int64) {
	m.movementsTotal.WithLabelValues(movementType).Inc()
	m.movedUnitsTotal.WithLabelValues(movementType).Add(float64(quantity))
}

// OperationFailed cuenta una operación rechazada.
func (m *Metrics) OperationFailed(operation, kind string) {
	m.failuresTotal.WithLabelValues(operation, kind).Inc()
}

// RequestReviewed cuenta una revisión aplicada.
func (m *Metrics) RequestReviewed(status string) {
	m.reviewsTotal.WithLabelValues(status).Inc()
}

// Middleware mide cada petición. Usa la ruta registrada (no la URL) para acotar la cardinalidad.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		method := c.Method()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		code := strconv.Itoa(status)

		m.requestsTotal.WithLabelValues(method, path).Inc()
		m.requestDuration.WithLabelValues(method, path, code).Observe(time.Since(start).Seconds())
		if status >= 400 {
			m.apiErrorsTotal.WithLabelValues(method, path, code).Inc()
		}
		return err
	}
}

// Handler sirve el registro en formato de exposición de Prometheus.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
