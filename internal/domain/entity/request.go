package entity

import "time"

// Estados de una solicitud. approved y rejected son terminales.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Urgencias admitidas.
const (
	UrgencyNormal = "normal"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Request solicitud multi-ítem de un albergue, pendiente de revisión.
type Request struct {
	ID            string
	RequestNumber string
	ShelterID     string
	RequestedBy   string
	Urgency       string
	Items         []RequestItem
	Status        string
	ReviewedBy    string
	ReviewedAt    *time.Time
	AdminNotes    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RequestItem línea de una solicitud; StockID apunta al stock provincial.
type RequestItem struct {
	StockID           string
	ItemName          string
	RequestedQuantity int64
	Unit              string
	Reason            string
}

// IsPending indica si la solicitud todavía admite revisión.
func (r *Request) IsPending() bool { return r.Status == RequestPending }

// ValidUrgency indica si u es una urgencia conocida.
func ValidUrgency(u string) bool {
	return u == UrgencyNormal || u == UrgencyMedium || u == UrgencyHigh
}

// RequestFilter criterios de listado de solicitudes.
type RequestFilter struct {
	Status    string
	ShelterID string
	Urgency   string
	Limit     int
	Offset    int
}
