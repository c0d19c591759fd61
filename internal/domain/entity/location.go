package entity

import "fmt"

// Tipos de ubicación de stock.
const (
	LocationProvincial = "provincial" // bodega provincial (embudo de distribución)
	LocationShelter    = "shelter"    // albergue
)

// Location identifica dónde vive una fila de stock.
type Location struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Valid indica si el tipo es conocido y el id no está vacío.
func (l Location) Valid() bool {
	return (l.Type == LocationProvincial || l.Type == LocationShelter) && l.ID != ""
}

// Equal compara tipo e id.
func (l Location) Equal(o Location) bool {
	return l.Type == o.Type && l.ID == o.ID
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.Type, l.ID)
}

// Endpoint es el extremo (origen o destino) denormalizado de un movimiento.
type Endpoint struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Tipos de endpoint que no son ubicaciones del ledger.
const (
	EndpointSupplier  = "supplier"
	EndpointRecipient = "recipient"
)
