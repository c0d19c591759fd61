package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto y el tope de 100 filas.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Details lleva el payload del error
// (cantidad disponible, líneas fallidas de una aprobación).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// LocationDTO ubicación en cuerpos y respuestas.
type LocationDTO struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// EndpointDTO extremo denormalizado de un movimiento.
type EndpointDTO struct {
	Type string `json:"type"`
	Name string `json:"name"`
}
