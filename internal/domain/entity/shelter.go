package entity

// Shelter entrada del directorio externo de albergues (solo lectura para el ledger).
type Shelter struct {
	ID   string
	Name string
}
