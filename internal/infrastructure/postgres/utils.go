package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/relief-inventory/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isLockTimeout 55P03 lock_not_available (lock_timeout) o 40P01 deadlock_detected.
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "55P03" || pgErr.Code == "40P01"
	}
	return false
}

// isCheckViolation 23514: la restricción quantity >= 0 de la tabla stock.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// asBusy traduce la espera agotada de un bloqueo a domain.ErrBusy; otros errores pasan igual.
func asBusy(op string, err error) error {
	if err != nil && isLockTimeout(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrBusy)
	}
	return err
}

// isUUID las columnas id son UUID: un id que no parsea no existe y no debe llegar al SQL (22P02).
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
