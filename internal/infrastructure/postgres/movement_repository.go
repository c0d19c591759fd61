package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, transaction_id, movement_type, direction, stock_id, item_name, quantity, unit,
	from_type, from_name, to_type, to_name, performed_by, performed_at, reference_id, notes`

// MovementRepo log de movimientos sobre PostgreSQL (usable con pool o tx).
// La tabla tiene un trigger que rechaza UPDATE y DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create agrega un movimiento al log.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	fromType, fromName := endpointColumns(m.From)
	toType, toName := endpointColumns(m.To)
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TransactionID, m.Type, m.Direction, m.StockID, m.ItemName, m.Quantity, m.Unit,
		fromType, fromName, toType, toName, m.PerformedBy, m.PerformedAt, m.ReferenceID, m.Notes,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// List filtra el log, más reciente primero (id como desempate).
func (r *MovementRepo) List(ctx context.Context, filter entity.MovementFilter) ([]*entity.Movement, error) {
	if filter.StockID != "" && !isUUID(filter.StockID) {
		return nil, nil
	}
	query := `SELECT ` + movementColumns + ` FROM movements WHERE true`
	var args []any
	pos := 1
	if filter.StockID != "" {
		query += fmt.Sprintf(" AND stock_id = $%d", pos)
		args = append(args, filter.StockID)
		pos++
	}
	if filter.Location != nil {
		query += fmt.Sprintf(" AND stock_id IN (SELECT id FROM stock WHERE location_type = $%d AND location_id = $%d)", pos, pos+1)
		args = append(args, filter.Location.Type, filter.Location.ID)
		pos += 2
	}
	if len(filter.Types) > 0 {
		query += fmt.Sprintf(" AND movement_type = ANY($%d)", pos)
		args = append(args, filter.Types)
		pos++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND performed_at >= $%d", pos)
		args = append(args, *filter.From)
		pos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND performed_at <= $%d", pos)
		args = append(args, *filter.To)
		pos++
	}
	if filter.Before != nil {
		query += fmt.Sprintf(" AND (performed_at, id) < ($%d, $%d::uuid)", pos, pos+1)
		args = append(args, filter.Before.PerformedAt, filter.Before.ID)
		pos += 2
	}
	query += " ORDER BY performed_at DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var fromType, fromName, toType, toName *string
	if err := row.Scan(
		&m.ID, &m.TransactionID, &m.Type, &m.Direction, &m.StockID, &m.ItemName, &m.Quantity, &m.Unit,
		&fromType, &fromName, &toType, &toName, &m.PerformedBy, &m.PerformedAt, &m.ReferenceID, &m.Notes,
	); err != nil {
		return nil, err
	}
	m.From = endpointFrom(fromType, fromName)
	m.To = endpointFrom(toType, toName)
	return &m, nil
}

func endpointColumns(e *entity.Endpoint) (*string, *string) {
	if e == nil {
		return nil, nil
	}
	return &e.Type, &e.Name
}

func endpointFrom(typ, name *string) *entity.Endpoint {
	if typ == nil {
		return nil
	}
	e := &entity.Endpoint{Type: *typ}
	if name != nil {
		e.Name = *name
	}
	return e
}
