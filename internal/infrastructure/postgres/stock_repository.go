package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `id, item_id, item_key, item_name, category, unit, location_type, location_id,
	quantity, min_stock_level, critical_level, hidden, created_at, updated_at`

// statusExpr estado calculado en SQL con los mismos límites que el clasificador.
const statusExpr = `CASE
	WHEN quantity <= 0 THEN 'outOfStock'
	WHEN quantity <= critical_level THEN 'critical'
	WHEN quantity <= min_stock_level THEN 'low'
	ELSE 'sufficient' END`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func scanStock(row pgx.Row) (*entity.Stock, error) {
	var s entity.Stock
	err := row.Scan(
		&s.ID, &s.ItemID, &s.ItemKey, &s.ItemName, &s.Category, &s.Unit,
		&s.Location.Type, &s.Location.ID,
		&s.Quantity, &s.MinStockLevel, &s.CriticalLevel, &s.Hidden, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StockRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Stock, error) {
	s, err := scanStock(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// GetByID obtiene una fila por id.
func (r *StockRepo) GetByID(ctx context.Context, id string) (*entity.Stock, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, "get stock", `SELECT `+stockColumns+` FROM stock WHERE id = $1`, id)
}

// GetByKey obtiene la fila de un ítem en una ubicación.
func (r *StockRepo) GetByKey(ctx context.Context, key entity.StockKey) (*entity.Stock, error) {
	return r.getOne(ctx, "get stock by key", `
		SELECT `+stockColumns+` FROM stock
		WHERE location_type = $1 AND location_id = $2 AND item_key = $3`,
		key.Location.Type, key.Location.ID, key.ItemKey)
}

// GetForUpdate obtiene la fila y la bloquea (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.Stock, error) {
	return r.getOne(ctx, "get stock for update", `
		SELECT `+stockColumns+` FROM stock
		WHERE location_type = $1 AND location_id = $2 AND item_key = $3
		FOR UPDATE`,
		key.Location.Type, key.Location.ID, key.ItemKey)
}

// Create inserta una fila nueva. La restricción única (ubicación, ítem) se traduce a ErrDuplicateStock.
func (r *StockRepo) Create(ctx context.Context, s *entity.Stock) error {
	query := `
		INSERT INTO stock (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.ItemID, s.ItemKey, s.ItemName, s.Category, s.Unit,
		s.Location.Type, s.Location.ID,
		s.Quantity, s.MinStockLevel, s.CriticalLevel, s.Hidden, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create stock: %w", domain.ErrDuplicateStock)
		}
		if isCheckViolation(err) {
			return fmt.Errorf("create stock: %w", domain.ErrInvalidInput)
		}
		return fmt.Errorf("create stock: %w", err)
	}
	return nil
}

// Update persiste saldo, umbrales, metadatos y visibilidad. La clave (ítem, ubicación) no cambia.
func (r *StockRepo) Update(ctx context.Context, s *entity.Stock) error {
	query := `
		UPDATE stock SET
			item_id = $2, item_name = $3, category = $4, unit = $5,
			quantity = $6, min_stock_level = $7, critical_level = $8, hidden = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.ItemID, s.ItemName, s.Category, s.Unit,
		s.Quantity, s.MinStockLevel, s.CriticalLevel, s.Hidden, s.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("update stock: %w", domain.ErrInvalidQuantity)
		}
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock %s: %w", s.ID, domain.ErrNotFound)
	}
	return nil
}

// ListByLocation lista el stock de una ubicación ordenado por nombre.
func (r *StockRepo) ListByLocation(ctx context.Context, loc entity.Location, filter entity.StockFilter) ([]*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE location_type = $1 AND location_id = $2`
	args := []any{loc.Type, loc.ID}
	pos := 3
	if !filter.IncludeHidden {
		query += " AND NOT hidden"
	}
	if filter.Category != "" {
		query += fmt.Sprintf(" AND lower(category) = lower($%d)", pos)
		args = append(args, filter.Category)
		pos++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND (%s) = $%d", statusExpr, pos)
		args = append(args, string(filter.Status))
		pos++
	}
	query += " ORDER BY item_name, id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// SummarizeByCategory agrega en SQL. fill_pct es NUMERIC y se escanea a decimal.Decimal
// con el codec registrado en el pool.
func (r *StockRepo) SummarizeByCategory(ctx context.Context, loc entity.Location) ([]entity.CategoryTotals, error) {
	query := `
		SELECT category,
			count(*)::int,
			COALESCE(sum(quantity), 0)::bigint,
			(count(*) FILTER (WHERE status = 'sufficient'))::int,
			(count(*) FILTER (WHERE status = 'low'))::int,
			(count(*) FILTER (WHERE status = 'critical'))::int,
			(count(*) FILTER (WHERE status = 'outOfStock'))::int,
			round(100.0 * count(*) FILTER (WHERE status = 'sufficient') / count(*), 2) AS fill_pct
		FROM (
			SELECT category, quantity, ` + statusExpr + ` AS status
			FROM stock
			WHERE location_type = $1 AND location_id = $2 AND NOT hidden
		) s
		GROUP BY category
		ORDER BY category`

	rows, err := r.q.Query(ctx, query, loc.Type, loc.ID)
	if err != nil {
		return nil, fmt.Errorf("summarize stock: %w", err)
	}
	defer rows.Close()
	var out []entity.CategoryTotals
	for rows.Next() {
		var t entity.CategoryTotals
		if err := rows.Scan(
			&t.Category, &t.Items, &t.TotalQuantity,
			&t.Sufficient, &t.Low, &t.Critical, &t.OutOfStock, &t.FillPct,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
