package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

var _ repository.RequestRepository = (*RequestRepo)(nil)

const requestColumns = `id, request_number, shelter_id, requested_by, urgency, items, status,
	reviewed_by, reviewed_at, admin_notes, created_at, updated_at`

// RequestRepo solicitudes sobre PostgreSQL. Las líneas se guardan como JSONB.
type RequestRepo struct {
	q Querier
}

// NewRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRequestRepository(q Querier) *RequestRepo {
	return &RequestRepo{q: q}
}

// requestItemRow forma JSON de una línea dentro de requests.items.
type requestItemRow struct {
	StockID           string `json:"stock_id"`
	ItemName          string `json:"item_name"`
	RequestedQuantity int64  `json:"requested_quantity"`
	Unit              string `json:"unit"`
	Reason            string `json:"reason"`
}

func encodeItems(items []entity.RequestItem) ([]byte, error) {
	rows := make([]requestItemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, requestItemRow(it))
	}
	return json.Marshal(rows)
}

func decodeItems(raw []byte) ([]entity.RequestItem, error) {
	var rows []requestItemRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	items := make([]entity.RequestItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, entity.RequestItem(r))
	}
	return items, nil
}

// Create inserta la solicitud.
func (r *RequestRepo) Create(ctx context.Context, req *entity.Request) error {
	items, err := encodeItems(req.Items)
	if err != nil {
		return fmt.Errorf("encode request items: %w", err)
	}
	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.q.Exec(ctx, query,
		req.ID, req.RequestNumber, req.ShelterID, req.RequestedBy, req.Urgency, items, req.Status,
		req.ReviewedBy, req.ReviewedAt, req.AdminNotes, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create request %s: %w", req.RequestNumber, domain.ErrInvalidInput)
		}
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// GetByID obtiene una solicitud; (nil, nil) si no existe.
func (r *RequestRepo) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, "get request", `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
}

// GetForUpdate obtiene la solicitud bloqueando su fila.
func (r *RequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.Request, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.getOne(ctx, "get request for update", `SELECT `+requestColumns+` FROM requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *RequestRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Request, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return req, nil
}

// UpdateReview persiste la decisión de revisión.
func (r *RequestRepo) UpdateReview(ctx context.Context, req *entity.Request) error {
	query := `
		UPDATE requests SET status = $2, reviewed_by = $3, reviewed_at = $4, admin_notes = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, req.ID, req.Status, req.ReviewedBy, req.ReviewedAt, req.AdminNotes, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update request review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update request %s: %w", req.ID, domain.ErrNotFound)
	}
	return nil
}

// List lista solicitudes, más recientes primero.
func (r *RequestRepo) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE true`
	var args []any
	pos := 1
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, filter.Status)
		pos++
	}
	if filter.ShelterID != "" {
		query += fmt.Sprintf(" AND shelter_id = $%d", pos)
		args = append(args, filter.ShelterID)
		pos++
	}
	if filter.Urgency != "" {
		query += fmt.Sprintf(" AND urgency = $%d", pos)
		args = append(args, filter.Urgency)
		pos++
	}
	query += " ORDER BY created_at DESC, request_number DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()
	var list []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

// NextNumber incrementa el contador del día. Dentro de una tx la fila del contador queda
// bloqueada hasta el commit, así dos altas simultáneas no repiten número.
func (r *RequestRepo) NextNumber(ctx context.Context, now time.Time) (string, error) {
	day := now.UTC()
	var seq int
	err := r.q.QueryRow(ctx, `
		INSERT INTO request_counters (day, last_value) VALUES ($1::date, 1)
		ON CONFLICT (day) DO UPDATE SET last_value = request_counters.last_value + 1
		RETURNING last_value`, day.Format("2006-01-02")).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("next request number: %w", err)
	}
	return fmt.Sprintf("REQ-%s-%06d", day.Format("20060102"), seq), nil
}

func scanRequest(row pgx.Row) (*entity.Request, error) {
	var req entity.Request
	var items []byte
	if err := row.Scan(
		&req.ID, &req.RequestNumber, &req.ShelterID, &req.RequestedBy, &req.Urgency, &items, &req.Status,
		&req.ReviewedBy, &req.ReviewedAt, &req.AdminNotes, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	decoded, err := decodeItems(items)
	if err != nil {
		return nil, fmt.Errorf("decode request items: %w", err)
	}
	req.Items = decoded
	return &req, nil
}
