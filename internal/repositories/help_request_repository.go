package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dobroBack/internal/models"
)

// HelpRequestRepository stores requests and responses in a SQL database.
// Reserve and Cancel rely on conditional updates, so concurrent callers across
// processes still get exactly one winner.
type HelpRequestRepository struct {
	DB      *sql.DB
	Dialect string
	Now     func() time.Time
}

func NewHelpRequestRepository(db *sql.DB, dialect string) *HelpRequestRepository {
	return &HelpRequestRepository{DB: db, Dialect: dialect}
}

const helpRequestColumns = `id, author_id, author_name, problem, phone, category, region, address, created_at, rating, active, reserved_by`

func (r *HelpRequestRepository) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *HelpRequestRepository) q(query string) string {
	return rebind(r.Dialect, query)
}

// insert runs an INSERT and returns the generated id, using RETURNING on postgres.
func (r *HelpRequestRepository) insert(ctx context.Context, exec execer, query string, args ...interface{}) (int64, error) {
	if r.Dialect == DialectPostgres {
		var id int64
		err := exec.QueryRowContext(ctx, r.q(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *HelpRequestRepository) Create(ctx context.Context, req models.HelpRequest) (models.HelpRequest, error) {
	now := r.now()
	query := `INSERT INTO help_requests (author_id, author_name, problem, phone, category, region, address, created_at, rating, active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 1)`
	id, err := r.insert(ctx, r.DB, query,
		req.AuthorID, req.AuthorName, req.Problem, req.Phone,
		string(req.Category), string(req.Region), req.Address, now.UnixMilli())
	if err != nil {
		return models.HelpRequest{}, fmt.Errorf("insert help request: %w", err)
	}
	req.ID = id
	req.CreatedAt = time.UnixMilli(now.UnixMilli())
	req.Rating = 0
	req.Active = true
	req.ReservedBy = nil
	return req, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHelpRequest(row rowScanner) (models.HelpRequest, error) {
	var (
		req        models.HelpRequest
		category   string
		region     string
		createdAt  int64
		active     int
		reservedBy sql.NullInt64
	)
	err := row.Scan(&req.ID, &req.AuthorID, &req.AuthorName, &req.Problem, &req.Phone,
		&category, &region, &req.Address, &createdAt, &req.Rating, &active, &reservedBy)
	if err != nil {
		return models.HelpRequest{}, err
	}
	req.Category = models.Category(category)
	req.Region = models.Region(region)
	req.CreatedAt = time.UnixMilli(createdAt)
	req.Active = active == 1
	if reservedBy.Valid {
		id := reservedBy.Int64
		req.ReservedBy = &id
	}
	return req, nil
}

func (r *HelpRequestRepository) queryRequests(ctx context.Context, query string, args ...interface{}) ([]models.HelpRequest, error) {
	rows, err := r.DB.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HelpRequest
	for rows.Next() {
		req, err := scanHelpRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *HelpRequestRepository) FindByID(ctx context.Context, id int64) (*models.HelpRequest, error) {
	row := r.DB.QueryRowContext(ctx, r.q(`SELECT `+helpRequestColumns+` FROM help_requests WHERE id = ?`), id)
	req, err := scanHelpRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *HelpRequestRepository) ListByAuthor(ctx context.Context, authorID int64) ([]models.HelpRequest, error) {
	return r.queryRequests(ctx,
		`SELECT `+helpRequestColumns+` FROM help_requests WHERE author_id = ? ORDER BY created_at DESC, id DESC`, authorID)
}

func (r *HelpRequestRepository) Delete(ctx context.Context, id, authorID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx, r.q(`DELETE FROM help_requests WHERE id = ? AND author_id = ?`), id, authorID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *HelpRequestRepository) ListOpen(ctx context.Context, filter models.RequestFilter) ([]models.HelpRequest, error) {
	conds := []string{"active = 1", "reserved_by IS NULL"}
	var args []interface{}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Region != "" {
		conds = append(conds, "region = ?")
		args = append(args, string(filter.Region))
	}
	query := `SELECT ` + helpRequestColumns + ` FROM help_requests WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY rating DESC, created_at ASC, id ASC`
	return r.queryRequests(ctx, query, args...)
}

func (r *HelpRequestRepository) Reserve(ctx context.Context, requestID, responderID int64) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		r.q(`UPDATE help_requests SET reserved_by = ? WHERE id = ? AND active = 1 AND reserved_by IS NULL`),
		responderID, requestID)
	if err != nil {
		return false, fmt.Errorf("reserve help request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	_, err = r.insert(ctx, tx,
		`INSERT INTO help_responses (responder_id, request_id, created_at, active) VALUES (?, ?, ?, 1)`,
		responderID, requestID, r.now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("insert help response: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *HelpRequestRepository) Cancel(ctx context.Context, requestID, responderID int64) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		r.q(`UPDATE help_requests SET reserved_by = NULL WHERE id = ? AND reserved_by = ?`),
		requestID, responderID)
	if err != nil {
		return false, fmt.Errorf("cancel help request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		r.q(`UPDATE help_responses SET active = 0 WHERE request_id = ? AND responder_id = ? AND active = 1`),
		requestID, responderID)
	if err != nil {
		return false, fmt.Errorf("deactivate help response: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *HelpRequestRepository) queryResponses(ctx context.Context, query string, args ...interface{}) ([]models.Response, error) {
	rows, err := r.DB.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Response
	for rows.Next() {
		var (
			resp      models.Response
			createdAt int64
			active    int
		)
		if err := rows.Scan(&resp.ID, &resp.ResponderID, &resp.RequestID, &createdAt, &active); err != nil {
			return nil, err
		}
		resp.CreatedAt = time.UnixMilli(createdAt)
		resp.Active = active == 1
		out = append(out, resp)
	}
	return out, rows.Err()
}

func (r *HelpRequestRepository) ListResponsesByUser(ctx context.Context, userID int64) ([]models.Response, error) {
	return r.queryResponses(ctx,
		`SELECT id, responder_id, request_id, created_at, active FROM help_responses WHERE responder_id = ? AND active = 1 ORDER BY created_at ASC, id ASC`, userID)
}

func (r *HelpRequestRepository) ListResponsesByRequest(ctx context.Context, requestID int64) ([]models.Response, error) {
	return r.queryResponses(ctx,
		`SELECT id, responder_id, request_id, created_at, active FROM help_responses WHERE request_id = ? AND active = 1 ORDER BY created_at ASC, id ASC`, requestID)
}

func (r *HelpRequestRepository) HasActiveResponse(ctx context.Context, userID, requestID int64) (bool, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		r.q(`SELECT COUNT(*) FROM help_responses WHERE responder_id = ? AND request_id = ? AND active = 1`),
		userID, requestID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *HelpRequestRepository) HasAcceptedAgreement(ctx context.Context, userID int64) (bool, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		r.q(`SELECT COUNT(*) FROM accepted_agreements WHERE user_id = ?`), userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *HelpRequestRepository) AcceptAgreement(ctx context.Context, userID int64) error {
	query := `INSERT INTO accepted_agreements (user_id, accepted_at) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`
	if r.Dialect == DialectMySQL {
		query = `INSERT IGNORE INTO accepted_agreements (user_id, accepted_at) VALUES (?, ?)`
	}
	_, err := r.DB.ExecContext(ctx, r.q(query), userID, r.now().UnixMilli())
	return err
}
