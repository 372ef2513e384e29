package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"creditflow/internal/credit/models"
	id "creditflow/pkg/domain"
	"creditflow/pkg/platform/sentinel"
	txcontext "creditflow/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists credit requests, banking info, statuses and the
// transition audit trail. Writes join the transaction carried by ctx, if any.
// Status changes reach the notification bridge through the
// credit_request_status_changed trigger, not through this type.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Requests, Banking, Statuses and Transitions expose the store through the
// narrower port types.
func (s *PostgresStore) Requests() *PostgresRequestStore       { return &PostgresRequestStore{s} }
func (s *PostgresStore) Banking() *PostgresBankingStore        { return &PostgresBankingStore{s} }
func (s *PostgresStore) Statuses() *PostgresStatusStore        { return &PostgresStatusStore{s} }
func (s *PostgresStore) Transitions() *PostgresTransitionStore { return &PostgresTransitionStore{s} }

type PostgresStatusStore struct{ *PostgresStore }

func (s *PostgresStatusStore) List(ctx context.Context) ([]models.RequestStatus, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `SELECT id, code, name, is_final FROM request_statuses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query request statuses: %w", err)
	}
	defer rows.Close()

	var out []models.RequestStatus
	for rows.Next() {
		var (
			statusID uuid.UUID
			status   models.RequestStatus
		)
		if err := rows.Scan(&statusID, &status.Code, &status.Name, &status.IsFinal); err != nil {
			return nil, fmt.Errorf("scan request status: %w", err)
		}
		status.ID = id.StatusID(statusID)
		out = append(out, status)
	}
	return out, rows.Err()
}

type PostgresRequestStore struct{ *PostgresStore }

const requestColumns = `id, country_code, full_name, document_id, requested_amount, monthly_income,
	status_id, requested_at, created_at, updated_at`

func (s *PostgresRequestStore) Create(ctx context.Context, req *models.CreditRequest) error {
	if req == nil {
		return fmt.Errorf("credit request is required")
	}
	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	query := `
		INSERT INTO credit_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(req.ID),
		string(req.CountryCode),
		req.FullName,
		req.DocumentID,
		req.RequestedAmount,
		req.MonthlyIncome,
		uuid.UUID(req.StatusID),
		req.RequestedAt,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("insert credit request: %w", sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("insert credit request: %w", err)
	}
	return nil
}

func (s *PostgresRequestStore) FindByID(ctx context.Context, requestID id.CreditRequestID) (*models.CreditRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM credit_requests WHERE id = $1`
	req, err := scanRequest(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credit request: %w", err)
	}
	return req, nil
}

func (s *PostgresRequestStore) UpdateStatus(ctx context.Context, requestID id.CreditRequestID, expected, next id.StatusID, reason string) error {
	query := `
		UPDATE credit_requests
		SET status_id = $3, status_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status_id = $2
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(requestID), uuid.UUID(expected), uuid.UUID(next), reason)
	if err != nil {
		return fmt.Errorf("update credit request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credit request status: %w", err)
	}
	if affected == 1 {
		return nil
	}
	// Distinguish a lost compare-and-set from a missing row.
	var exists bool
	if err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credit_requests WHERE id = $1)`, uuid.UUID(requestID)).Scan(&exists); err != nil {
		return fmt.Errorf("check credit request: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresRequestStore) ListByStatusIDs(ctx context.Context, statusIDs []id.StatusID) ([]models.CreditRequest, error) {
	ids := make([]string, len(statusIDs))
	for i, sid := range statusIDs {
		ids[i] = sid.String()
	}
	query := `SELECT ` + requestColumns + ` FROM credit_requests WHERE status_id = ANY($1::uuid[]) ORDER BY created_at`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list credit requests by status: %w", err)
	}
	defer rows.Close()

	var out []models.CreditRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit request: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.CreditRequest, error) {
	var (
		req       models.CreditRequest
		requestID uuid.UUID
		statusID  uuid.UUID
		country   string
	)
	if err := row.Scan(
		&requestID,
		&country,
		&req.FullName,
		&req.DocumentID,
		&req.RequestedAmount,
		&req.MonthlyIncome,
		&statusID,
		&req.RequestedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	req.ID = id.CreditRequestID(requestID)
	req.StatusID = id.StatusID(statusID)
	req.CountryCode = id.CountryCode(country)
	return &req, nil
}

type PostgresBankingStore struct{ *PostgresStore }

const bankingColumns = `id, credit_request_id, external_request_id, provider_name, fetch_status,
	financial_data, error_message, retry_count, created_at, updated_at`

func (s *PostgresBankingStore) Upsert(ctx context.Context, info *models.BankingInfo) error {
	if info == nil {
		return fmt.Errorf("banking info is required")
	}
	if uuid.UUID(info.ID) == uuid.Nil {
		info.ID = id.NewBankingInfoID()
	}
	// lib/pq sends []byte as bytea; jsonb columns take the text form.
	var financial any
	if len(info.FinancialData) > 0 {
		financial = string(info.FinancialData)
	}
	query := `
		INSERT INTO banking_info (` + bankingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (credit_request_id) DO UPDATE SET
			external_request_id = EXCLUDED.external_request_id,
			provider_name = EXCLUDED.provider_name,
			fetch_status = EXCLUDED.fetch_status,
			financial_data = EXCLUDED.financial_data,
			error_message = EXCLUDED.error_message,
			retry_count = EXCLUDED.retry_count,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	var bankingID uuid.UUID
	err := s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(info.ID),
		uuid.UUID(info.CreditRequestID),
		nullString(info.ExternalRequestID),
		info.ProviderName,
		string(info.FetchStatus),
		financial,
		nullString(info.ErrorMessage),
		info.RetryCount,
	).Scan(&bankingID, &info.CreatedAt, &info.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert banking info: %w", err)
	}
	info.ID = id.BankingInfoID(bankingID)
	return nil
}

func (s *PostgresBankingStore) FindByCreditRequestID(ctx context.Context, requestID id.CreditRequestID) (*models.BankingInfo, error) {
	query := `SELECT ` + bankingColumns + ` FROM banking_info WHERE credit_request_id = $1`
	return s.findOne(ctx, query, uuid.UUID(requestID))
}

func (s *PostgresBankingStore) FindByExternalRequestID(ctx context.Context, externalRequestID string) (*models.BankingInfo, error) {
	query := `SELECT ` + bankingColumns + ` FROM banking_info WHERE external_request_id = $1`
	return s.findOne(ctx, query, externalRequestID)
}

func (s *PostgresBankingStore) findOne(ctx context.Context, query string, arg any) (*models.BankingInfo, error) {
	var (
		info        models.BankingInfo
		bankingID   uuid.UUID
		requestID   uuid.UUID
		externalID  sql.NullString
		errorMsg    sql.NullString
		fetchStatus string
		financial   []byte
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, arg).Scan(
		&bankingID,
		&requestID,
		&externalID,
		&info.ProviderName,
		&fetchStatus,
		&financial,
		&errorMsg,
		&info.RetryCount,
		&info.CreatedAt,
		&info.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find banking info: %w", err)
	}
	info.ID = id.BankingInfoID(bankingID)
	info.CreditRequestID = id.CreditRequestID(requestID)
	info.ExternalRequestID = externalID.String
	info.ErrorMessage = errorMsg.String
	info.FetchStatus = models.FetchStatus(fetchStatus)
	if len(financial) > 0 {
		info.FinancialData = json.RawMessage(financial)
	}
	return &info, nil
}

type PostgresTransitionStore struct{ *PostgresStore }

func (s *PostgresTransitionStore) Append(ctx context.Context, transition *models.StatusTransition) error {
	if transition == nil {
		return fmt.Errorf("transition is required")
	}
	if transition.ID.IsNil() {
		transition.ID = id.NewTransitionID()
	}
	if transition.CreatedAt.IsZero() {
		transition.CreatedAt = time.Now()
	}
	metadata, err := json.Marshal(transition.Metadata)
	if err != nil {
		return fmt.Errorf("marshal transition metadata: %w", err)
	}
	var from any
	if transition.FromStatusID != nil {
		from = uuid.UUID(*transition.FromStatusID)
	}
	query := `
		INSERT INTO status_transitions (id, credit_request_id, from_status_id, to_status_id, triggered_by, reason, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(transition.ID),
		uuid.UUID(transition.CreditRequestID),
		from,
		uuid.UUID(transition.ToStatusID),
		string(transition.TriggeredBy),
		transition.Reason,
		string(metadata),
		transition.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status transition: %w", err)
	}
	return nil
}

func (s *PostgresTransitionStore) ListByCreditRequestID(ctx context.Context, requestID id.CreditRequestID) ([]models.StatusTransition, error) {
	query := `
		SELECT id, credit_request_id, from_status_id, to_status_id, triggered_by, reason, metadata, created_at
		FROM status_transitions
		WHERE credit_request_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(requestID))
	if err != nil {
		return nil, fmt.Errorf("query status transitions: %w", err)
	}
	defer rows.Close()

	var out []models.StatusTransition
	for rows.Next() {
		var (
			t            models.StatusTransition
			transitionID uuid.UUID
			reqID        uuid.UUID
			from         uuid.NullUUID
			to           uuid.UUID
			trigger      string
			metadata     []byte
		)
		if err := rows.Scan(&transitionID, &reqID, &from, &to, &trigger, &t.Reason, &metadata, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status transition: %w", err)
		}
		t.ID = id.TransitionID(transitionID)
		t.CreditRequestID = id.CreditRequestID(reqID)
		if from.Valid {
			fromID := id.StatusID(from.UUID)
			t.FromStatusID = &fromID
		}
		t.ToStatusID = id.StatusID(to)
		t.TriggeredBy = models.Trigger(trigger)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
				return nil, fmt.Errorf("decode transition metadata: %w", err)
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
