package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
)

type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) List(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, business_identity_token, receiver_identity_token, payer_identity_token,
		       transaction_type, amount, transaction_date, transaction_status, payment_method,
		       description, created_at
		FROM transactions
		ORDER BY rowid`)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list transactions", err)
	}
	defer rows.Close()

	out := make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		var amount, createdAt string
		if err := rows.Scan(
			&t.TransactionID, &t.BusinessIdentityToken, &t.ReceiverIdentityToken, &t.PayerIdentityToken,
			&t.TransactionType, &amount, &t.TransactionDate, &t.TransactionStatus, &t.PaymentMethod,
			&t.Description, &createdAt,
		); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan transaction", err)
		}
		t.Amount = models.ParseAmount(amount)
		t.CreatedAt = parseTime(createdAt)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list transactions", err)
	}
	return out, nil
}

func (s *TransactionStore) Append(ctx context.Context, tx *models.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			transaction_id, business_identity_token, receiver_identity_token, payer_identity_token,
			transaction_type, amount, transaction_date, transaction_status, payment_method,
			description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (transaction_id) DO NOTHING`,
		tx.TransactionID, tx.BusinessIdentityToken, tx.ReceiverIdentityToken, tx.PayerIdentityToken,
		tx.TransactionType, formatAmount(tx.Amount), tx.TransactionDate, tx.TransactionStatus, tx.PaymentMethod,
		tx.Description, formatTime(tx.CreatedAt),
	)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to append transaction", err)
	}
	return requireInserted(res, "transaction "+tx.TransactionID)
}

type InvoiceStore struct {
	db *sql.DB
}

func NewInvoiceStore(db *sql.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

const invoiceColumns = `invoice_number, business_identity_token, customer_name, amount, due_date, status, created_at, paid_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (models.Invoice, error) {
	var inv models.Invoice
	var amount string
	err := row.Scan(
		&inv.InvoiceNumber, &inv.BusinessIdentityToken, &inv.CustomerName, &amount,
		&inv.DueDate, &inv.Status, &inv.CreatedAt, &inv.PaidAt,
	)
	inv.Amount = models.ParseAmount(amount)
	return inv, err
}

func (s *InvoiceStore) List(ctx context.Context) ([]models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY rowid`)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list invoices", err)
	}
	defer rows.Close()

	out := make([]models.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan invoice", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list invoices", err)
	}
	return out, nil
}

func (s *InvoiceStore) Get(ctx context.Context, invoiceNumber string) (*models.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = ?`, invoiceNumber)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFoundError("invoice not found")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to get invoice", err)
	}
	return &inv, nil
}

func (s *InvoiceStore) Create(ctx context.Context, invoice *models.Invoice) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (invoice_number) DO NOTHING`,
		invoice.InvoiceNumber, invoice.BusinessIdentityToken, invoice.CustomerName, formatAmount(invoice.Amount),
		invoice.DueDate, invoice.Status, invoice.CreatedAt, invoice.PaidAt,
	)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create invoice", err)
	}
	return requireInserted(res, "invoice "+invoice.InvoiceNumber)
}

// MarkPaid moves a pending invoice to paid. The status guard in the WHERE
// clause makes the transition a single conditional write.
func (s *InvoiceStore) MarkPaid(ctx context.Context, invoiceNumber, paidAt string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET status = ?, paid_at = ?
		WHERE invoice_number = ? AND lower(trim(status)) <> ?`,
		models.InvoiceStatusPaid, paidAt, invoiceNumber, models.InvoiceStatusPaid,
	)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to mark invoice paid", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.NewDatabaseError("update", "failed to mark invoice paid", err)
	}
	if n > 0 {
		return nil
	}

	// nothing changed: either the invoice is missing or someone else paid it
	if _, err := s.Get(ctx, invoiceNumber); err != nil {
		return err
	}
	return errs.NewAlreadyExistsError("invoice already paid")
}

type AIStore struct {
	db       *sql.DB
	clockNow func() time.Time
}

func NewAIStore(db *sql.DB) *AIStore {
	return &AIStore{db: db, clockNow: time.Now}
}

func (s *AIStore) SaveMessage(ctx context.Context, businessToken, sessionID string, msg models.AIMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.clockNow()
	}
	args, err := encodeJSONMap(msg.ToolArgs)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to encode tool args", err)
	}
	result, err := encodeJSONMap(msg.ToolResult)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to encode tool result", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ai_messages (business_token, session_id, role, content, tool_name, tool_args, tool_result, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		businessToken, sessionID, msg.Role, msg.Content, msg.ToolName, args, result,
		formatTime(msg.CreatedAt), formatTime(msg.ExpiresAt),
	)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to save AI message", err)
	}
	return nil
}

// ListMessages returns the latest limit unexpired messages, oldest first.
func (s *AIStore) ListMessages(ctx context.Context, businessToken, sessionID string, limit int) ([]models.AIMessage, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, tool_name, tool_args, tool_result, created_at, expires_at
		FROM ai_messages
		WHERE business_token = ? AND session_id = ? AND (expires_at = '' OR expires_at > ?)
		ORDER BY id DESC
		LIMIT ?`,
		businessToken, sessionID, formatTime(s.clockNow()), limit,
	)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list AI messages", err)
	}
	defer rows.Close()

	var out []models.AIMessage
	for rows.Next() {
		var msg models.AIMessage
		var args, result, createdAt, expiresAt string
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.ToolName, &args, &result, &createdAt, &expiresAt); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan AI message", err)
		}
		if msg.ToolArgs, err = decodeJSONMap(args); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse tool args", err)
		}
		if msg.ToolResult, err = decodeJSONMap(result); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse tool result", err)
		}
		msg.CreatedAt = parseTime(createdAt)
		msg.ExpiresAt = parseTime(expiresAt)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list AI messages", err)
	}

	models.ReverseMessages(out)
	return out, nil
}

func requireInserted(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create "+what, err)
	}
	if n == 0 {
		return errs.NewAlreadyExistsError(what + " already exists")
	}
	return nil
}

func encodeJSONMap(m map[string]any) (string, error) {
	if m == nil {
		return "", nil
	}
	raw, err := json.Marshal(m)
	return string(raw), err
}

func decodeJSONMap(s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var out map[string]any
	err := json.Unmarshal([]byte(s), &out)
	return out, err
}
