package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-gateway/internal/models"
)

// ErrReceiptExists signals a duplicate (message, user) receipt. Callers treat
// it as a successful no-op.
var ErrReceiptExists = errors.New("read receipt already exists")

const uniqueViolation = "23505"

// ReceiptRepository defines read-receipt persistence.
type ReceiptRepository interface {
	CreateReceipt(ctx context.Context, messageID string, userID string) (models.ReadReceipt, error)
}

// ReceiptRepo is a sqlx-backed repository.
type ReceiptRepo struct {
	db *sqlx.DB
}

// NewReceiptRepo constructs ReceiptRepo.
func NewReceiptRepo(db *sqlx.DB) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

// CreateReceipt inserts a receipt. The store's primary key enforces
// uniqueness; a conflict is mapped to ErrReceiptExists.
func (r *ReceiptRepo) CreateReceipt(ctx context.Context, messageID string, userID string) (models.ReadReceipt, error) {
	var receipt models.ReadReceipt
	err := r.db.QueryRowxContext(ctx, `INSERT INTO read_receipts (message_id, user_id) VALUES ($1, $2) RETURNING message_id, user_id, read_at`, messageID, userID).
		StructScan(&receipt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.ReadReceipt{}, ErrReceiptExists
		}
		return models.ReadReceipt{}, err
	}
	return receipt, nil
}
