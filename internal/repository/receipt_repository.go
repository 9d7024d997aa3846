package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"receiptbook/api/internal/models"
)

var (
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrReceiptNoTaken  = errors.New("receipt number already exists")
)

type ReceiptRepository struct {
	pool *pgxpool.Pool
}

func NewReceiptRepository(pool *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{pool: pool}
}

const receiptColumns = `id, receipt_no, receipt_date, donor_name, village, mobile, payment_mode, total_amount, status, created_by, created_at, updated_at`

func scanReceipt(row pgx.Row) (models.Receipt, error) {
	var rc models.Receipt
	if err := row.Scan(
		&rc.ID,
		&rc.ReceiptNo,
		&rc.ReceiptDate,
		&rc.DonorName,
		&rc.Village,
		&rc.Mobile,
		&rc.PaymentMode,
		&rc.TotalAmount,
		&rc.Status,
		&rc.CreatedBy,
		&rc.CreatedAt,
		&rc.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Receipt{}, ErrReceiptNotFound
		}
		return models.Receipt{}, err
	}
	return rc, nil
}

func (r *ReceiptRepository) Create(ctx context.Context, rc models.Receipt) (int64, error) {
	const query = `
		INSERT INTO receipts (receipt_no, receipt_date, donor_name, village, mobile, payment_mode, total_amount, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		rc.ReceiptNo,
		rc.ReceiptDate,
		rc.DonorName,
		rc.Village,
		rc.Mobile,
		rc.PaymentMode,
		rc.TotalAmount,
		rc.Status,
		rc.CreatedBy,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ErrReceiptNoTaken
		}
		return 0, err
	}
	return id, nil
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id int64) (models.Receipt, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id)
	return scanReceipt(row)
}

// List returns receipts newest-first. A non-zero createdBy restricts to
// one creator.
func (r *ReceiptRepository) List(ctx context.Context, createdBy int64, limit, offset int) ([]models.Receipt, error) {
	const query = `
		SELECT ` + receiptColumns + `
		FROM receipts
		WHERE ($1 = 0 OR created_by = $1)
		ORDER BY receipt_date DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, createdBy, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, rc)
	}
	return receipts, rows.Err()
}

func (r *ReceiptRepository) Update(ctx context.Context, rc models.Receipt) error {
	const query = `
		UPDATE receipts SET
			receipt_date = $2,
			donor_name   = $3,
			village      = $4,
			mobile       = $5,
			payment_mode = $6,
			total_amount = $7,
			status       = $8,
			updated_at   = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		rc.ID,
		rc.ReceiptDate,
		rc.DonorName,
		rc.Village,
		rc.Mobile,
		rc.PaymentMode,
		rc.TotalAmount,
		rc.Status,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

func (r *ReceiptRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM receipts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrReceiptNotFound
	}
	return nil
}
