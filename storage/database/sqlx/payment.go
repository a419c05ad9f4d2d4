package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/payment"
)

type paymentRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CourseID  string    `db:"course_id"`
	Amount    float64   `db:"amount"`
	Method    string    `db:"method"`
	Phone     string    `db:"phone"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *sqlx.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, pmt payment.Payment) (payment.Payment, error) {
	pmt.ID = uuid.NewString()
	query := `
INSERT INTO payments (id, user_id, course_id, amount, method, phone, status, created_at, updated_at)
VALUES (:id, :user_id, :course_id, :amount, :method, :phone, :status, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, paymentRow(pmt)); err != nil {
		return payment.Payment{}, errors.Wrap(err, "creating payment")
	}
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByID(ctx context.Context, id string) (payment.Payment, error) {
	var row paymentRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(`SELECT * FROM payments WHERE id = ?`), id); err != nil {
		if err == sql.ErrNoRows {
			return payment.Payment{}, payment.ErrNotFound
		}
		return payment.Payment{}, errors.Wrap(err, "getting payment by ID")
	}
	return payment.Payment(row), nil
}

func (repo *paymentRepository) QueryUserPayments(ctx context.Context, userID string) ([]payment.Payment, error) {
	var rows []paymentRow
	query := `SELECT * FROM payments WHERE user_id = ? ORDER BY created_at ASC`
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), userID); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	pmts := make([]payment.Payment, 0, len(rows))
	for _, row := range rows {
		pmts = append(pmts, payment.Payment(row))
	}
	return pmts, nil
}

func (repo *paymentRepository) UpdatePaymentStatus(ctx context.Context, id, status string) (payment.Payment, error) {
	query := `UPDATE payments SET status = ?, updated_at = ? WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), status, time.Now().UTC(), id)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "updating payment status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return payment.Payment{}, payment.ErrNotFound
	}
	return repo.GetPaymentByID(ctx, id)
}
