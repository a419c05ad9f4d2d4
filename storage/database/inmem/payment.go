package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/payment"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil)

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(_ context.Context, pmt payment.Payment) (payment.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pmt.ID = uuid.NewString()
	repo.db.payments[pmt.ID] = &pmt
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByID(_ context.Context, id string) (payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if pmt, ok := repo.db.payments[id]; ok {
		return *pmt, nil
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) QueryUserPayments(_ context.Context, userID string) ([]payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	pmts := make([]payment.Payment, 0)
	for _, pmt := range repo.db.payments {
		if pmt.UserID == userID {
			pmts = append(pmts, *pmt)
		}
	}
	sort.Slice(pmts, func(i, j int) bool { return pmts[i].CreatedAt.Before(pmts[j].CreatedAt) })
	return pmts, nil
}

func (repo *paymentRepository) UpdatePaymentStatus(_ context.Context, id, status string) (payment.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	pmt, ok := repo.db.payments[id]
	if !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	pmt.Status = status
	pmt.UpdatedAt = time.Now().UTC()
	return *pmt, nil
}
