package payment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

var (
	// errors
	ErrNotFound       = errors.New("payment not found")
	ErrAmountMismatch = errors.New("amount does not match the course price")
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, pmt Payment) (Payment, error)
		GetPaymentByID(ctx context.Context, id string) (Payment, error)
		QueryUserPayments(ctx context.Context, userID string) ([]Payment, error)
		UpdatePaymentStatus(ctx context.Context, id, status string) (Payment, error)
	}

	// Gateway charges a pending payment with the upstream provider.
	// The shipped implementation is a simulation; real capture is out of scope.
	Gateway interface {
		Charge(ctx context.Context, pmt Payment) error
	}

	ServiceInterface interface {
		Initiate(ctx context.Context, userID string, ip InitiatePayment) (Payment, error)
		Verify(ctx context.Context, userID, id string) (Payment, error)
		History(ctx context.Context, userID string) ([]Payment, error)
	}

	service struct {
		repo      Repository
		gateway   Gateway
		courseSvc course.ServiceInterface
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, gateway Gateway, courseSvc course.ServiceInterface) ServiceInterface {
	return &service{
		repo:      repo,
		gateway:   gateway,
		courseSvc: courseSvc,
	}
}

// Initiate records a pending payment, charges it and, on success, enrolls
// the payer. A failed charge is recorded as failed and surfaced to the caller.
func (svc *service) Initiate(ctx context.Context, userID string, ip InitiatePayment) (Payment, error) {
	crs, err := svc.courseSvc.GetByID(ctx, ip.CourseID)
	if err != nil {
		return Payment{}, err
	}
	if ip.Amount != crs.Price {
		return Payment{}, core.NewValidationError(ErrAmountMismatch, core.FieldError{
			Field: "amount", Error: ErrAmountMismatch.Error(),
		})
	}

	now := time.Now().UTC()
	pmt := Payment{
		UserID:    userID,
		CourseID:  ip.CourseID,
		Amount:    ip.Amount,
		Method:    ip.Method,
		Phone:     ip.Phone,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pmt, err = svc.repo.CreatePayment(ctx, pmt); err != nil {
		return Payment{}, errors.Wrap(err, "creating payment")
	}

	if err = svc.gateway.Charge(ctx, pmt); err != nil {
		if failed, uErr := svc.repo.UpdatePaymentStatus(ctx, pmt.ID, StatusFailed); uErr == nil {
			pmt = failed
		}
		return pmt, errors.Wrap(err, "charging payment")
	}

	if pmt, err = svc.repo.UpdatePaymentStatus(ctx, pmt.ID, StatusConfirmed); err != nil {
		return Payment{}, errors.Wrap(err, "confirming payment")
	}

	// a confirmed payment enrolls the payer; double enrollment is benign here
	if _, err = svc.courseSvc.Enroll(ctx, userID, pmt.CourseID); err != nil {
		if errors.Cause(err) != course.ErrAlreadyEnrolled {
			return pmt, errors.Wrap(err, "enrolling payer")
		}
	}
	return pmt, nil
}

// Verify returns the payment's current status. Payments are only visible
// to their owner.
func (svc *service) Verify(ctx context.Context, userID, id string) (Payment, error) {
	pmt, err := svc.repo.GetPaymentByID(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if pmt.UserID != userID {
		return Payment{}, ErrNotFound
	}
	return pmt, nil
}

func (svc *service) History(ctx context.Context, userID string) ([]Payment, error) {
	return svc.repo.QueryUserPayments(ctx, userID)
}

// simGateway approves every charge; it stands in for a real provider.
type simGateway struct{}

func NewSimulatedGateway() Gateway { return simGateway{} }

func (simGateway) Charge(context.Context, Payment) error { return nil }
