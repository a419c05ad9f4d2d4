package payment_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/payment"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var errGatewayDown = errors.New("gateway unavailable")

// deadGateway rejects every charge.
type deadGateway struct{}

func (deadGateway) Charge(context.Context, payment.Payment) error { return errGatewayDown }

func newTestService(t *testing.T, gw payment.Gateway) (payment.ServiceInterface, course.ServiceInterface) {
	t.Helper()
	db := inmemdb.NewDB()
	crsSvc := course.NewService(inmemdb.NewCourseRepository(db))
	if gw == nil {
		gw = payment.NewSimulatedGateway()
	}
	return payment.NewService(inmemdb.NewPaymentRepository(db), gw, crsSvc), crsSvc
}

func createCourse(t *testing.T, crsSvc course.ServiceInterface, title string, price float64) course.Course {
	t.Helper()
	crs, err := crsSvc.Create(context.Background(), "instr-1", course.NewCourse{
		Title:       title,
		Description: "Everything you need to know, from zero to production.",
		Category:    "programming",
		Level:       course.LevelBeginner,
		Price:       price,
		Duration:    "12 weeks",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return crs
}

func Test_service_Initiate(t *testing.T) {
	svc, crsSvc := newTestService(t, nil)
	ctx := context.Background()

	crs := createCourse(t, crsSvc, "Go from the Ground Up", 4500)

	_, err := svc.Initiate(ctx, "user-1", payment.InitiatePayment{CourseID: "lol", Amount: 4500, Method: payment.MethodCard})
	if errors.Cause(err) != course.ErrNotFound {
		t.Errorf("Initiate(unknown course) error = %v; want %v", err, course.ErrNotFound)
	}

	_, err = svc.Initiate(ctx, "user-1", payment.InitiatePayment{CourseID: crs.ID, Amount: 100, Method: payment.MethodCard})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Initiate(wrong amount) error = %v; want a validation error", err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "amount" {
		t.Errorf("Fields = %+v; want a single error on amount", vErr.Fields)
	}

	pmt, err := svc.Initiate(ctx, "user-1", payment.InitiatePayment{
		CourseID: crs.ID,
		Amount:   4500,
		Method:   payment.MethodBkash,
		Phone:    "01712345678",
	})
	if err != nil {
		t.Fatalf("Initiate() failed: %v", err)
	}
	if pmt.ID == "" {
		t.Error("Initiate() did not assign an ID")
	}
	if pmt.Status != payment.StatusConfirmed {
		t.Errorf("Status = %s; want %s", pmt.Status, payment.StatusConfirmed)
	}
	if pmt.Phone != "01712345678" {
		t.Errorf("Phone = %s; want 01712345678", pmt.Phone)
	}

	// a confirmed payment enrolls the payer
	enr, err := crsSvc.Progress(ctx, "user-1", crs.ID)
	if err != nil {
		t.Fatalf("Progress() failed: %v", err)
	}
	if enr.Progress != 0 {
		t.Errorf("Progress = %d; want 0", enr.Progress)
	}

	// paying again for the same course confirms without tripping on the enrollment
	pmt, err = svc.Initiate(ctx, "user-1", payment.InitiatePayment{CourseID: crs.ID, Amount: 4500, Method: payment.MethodCard})
	if err != nil {
		t.Fatalf("second Initiate() failed: %v", err)
	}
	if pmt.Status != payment.StatusConfirmed {
		t.Errorf("Status = %s; want %s", pmt.Status, payment.StatusConfirmed)
	}
}

func Test_service_Initiate_chargeFails(t *testing.T) {
	svc, crsSvc := newTestService(t, deadGateway{})
	ctx := context.Background()

	crs := createCourse(t, crsSvc, "Go from the Ground Up", 4500)

	pmt, err := svc.Initiate(ctx, "user-1", payment.InitiatePayment{CourseID: crs.ID, Amount: 4500, Method: payment.MethodCard})
	if errors.Cause(err) != errGatewayDown {
		t.Errorf("Initiate() error = %v; want %v", err, errGatewayDown)
	}
	if pmt.Status != payment.StatusFailed {
		t.Errorf("Status = %s; want %s", pmt.Status, payment.StatusFailed)
	}

	// a failed charge does not enroll the payer
	if _, err = crsSvc.Progress(ctx, "user-1", crs.ID); errors.Cause(err) != course.ErrNotEnrolled {
		t.Errorf("Progress() error = %v; want %v", err, course.ErrNotEnrolled)
	}

	// the failure is recorded in the history
	pmts, err := svc.History(ctx, "user-1")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(pmts) != 1 || pmts[0].Status != payment.StatusFailed {
		t.Errorf("History() = %+v; want a single failed payment", pmts)
	}
}

func Test_service_Verify(t *testing.T) {
	svc, crsSvc := newTestService(t, nil)
	ctx := context.Background()

	crs := createCourse(t, crsSvc, "Go from the Ground Up", 4500)
	pmt, err := svc.Initiate(ctx, "user-1", payment.InitiatePayment{CourseID: crs.ID, Amount: 4500, Method: payment.MethodCard})
	if err != nil {
		t.Fatalf("Initiate() failed: %v", err)
	}

	got, err := svc.Verify(ctx, "user-1", pmt.ID)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.Status != payment.StatusConfirmed {
		t.Errorf("Status = %s; want %s", got.Status, payment.StatusConfirmed)
	}

	// payments are only visible to their owner
	if _, err = svc.Verify(ctx, "user-2", pmt.ID); errors.Cause(err) != payment.ErrNotFound {
		t.Errorf("Verify(other user) error = %v; want %v", err, payment.ErrNotFound)
	}
	if _, err = svc.Verify(ctx, "user-1", "lol"); errors.Cause(err) != payment.ErrNotFound {
		t.Errorf("Verify(unknown) error = %v; want %v", err, payment.ErrNotFound)
	}
}

func Test_service_History(t *testing.T) {
	svc, crsSvc := newTestService(t, nil)
	ctx := context.Background()

	golang := createCourse(t, crsSvc, "Go from the Ground Up", 4500)
	python := createCourse(t, crsSvc, "Data Science with Python", 6500)

	for _, crs := range []course.Course{golang, python} {
		if _, err := svc.Initiate(ctx, "user-1", payment.InitiatePayment{CourseID: crs.ID, Amount: crs.Price, Method: payment.MethodCard}); err != nil {
			t.Fatalf("Initiate() failed: %v", err)
		}
	}

	pmts, err := svc.History(ctx, "user-1")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(pmts) != 2 {
		t.Fatalf("len(payments) = %d; want 2", len(pmts))
	}
	if pmts[0].CourseID != golang.ID || pmts[1].CourseID != python.ID {
		t.Errorf("payments out of order: %+v", pmts)
	}

	pmts, err = svc.History(ctx, "user-2")
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(pmts) != 0 {
		t.Errorf("len(payments) = %d; want 0", len(pmts))
	}
}
