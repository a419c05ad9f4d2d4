package payment

import (
	"regexp"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Methods
const (
	MethodBkash = "bkash"
	MethodNagad = "nagad"
	MethodCard  = "card"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

type Payment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Phone     string    `json:"phone,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// InitiatePayment contains information needed to start a checkout.
// Wallet methods (bkash, nagad) require a valid BD mobile number.
type InitiatePayment struct {
	CourseID string  `json:"course_id" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Method   string  `json:"method" validate:"required,oneof=bkash nagad card"`
	Phone    string  `json:"phone" validate:"omitempty,walletphone"`
}

func (ip *InitiatePayment) Validate(validate *validator.Validate) error {
	ip.Method = core.CleanString(ip.Method, true /* lower */)
	ip.Phone = core.CleanString(ip.Phone)

	if err := validate.Struct(ip); err != nil {
		return err
	}
	if (ip.Method == MethodBkash || ip.Method == MethodNagad) && ip.Phone == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "phone", Error: walletPhoneText})
	}
	return nil
}

var (
	walletPhoneTag   = "walletphone"
	walletPhoneText  = "a valid mobile number is required for wallet payments"
	walletPhoneRegex = regexp.MustCompile(`^01[3-9]\d{8}$`)
)

// InitValidators registers the payment package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(walletPhoneTag, walletPhoneValidation)
	core.RegisterCustomTranslation(validate, translator, walletPhoneTag, walletPhoneText)
}

func walletPhoneValidation(fl validator.FieldLevel) bool {
	return walletPhoneRegex.MatchString(fl.Field().String())
}
