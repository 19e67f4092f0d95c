package http

import (
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/robertarktes/court-reservations/internal/domain"
	"github.com/shopspring/decimal"
)

type createReservationRequest struct {
	UserID  int64  `json:"user_id" validate:"omitempty,gt=0"`
	CourtID int64  `json:"court_id" validate:"required,gt=0"`
	Start   string `json:"start_datetime" validate:"required,timestamp"`
	End     string `json:"end_datetime" validate:"required,timestamp"`
}

type updateReservationRequest struct {
	UserID  int64            `json:"user_id" validate:"required,gt=0"`
	CourtID int64            `json:"court_id" validate:"required,gt=0"`
	Start   string           `json:"start_datetime" validate:"required,timestamp"`
	End     string           `json:"end_datetime" validate:"required,timestamp"`
	Status  *string          `json:"status" validate:"omitempty,oneof=pending confirmed cancelled"`
	Total   *decimal.Decimal `json:"total"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RequestValidator checks decoded request bodies and reports failures as domain validation errors.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Layout only; the configured timezone is applied when the value is converted.
	v.RegisterValidation("timestamp", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseTimestamp(fl.Field().String(), time.UTC)
		return err == nil
	})
	return &RequestValidator{validate: v}
}

func (rv *RequestValidator) Validate(req interface{}) error {
	err := rv.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return domain.Validationf("%s", strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be a positive integer"
	case "timestamp":
		return fe.Field() + " must be a timestamp like 2006-01-02 15:04:05"
	case "oneof":
		return fe.Field() + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return fe.Field() + " is invalid"
	case "min":
		return fe.Field() + " must have at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must have at most " + fe.Param() + " characters"
	}
	return fe.Field() + " is invalid"
}
