package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"paytrack/internal/models"

	"github.com/go-playground/validator/v10"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct runs the `validate` tags of s and records each failing field.
func (v *Validator) Struct(s interface{}) {
	err := structValidator.Struct(s)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.AddError("request", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		v.AddError(fe.Field(), tagMessage(fe))
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "max":
		return fmt.Sprintf("must not be more than %s characters long", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// Transfer validates a transfer request against the ledger policy.
func (v *Validator) Transfer(req models.TransferRequest, allowSelfTransfer bool) {
	v.Struct(req)

	v.Positive("amount", req.Amount)
	v.MaxScale("amount", req.Amount, AmountScale)
	v.Max("amount", req.Amount, MaxTransferAmount)
	v.MaxLength("description", req.Description, MaxDescriptionLength)

	if !allowSelfTransfer && req.PayerID != 0 && req.PayerID == req.RecipientID {
		v.AddError("recipientId", "payer and recipient cannot be the same")
	}
}

// ValidateTransfer returns apperrors.ValidationErrors describing every invalid field, or nil.
func ValidateTransfer(req models.TransferRequest, allowSelfTransfer bool) error {
	v := New()
	v.Transfer(req, allowSelfTransfer)
	return v.Err()
}

// ValidateUserID checks a participant id taken from a path or flag.
func ValidateUserID(field string, id int64) error {
	v := New()
	v.Required(field, id)
	v.Check(id > 0, field, "must be a positive integer")
	return v.Err()
}
