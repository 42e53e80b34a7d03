package validator

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
)

const isoDateLayout = "2006-01-02"

var (
	registerOnce sync.Once
	registerErr  error

	// fieldValidator backs the standalone helpers below
	fieldValidator = playground.New()
	phones         = NewPhoneValidator()
)

func init() {
	fieldValidator.RegisterValidation("phone", validatePhone)
	fieldValidator.RegisterValidation("isodate", validateISODate)
}

// RegisterBindings adds the "phone" and "isodate" tags to gin's request validator.
// Safe to call more than once.
func RegisterBindings() error {
	registerOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*playground.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
			return
		}
		if err := engine.RegisterValidation("phone", validatePhone); err != nil {
			registerErr = fmt.Errorf("failed to register phone validation: %w", err)
			return
		}
		if err := engine.RegisterValidation("isodate", validateISODate); err != nil {
			registerErr = fmt.Errorf("failed to register isodate validation: %w", err)
		}
	})
	return registerErr
}

// IsValidEmail reports whether email is a syntactically valid address
func IsValidEmail(email string) bool {
	return fieldValidator.Var(strings.TrimSpace(email), "required,email") == nil
}

// IsISODate reports whether date is a calendar date in YYYY-MM-DD form
func IsISODate(date string) bool {
	return fieldValidator.Var(date, "isodate") == nil
}

func validatePhone(fl playground.FieldLevel) bool {
	return phones.IsValid(fl.Field().String())
}

func validateISODate(fl playground.FieldLevel) bool {
	_, err := time.Parse(isoDateLayout, fl.Field().String())
	return err == nil
}
