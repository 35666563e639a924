package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator used for models and
// request types.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct runs tag validation on v and converts failures into a
// ValidationError.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationError{Reason: err.Error()}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return ValidationError{Reason: strings.Join(msgs, "; ")}
}

// Validate checks the bill's structural invariants.
func (b Bill) Validate() error {
	if !b.Mode.Valid() {
		return ValidationError{Reason: fmt.Sprintf("unknown bill mode %d", int(b.Mode))}
	}
	if err := ValidateStruct(b); err != nil {
		return err
	}
	seen := make(map[string]bool, len(b.Participants))
	for _, p := range b.Participants {
		if seen[p] {
			return ValidationError{Reason: fmt.Sprintf("duplicate participant %q", p)}
		}
		seen[p] = true
	}
	if b.IsSubBill {
		if b.Mode != ModeFood {
			return ValidationError{Reason: "sub-bills must be FOOD bills"}
		}
		if len(b.SubBillIDs()) > 0 {
			return ValidationError{Reason: "sub-bills cannot reference further sub-bills"}
		}
	}
	return nil
}
