package service

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/yesid10/taskflow-api/internal/apperr"
)

// ValidateStringEquals returns a rule passing only when the value equals str.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// validationError converts an ozzo validation result into the API's
// validation error. Internal rule failures are returned unchanged.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for k, v := range verrs {
		fields[k] = v.Error()
	}
	return apperr.Validation(fields)
}
