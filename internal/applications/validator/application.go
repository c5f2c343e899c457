package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"campusrent/pkg/logger"
	"campusrent/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ApplicationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewApplicationValidator(log *logger.Logger) *ApplicationValidator {
	return &ApplicationValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *ApplicationValidator) ValidateSubmission(submission *model.ApplicationSubmission, maxLines int) error {
	if err := v.validate.Struct(submission); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if len(submission.Facilities) > maxLines {
		return ValidationErrors{
			ValidationError{
				Field:   "Facilities",
				Message: fmt.Sprintf("at most %d facilities can be requested in one submission", maxLines),
			},
		}
	}

	seen := make(map[string]bool, len(submission.Facilities))
	for i, line := range submission.Facilities {
		if seen[line.EventFacilityID] {
			return ValidationErrors{
				ValidationError{
					Field:   fmt.Sprintf("facilities[%d].EventFacilityID", i),
					Message: "duplicate facility in submission",
				},
			}
		}
		seen[line.EventFacilityID] = true
	}

	return nil
}

func (v *ApplicationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +60123456789)", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
