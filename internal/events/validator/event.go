package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"campusrent/pkg/logger"
	"campusrent/pkg/model"
)

var hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

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

type EventValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewEventValidator(log *logger.Logger) *EventValidator {
	v := validator.New()

	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		log.Fatal("Failed to register 'hhmm' validator",
			"error", err,
		)
	}

	return &EventValidator{
		validate: v,
		logger:   log,
	}
}

func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func (v *EventValidator) Validate(event *model.Event) error {
	if err := v.validate.Struct(event); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if event.EndDate.Before(event.StartDate) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndDate",
				Message: "end_date must not be before start_date",
			},
		}
	}

	if !event.EndsAt().After(event.StartsAt()) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "event must end after it starts",
			},
		}
	}

	return nil
}

func (v *EventValidator) ValidateAssignments(assignments []model.FacilityAssignment, maxAssignments int) error {
	if len(assignments) == 0 {
		return ValidationErrors{
			ValidationError{
				Field:   "Facilities",
				Message: "at least one facility assignment is required",
			},
		}
	}

	if len(assignments) > maxAssignments {
		return ValidationErrors{
			ValidationError{
				Field:   "Facilities",
				Message: fmt.Sprintf("at most %d facility assignments are allowed", maxAssignments),
			},
		}
	}

	seen := make(map[string]bool, len(assignments))
	for i, assignment := range assignments {
		if err := v.validate.Struct(assignment); err != nil {
			var validationErrs validator.ValidationErrors
			if errors.As(err, &validationErrs) {
				translated := v.translateValidationErrors(validationErrs)
				for j := range translated {
					translated[j].Field = fmt.Sprintf("facilities[%d].%s", i, translated[j].Field)
				}
				return translated
			}
			return err
		}

		if seen[assignment.FacilityID] && assignment.AllocationID == "" {
			return ValidationErrors{
				ValidationError{
					Field:   fmt.Sprintf("facilities[%d].FacilityID", i),
					Message: "duplicate facility in assignment list",
				},
			}
		}
		seen[assignment.FacilityID] = true
	}

	return nil
}

func (v *EventValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
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
		case "hhmm":
			message = fmt.Sprintf("%s must be a 24h time in HH:MM format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
