package utils

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/exam-session-service/internal/errors"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground struct validation with the custom rules used
// by the session core.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	registerCustomValidators(validate)

	return &Validator{validate: validate}
}

// Validate validates struct tags and converts failures into the shared
// ValidationErrors type.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if converted := apperrors.ToValidationErrors(err); len(converted) > 0 {
			return converted
		}
		return err
	}
	return nil
}

// Custom validation functions

func validateViolationType(fl validator.FieldLevel) bool {
	validTypes := []models.ViolationType{
		models.ViolationTabSwitch,
		models.ViolationWindowBlur,
		models.ViolationRightClick,
		models.ViolationDevToolsOpen,
		models.ViolationPaste,
		models.ViolationCopy,
		models.ViolationKeyboardShortcut,
		models.ViolationViewSource,
		models.ViolationSessionStarted,
		models.ViolationSessionResumed,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateFinalizeCause(fl validator.FieldLevel) bool {
	validCauses := []models.SubmissionType{
		models.SubmissionManual,
		models.SubmissionTimeExpired,
		models.SubmissionViolationLimit,
	}

	value := fl.Field().String()
	for _, validCause := range validCauses {
		if string(validCause) == value {
			return true
		}
	}
	return false
}

func validateQuestionType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == string(models.MultipleChoice) || value == string(models.FreeText)
}

// registerCustomValidators registers all custom validators
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("violation_type", validateViolationType)
	validate.RegisterValidation("finalize_cause", validateFinalizeCause)
	validate.RegisterValidation("question_type", validateQuestionType)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
