package orderform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// Field names a draft field in validation results.
type Field string

const (
	FieldPaperType     Field = "paper_type"
	FieldAcademicLevel Field = "academic_level"
	FieldSubject       Field = "subject"
	FieldUrgency       Field = "urgency"
	FieldTopic         Field = "topic"
	FieldDescription   Field = "description"
	FieldWordCount     Field = "word_count"
	FieldSourceCount   Field = "source_count"
)

// Reasons reported by Validate.
const (
	ReasonRequired     = "required"
	ReasonUnsupported  = "unsupported"
	ReasonTooShort     = "too_short"
	ReasonBelowMinimum = "below_minimum"
	ReasonNegative     = "negative"
)

// MinDescriptionLength is counted in characters after trimming.
const MinDescriptionLength = 20

// Errors maps a field to the reason it failed.
type Errors map[Field]string

// Error implements error so a failed Submit can carry the details.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f, r := range e {
		fields = append(fields, fmt.Sprintf("%s: %s", f, r))
	}
	sort.Strings(fields)
	return "invalid order: " + strings.Join(fields, ", ")
}

// Is lets callers match any validation failure with ErrInvalidOrder.
func (e Errors) Is(target error) bool {
	return target == domainErrors.ErrInvalidOrder
}

type catalogValue interface{ Valid() bool }

// validated mirrors Draft with the trimmed values rules apply to.
type validated struct {
	PaperType     model.PaperType     `validate:"required,catalog"`
	AcademicLevel model.AcademicLevel `validate:"required,catalog"`
	Subject       string              `validate:"required"`
	Urgency       model.Urgency       `validate:"required,catalog"`
	Topic         string              `validate:"required"`
	Description   string              `validate:"required,min=20"`
	WordCount     int                 `validate:"gte=275"`
	SourceCount   int                 `validate:"gte=0"`
}

var fieldNames = map[string]Field{
	"PaperType":     FieldPaperType,
	"AcademicLevel": FieldAcademicLevel,
	"Subject":       FieldSubject,
	"Urgency":       FieldUrgency,
	"Topic":         FieldTopic,
	"Description":   FieldDescription,
	"WordCount":     FieldWordCount,
	"SourceCount":   FieldSourceCount,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("catalog", func(fl validator.FieldLevel) bool {
		cv, ok := fl.Field().Interface().(catalogValue)
		return ok && cv.Valid()
	})
	if err != nil {
		panic(fmt.Sprintf("orderform: register catalog rule: %v", err))
	}
	return v
}

func validateDraft(d Draft) Errors {
	in := validated{
		PaperType:     d.PaperType,
		AcademicLevel: d.AcademicLevel,
		Subject:       strings.TrimSpace(d.Subject),
		Urgency:       d.Urgency,
		Topic:         strings.TrimSpace(d.Topic),
		Description:   strings.TrimSpace(d.Description),
		WordCount:     d.WordCount,
		SourceCount:   d.SourceCount,
	}

	errs := Errors{}
	err := validate.Struct(in)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs[FieldPaperType] = err.Error()
		return errs
	}
	for _, fe := range fieldErrs {
		field := fieldNames[fe.StructField()]
		if _, seen := errs[field]; seen {
			continue
		}
		errs[field] = reasonFor(field, fe.Tag())
	}
	return errs
}

func reasonFor(field Field, tag string) string {
	switch tag {
	case "required":
		return ReasonRequired
	case "catalog":
		return ReasonUnsupported
	case "min":
		return ReasonTooShort
	case "gte":
		if field == FieldSourceCount {
			return ReasonNegative
		}
		return ReasonBelowMinimum
	}
	return tag
}
