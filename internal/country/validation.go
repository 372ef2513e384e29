package country

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "creditflow/pkg/domain-errors"
)

// StructPayload validates a JSON payload by decoding it into T and running
// the struct's `validate` tags.
type StructPayload[T any] struct {
	validate *validator.Validate
}

func NewStructPayload[T any]() *StructPayload[T] {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonTagName)
	return &StructPayload[T]{validate: v}
}

func (p *StructPayload[T]) Validate(financialData map[string]any) error {
	if len(financialData) == 0 {
		return dErrors.New(dErrors.CodeValidation, "financial data is empty")
	}
	raw, err := json.Marshal(financialData)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "financial data is not valid JSON")
	}
	var target T
	if err := json.Unmarshal(raw, &target); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "financial data has unexpected shape")
	}
	if err := p.validate.Struct(target); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "financial data validation failed")
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", trimRoot(fe.Namespace()), fe.Tag()))
	}
	return dErrors.New(dErrors.CodeValidation, "financial data validation failed: "+strings.Join(fields, ", ")).
		WithDetail("fields", fields)
}

// trimRoot drops the struct type name validator puts in front of namespaces.
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// PatternDocument validates documents against a regular expression after
// trimming and upper-casing.
type PatternDocument struct {
	kind    string
	pattern *regexp.Regexp
}

func NewPatternDocument(kind, pattern string) *PatternDocument {
	return &PatternDocument{kind: kind, pattern: regexp.MustCompile(pattern)}
}

func (d *PatternDocument) DocumentType() string {
	return d.kind
}

func (d *PatternDocument) Validate(documentID string) error {
	normalized := strings.ToUpper(strings.TrimSpace(documentID))
	if normalized == "" {
		return dErrors.New(dErrors.CodeInvalidInput, d.kind+" is required")
	}
	if !d.pattern.MatchString(normalized) {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid %s format", d.kind)).
			WithDetail("document_type", d.kind)
	}
	return nil
}
