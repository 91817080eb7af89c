// Package validation validates request bodies with go-playground/validator.
// Field names in messages are the json names, so they match the wire format.
//
// Custom tags:
//   - isodate: a YYYY-MM-DD calendar date
//   - httpurl: a string starting with http:// or https://
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field returns the json name of the field that failed.
func (e *FieldError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string { return e.tag }

// Param returns the tag parameter, e.g. "100" for "lte=100".
func (e *FieldError) Param() string { return e.param }

func (e *FieldError) Error() string { return e.message }

// RequestError collects the field failures of one struct.
type RequestError struct {
	errors []FieldError
}

// Errors returns the individual field failures.
func (re *RequestError) Errors() []FieldError {
	return re.errors
}

// Error joins the field messages.
func (re *RequestError) Error() string {
	if len(re.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(re.errors))
	for i := range re.errors {
		messages = append(messages, re.errors[i].message)
	}
	return strings.Join(messages, "; ")
}

// First returns the first failure message, which is what in-band error
// responses report.
func (re *RequestError) First() string {
	if len(re.errors) == 0 {
		return "validation failed"
	}
	return re.errors[0].message
}

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("isodate", isISODate)
		_ = validate.RegisterValidation("httpurl", isHTTPURL)
	})
	return validate
}

func isISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func isHTTPURL(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Struct validates s. It returns nil or a *RequestError.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{errors: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		out[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			message: translate(fe),
		}
	}
	return &RequestError{errors: out}
}

var messages = map[string]string{
	"required": "%s is required",
	"isodate":  "%s must be a date in YYYY-MM-DD format",
	"httpurl":  "%s must start with http:// or https://",
}

var messagesWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if tpl, ok := messages[tag]; ok {
		return fmt.Sprintf(tpl, field)
	}
	if tpl, ok := messagesWithParam[tag]; ok {
		return fmt.Sprintf(tpl, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
