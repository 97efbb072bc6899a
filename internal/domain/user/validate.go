package user

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one violated rule on one JSON field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

type createSchema struct {
	Name  string `json:"name" validate:"required,min=3"`
	Email string `json:"email" validate:"required,email"`
}

type recordSchema struct {
	UserID string `json:"userId" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

const (
	nameRule  = "required,min=3"
	emailRule = "required,email"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// ValidateCreate trims the payload and checks it against the create schema.
// It returns the normalized draft or one FieldError per violated field.
func ValidateCreate(req CreateUserRequest) (Draft, []FieldError) {
	s := createSchema{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
	}

	if err := validate.Struct(s); err != nil {
		return Draft{}, toFieldErrors(err)
	}

	return Draft{Name: s.Name, Email: s.Email}, nil
}

// ValidateEdit checks only the fields present in req.
func ValidateEdit(req EditUserRequest) (Changes, []FieldError) {
	var (
		changes Changes
		errs    []FieldError
	)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if fe, ok := checkVar("name", name, nameRule); !ok {
			errs = append(errs, fe)
		} else {
			changes.Name = &name
		}
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if fe, ok := checkVar("email", email, emailRule); !ok {
			errs = append(errs, fe)
		} else {
			changes.Email = &email
		}
	}

	if len(errs) > 0 {
		return Changes{}, errs
	}

	return changes, nil
}

// ValidateRecord checks a record that is about to leave the service.
func ValidateRecord(u User) []FieldError {
	err := validate.Struct(recordSchema{
		UserID: u.UserID,
		Name:   u.Name,
		Email:  u.Email,
	})
	if err != nil {
		return toFieldErrors(err)
	}

	return nil
}

func checkVar(field, value, rule string) (FieldError, bool) {
	err := validate.Var(value, rule)
	if err == nil {
		return FieldError{}, true
	}

	fes := toFieldErrors(err)
	fe := fes[0]
	fe.Field = field

	return fe, false
}

func toFieldErrors(err error) []FieldError {
	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) {
		return []FieldError{{Rule: "invalid"}}
	}

	out := make([]FieldError, 0, len(validationErrors))

	for _, fe := range validationErrors {
		out = append(out, FieldError{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}

	return out
}
