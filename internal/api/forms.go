package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"pokerhand/internal/domain"
)

type HandForm struct {
	Number1 string `form:"number1" validate:"required"`
	Suit1   string `form:"suit1" validate:"required"`
	Number2 string `form:"number2" validate:"required"`
	Suit2   string `form:"suit2" validate:"required"`
	Number3 string `form:"number3" validate:"required"`
	Suit3   string `form:"suit3" validate:"required"`
	Number4 string `form:"number4" validate:"required"`
	Suit4   string `form:"suit4" validate:"required"`
	Number5 string `form:"number5" validate:"required"`
	Suit5   string `form:"suit5" validate:"required"`
}

func (f HandForm) Hand() domain.Hand {
	return domain.Hand{
		{Number: f.Number1, Suit: f.Suit1},
		{Number: f.Number2, Suit: f.Suit2},
		{Number: f.Number3, Suit: f.Suit3},
		{Number: f.Number4, Suit: f.Suit4},
		{Number: f.Number5, Suit: f.Suit5},
	}
}

type HandRequest struct {
	Hand domain.Hand `json:"hand"`
}

type ApplicationForm struct {
	Name       string  `form:"name" validate:"required"`
	Email      string  `form:"email" validate:"required,email"`
	GPA        float64 `form:"gpa" validate:"gte=0,lte=4"`
	Background string  `form:"background"`
}

type EmailForm struct {
	Email string `form:"email" validate:"required,email"`
}

type GPAForm struct {
	GPA float64 `form:"gpa" validate:"gte=0,lte=4"`
}

// newValidator reports fields by their form names so messages match the page inputs.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates a form and converts the first failure into a ValidationError.
func (s *Server) check(form any) error {
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	return &domain.ValidationError{
		Field:  fe.Field(),
		Value:  fmt.Sprint(fe.Value()),
		Reason: reason(fe),
	}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "not an email address"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
