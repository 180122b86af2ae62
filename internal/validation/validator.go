package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/models"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the domain tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON name so details line up with the
		// request body the client sent.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		mustRegister(v, "payment_type", func(fl validator.FieldLevel) bool {
			return models.PaymentType(fl.Field().String()).Valid()
		})
		mustRegister(v, "payment_method", func(fl validator.FieldLevel) bool {
			return models.PaymentMethod(fl.Field().String()).Valid()
		})
		// job_status only admits the states an employer may set directly.
		mustRegister(v, "job_status", func(fl validator.FieldLevel) bool {
			s := models.JobStatus(fl.Field().String())
			return s == models.JobOpen || s == models.JobClosed
		})
		// conversation_id_part guards the ids a conversation id is derived
		// from.
		mustRegister(v, "conversation_id_part", func(fl validator.FieldLevel) bool {
			return !strings.Contains(fl.Field().String(), models.ConversationIDSeparator)
		})
		mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})

		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("register validation tag " + tag + ": " + err.Error())
	}
}

// Struct validates s and converts failures into an apperr validation error
// whose details map each failing field to the tag that rejected it.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.ErrValidation.Wrap(err)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return apperr.Validation(details)
}
