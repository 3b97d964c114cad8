package web

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/topi314/clubagenda/internal/xtime"
	"github.com/topi314/clubagenda/server/apperr"
)

const (
	clockTag = "clock"
	dateTag  = "date"
)

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report json names instead of go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(clockTag, func(fl validator.FieldLevel) bool {
		_, err := xtime.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation(dateTag, func(fl validator.FieldLevel) bool {
		_, err := xtime.ParseDate(fl.Field().String())
		return err == nil
	})
	registerTranslation(validate, translator, clockTag, "{0} must be a time in HH:MM format")
	registerTranslation(validate, translator, dateTag, "{0} must be a date in YYYY-MM-DD format")

	return validate, translator
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag string, text string) {
	_ = validate.RegisterTranslation(tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// validateStruct turns validation failures into a single Validation error listing every field message.
func (h *handler) validateStruct(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Wrap(apperr.KindValidation, "invalid request", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	fields := make(map[string]string, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		msg := fieldErr.Translate(h.translator)
		messages = append(messages, msg)
		fields[fieldErr.Field()] = msg
	}
	return apperr.Validation("%s", strings.Join(messages, "; ")).With("fields", fields)
}
