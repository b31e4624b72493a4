package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags & texts
	dayCodesTag  = "daycodes"
	dayCodesText = "invalid day codes (expected Mon..Sun)"

	timeOfDayTag  = "timeofday"
	timeOfDayText = "invalid time of day (expected HH:MM)"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	// DayCodes are the recognized weekday codes, in schedule order.
	DayCodes = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
)

func init() {
	Validate = validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	Translator, _ = uni.GetTranslator("en")
	initValidators(Validate, Translator)
}

// initValidators instantiates the validator for use.
func initValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(dayCodesTag, dayCodesValidation)
	RegisterCustomTranslation(validate, translator, dayCodesTag, dayCodesText)

	_ = validate.RegisterValidation(timeOfDayTag, timeOfDayValidation)
	RegisterCustomTranslation(validate, translator, timeOfDayTag, timeOfDayText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func isDayCode(code string) bool {
	for _, c := range DayCodes {
		if c == code {
			return true
		}
	}
	return false
}

// dayCodesValidation checks that all provided weekday codes are in DayCodes.
func dayCodesValidation(fl validator.FieldLevel) bool {
	days, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, day := range days {
		if !isDayCode(day) {
			return false
		}
	}
	return true
}

// timeOfDayValidation checks the "HH:MM" wall-clock format.
func timeOfDayValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}
