package models

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		v.RegisterValidation("entityname", validateEntityName)
		validate = v
	})
	return validate
}

// Validate checks the user's name.
func (u *User) Validate() error {
	return validateStruct(u)
}

// Validate checks the playlist's name.
func (p *Playlist) Validate() error {
	return validateStruct(p)
}

// ValidateUserName checks name as it would be checked on user creation.
func ValidateUserName(name string) error {
	return NewUser(name).Validate()
}

// ValidatePlaylistName checks name as it would be checked on playlist creation.
func ValidatePlaylistName(name string) error {
	return NewPlaylist(name).Validate()
}

func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	fe := errs[0]
	return fmt.Errorf("%w: %s", ErrInvalid, msgForTag(fe))
}

func msgForTag(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "entityname":
		return fmt.Sprintf("%s must not start with '$', contain control characters, or have surrounding whitespace", field)
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// validateEntityName rejects names the document store or the URL router would mangle.
func validateEntityName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if strings.HasPrefix(name, "$") {
		return false
	}
	if strings.TrimSpace(name) != name {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
