package router

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	maxGroupNameLength   = 64
	maxDisplayNameLength = 64
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// The tag name is a constant; registration only fails on an empty tag.
	_ = v.RegisterValidation("groupname", isGroupName)
	return v
}

// isGroupName accepts printable names without whitespace.
func isGroupName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || len([]rune(name)) > maxGroupNameLength {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || !unicode.IsPrint(r)
	})
}

type groupInput struct {
	Name string `validate:"required,groupname"`
}

type displayNameInput struct {
	DisplayName string `validate:"required,max=64"`
}

type wishInput struct {
	Wish string `validate:"required,max=500"`
}

func validateGroupName(name string) error {
	if err := validate.Struct(groupInput{Name: name}); err != nil {
		return invalidf(err, msgInvalidGroupName, maxGroupNameLength)
	}
	return nil
}

func validateDisplayName(name string) error {
	if err := validate.Struct(displayNameInput{DisplayName: name}); err != nil {
		return invalidf(err, msgInvalidDisplayName, maxDisplayNameLength)
	}
	return nil
}

func validateWish(wish string) error {
	if err := validate.Struct(wishInput{Wish: wish}); err != nil {
		return invalidf(err, msgInvalidWish)
	}
	return nil
}
