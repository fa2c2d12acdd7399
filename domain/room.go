package domain

import (
	"relay-chat/errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRoomName accepts non-empty names made of lowercase ASCII letters and digits.
func ValidateRoomName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.ErrEmptyRoomName
	}
	if err := validate.Var(name, "alphanum,lowercase"); err != nil {
		return errors.ErrInvalidRoomName
	}
	return nil
}

// NormalizeUsername trims the name and checks it is usable as a display name.
func NormalizeUsername(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := validate.Var(trimmed, "required,max=32"); err != nil {
		return "", errors.ErrInvalidUsername
	}
	return trimmed, nil
}
