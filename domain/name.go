package domain

import (
	"chat-relay/errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const MaxNameLength = 64

var validate = validator.New()

// ValidateName rejects display names that could not be addressed by
// @name, GROUP ADD or GROUP KICK.
func ValidateName(name string) error {
	if err := validate.Var(name, fmt.Sprintf("required,max=%d", MaxNameLength)); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidName, err)
	}
	if strings.ContainsFunc(name, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) {
		return fmt.Errorf("%w: %q contains whitespace", errors.ErrInvalidName, name)
	}
	return nil
}
