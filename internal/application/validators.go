package application

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// RegisterConfigValidators registers the custom tags used by Config with
// the validator instance.
// RegisterConfigValidators returns an error if any registration fails.
func RegisterConfigValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("column", validateColumnName); err != nil {
		return fmt.Errorf("failed to register column validator: %w", err)
	}
	if err := v.RegisterValidation("login", validateLogin); err != nil {
		return fmt.Errorf("failed to register login validator: %w", err)
	}
	if err := v.RegisterValidation("projectname", validateProjectName); err != nil {
		return fmt.Errorf("failed to register projectname validator: %w", err)
	}
	return nil
}

// validateColumnName accepts a non-empty column header without leading or
// trailing whitespace, which CSV readers would otherwise keep verbatim.
func validateColumnName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return name != "" && strings.TrimSpace(name) == name
}

// validateLogin accepts a student identifier with no whitespace.
func validateLogin(fl validator.FieldLevel) bool {
	login := fl.Field().String()
	if login == "" {
		return false
	}
	return !strings.ContainsFunc(login, unicode.IsSpace)
}

// validateProjectName accepts names usable as a single directory name.
func validateProjectName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	switch name {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(name, `/\`) && strings.TrimSpace(name) == name
}
