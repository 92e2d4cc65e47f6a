package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cmdsafe/cmdsafe/internal/domain/rule"
	"github.com/cmdsafe/cmdsafe/internal/rules"
)

// RegisterCustomValidators registers cmdsafe-specific validation rules.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("register duration validator: %w", err)
	}
	if err := v.RegisterValidation("rule_id", validateRuleID); err != nil {
		return fmt.Errorf("register rule_id validator: %w", err)
	}
	if err := v.RegisterValidation("category", validateCategory); err != nil {
		return fmt.Errorf("register category validator: %w", err)
	}
	return nil
}

// validateDuration accepts any time.ParseDuration-parseable string.
func validateDuration(fl validator.FieldLevel) bool {
	_, err := time.ParseDuration(fl.Field().String())
	return err == nil
}

// validateRuleID enforces the identifier allow-list on names that end up
// as dynamic lookup keys.
func validateRuleID(fl validator.FieldLevel) bool {
	return rule.ValidRuleID(fl.Field().String())
}

// validateCategory accepts known rule category names.
func validateCategory(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	for _, c := range rules.CategoryNames() {
		if c == name {
			return true
		}
	}
	return false
}

// Validate validates the Config using struct tags and custom rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

// formatValidationErrors turns validator errors into actionable messages.
func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var msgs []string
	for _, fe := range errs {
		switch fe.Tag() {
		case "duration":
			msgs = append(msgs, fmt.Sprintf("%s: %q is not a valid duration (e.g. \"30s\", \"15m\")", fe.Namespace(), fe.Value()))
		case "rule_id":
			msgs = append(msgs, fmt.Sprintf("%s: %q must contain only letters, digits, and underscores", fe.Namespace(), fe.Value()))
		case "category":
			msgs = append(msgs, fmt.Sprintf("%s: unknown category %q (known: %s)", fe.Namespace(), fe.Value(), strings.Join(rules.CategoryNames(), ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed %q validation", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
}
