package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Email validation pattern
	EmailPattern = `^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`

	// Usernames: letters, digits, dot, dash and underscore
	UsernamePattern = `^[a-zA-Z0-9._\-]+$`

	// Module identifiers are short slugs such as "m1" or "intro-html"
	ModuleIDPattern = `^[a-zA-Z0-9_\-]{1,64}$`

	UsernameMinLength = 3
	UsernameMaxLength = 50

	PasswordMinLength = 6
	PasswordMaxLength = 100

	NameMinLength = 3
	NameMaxLength = 100

	CourseTitleMaxLength = 200
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email    *regexp.Regexp
	Username *regexp.Regexp
	ModuleID *regexp.Regexp
}{
	Email:    regexp.MustCompile(EmailPattern),
	Username: regexp.MustCompile(UsernamePattern),
	ModuleID: regexp.MustCompile(ModuleIDPattern),
}

// String validation
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	value := strings.TrimSpace(v.Value)
	if v.Required && value == "" {
		return false
	}

	// Skip other validations for empty optional values
	if !v.Required && value == "" {
		return true
	}

	length := len([]rune(value))
	if v.MinLen > 0 && length < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && length > v.MaxLen {
		return false
	}

	if v.Pattern != nil && !v.Pattern.MatchString(value) {
		return false
	}

	return true
}

// IsValidModuleID reports whether id is an acceptable module identifier
func IsValidModuleID(id string) bool {
	return CompiledPatterns.ModuleID.MatchString(id)
}

// RegisterCustomValidators adds the project's tags to a validator engine:
// "username", "moduleid" and "role".
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return CompiledPatterns.Username.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("moduleid", func(fl validator.FieldLevel) bool {
		return IsValidModuleID(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		return role == "" || role == "ADMIN" || role == "STUDENT"
	})
}
