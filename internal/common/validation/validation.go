package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"moments-backend/internal/common/errors"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxParticipants      = 50
	MaxAllowedWallets    = 500
)

// EVM-style hex address. Body length is not pinned to 40 so test and
// checksum-less short forms are accepted.
var walletRegex = regexp.MustCompile(`^0[xX][0-9a-fA-F]{1,64}$`)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the "wallet" tag registered.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("wallet", func(fl validator.FieldLevel) bool {
			return IsValidWallet(fl.Field().String())
		})
	})
	return validate
}

func IsValidWallet(address string) bool {
	return walletRegex.MatchString(strings.TrimSpace(address))
}

// NormalizeWallet trims and lower-cases a wallet address. field names the
// request field in the returned INVALID_ADDRESS error.
func NormalizeWallet(field, address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" || !walletRegex.MatchString(trimmed) {
		return "", errors.NewInvalidAddressError(field, address)
	}
	return strings.ToLower(trimmed), nil
}

// NormalizeOptionalWallet is NormalizeWallet that lets blank input through as "".
func NormalizeOptionalWallet(field, address string) (string, error) {
	if strings.TrimSpace(address) == "" {
		return "", nil
	}
	return NormalizeWallet(field, address)
}

// SameWallet compares addresses ignoring case and surrounding space.
func SameWallet(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.NewValidationError("title", "cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return errors.NewValidationError("title", fmt.Sprintf("cannot exceed %d characters", MaxTitleLength))
	}
	return nil
}

func ValidateDescription(description string) error {
	if len(strings.TrimSpace(description)) > MaxDescriptionLength {
		return errors.NewValidationError("description", fmt.Sprintf("cannot exceed %d characters", MaxDescriptionLength))
	}
	return nil
}

// Struct runs tag validation and converts the first failure into an AppError.
func Struct(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(err, errors.ErrCodeValidation, "Invalid request")
	}

	fe := verrs[0]
	field := jsonFieldName(fe)
	if fe.Tag() == "wallet" {
		return errors.NewInvalidAddressError(field, fmt.Sprintf("%v", fe.Value()))
	}
	return errors.NewValidationError(field, describe(fe))
}

func jsonFieldName(fe validator.FieldError) string {
	if name := fe.Field(); name != "" {
		return name
	}
	return fe.StructField()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed '%s' check", fe.Tag())
	}
}
