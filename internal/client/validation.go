package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/keboola/developer-portal-client-go/internal/constants"
	"github.com/keboola/developer-portal-client-go/pkg/devportal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateConfig rejects a configuration with a user error before any network activity.
func validateConfig(config *devportal.Config) error {
	invalidEndpoint := devportal.NewUserError(fmt.Sprintf(constants.MsgInvalidEndpoint, config.BaseURL))

	if strings.TrimSpace(config.BaseURL) == "" {
		return invalidEndpoint
	}

	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	for _, fieldErr := range validationErrs {
		if fieldErr.StructField() == "BaseURL" {
			return invalidEndpoint
		}
	}

	return userValidationError(validationErrs)
}

// validateRequest checks the validate tags of a request payload.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validating request: %w", err)
	}

	return userValidationError(validationErrs)
}

func userValidationError(validationErrs validator.ValidationErrors) error {
	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		messages = append(messages, fmt.Sprintf("%s failed on the %q rule", fieldErr.Field(), fieldErr.Tag()))
	}

	return devportal.NewUserError("Invalid input: " + strings.Join(messages, ", ") + ".")
}
