package serverutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"wizzmo-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var (
	validate      = validator.New()
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)
)

func init() {
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
}

func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperror.Validation(err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return apperror.Validation(strings.Join(messages, "; "))
}
