package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"catalance/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgUnauthorized  = "Unauthorized"
	msgInvalidUserID = "Invalid user id"
	msgInternal      = "Internal server error"
)

type requestError struct {
	message string
}

func (e *requestError) Error() string {
	return e.message
}

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func validate(v *validator.Validate, payload any) error {
	if v == nil {
		return nil
	}
	err := v.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		return &requestError{message: validationMessage(fieldErrors[0])}
	}
	return &requestError{message: msgInvalidBody}
}

func validationMessage(fe validator.FieldError) string {
	field := fe.StructField()
	switch {
	case field == "Email" && fe.Tag() == "required":
		return service.ErrEmailRequired.Message
	case field == "Email":
		return "Invalid email address"
	case strings.HasSuffix(field, "Password") && fe.Tag() == "required":
		return service.ErrPasswordRequired.Message
	case strings.HasSuffix(field, "Password") && fe.Tag() == "min":
		return service.ErrPasswordTooShort.Message
	case strings.HasSuffix(field, "Password") && fe.Tag() == "max":
		return fmt.Sprintf("Password must be at most %d characters long", service.MaxPasswordLength)
	case field == "Token":
		return service.ErrResetTokenRequired.Message
	case field == "Role":
		return service.ErrInvalidRole.Message
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func writeMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"message": message})
}

func writeError(c echo.Context, status int, err error) error {
	return writeMessage(c, status, err.Error())
}

// writeServiceError exposes service errors by kind; anything else is logged
// and answered with a generic 500.
func writeServiceError(c echo.Context, log logrus.FieldLogger, err error) error {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		log.WithError(err).WithField("path", c.Path()).Error("unhandled service error")
		return writeMessage(c, http.StatusInternalServerError, msgInternal)
	}
	return writeMessage(c, statusForKind(svcErr.Kind), svcErr.Message)
}

func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindConflict:
		return http.StatusConflict
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func stringPtr(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
