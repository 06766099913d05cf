package handler

import (
	"net/http"
	"strings"

	"catalance/api/middleware"
	"catalance/internal/dto"
	"catalance/internal/entity"
	"catalance/internal/service"
	"catalance/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	Service  *service.AuthService
	Validate *validator.Validate
	Log      logrus.FieldLogger
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate, log logrus.FieldLogger) *AuthHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthHandler{Service: svc, Validate: validate, Log: log}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeMessage(c, http.StatusBadRequest, msgInvalidBody)
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	// Admins are only created through the users API.
	if entity.UserRole(req.Role) == entity.UserRoleAdmin {
		return writeMessage(c, http.StatusBadRequest, service.ErrInvalidRole.Message)
	}
	result, err := h.Service.Register(c.Request().Context(), registerInput(req))
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, mapAuthResponse(result))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeMessage(c, http.StatusBadRequest, msgInvalidBody)
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	input := service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: stringPtr(c.RealIP()),
	}
	result, err := h.Service.Authenticate(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, mapAuthResponse(result))
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req dto.PasswordForgotRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeMessage(c, http.StatusBadRequest, msgInvalidBody)
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	result, err := h.Service.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: result.Message})
}

func (h *AuthHandler) VerifyResetToken(c echo.Context) error {
	query := dto.VerifyResetTokenQuery{Token: strings.TrimSpace(c.QueryParam("token"))}
	if err := validate(h.Validate, query); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	status, err := h.Service.VerifyResetToken(c.Request().Context(), query.Token)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, dto.VerifyResetTokenResponse{Valid: status.Valid, Email: status.Email})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req dto.PasswordResetRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeMessage(c, http.StatusBadRequest, msgInvalidBody)
	}
	req.Token = strings.TrimSpace(req.Token)
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	result, err := h.Service.ResetPassword(c.Request().Context(), req.Token, req.Password)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: result.Message})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeMessage(c, http.StatusUnauthorized, msgUnauthorized)
	}
	var req dto.ChangePasswordRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeMessage(c, http.StatusBadRequest, msgInvalidBody)
	}
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.Service.ChangePassword(c.Request().Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeMessage(c, http.StatusUnauthorized, msgUnauthorized)
	}
	user, err := h.Service.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}

func registerInput(req dto.RegisterRequest) service.RegisterInput {
	return service.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		Role:       entity.UserRole(req.Role),
		Bio:        req.Bio,
		Skills:     req.Skills,
		HourlyRate: req.HourlyRate,
	}
}

func mapAuthResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User:        dto.UserResponseFromEntity(&result.User),
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
	}
}
