package handler

import (
	"net/http"
	"strings"

	"catalance/internal/dto"
	"catalance/internal/entity"
	"catalance/internal/repository"
	"catalance/internal/service"
	"catalance/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	Service  *service.AuthService
	Validate *validator.Validate
	Log      logrus.FieldLogger
}

func NewUserHandler(svc *service.AuthService, validate *validator.Validate, log logrus.FieldLogger) *UserHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &UserHandler{Service: svc, Validate: validate, Log: log}
}

func (h *UserHandler) List(c echo.Context) error {
	query := dto.ListUsersQuery{Role: strings.ToUpper(strings.TrimSpace(c.QueryParam("role")))}
	if err := validate(h.Validate, query); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	var filter repository.UserFilter
	if query.Role != "" {
		role := entity.UserRole(query.Role)
		filter.Role = &role
	}
	users, err := h.Service.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponsesFromEntities(users))
}

func (h *UserHandler) Create(c echo.Context) error {
	var req dto.RegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeMessage(c, http.StatusBadRequest, msgInvalidBody)
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if err := validate(h.Validate, req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	user, err := h.Service.CreateUser(c.Request().Context(), registerInput(req))
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, dto.UserResponseFromEntity(user))
}

func (h *UserHandler) Get(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeMessage(c, http.StatusBadRequest, msgInvalidUserID)
	}
	user, err := h.Service.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, dto.UserResponseFromEntity(user))
}
