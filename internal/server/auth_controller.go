package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tranbn/slackline/internal/models"
	pkgmdw "github.com/tranbn/slackline/internal/server/middleware"
	"github.com/tranbn/slackline/internal/usecase"
)

type AuthController interface {
	Login(c echo.Context) error
	Logout(c echo.Context) error
	GetProfile(c echo.Context) error
	UpdateProfile(c echo.Context) error
}

type authController struct {
	authUsecase *usecase.AuthUseCase
}

func NewAuthController(authUsecase *usecase.AuthUseCase) AuthController {
	return &authController{
		authUsecase: authUsecase,
	}
}

func (ac *authController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	userAgent := c.Request().Header.Get("User-Agent")
	ipAddress := c.RealIP()

	response, err := ac.authUsecase.Login(ctx, req, userAgent, ipAddress)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, response)
}

func (ac *authController) Logout(c echo.Context) error {
	token := pkgmdw.BearerToken(c)
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing authorization header")
	}

	if err := ac.authUsecase.Logout(c.Request().Context(), token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

func (ac *authController) GetProfile(c echo.Context) error {
	return c.JSON(http.StatusOK, pkgmdw.CurrentUser(c))
}

type profileUpdateRequest struct {
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

func (ac *authController) UpdateProfile(c echo.Context) error {
	user := pkgmdw.CurrentUser(c)

	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updated, err := ac.authUsecase.UpdateProfile(c.Request().Context(), user.ID, req.DisplayName, req.Avatar)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}
