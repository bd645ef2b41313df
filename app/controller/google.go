package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/dto/http"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const codeGoogleTokenInvalid = "GOOGLE_TOKEN_INVALID"

type GoogleAuthController struct {
	googleService service.GoogleAuthService
}

func NewGoogleAuthController(googleService service.GoogleAuthService) *GoogleAuthController {
	return &GoogleAuthController{googleService: googleService}
}

func (c *GoogleAuthController) Callback(ctx echo.Context) error {
	code := ctx.QueryParam("code")
	if code == "" {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: codeInvalidRequest})
	}

	logrus.Info("Google callback received")
	pair, err := c.googleService.Callback(ctx.Request().Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrGoogleTokenInvalid) {
			logrus.Warn("Google login failed: provider exchange rejected")
			return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: codeGoogleTokenInvalid})
		}
		logrus.WithError(err).Error("Google login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: codeInternalError})
	}

	logrus.Info("Google login successful")
	return ctx.JSON(http.StatusOK, httpdto.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}
