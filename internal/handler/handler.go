// Package handler exposes the services over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"workshopbuddy/internal/auth"
	apperrors "workshopbuddy/internal/errors"
)

// respondError converts a service error into an echo.HTTPError carrying an
// ErrorResponse body. Server-side failures are logged with the request logger.
func respondError(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("route", c.Path()).
			Msg("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// bind decodes the body and runs struct validation.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.NewValidationError("", "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		var vErr *apperrors.ValidationError
		if errors.As(err, &vErr) {
			return vErr
		}
		return apperrors.NewValidationError("", err.Error())
	}
	return nil
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidationError(name, "must be a positive integer")
	}
	return uint(id), nil
}

// currentClaims returns the identity placed on the context by the JWT
// middleware. A missing identity means the route was wired without it.
func currentClaims(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(auth.ContextKey).(*auth.Claims)
	if !ok || claims == nil || claims.UserID == 0 {
		return nil, apperrors.ErrNoIdentity
	}
	return claims, nil
}

func currentUserID(c echo.Context) (uint, error) {
	claims, err := currentClaims(c)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
