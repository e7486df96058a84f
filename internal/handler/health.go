package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visa-portal/internal/response"
)

// Health is the liveness probe.
func Health(c echo.Context) error {
	return response.Success(c, "SUCCESS", nil)
}
