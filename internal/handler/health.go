package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is the liveness endpoint load balancers and monitoring systems
// poll.  It answers before any dependency is touched, so a degraded
// Redis or broker never takes the whole service out of rotation.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok") // write "ok" with a 200 OK status
}
