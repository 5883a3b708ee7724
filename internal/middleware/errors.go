package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// problem is the RFC 7807 body the middleware answers with. It mirrors
// handler.ProblemDetails without importing the handler package.
type problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Code     string `json:"code"`
}

const errorTypeBase = "https://habitat.app/errors/"

func writeProblem(c echo.Context, status int, slug, code, detail string) error {
	return c.JSON(status, problem{
		Type:     errorTypeBase + slug,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Code:     code,
	})
}

func unauthorizedError(c echo.Context, detail string) error {
	return writeProblem(c, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED", detail)
}

// rateLimitedError answers 429 with Retry-After in whole seconds
func rateLimitedError(c echo.Context, retryAfter int) error {
	c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
	return writeProblem(c, http.StatusTooManyRequests, "rate-limit", "RATE_LIMITED",
		"Too many booking requests. Retry after "+strconv.Itoa(retryAfter)+" seconds.")
}
