// Package api implements ApiFacade (spec.md §6/§4.9): the HTTP surface
// wiring ProjectStore, TaskScheduler, and Downloader together. Grounded on
// the teacher's internal/http package — gin handlers returning a small JSON
// error envelope, CORS via gin-contrib/cors, and otelgin request tracing.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the error body shape, matching the teacher's response.APIError.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes a JSON error envelope with the given status/code.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := code
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// RespondOK writes payload as a 200 JSON body.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAccepted writes payload as a 202 JSON body, used by the
// process/retry/restart-step endpoints (§6: "→ 202").
func RespondAccepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}
