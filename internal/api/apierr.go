package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zsunny6658/clipforge/internal/apperr"
)

// kindStatus maps the apperr taxonomy (spec.md §7) to HTTP status, grounded
// on the teacher's apierr.Error{Status,Code,Err} translation pattern but
// keyed off apperr.Kind instead of a hand-picked status per call site, so
// every handler gets consistent status codes for free.
var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:             http.StatusNotFound,
	apperr.KindConflict:             http.StatusConflict,
	apperr.KindInvalidArgument:      http.StatusBadRequest,
	apperr.KindSystemBusy:           http.StatusTooManyRequests,
	apperr.KindSubtitlesMissing:     http.StatusUnprocessableEntity,
	apperr.KindSubtitlesUnavailable: http.StatusUnprocessableEntity,
	apperr.KindMediaUnreadable:      http.StatusUnprocessableEntity,
	apperr.KindStageEmpty:           http.StatusUnprocessableEntity,
	apperr.KindLockContended:        http.StatusConflict,
	apperr.KindDiskFull:             http.StatusInsufficientStorage,
}

// RespondAppErr translates err into an HTTP response. Unrecognized or
// untyped errors map to 500, never leaking internals beyond err.Error().
func RespondAppErr(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	code := string(kind)
	if code == "" {
		code = "internal_error"
	}
	RespondError(c, status, code, err)
}
