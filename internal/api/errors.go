// internal/api/errors.go
package api

import (
	"context"
	stderrors "errors"
	"net/http"

	"autoease/internal/common/errors"
	"autoease/internal/session"

	"github.com/gin-gonic/gin"
)

var statusByCode = map[errors.ErrorCode]int{
	errors.ErrCodeInputValidation:    http.StatusBadRequest,
	errors.ErrCodeInvalidSelection:   http.StatusUnprocessableEntity,
	errors.ErrCodeIncompleteBooking:  http.StatusUnprocessableEntity,
	errors.ErrCodeServiceUnsupported: http.StatusUnprocessableEntity,
	errors.ErrCodeStationNotFound:    http.StatusNotFound,
	errors.ErrCodeSessionNotFound:    http.StatusNotFound,
	errors.ErrCodeSlotUnavailable:    http.StatusConflict,
	errors.ErrCodeInvalidTransition:  http.StatusConflict,
	errors.ErrCodeOracleFailure:      http.StatusBadGateway,
	errors.ErrCodeInvalidResponse:    http.StatusBadGateway,
	errors.ErrCodeOracleTimeout:      http.StatusGatewayTimeout,
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case stderrors.Is(err, context.Canceled):
		return 499
	}
	if status, ok := statusByCode[errors.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func errorBody(err error) gin.H {
	if stderrors.Is(err, session.ErrSuperseded) {
		return gin.H{"error": "A newer request replaced this one.", "code": "SUPERSEDED"}
	}
	stdErr := errors.AsStandard(err)
	body := gin.H{"error": stdErr.Message, "code": stdErr.Code}
	if stdErr.Details != "" {
		body["details"] = stdErr.Details
	}
	if len(stdErr.Metadata) > 0 {
		body["metadata"] = stdErr.Metadata
	}
	return body
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), errorBody(err))
}

// respondSessionError also returns the session state so clients can render
// the stored error message.
func respondSessionError(c *gin.Context, err error, snap session.Snapshot) {
	body := errorBody(err)
	body["session"] = snap
	c.JSON(statusFor(err), body)
}
