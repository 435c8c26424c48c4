package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/biblion/internal/services"
)

// statusForKind maps a domain error kind to an HTTP status.
func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError answers with the status derived from err. Domain
// messages are shown as is; anything else is logged and reported as an
// internal error.
func respondServiceError(c *gin.Context, err error, context string) {
	kind := services.KindOf(err)
	if kind == services.KindInternal {
		respondInternalError(c, err, context)
		return
	}
	msg := err.Error()
	var domainErr *services.Error
	if errors.As(err, &domainErr) {
		msg = domainErr.Msg
	}
	respondError(c, statusForKind(kind), msg)
}
