package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"periodicd/internal/shared"
)

// StatusOf maps an error kind to an HTTP status code.
func StatusOf(err error) int {
	switch shared.KindOf(err) {
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	case shared.KindConflict, shared.KindInvalidState:
		return http.StatusConflict
	case shared.KindNotReady:
		return http.StatusServiceUnavailable
	case shared.KindTimeout:
		return http.StatusGatewayTimeout
	case shared.KindDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusOf(err), errorBody{
		Error: err.Error(),
		Kind:  shared.KindOf(err).String(),
	})
}
