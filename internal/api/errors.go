package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pagesmith/internal/apperr"
)

func statusFor(kind apperr.ErrorKind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind := apperr.Kind(err)
	c.JSON(statusFor(kind), gin.H{"error": err.Error(), "kind": kind})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error(), "kind": apperr.KindValidation})
}
