package http

import (
	"net/http"

	"dilemma-survey-service/internal/domain"
	"dilemma-survey-service/internal/logger"
	"github.com/gin-gonic/gin"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, msg string) {
	c.AbortWithStatusJSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}

// respondDomainError maps an error kind to a status code. Unclassified errors
// are logged and hidden behind a generic 500.
func respondDomainError(c *gin.Context, log *logger.Logger, err error) {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindNotFound:
		respondError(c, http.StatusNotFound, kind.String(), err.Error())
	case domain.KindValidation:
		respondError(c, http.StatusBadRequest, kind.String(), err.Error())
	case domain.KindConflict:
		respondError(c, http.StatusConflict, kind.String(), err.Error())
	default:
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		respondError(c, http.StatusInternalServerError, kind.String(), "internal error")
	}
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, domain.KindValidation.String(), err.Error())
}
