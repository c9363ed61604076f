package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/util"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// abortWithError maps the sentinel error kinds onto HTTP statuses. This is
// the only place the translation happens; everything below the handlers deals
// in wrapped sentinels.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, util.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, util.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, util.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, util.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, util.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, util.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
	case errors.Is(err, util.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).Error("unclassified handler error")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
