package ginadapter

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/onion/errors"
	"github.com/kbukum/onion/logger"
)

// RespondWithError aborts c with the JSON body of err. Errors that are not
// AppErrors are reported as INTERNAL_ERROR.
func RespondWithError(c *gin.Context, err error) {
	appErr := errors.Wrap(err)
	if appErr.HTTPStatus >= 500 {
		logger.Get("ginadapter").
			WithContext(c.Request.Context()).
			WithError(err).
			Error("request failed", logger.Fields("path", c.FullPath(), "code", string(appErr.Code)))
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
