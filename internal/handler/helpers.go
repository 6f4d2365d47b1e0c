package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/inboxmem/inboxmem/internal/middleware"
	appErr "github.com/inboxmem/inboxmem/internal/pkg/errcode"
	pkgErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
	"github.com/inboxmem/inboxmem/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, pkgErr.ErrUnauthorized):
		response.Error(c, appErr.ErrUnauthorized, "unauthorized")
	case errors.Is(err, pkgErr.ErrForbidden):
		response.Error(c, appErr.ErrForbidden, "forbidden")
	case errors.Is(err, pkgErr.ErrNotFound):
		response.Error(c, appErr.ErrNotFound, "not found")
	case errors.Is(err, pkgErr.ErrInvalid):
		response.Error(c, appErr.ErrInvalid, "invalid request")
	case errors.Is(err, pkgErr.ErrConflict):
		response.Error(c, appErr.ErrConflict, "conflict")
	case errors.Is(err, pkgErr.ErrClassification):
		response.Error(c, appErr.ErrClassifyFailed, "classification failed")
	case errors.Is(err, pkgErr.ErrEmbedding):
		response.Error(c, appErr.ErrAnswerFailed, "embedding failed")
	default:
		response.Error(c, appErr.ErrInternal, "internal error")
	}
}
