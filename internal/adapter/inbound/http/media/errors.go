package mediahttp

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/omnimedia/server/internal/module/job"
	"github.com/omnimedia/server/internal/module/media"
	apperrors "github.com/omnimedia/server/internal/shared/errors"
)

// handleError maps generation errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError

	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, media.ErrValidation), errors.Is(err, media.ErrNilRequest):
		appErr = apperrors.ValidationError(err.Error())
	case errors.Is(err, media.ErrPolicy):
		appErr = apperrors.PolicyViolation(err.Error())
	case errors.Is(err, media.ErrBackendUnavailable):
		appErr = apperrors.BackendUnavailable(err.Error())
	case errors.Is(err, job.ErrJobNotFound):
		appErr = apperrors.NotFound("job")
	default:
		appErr = apperrors.Internal("internal error", err)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
}
