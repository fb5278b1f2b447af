package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omnimedia/server/internal/module/auth"
	apperrors "github.com/omnimedia/server/internal/shared/errors"
	"github.com/omnimedia/server/internal/utils/requestctx"
)

const (
	// RateLimitRemaining is the header for remaining requests.
	RateLimitRemaining = "X-RateLimit-Remaining"
	// RateLimitLimit is the header for the limit.
	RateLimitLimit = "X-RateLimit-Limit"
	// RateLimitReset is the header for reset time.
	RateLimitReset = "X-RateLimit-Reset"
	// RetryAfter is the header for retry time.
	RetryAfter = "Retry-After"

	// RequesterKey is the context key for the admitted caller identity.
	RequesterKey = "requester"
	// BucketKey is the context key for the rate limit bucket of the route.
	BucketKey = "rate_bucket"
)

// Admission outcomes.
const (
	OutcomeAdmitted     = "admitted"
	OutcomeUnauthorized = "unauthorized"
	OutcomeRateLimited  = "rate_limited"
	OutcomeForbidden    = "forbidden"
)

// AdmissionRecorder counts admission decisions.
type AdmissionRecorder interface {
	RecordAdmission(bucket, outcome string)
}

type nopAdmissionRecorder struct{}

func (nopAdmissionRecorder) RecordAdmission(string, string) {}

// Admit returns a middleware that authenticates the caller and consumes one
// slot of bucket. Rejections abort with 401 or 429.
func Admit(gate *auth.Gate, bucket string, rec AdmissionRecorder) gin.HandlerFunc {
	if rec == nil {
		rec = nopAdmissionRecorder{}
	}

	return func(c *gin.Context) {
		c.Set(BucketKey, bucket)

		adm, err := gate.Admit(c.Request.Context(), bucket, c.Request.Header)
		if adm != nil {
			c.Set(RequesterKey, adm.Requester)
			c.Request = c.Request.WithContext(requestctx.WithRequester(c.Request.Context(), adm.Requester))
			setRateLimitHeaders(c, adm)
		}

		if err != nil {
			var appErr *apperrors.AppError
			if errors.Is(err, auth.ErrRateLimited) {
				c.Header(RetryAfter, strconv.Itoa(int(adm.Window.Seconds())))
				appErr = apperrors.RateLimited("rate limit exceeded for bucket " + bucket)
				rec.RecordAdmission(bucket, OutcomeRateLimited)
			} else {
				appErr = apperrors.Unauthorized(err.Error())
				rec.RecordAdmission(bucket, OutcomeUnauthorized)
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
			return
		}

		rec.RecordAdmission(bucket, OutcomeAdmitted)
		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, adm *auth.Admission) {
	c.Header(RateLimitLimit, strconv.Itoa(adm.Limit))
	c.Header(RateLimitRemaining, strconv.Itoa(adm.Remaining))
	c.Header(RateLimitReset, strconv.FormatInt(time.Now().Add(adm.Window).Unix(), 10))
}

// RequireIP rejects callers outside the allowlist with 403. An empty list
// allows everyone.
func RequireIP(list *auth.IPAllowlist, bucket string, rec AdmissionRecorder) gin.HandlerFunc {
	if rec == nil {
		rec = nopAdmissionRecorder{}
	}

	return func(c *gin.Context) {
		if list.Empty() {
			c.Next()
			return
		}
		if !list.Allows(c.ClientIP()) {
			c.Set(BucketKey, bucket)
			rec.RecordAdmission(bucket, OutcomeForbidden)
			_ = c.Error(auth.ErrIPNotAllowed)
			appErr := apperrors.Forbidden(auth.ErrIPNotAllowed.Error())
			c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
			return
		}
		c.Next()
	}
}
