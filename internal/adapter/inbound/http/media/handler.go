package mediahttp

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/omnimedia/server/internal/infra/audit"
	"github.com/omnimedia/server/internal/module/auth"
	"github.com/omnimedia/server/internal/module/generation"
	"github.com/omnimedia/server/internal/module/job"
	"github.com/omnimedia/server/internal/module/media"
	apperrors "github.com/omnimedia/server/internal/shared/errors"
	"github.com/omnimedia/server/internal/utils/middleware"
)

const (
	serviceName    = "omni-media"
	serviceVersion = "1.0.0"
)

// GenerationService is the generation surface the handler depends on.
type GenerationService interface {
	GenerateSync(ctx context.Context, modality media.Modality, body *generation.GenerateBody) (*media.Response, error)
	EnqueueJob(ctx context.Context, modality media.Modality, body *generation.GenerateBody) (*job.Record, error)
	GetJob(id string) (*job.Record, error)
	Diagnostics(ctx context.Context) *generation.Diagnostics
}

// Config holds handler dependencies.
type Config struct {
	Service        GenerationService
	Gate           *auth.Gate
	AdminAllowlist *auth.IPAllowlist
	Audit          *audit.Logger
	Recorder       middleware.AdmissionRecorder
}

// Handler serves the generation API.
type Handler struct {
	svc       GenerationService
	gate      *auth.Gate
	allowlist *auth.IPAllowlist
	audit     *audit.Logger
	recorder  middleware.AdmissionRecorder
}

// NewHandler creates a new handler.
func NewHandler(cfg *Config) *Handler {
	h := &Handler{
		svc:       cfg.Service,
		gate:      cfg.Gate,
		allowlist: cfg.AdminAllowlist,
		audit:     cfg.Audit,
		recorder:  cfg.Recorder,
	}
	if h.gate == nil {
		h.gate = auth.NewGate(&auth.GateConfig{})
	}
	if h.audit == nil {
		h.audit = audit.Disabled()
	}
	return h
}

// RegisterRoutes registers the API under r, normally the /v1 group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.Use(middleware.Audit(h.audit))

	r.GET("/health", h.Health)

	gen := r.Group("/generate")
	{
		gen.POST("/image", h.admit(auth.BucketImage), h.GenerateImage)
		gen.POST("/video", h.admit(auth.BucketVideo), h.GenerateVideo)
		gen.POST("/gif", h.admit(auth.BucketGIF), h.GenerateGIF)
	}

	jobs := r.Group("/jobs", h.admit(auth.BucketJobs))
	{
		jobs.POST("/:modality", h.EnqueueJob)
		jobs.GET("/:id", h.GetJob)
	}

	admin := r.Group("/admin",
		middleware.RequireIP(h.allowlist, auth.BucketAdmin, h.recorder),
		h.admit(auth.BucketAdmin),
	)
	{
		admin.GET("/security", h.Security)
		admin.GET("/runtime", h.Runtime)
	}
}

func (h *Handler) admit(bucket string) gin.HandlerFunc {
	return middleware.Admit(h.gate, bucket, h.recorder)
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Health reports liveness.
//
//	@Summary	Health check
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{OK: true, Service: serviceName, Version: serviceVersion})
}

// GenerateImage handles synchronous image generation.
//
//	@Summary		Generate images
//	@Description	Runs one backend call and returns the images as URLs or inline data
//	@Tags			Generation
//	@Accept			json
//	@Produce		json
//	@Security		APIKeyAuth
//	@Param			request	body		generation.GenerateBody	true	"Generation request"
//	@Success		200		{object}	media.Response
//	@Failure		400		{object}	apperrors.ErrorResponse	"Invalid request"
//	@Failure		401		{object}	apperrors.ErrorResponse	"Unauthorized"
//	@Failure		422		{object}	apperrors.ErrorResponse	"Validation failed"
//	@Failure		429		{object}	apperrors.ErrorResponse	"Rate limit exceeded"
//	@Failure		500		{object}	media.Response			"Generation failed"
//	@Router			/generate/image [post]
func (h *Handler) GenerateImage(c *gin.Context) {
	h.generate(c, media.ModalityImage)
}

// GenerateVideo handles synchronous video generation.
//
//	@Summary		Generate a video
//	@Description	Plans the prompt into scenes, generates each scene and assembles one clip
//	@Tags			Generation
//	@Accept			json
//	@Produce		json
//	@Security		APIKeyAuth
//	@Param			request	body		generation.GenerateBody	true	"Generation request"
//	@Success		200		{object}	media.Response
//	@Failure		400		{object}	apperrors.ErrorResponse	"Invalid request"
//	@Failure		401		{object}	apperrors.ErrorResponse	"Unauthorized"
//	@Failure		422		{object}	apperrors.ErrorResponse	"Validation failed"
//	@Failure		429		{object}	apperrors.ErrorResponse	"Rate limit exceeded"
//	@Failure		500		{object}	media.Response			"Generation failed"
//	@Router			/generate/video [post]
func (h *Handler) GenerateVideo(c *gin.Context) {
	h.generate(c, media.ModalityVideo)
}

// GenerateGIF handles synchronous GIF generation.
//
//	@Summary	Generate a looping GIF
//	@Tags		Generation
//	@Accept		json
//	@Produce	json
//	@Security	APIKeyAuth
//	@Param		request	body		generation.GenerateBody	true	"Generation request"
//	@Success	200		{object}	media.Response
//	@Failure	400		{object}	apperrors.ErrorResponse	"Invalid request"
//	@Failure	429		{object}	apperrors.ErrorResponse	"Rate limit exceeded"
//	@Failure	500		{object}	media.Response			"Generation failed"
//	@Router		/generate/gif [post]
func (h *Handler) GenerateGIF(c *gin.Context) {
	h.generate(c, media.ModalityGIF)
}

func (h *Handler) generate(c *gin.Context, modality media.Modality) {
	var body generation.GenerateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.abort(c, apperrors.BadRequest("invalid request payload: "+err.Error()), err)
		return
	}

	resp, err := h.svc.GenerateSync(c.Request.Context(), modality, &body)
	if err != nil {
		handleError(c, err)
		return
	}

	if resp.Failed() {
		_ = c.Error(errors.New(resp.Error))
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EnqueueJob queues a generation request.
//
//	@Summary	Queue a generation job
//	@Tags		Jobs
//	@Accept		json
//	@Produce	json
//	@Security	APIKeyAuth
//	@Param		modality	path		string					true	"image, video or gif"
//	@Param		request		body		generation.GenerateBody	true	"Generation request"
//	@Success	200			{object}	job.Record
//	@Failure	400			{object}	apperrors.ErrorResponse	"Unsupported modality"
//	@Failure	429			{object}	apperrors.ErrorResponse	"Rate limit exceeded"
//	@Router		/jobs/{modality} [post]
func (h *Handler) EnqueueJob(c *gin.Context) {
	modality := media.Modality(strings.ToLower(strings.TrimSpace(c.Param("modality"))))
	if !modality.Valid() {
		h.abort(c, apperrors.BadRequest("unsupported modality: "+c.Param("modality")), nil)
		return
	}

	var body generation.GenerateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.abort(c, apperrors.BadRequest("invalid request payload: "+err.Error()), err)
		return
	}

	rec, err := h.svc.EnqueueJob(c.Request.Context(), modality, &body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetJob returns a job record.
//
//	@Summary	Get a job
//	@Tags		Jobs
//	@Produce	json
//	@Security	APIKeyAuth
//	@Param		id	path		string	true	"Job ID"
//	@Success	200	{object}	job.Record
//	@Failure	404	{object}	apperrors.ErrorResponse	"Job not found"
//	@Router		/jobs/{id} [get]
func (h *Handler) GetJob(c *gin.Context) {
	rec, err := h.svc.GetJob(c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// SecurityResponse describes the admission configuration.
type SecurityResponse struct {
	OK          bool            `json:"ok"`
	Auth        AuthInfo        `json:"auth"`
	RateLimiter RateLimiterInfo `json:"rate_limiter"`
	Audit       AuditInfo       `json:"audit"`
	Admin       AdminInfo       `json:"admin"`
}

// AuthInfo describes API key auth.
type AuthInfo struct {
	HeaderName     string `json:"header_name"`
	Mode           string `json:"mode"`
	KeysConfigured int    `json:"keys_configured"`
}

// RateLimiterInfo describes the limiter backend and buckets.
type RateLimiterInfo struct {
	Backend string                `json:"backend"`
	Limits  map[string]BucketInfo `json:"limits"`
}

// BucketInfo is one bucket's limit.
type BucketInfo struct {
	Limit     int `json:"limit"`
	WindowSec int `json:"window_sec"`
}

// AuditInfo describes the audit sink.
type AuditInfo struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// AdminInfo describes admin route protection.
type AdminInfo struct {
	IPAllowlist bool `json:"ip_allowlist"`
}

// Security reports the admission configuration. Key material is never returned.
//
//	@Summary	Security diagnostics
//	@Tags		Admin
//	@Produce	json
//	@Security	APIKeyAuth
//	@Success	200	{object}	SecurityResponse
//	@Failure	403	{object}	apperrors.ErrorResponse	"Client IP not allowed"
//	@Router		/admin/security [get]
func (h *Handler) Security(c *gin.Context) {
	limits := make(map[string]BucketInfo)
	for name, l := range h.gate.Limits() {
		limits[name] = BucketInfo{Limit: l.Limit, WindowSec: int(l.Window.Seconds())}
	}

	a := h.gate.Auth()
	c.JSON(http.StatusOK, SecurityResponse{
		OK: true,
		Auth: AuthInfo{
			HeaderName:     auth.APIKeyHeader,
			Mode:           a.Mode(),
			KeysConfigured: a.KeyCount(),
		},
		RateLimiter: RateLimiterInfo{Backend: h.gate.LimiterBackend(), Limits: limits},
		Audit:       AuditInfo{Enabled: h.audit.Enabled(), Path: h.audit.Path()},
		Admin:       AdminInfo{IPAllowlist: !h.allowlist.Empty()},
	})
}

// RuntimeResponse wraps the runtime snapshot.
type RuntimeResponse struct {
	OK      bool                    `json:"ok"`
	Runtime *generation.Diagnostics `json:"runtime"`
}

// Runtime reports queue, worker, adapter and backend state.
//
//	@Summary	Runtime diagnostics
//	@Tags		Admin
//	@Produce	json
//	@Security	APIKeyAuth
//	@Success	200	{object}	RuntimeResponse
//	@Router		/admin/runtime [get]
func (h *Handler) Runtime(c *gin.Context) {
	c.JSON(http.StatusOK, RuntimeResponse{OK: true, Runtime: h.svc.Diagnostics(c.Request.Context())})
}

func (h *Handler) abort(c *gin.Context, appErr *apperrors.AppError, cause error) {
	if cause == nil {
		cause = appErr
	}
	_ = c.Error(cause)
	c.AbortWithStatusJSON(appErr.StatusCode, appErr.ToResponse())
}
