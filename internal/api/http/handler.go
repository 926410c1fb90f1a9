package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"

	"github.com/toolsascode/wildebeest/internal/api/http/docs"
	"github.com/toolsascode/wildebeest/internal/api/http/dto"
	"github.com/toolsascode/wildebeest/internal/auth"
	"github.com/toolsascode/wildebeest/internal/executor"
	"github.com/toolsascode/wildebeest/internal/model"
	"github.com/toolsascode/wildebeest/internal/queue"
)

// Handler handles HTTP API requests
type Handler struct {
	executor *executor.Executor
	apiToken string
	timeout  time.Duration
	metrics  http.Handler
}

// Option configures a Handler
type Option func(*Handler)

// WithTimeout bounds the time an in-process operation may run
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithMetrics serves the given prometheus handler at /metrics
func WithMetrics(metrics http.Handler) Option {
	return func(h *Handler) { h.metrics = metrics }
}

// NewHandler creates a new HTTP handler
func NewHandler(exec *executor.Executor, apiToken string, opts ...Option) *Handler {
	h := &Handler{
		executor: exec,
		apiToken: apiToken,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers HTTP routes
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		api.POST("/state", h.authenticate, h.state)
		api.POST("/assert", h.authenticate, h.assert)
		api.POST("/migrate", h.authenticate, h.migrate)
		api.POST("/jumpstate", h.authenticate, h.jumpState)
		api.GET("/plugins", h.authenticate, h.listPlugins)
		api.GET("/health", h.Health)
		api.GET("/swagger.json", h.SwaggerJSON)
	}

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}
}

// authenticate middleware validates API token
func (h *Handler) authenticate(c *gin.Context) {
	token, err := auth.ExtractToken(c.GetHeader("Authorization"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	if err := auth.ValidateToken(h.apiToken, token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	c.Next()
}

// setExecutionContext sets execution context in the request context
func (h *Handler) setExecutionContext(c *gin.Context) (context.Context, context.CancelFunc) {
	ctx := c.Request.Context()
	executedBy := c.GetHeader("X-Executed-By")
	if executedBy == "" {
		executedBy = "api_user"
	}

	executionContext := map[string]interface{}{
		"endpoint":   c.Request.URL.Path,
		"method":     c.Request.Method,
		"user_agent": c.GetHeader("User-Agent"),
	}
	ctx = executor.SetExecutionContext(ctx, executedBy, "api", executionContext)

	if h.timeout > 0 {
		return context.WithTimeout(ctx, h.timeout)
	}
	return context.WithCancel(ctx)
}

// bindJob reads the request body into a job for op. It writes the error
// response itself and returns nil when the request is unusable.
func (h *Handler) bindJob(c *gin.Context, op queue.Operation) *queue.Job {
	var req dto.OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil
	}

	job := req.Job(op)
	if err := job.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil
	}
	if job.Metadata == nil {
		job.Metadata = map[string]interface{}{}
	}
	if by := c.GetHeader("X-Executed-By"); by != "" {
		job.Metadata["executed_by"] = by
	}
	return job
}

// state handles current-state requests
func (h *Handler) state(c *gin.Context) {
	job := h.bindJob(c, queue.OperationState)
	if job == nil {
		return
	}

	ctx, cancel := h.setExecutionContext(c)
	defer cancel()

	result, err := h.executor.RunJob(ctx, job)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(StatusFor(result), dto.FromJobResult(result))
}

// assert handles assertion requests. Failed assertions are reported in the
// body and are not an error.
func (h *Handler) assert(c *gin.Context) {
	job := h.bindJob(c, queue.OperationState)
	if job == nil {
		return
	}

	ctx, cancel := h.setExecutionContext(c)
	defer cancel()

	result, err := h.executor.RunJob(ctx, job)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	c.JSON(StatusFor(result), dto.AssertResponse{
		Passed:    result.ErrorKind == "" && result.Success,
		Results:   dto.Results(result.Results),
		ErrorKind: result.ErrorKind,
		Errors:    errs,
	})
}

// migrate handles migration requests
func (h *Handler) migrate(c *gin.Context) {
	h.submit(c, queue.OperationMigrate)
}

// jumpState handles jumpstate requests
func (h *Handler) jumpState(c *gin.Context) {
	h.submit(c, queue.OperationJumpState)
}

// submit runs a state-changing job, or queues it when the executor has a queue
func (h *Handler) submit(c *gin.Context, op queue.Operation) {
	job := h.bindJob(c, op)
	if job == nil {
		return
	}

	ctx, cancel := h.setExecutionContext(c)
	defer cancel()

	submitted, err := h.executor.Submit(ctx, job)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if submitted.Queued {
		c.JSON(http.StatusAccepted, dto.OperationResponse{
			JobID:     submitted.JobID,
			Queued:    true,
			Operation: string(op),
			Applied:   []string{},
			Results:   []dto.AssertionResult{},
			Errors:    []string{},
		})
		return
	}

	c.JSON(StatusFor(submitted.Result), dto.FromJobResult(submitted.Result))
}

// listPlugins lists the registered plugin groups
func (h *Handler) listPlugins(c *gin.Context) {
	c.JSON(http.StatusOK, dto.PluginsResponse{Plugins: h.executor.GetRegistry().Groups()})
}

// Health handles health check requests
func (h *Handler) Health(c *gin.Context) {
	checks := gin.H{"executor": "ok"}
	status := "healthy"
	if len(h.executor.GetRegistry().Groups()) == 0 {
		status = "unhealthy"
		checks["registry"] = "no plugins registered"
	} else {
		checks["registry"] = "ok"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, gin.H{"status": status, "checks": checks})
}

// SwaggerJSON serves the OpenAPI document registered by the docs package
func (h *Handler) SwaggerJSON(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read OpenAPI spec"})
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(doc))
}

// StatusFor maps a job outcome to an HTTP status code
func StatusFor(result *queue.JobResult) int {
	if result.ErrorKind == "" {
		if len(result.Errors) > 0 {
			return http.StatusBadRequest
		}
		return http.StatusOK
	}

	switch model.ErrorKind(result.ErrorKind) {
	case model.KindInvalidStateSpecified, model.KindUnknownStateSpecified,
		model.KindTargetNotSpecified, model.KindInvalidDefinition, model.KindIncompatibleInstance:
		return http.StatusBadRequest
	case model.KindIndeterminateState, model.KindMigrationNotPossible, model.KindAmbiguousPath:
		return http.StatusConflict
	case model.KindAssertionFailed, model.KindJumpStateFailed:
		return http.StatusUnprocessableEntity
	case model.KindPluginNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
