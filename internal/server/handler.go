package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/models"
)

const (
	HeaderStrategy = "X-Triage-Strategy"
	HeaderRepairs  = "X-Triage-Repairs"
	HeaderFallback = "X-Triage-Fallback"
	HeaderCache    = "X-Triage-Cache"
)

type triageHandler struct {
	service TriageService
}

func newTriageHandler(service TriageService) *triageHandler {
	return &triageHandler{service: service}
}

func (h *triageHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Type: string(domainErrors.TypeInput)})
		return
	}

	report, err := h.service.Analyze(ctx, req.RepoURL, req.IssueNumber)
	if err != nil {
		writeError(c, err)
		return
	}
	writeVerdict(c, report)
}

func (h *triageHandler) Classify(c *gin.Context) {
	ctx := c.Request.Context()

	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Type: string(domainErrors.TypeInput)})
		return
	}

	report, err := h.service.Classify(ctx, req.toRawIssue())
	if err != nil {
		writeError(c, err)
		return
	}
	writeVerdict(c, report)
}

// writeVerdict sends the five verdict fields as the body and the diagnostics as headers.
func writeVerdict(c *gin.Context, report *models.TriageReport) {
	d := report.Diagnostics
	c.Header(HeaderStrategy, d.Strategy)
	c.Header(HeaderRepairs, strconv.Itoa(len(d.Repairs)))
	if d.Fallback {
		c.Header(HeaderFallback, d.FallbackReason)
	}
	if d.CacheHit {
		c.Header(HeaderCache, "hit")
	} else {
		c.Header(HeaderCache, "miss")
	}
	c.JSON(http.StatusOK, report.Verdict)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrInvalidRepoURL),
		errors.Is(err, domainErrors.ErrInvalidIssueNumber),
		errors.Is(err, domainErrors.ErrMalformedIssue),
		errors.Is(err, domainErrors.ErrVCSNotSupported):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrIssueNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrIssueFetch),
		errors.Is(err, domainErrors.ErrVCSRateLimit):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	status := statusFor(err)
	_ = c.Error(err)

	resp := ErrorResponse{Error: "internal server error"}
	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		resp = ErrorResponse{
			Error:      appErr.Message,
			Type:       string(appErr.Type),
			Suggestion: firstLine(appErr.Suggestion),
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "triage request failed", err)
	}
	c.JSON(status, resp)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
