package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"igaudit/pkg/errors"
)

// healthTimeout bounds each dependency ping made by /healthz
const healthTimeout = 2 * time.Second

type classifyRequest struct {
	Username string `json:"username"`
}

// errorResponse is the body of every non-2xx API reply
type errorResponse struct {
	Error string          `json:"error"`
	Type  errors.ErrorType `json:"type"`
}

func (s *Server) handleClassifyQuery(c *gin.Context) {
	s.classify(c, c.Query("username"))
}

func (s *Server) handleClassifyBody(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.Validation("invalid request body: %v", err))
		return
	}
	s.classify(c, req.Username)
}

func (s *Server) classify(c *gin.Context, raw string) {
	report, err := s.checker.Check(c.Request.Context(), raw)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	results := make(map[string]string, len(s.checks))

	for name, p := range s.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		err := p.Ping(ctx)
		cancel()

		if err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			s.logger.WithError(err).WithField("check", name).Warn("health check failed")
			continue
		}
		results[name] = "ok"
	}

	body := gin.H{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(results) > 0 {
		body["checks"] = results
	}
	c.JSON(status, body)
}

// writeError maps err onto an HTTP status and a JSON error body. Messages of
// untyped errors are not echoed to clients.
func (s *Server) writeError(c *gin.Context, err error) {
	status := StatusFor(err)

	var typed *errors.Error
	resp := errorResponse{Error: "internal server error", Type: errors.ErrorTypeUnknown}
	if stderrors.As(err, &typed) {
		resp = errorResponse{Error: typed.Message, Type: typed.Type}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// StatusFor returns the HTTP status an API error is reported with
func StatusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case errors.ErrorTypeAuth, errors.ErrorTypeNetwork, errors.ErrorTypeServerError, errors.ErrorTypeParsing:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
