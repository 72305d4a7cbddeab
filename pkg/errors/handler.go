package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorBody is the error half of the API envelope.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse represents the API error response format
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// ErrorHandler turns errors into HTTP responses and logs them by severity.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
		debug:  debug,
	}
}

// Handle processes an error and sends an HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	requestID := middleware.GetReqID(r.Context())

	status := http.StatusInternalServerError
	response := ErrorResponse{RequestID: requestID}

	if appErr := GetAppError(err); appErr != nil {
		if appErr.HTTPStatus != 0 {
			status = appErr.HTTPStatus
		}
		response.Error = ErrorBody{
			Code:    appErr.Code,
			Type:    string(appErr.Type),
			Message: appErr.Message,
			Details: appErr.Details,
		}
		h.logError(r, appErr, status, requestID)

		if h.debug && appErr.StackTrace != "" {
			if response.Error.Details == nil {
				response.Error.Details = make(map[string]interface{})
			}
			response.Error.Details["stack_trace"] = appErr.StackTrace
		}
	} else {
		response.Error = ErrorBody{
			Code:    "INTERNAL_ERROR",
			Type:    string(ErrorTypeInternal),
			Message: "An internal error occurred",
		}
		h.logger.Error("Unhandled error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("requestID", requestID),
			zap.Int("status", status),
		)
		if h.debug {
			response.Error.Message = err.Error()
		}
	}

	h.sendJSON(w, status, response)
}

func (h *ErrorHandler) logError(r *http.Request, err *AppError, status int, requestID string) {
	fields := []zap.Field{
		zap.String("errorType", string(err.Type)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("requestID", requestID),
	}
	if err.Code != "" {
		fields = append(fields, zap.String("errorCode", err.Code))
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}

	switch {
	case status >= 500:
		h.logger.Error(err.Message, fields...)
	case status >= 400:
		h.logger.Warn(err.Message, fields...)
	default:
		h.logger.Info(err.Message, fields...)
	}
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// Middleware recovers panics raised by downstream handlers and renders them
// as internal errors.
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
