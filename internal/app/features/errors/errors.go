// internal/app/features/errors/errors.go
//
// Package errors renders failures as JSON:
//
//	{"error":{"code":"not_found","message":"not found","field":""}}
//
// Known application errors map to their status through apperr. Anything
// else is logged and answered with a generic 500 so internals never reach
// the client.
package errors

import (
	"net/http"

	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Body is the error document.
type Body struct {
	Error Detail `json:"error"`
}

// Detail describes one failure.
type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Write sends an error document with status.
func Write(w http.ResponseWriter, status int, code, message, field string) {
	viewdata.JSON(w, status, Body{Error: Detail{Code: code, Message: message, Field: field}})
}

// ErrorLogger answers failed requests and logs the ones that are the
// server's fault.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger returns an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// Fail maps err to a response. msg describes the failed step for the log.
func (e *ErrorLogger) Fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		e.LogServerError(w, r, msg, err, "A server error occurred.")
		return
	}
	Write(w, status, apperr.Code(err), err.Error(), apperr.Field(err))
}

// LogServerError logs err with request context and answers 500 with
// userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())))
	Write(w, http.StatusInternalServerError, "internal", userMsg, "")
}
