// Package errors writes workflow errors as JSON envelopes and logs the ones
// that are the server's fault.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// ErrorLogger maps apperr kinds to HTTP statuses. Detail from the wrapped
// cause is included in the envelope only when ShowDetail is set (non-prod).
type ErrorLogger struct {
	Log        *zap.Logger
	ShowDetail bool
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// WithDetail returns a copy that exposes wrapped causes to clients.
func (e *ErrorLogger) WithDetail(show bool) *ErrorLogger {
	c := *e
	c.ShowDetail = show
	return &c
}

// Write answers with err's status and message. 5xx errors are logged.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	msg := apperr.Message(err)

	if status >= 500 {
		e.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", kind.String()),
			zap.Error(err))
	}

	if e.ShowDetail {
		if d := detail(err); d != "" {
			respond.FailDetail(w, status, msg, d)
			return
		}
	}
	respond.Fail(w, status, msg)
}

// LogServerError logs err and answers 500 with msg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.Write(w, r, apperr.NewInternal(msg, err))
}

// LogBadRequest answers 400 with msg. err is logged at debug level.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if err != nil {
		e.Log.Debug("bad request", zap.String("path", r.URL.Path), zap.String("msg", msg), zap.Error(err))
	}
	respond.Fail(w, http.StatusBadRequest, msg)
}

// detail is the wrapped cause of a classified error, or the whole text of
// an unclassified one.
func detail(err error) string {
	var ae *apperr.Error
	if stderrors.As(err, &ae) {
		if ae.Err != nil {
			return ae.Err.Error()
		}
		return ""
	}
	return err.Error()
}
