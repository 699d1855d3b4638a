package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgLogger "github.com/frahmantamala/asset-inventory/pkg/logger"
	"github.com/go-chi/chi/middleware"
)

const (
	filtered        = "[FILTERED]"
	filteredRawBody = "[FILTERED - Contains sensitive data]"
	omittedBody     = "[OMITTED]"
)

// sensitiveFields are matched as substrings of lowercased header and JSON
// field names. Credential secrets travel as "secret" on create, update and
// reveal; login and refresh carry "password" and the two tokens.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"cookie",
	"api_key",
	"private_key",
	"session",
}

// publicFields contain a sensitive word but never a sensitive value.
var publicFields = map[string]bool{
	"has_secret": true,
	"token_type": true,
	"typ":        true,
}

// urlFields hold credential URLs, which may embed user:password@.
var urlFields = map[string]bool{
	"url": true,
}

// LoggingMiddleware logs every request and response with sensitive fields
// masked. With a nil logger the context logger from RequestID is used.
// Responses of the secret reveal endpoint are never logged.
func LoggingMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())

			logger := pkgLogger.From(r.Context())
			if base != nil {
				logger = base
			}
			logRequest(logger, r, reqID)

			ww := &responseWriter{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(ww, r)

			body := filterSensitiveBody(ww.body.Bytes())
			if isRevealPath(r.URL.Path) && ww.body.Len() > 0 {
				body = omittedBody
			}
			logResponse(r.Context(), logger, ww, body, time.Since(start), reqID)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func logRequest(logger *slog.Logger, r *http.Request, reqID string) {
	var bodyBytes []byte
	if r.Body != nil {
		bodyBytes, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}

	logger.Info("incoming request",
		"request_id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"headers", filterSensitiveHeaders(r.Header),
		"body", filterSensitiveBody(bodyBytes),
	)
}

func logResponse(ctx context.Context, logger *slog.Logger, rw *responseWriter, body string, duration time.Duration, reqID string) {
	statusCode := rw.statusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	logger.Log(ctx, level, "response",
		"request_id", reqID,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"response_size", rw.body.Len(),
		"body", body,
	)
}

func isRevealPath(path string) bool {
	return strings.HasSuffix(strings.TrimSuffix(path, "/"), "/reveal")
}

func isSensitiveName(name string) bool {
	name = strings.ToLower(name)
	if publicFields[name] {
		return false
	}
	for _, f := range sensitiveFields {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitiveName(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func filterSensitiveBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		lower := strings.ToLower(string(body))
		for _, f := range sensitiveFields {
			if strings.Contains(lower, f) {
				return filteredRawBody
			}
		}
		return string(body)
	}

	out, err := json.Marshal(filterSensitiveJSON(data))
	if err != nil {
		return "[ERROR - Failed to marshal filtered JSON]"
	}
	return string(out)
}

func filterSensitiveJSON(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			switch {
			case isSensitiveName(key):
				out[key] = filtered
			case urlFields[strings.ToLower(key)]:
				out[key] = redactURL(value)
			default:
				out[key] = filterSensitiveJSON(value)
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = filterSensitiveJSON(item)
		}
		return out
	default:
		return v
	}
}

// redactURL drops the password part of user info; other values pass through.
func redactURL(value interface{}) interface{} {
	s, ok := value.(string)
	if !ok {
		return value
	}
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return value
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
