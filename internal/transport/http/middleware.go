package http

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Authenticator resolves the acting user from an Authorization header value.
type Authenticator interface {
	FromHeader(header string) (string, error)
}

// RequestObserver receives per-request measurements.
type RequestObserver interface {
	ObserveRequest(method, endpoint string, status int, elapsed time.Duration)
}

type userKey struct{}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// requireUser rejects requests without a valid bearer token. Websocket
// clients may pass the token as the access_token query parameter.
func requireUser(auth Authenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			if token := r.URL.Query().Get("access_token"); token != "" {
				header = "Bearer " + token
			}
		}
		userID, err := auth.FromHeader(header)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, userID)))
	}
}

// optionalUser attaches the user when a valid token is present and continues anonymously otherwise.
func optionalUser(auth Authenticator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get("Authorization"); header != "" {
			if userID, err := auth.FromHeader(header); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userKey{}, userID))
			}
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps websocket upgrades working through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Instrument logs and measures every request.
func Instrument(next http.Handler, logger *zap.Logger, observer RequestObserver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		if observer != nil {
			observer.ObserveRequest(r.Method, endpoint, rec.status, elapsed)
		}
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed))
	})
}
