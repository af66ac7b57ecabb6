package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"zk-sampler/shared"
)

type contextKey string

const loggerKey contextKey = "request_logger"

// withRequestID tags every request with an ID and a request-scoped logger
func withRequestID(logger *shared.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		reqLogger := logger.WithRequest(id)
		reqLogger.Debug("Request received",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loggerKey, reqLogger)))
	})
}

func requestLogger(r *http.Request) *zap.Logger {
	if l, ok := r.Context().Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// withCORS allows any origin, GET and POST
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireJWT accepts HS256 bearer tokens signed with secret. An empty secret
// disables the check.
func requireJWT(logger *shared.Logger, secret string, next http.Handler) http.Handler {
	if secret == "" {
		return next
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyfunc := func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || tokenStr == "" {
			logger.Security("Missing bearer token",
				zap.String("request_id", w.Header().Get("X-Request-ID")),
				zap.String("remote_addr", r.RemoteAddr))
			writeJSON(w, http.StatusUnauthorized, proofFailure("missing bearer token", "", ""))
			return
		}
		token, err := parser.Parse(tokenStr, keyfunc)
		if err != nil || !token.Valid {
			logger.Security("Rejected bearer token",
				zap.String("request_id", w.Header().Get("X-Request-ID")),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err))
			writeJSON(w, http.StatusUnauthorized, proofFailure("invalid bearer token", "", ""))
			return
		}
		next.ServeHTTP(w, r)
	})
}
