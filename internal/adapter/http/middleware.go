package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/datasteward/steward/internal/domain"
	"github.com/datasteward/steward/internal/infra/auth"
	"github.com/datasteward/steward/internal/infra/logger"
)

const (
	headerCorrelationID = "X-Correlation-ID"
	headerAPIKey        = "X-API-Key"
)

type actorKey struct{}

// WithActor stores the authenticated actor in ctx
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor set by the auth middleware
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerCorrelationID)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(headerCorrelationID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithCorrelationID(r.Context(), id)))
	})
}

func loggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info(r.Context(), "HTTP request", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Correlation-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func recoveryMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					log.Error(r.Context(), "Panic recovered", err, map[string]interface{}{"path": r.URL.Path})
					writeErrorResponse(w, domain.ErrInternal("unexpected failure", err))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticator resolves the actor of a request from a bearer token or an API key
type Authenticator struct {
	enabled      bool
	tokens       *auth.TokenService
	keys         *auth.APIKeyAuthenticator
	defaultActor string
}

// NewAuthenticator creates an authenticator. When disabled every request
// acts as defaultActor.
func NewAuthenticator(enabled bool, tokens *auth.TokenService, keys *auth.APIKeyAuthenticator, defaultActor string) *Authenticator {
	return &Authenticator{
		enabled:      enabled,
		tokens:       tokens,
		keys:         keys,
		defaultActor: defaultActor,
	}
}

// Middleware rejects unauthenticated requests and stores the actor in the request context
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := a.resolve(r)
		if err != nil {
			writeErrorResponse(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func (a *Authenticator) resolve(r *http.Request) (string, error) {
	if !a.enabled {
		return a.defaultActor, nil
	}

	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || a.tokens == nil {
			return "", domain.ErrUnauthorized("unsupported authorization scheme")
		}
		claims, err := a.tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			return "", err
		}
		return claims.Actor, nil
	}

	if key := r.Header.Get(headerAPIKey); key != "" {
		if a.keys == nil || a.keys.Empty() {
			return "", domain.ErrUnauthorized("api keys are not enabled")
		}
		return a.keys.Authenticate(key)
	}

	return "", domain.ErrUnauthorized("missing credentials")
}
