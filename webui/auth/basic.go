package auth

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// Realm is sent in the WWW-Authenticate challenge.
const Realm = "edgecam"

// BasicAuth guards handlers with HTTP basic auth against a bcrypt hash. The
// username is ignored; only the password is checked.
type BasicAuth struct {
	hash    string
	limiter *Limiter
	logger  *zap.Logger
}

// NewBasicAuth hashes password and returns the middleware. A nil limiter
// gets the default limits.
func NewBasicAuth(password string, limiter *Limiter, logger *zap.Logger) (*BasicAuth, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash control password: %w", err)
	}
	return NewBasicAuthWithHash(hash, limiter, logger)
}

// NewBasicAuthWithHash uses an existing bcrypt hash.
func NewBasicAuthWithHash(hash string, limiter *Limiter, logger *zap.Logger) (*BasicAuth, error) {
	if !IsValidHash(hash) {
		return nil, ErrInvalidHash
	}
	if limiter == nil {
		limiter = NewLimiter(0, 0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BasicAuth{hash: hash, limiter: limiter, logger: logger}, nil
}

// Limiter returns the attempt limiter.
func (a *BasicAuth) Limiter() *Limiter {
	return a.limiter
}

// Middleware rejects requests without the right password. Blocked clients
// get 429 with Retry-After; wrong or missing credentials get 401.
func (a *BasicAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := clientAddr(r)

		if ok, wait := a.limiter.Allow(addr); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			http.Error(w, "too many failed attempts", http.StatusTooManyRequests)
			return
		}

		_, password, ok := r.BasicAuth()
		if !ok {
			a.challenge(w)
			return
		}
		if err := VerifyPassword(password, a.hash); err != nil {
			a.limiter.Fail(addr)
			a.logger.Warn("control authentication failed",
				zap.String("remote_addr", addr),
				zap.String("path", r.URL.Path))
			a.challenge(w)
			return
		}

		a.limiter.Reset(addr)
		next.ServeHTTP(w, r)
	})
}

func (a *BasicAuth) challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`", charset="UTF-8"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// clientAddr keys the limiter by host so a client cannot dodge it by
// changing source port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
