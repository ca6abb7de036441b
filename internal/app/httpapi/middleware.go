package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/paintcoffee/pos-backend/internal/app/auth"
	"github.com/paintcoffee/pos-backend/internal/app/domain/user"
	apperr "github.com/paintcoffee/pos-backend/internal/errors"
)

const maxMarkerPeek = 1 << 16

// identity resolves the caller and attaches it to the request context. A
// bearer token wins; without one the legacy role markers are consulted, in
// order: the x-user-role header, the user_role query parameter, then a
// user.role field in the request body. The body is restored for the handler.
func (h *handler) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := auth.Anonymous

		if token := bearerToken(r); token != "" {
			verified, err := h.tokens.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err)
				return
			}
			actor = verified
		} else if role := h.markerRole(r); role != "" {
			actor = auth.Actor{Username: "legacy", Role: role}
		}

		next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func (h *handler) markerRole(r *http.Request) user.Role {
	if v := r.Header.Get("x-user-role"); v != "" {
		return normalizeRole(v)
	}
	if v := r.URL.Query().Get("user_role"); v != "" {
		return normalizeRole(v)
	}
	return h.bodyMarkerRole(r)
}

// bodyMarkerRole peeks at the request body for a user.role marker, then puts
// the bytes back so the handler can decode the payload normally.
func (h *handler) bodyMarkerRole(r *http.Request) user.Role {
	if r.Body == nil || r.ContentLength == 0 {
		return ""
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxMarkerPeek))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(data), r.Body))
	if err != nil {
		return ""
	}

	var payload struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return normalizeRole(payload.User.Role)
}

func normalizeRole(raw string) user.Role {
	role := user.Role(strings.ToLower(strings.TrimSpace(raw)))
	if role.Valid() {
		return role
	}
	return ""
}

// requireAdmin rejects callers that do not carry the admin role.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.ActorFrom(r.Context()).IsAdmin() {
			writeError(w, http.StatusForbidden, apperr.PermissionDenied("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// cors answers preflight requests and marks responses for browser terminals.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-user-role")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loginLimiter throttles sign-in attempts per client address so PINs cannot
// be brute forced through the terminal endpoint.
type loginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newLoginLimiter(perMinute int) *loginLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &loginLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
	}
}

func (l *loginLimiter) allow(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[host]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[host] = entry
	}
	entry.seen = time.Now()

	if len(l.limiters) > 1000 {
		l.evictStale()
	}
	return entry.limiter.Allow()
}

func (l *loginLimiter) evictStale() {
	cutoff := time.Now().Add(-time.Hour)
	for host, entry := range l.limiters {
		if entry.seen.Before(cutoff) {
			delete(l.limiters, host)
		}
	}
}

func (l *loginLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r.RemoteAddr) {
			writeError(w, http.StatusTooManyRequests, apperr.Validation("too many login attempts, slow down"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
