// Package notify collects the toast notifications produced while serving a
// request. Services record notices on the request context; handlers attach
// them to the response envelope.
package notify

import (
	"context"
	"net/http"
	"sync"

	"github.com/utafrali/storefront/pkg/httputil"
)

// Notice levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

type contextKey struct{}

// Recorder accumulates notices for a single request.
type Recorder struct {
	mu      sync.Mutex
	notices []httputil.Notice
}

// NewContext returns a context carrying a fresh Recorder.
func NewContext(ctx context.Context) (context.Context, *Recorder) {
	rec := &Recorder{}
	return context.WithValue(ctx, contextKey{}, rec), rec
}

// FromContext returns the Recorder stored in ctx, or nil.
func FromContext(ctx context.Context) *Recorder {
	rec, _ := ctx.Value(contextKey{}).(*Recorder)
	return rec
}

// Add records a notice. Calls on a nil Recorder are dropped.
func (r *Recorder) Add(level, message string) {
	if r == nil || message == "" {
		return
	}
	r.mu.Lock()
	r.notices = append(r.notices, httputil.Notice{Level: level, Message: message})
	r.mu.Unlock()
}

// Notices returns a copy of the recorded notices in recording order.
func (r *Recorder) Notices() []httputil.Notice {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return nil
	}
	out := make([]httputil.Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Success records a success notice on the request in ctx.
func Success(ctx context.Context, message string) {
	FromContext(ctx).Add(LevelSuccess, message)
}

// Error records an error notice on the request in ctx.
func Error(ctx context.Context, message string) {
	FromContext(ctx).Add(LevelError, message)
}

// Info records an informational notice on the request in ctx.
func Info(ctx context.Context, message string) {
	FromContext(ctx).Add(LevelInfo, message)
}

// Notices returns the notices recorded on the request in ctx.
func Notices(ctx context.Context) []httputil.Notice {
	return FromContext(ctx).Notices()
}

// Middleware gives every request its own Recorder.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := NewContext(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
