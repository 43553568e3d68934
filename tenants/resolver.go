package tenants

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"controlroom/pkg/logging"
	"controlroom/pkg/models"
)

// ProfileRefresher fetches a fresh profile from the identity service. The
// identity client satisfies this.
type ProfileRefresher interface {
	RefreshProfile(ctx context.Context) (*models.UserProfile, error)
}

// ProfileSink receives refreshed profiles. The credential store satisfies
// this.
type ProfileSink interface {
	SetProfile(*models.UserProfile)
}

// locales that may prefix the tenant segment in a dashboard path.
var locales = map[string]bool{
	"en": true,
	"vi": true,
	"es": true,
	"fr": true,
	"ja": true,
}

// reserved first segments that are dashboard surfaces, not tenant slugs.
var reserved = map[string]bool{
	"login":    true,
	"logout":   true,
	"register": true,
	"forgot":   true,
	"tenants":  true,
	"admin":    true,
	"api":      true,
	"assets":   true,
}

// Resolve extracts the tenant slug from a navigation path: the first segment
// after an optional locale segment. Returns "" when the path addresses a
// non-tenant surface.
func Resolve(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	segments := strings.Split(trimmed, "/")
	if locales[segments[0]] {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return ""
	}
	slug := segments[0]
	if reserved[slug] {
		return ""
	}
	return slug
}

// Resolver tracks the active tenant across navigations. When a navigation
// lands on a different tenant it kicks off a non-blocking profile refresh so
// the permission matrix catches up; a failed refresh keeps the previous
// profile, and a refresh that completes after yet another switch (or after
// Reset) is discarded.
type Resolver struct {
	refresher ProfileRefresher
	sink      ProfileSink
	logger    logging.Logger

	group singleflight.Group

	mu      sync.RWMutex
	current string
	// generation increments on every switch and on Reset; late refresh
	// results with a stale generation are dropped.
	generation uint64
}

// NewResolver creates a tenant resolver.
func NewResolver(refresher ProfileRefresher, sink ProfileSink, logger logging.Logger) *Resolver {
	return &Resolver{refresher: refresher, sink: sink, logger: logger}
}

// Current returns the active tenant slug, "" when outside any tenant.
func (r *Resolver) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Observe records the tenant for a navigation path and returns it. A tenant
// switch triggers an asynchronous profile refresh; Observe itself never
// blocks on the network.
func (r *Resolver) Observe(ctx context.Context, path string) string {
	slug := Resolve(path)

	r.mu.Lock()
	changed := slug != r.current
	switched := changed && slug != ""
	r.current = slug
	// Leaving the tenant entirely also invalidates in-flight refreshes, so
	// a late result cannot land after the guarded subtree was left.
	if changed {
		r.generation++
	}
	gen := r.generation
	r.mu.Unlock()

	if switched {
		go r.refresh(ctx, slug, gen)
	}
	return slug
}

// Reset forgets the active tenant and invalidates any in-flight refresh.
// Used at logout.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = ""
	r.generation++
}

func (r *Resolver) refresh(ctx context.Context, slug string, gen uint64) {
	// Concurrent switches to the same tenant share one request.
	profile, err, _ := r.group.Do(slug, func() (interface{}, error) {
		return r.refresher.RefreshProfile(ctx)
	})
	if err != nil {
		// Stale-but-available beats blocking: keep the previous profile.
		logging.WithTenant(r.logger, slug).WithError(err).Warn("Profile refresh failed; keeping cached profile")
		return
	}

	r.mu.RLock()
	stale := gen != r.generation
	r.mu.RUnlock()
	if stale {
		logging.WithTenant(r.logger, slug).Debug("Discarding profile refresh for abandoned tenant")
		return
	}

	if p, ok := profile.(*models.UserProfile); ok && p != nil {
		r.sink.SetProfile(p)
	}
}
