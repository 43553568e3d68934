package guards

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"controlroom/pkg/auth"
	"controlroom/pkg/models"
	"controlroom/pkg/monitoring"
	"controlroom/pkg/permissions"
	"controlroom/pkg/tenants"
)

// Deps wires the guard middleware to the rest of the core.
type Deps struct {
	Store     auth.Store
	Resolver  *tenants.Resolver
	Evaluator *permissions.Evaluator
	Metrics   *monitoring.Metrics
	// LoadingHandler serves requests that arrive while auth state is still
	// in flight. nil renders an empty 204 so no protected content flashes.
	LoadingHandler gin.HandlerFunc
}

// input builds the guard Input for one request. The middleware observes the
// path first so a tenant switch kicks off its profile refresh before the
// decision is taken. The refresh outlives the request: the request context
// is canceled the moment the handler returns, which would abort the
// background fetch mid-flight, so Observe gets a detached context.
func (d Deps) input(c *gin.Context) Input {
	tenant := d.Resolver.Observe(context.WithoutCancel(c.Request.Context()), c.Request.URL.Path)
	return Input{
		Authenticated: d.Store.Token() != "",
		Profile:       d.Store.Profile(),
		// A token without a cached profile means the initial fetch is still
		// in flight.
		ProfileLoading: d.Store.Token() != "" && d.Store.Profile() == nil,
		Tenant:         tenant,
	}
}

func (d Deps) apply(c *gin.Context, guard string, decision Decision) {
	switch decision.State {
	case Authorized:
		c.Next()
	case Loading:
		if d.LoadingHandler != nil {
			d.LoadingHandler(c)
			c.Abort()
			return
		}
		c.AbortWithStatus(http.StatusNoContent)
	case Unauthorized:
		if d.Metrics != nil {
			d.Metrics.GuardDenials.WithLabelValues(guard).Inc()
		}
		c.Redirect(http.StatusFound, decision.Redirect)
		c.Abort()
	}
}

// RequireSystemAdmin guards administrator-only routes.
func (d Deps) RequireSystemAdmin(fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		d.apply(c, "system_admin", SystemAdmin(d.input(c), fallback))
	}
}

// RequirePermission guards a route on a resource grant in the active tenant.
func (d Deps) RequirePermission(resource models.Resource, required models.PermissionLevel, redirect string) gin.HandlerFunc {
	return func(c *gin.Context) {
		d.apply(c, "permission", Permission(d.input(c), d.Evaluator, resource, required, redirect))
	}
}

// RequireTenant guards tenant-scoped routes.
func (d Deps) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		d.apply(c, "tenant", Tenant(d.input(c)))
	}
}
