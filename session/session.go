// Package session coordinates the core's lifecycle: navigation resolves the
// tenant, a tenant switch refreshes the profile and rotates the push
// channel, logout tears everything down. Guards and pages talk to the parts
// through this one object so the open/close ordering lives in a single
// place.
package session

import (
	"context"

	"controlroom/pkg/auth"
	"controlroom/pkg/clients/identity"
	"controlroom/pkg/clients/watchtower"
	"controlroom/pkg/guards"
	"controlroom/pkg/logging"
	"controlroom/pkg/monitoring"
	"controlroom/pkg/permissions"
	"controlroom/pkg/projection"
	"controlroom/pkg/tenants"
)

// Session owns one user session's worth of core state.
type Session struct {
	Store      auth.Store
	Identity   *identity.Client
	Resolver   *tenants.Resolver
	Evaluator  *permissions.Evaluator
	Projection *projection.Projection
	Channels   *watchtower.Manager
	Metrics    *monitoring.Metrics
	Logger     logging.Logger
}

// Config assembles a session from its building blocks.
type Config struct {
	Store  auth.Store
	APIURL string
	HubURL string
	Logger logging.Logger
	// Metrics is shared by the channel manager and the guard adapters.
	// nil gets unregistered no-op collectors.
	Metrics *monitoring.Metrics
	Channel watchtower.Config
}

// New wires a session together. The channel Config's credential source and
// projection are filled in here; callers only set tuning knobs.
func New(cfg Config) *Session {
	proj := projection.New()
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = monitoring.Nop()
	}

	client := identity.NewClient(identity.Config{
		BaseURL: cfg.APIURL,
		Store:   cfg.Store,
		Logger:  cfg.Logger,
	})
	resolver := tenants.NewResolver(client, cfg.Store, cfg.Logger)

	channelCfg := cfg.Channel
	channelCfg.BaseURL = cfg.HubURL
	channelCfg.Credentials = cfg.Store
	channelCfg.Projection = proj
	channelCfg.Logger = cfg.Logger
	channelCfg.Metrics = metrics

	return &Session{
		Store:      cfg.Store,
		Identity:   client,
		Resolver:   resolver,
		Evaluator:  permissions.NewEvaluator(cfg.Store, resolver),
		Projection: proj,
		Channels:   watchtower.NewManager(channelCfg),
		Metrics:    metrics,
		Logger:     cfg.Logger,
	}
}

// Navigate records a navigation. It resolves the tenant for the path and
// keeps the push channel in step: a guarded tenant route with a valid
// credential gets exactly one live channel, anything else tears the
// channel down.
func (s *Session) Navigate(ctx context.Context, path string) string {
	tenant := s.Resolver.Observe(ctx, path)
	if tenant == "" || (s.Store.Token() == "" && s.Store.MachineKey() == "") {
		s.Channels.Teardown()
		return tenant
	}
	s.Channels.EnsureChannel(ctx, tenant)
	return tenant
}

// GuardDeps exposes the session to the guard middleware.
func (s *Session) GuardDeps() guards.Deps {
	return guards.Deps{
		Store:     s.Store,
		Resolver:  s.Resolver,
		Evaluator: s.Evaluator,
		Metrics:   s.Metrics,
	}
}

// Logout clears credentials, forgets the tenant and closes the channel.
// Safe to call on an already-logged-out session.
func (s *Session) Logout(ctx context.Context) {
	s.Identity.Logout(ctx)
	s.Resolver.Reset()
	s.Channels.Teardown()
	s.Projection.Clear()
}
