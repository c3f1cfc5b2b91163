package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/evn/versiongate/internal/appversion"
	"github.com/evn/versiongate/internal/pkg/response"
)

const (
	HeaderAppVersion  = "X-App-Version"
	HeaderAppPlatform = "X-App-Platform"
)

// snapshotReadTimeout bounds the per-request store read. A slow store must
// not hold up the API, so a timeout counts as "no snapshot".
const snapshotReadTimeout = 300 * time.Millisecond

type decisionContextKey struct{}

// DecisionFromContext returns the decision the gate made for this request.
// ok is false for requests that were not gated (no version, or web).
func DecisionFromContext(ctx context.Context) (appversion.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(appversion.Decision)
	return d, ok
}

// SnapshotReader is the read half of appversion.SnapshotStore.
type SnapshotReader interface {
	Get(ctx context.Context, key string) (*appversion.Snapshot, error)
}

// DecisionObserver is notified of every gated request. internal/metrics
// implements it.
type DecisionObserver interface {
	ObserveDecision(p appversion.Platform, d appversion.Decision)
	SnapshotReadFailed()
}

type nopDecisionObserver struct{}

func (nopDecisionObserver) ObserveDecision(appversion.Platform, appversion.Decision) {}
func (nopDecisionObserver) SnapshotReadFailed()                                      {}

// AppVersionGate rejects clients below the floor and annotates responses
// for clients behind the latest release.
type AppVersionGate struct {
	engine   *appversion.Engine
	store    SnapshotReader
	cacheKey string
	now      func() time.Time
	logger   *slog.Logger
	observer DecisionObserver
}

// GateOption customizes an AppVersionGate.
type GateOption func(*AppVersionGate)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) GateOption {
	return func(g *AppVersionGate) { g.now = now }
}

func WithLogger(logger *slog.Logger) GateOption {
	return func(g *AppVersionGate) { g.logger = logger }
}

func WithObserver(observer DecisionObserver) GateOption {
	return func(g *AppVersionGate) {
		if observer != nil {
			g.observer = observer
		}
	}
}

func NewAppVersionGate(engine *appversion.Engine, store SnapshotReader, cacheKey string, opts ...GateOption) *AppVersionGate {
	g := &AppVersionGate{
		engine:   engine,
		store:    store,
		cacheKey: cacheKey,
		now:      time.Now,
		logger:   slog.Default(),
		observer: nopDecisionObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "app_version_gate")
	return g
}

// Evaluate decides for r. gated is false when the request carries no version
// or comes from the web platform; those always pass.
func (g *AppVersionGate) Evaluate(r *http.Request) (decision appversion.Decision, platform appversion.Platform, gated bool) {
	version := r.Header.Get(HeaderAppVersion)
	platform = appversion.ParsePlatform(r.Header.Get(HeaderAppPlatform))
	if version == "" || platform == appversion.PlatformWeb {
		return appversion.Decision{}, platform, false
	}

	var snapshot *appversion.Snapshot
	if g.engine.TracksLatest(platform) {
		snapshot = g.readSnapshot(r.Context())
	}

	decision = g.engine.Decide(platform, version, snapshot, g.now())
	g.observer.ObserveDecision(platform, decision)
	if decision.InvalidVersion {
		g.logger.Debug("unparsable client version",
			"platform", platform.String(),
			"version", version,
			"status", string(decision.Status))
	}
	return decision, platform, true
}

func (g *AppVersionGate) readSnapshot(ctx context.Context) *appversion.Snapshot {
	ctx, cancel := context.WithTimeout(ctx, snapshotReadTimeout)
	defer cancel()

	snapshot, err := g.store.Get(ctx, g.cacheKey)
	if err != nil {
		g.observer.SnapshotReadFailed()
		g.logger.Warn("snapshot read failed, skipping latest version check", "error", err)
		return nil
	}
	return snapshot
}

// Middleware is the chi-compatible request gate.
func (g *AppVersionGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, platform, gated := g.Evaluate(r)
		if !gated {
			next.ServeHTTP(w, r)
			return
		}
		r = r.WithContext(context.WithValue(r.Context(), decisionContextKey{}, decision))

		switch decision.Status {
		case appversion.StatusForceUpdate:
			g.logger.Info("force update required",
				"platform", platform.String(),
				"current", decision.Current,
				"minimum", decision.Minimum)
			response.ForceUpdate(w, decision.UpdateURL, map[string]string{
				"current_version": decision.Current,
				"minimum_version": decision.Minimum,
				"update_url":      decision.UpdateURL,
			})
		case appversion.StatusUpdateAvailable:
			response.WithNewVersionNotification(w, decision.Latest, decision.UpdateURL)
			next.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
