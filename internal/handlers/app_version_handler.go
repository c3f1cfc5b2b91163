package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/evn/versiongate/internal/appversion"
	"github.com/evn/versiongate/internal/middleware"
	"github.com/evn/versiongate/internal/pkg/response"
)

// Refresher is implemented by *appversion.Refresher.
type Refresher interface {
	Refresh(ctx context.Context) (appversion.RefreshResult, error)
}

type AppVersionHandler struct {
	store     middleware.SnapshotReader
	cacheKey  string
	refresher Refresher
	logger    *slog.Logger
}

func NewAppVersionHandler(store middleware.SnapshotReader, cacheKey string, refresher Refresher, logger *slog.Logger) *AppVersionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppVersionHandler{
		store:     store,
		cacheKey:  cacheKey,
		refresher: refresher,
		logger:    logger.With("component", "app_version_handler"),
	}
}

// StatusHandler reports the gate's decision for the calling client. It is
// mounted behind the gate, so clients below the floor never reach it.
func (h *AppVersionHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if decision, ok := middleware.DecisionFromContext(r.Context()); ok {
		response.Success(w, decision)
		return
	}

	platform := appversion.ParsePlatform(r.Header.Get(middleware.HeaderAppPlatform))
	if platform != appversion.PlatformWeb && r.Header.Get(middleware.HeaderAppVersion) == "" {
		response.RespondWithError(w, response.ErrInvalidInput, "X-App-Version header is required",
			map[string]string{"header": middleware.HeaderAppVersion})
		return
	}
	response.Success(w, appversion.Decision{Status: appversion.StatusOK})
}

// LatestHandler returns the stored latest-release snapshot.
func (h *AppVersionHandler) LatestHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.Get(r.Context(), h.cacheKey)
	if err != nil {
		h.logger.Error("read latest version snapshot", "error", err)
		response.RespondWithError(w, response.ErrExternalService, "Failed to read latest version")
		return
	}
	if snapshot == nil {
		response.RespondWithError(w, response.ErrNotFound, "No latest version recorded yet")
		return
	}
	response.Success(w, snapshot)
}

// RefreshHandler runs one catalog refresh. A failed fetch is still a 200:
// the outcome field says whether the stored snapshot changed.
func (h *AppVersionHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.refresher.Refresh(r.Context())
	if err != nil {
		h.logger.Error("refresh latest version", "run_id", result.RunID, "error", err)
		response.RespondWithError(w, response.ErrServerError, "Failed to store latest version")
		return
	}
	response.Success(w, result)
}
