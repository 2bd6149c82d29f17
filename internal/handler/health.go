package handler

import (
	"context"
	"net/http"

	"github.com/pamonha-express/server/internal/agent/quota"
	logx "github.com/pamonha-express/server/pkg/logger"
)

// QuotaReporter reports today's generative request count and the tier a new
// conversation would get.
type QuotaReporter interface {
	Snapshot(ctx context.Context) (quota.State, error)
	SelectTier(ctx context.Context) (quota.Tier, error)
}

type healthResponse struct {
	Status string       `json:"status"`
	Quota  *quota.State `json:"quota,omitempty"`
	Tier   string       `json:"tier,omitempty"`
}

type healthHandler struct {
	quota QuotaReporter
}

func (h *healthHandler) get(w http.ResponseWriter, r *http.Request) {
	if h.quota == nil {
		respondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	state, err := h.quota.Snapshot(r.Context())
	if err != nil {
		logx.Warn().Err(err).Msg("health check could not read quota counter")
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		return
	}
	tier, err := h.quota.SelectTier(r.Context())
	if err != nil {
		logx.Warn().Err(err).Msg("health check could not select quota tier")
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		return
	}
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Quota: &state, Tier: tier.String()})
}
