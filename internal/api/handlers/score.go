package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/hegemony/pkg/logger"
)

// ScoreHandler serves the Hegemony Score views, uncached
type ScoreHandler struct {
	svc    Service
	logger *logger.Logger
}

// NewScoreHandler creates the score handler
func NewScoreHandler(svc Service, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{svc: svc, logger: log.WithComponent("api")}
}

// GetSectorRanking returns the companies of a sector ranked by smoothed score
// GET /api/sectors/{sectorId}/ranking
func (h *ScoreHandler) GetSectorRanking(w http.ResponseWriter, r *http.Request) {
	sectorID := mux.Vars(r)["sectorId"]
	if !validSectorID(sectorID) {
		respondError(w, http.StatusBadRequest, "Invalid sector ID")
		return
	}

	res, err := h.svc.SectorRanking(r.Context(), sectorID)
	if err != nil {
		respondEngineError(w, h.logger, err)
		return
	}
	respondData(w, res)
}

// GetCompanyScore returns the score summary and history of one company
// GET /api/company/{ticker}/score
func (h *ScoreHandler) GetCompanyScore(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if !validTicker(ticker) {
		respondError(w, http.StatusBadRequest, "Invalid ticker")
		return
	}

	res, err := h.svc.CompanyScore(r.Context(), ticker)
	if err != nil {
		respondEngineError(w, h.logger, err)
		return
	}
	respondData(w, res)
}
