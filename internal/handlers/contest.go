package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jjudge-oj/livefeed/internal/services"
	"github.com/jjudge-oj/livefeed/internal/store"
	"github.com/jjudge-oj/livefeed/types"
)

const (
	defaultAnalyticsLimit = 50
	maxAnalyticsLimit     = 200
)

// ContestHandler serves the live contest state.
type ContestHandler struct {
	contests *services.ContestService
}

func NewContestHandler(contests *services.ContestService) *ContestHandler {
	return &ContestHandler{contests: contests}
}

// ContestRouter registers contest routes on the given router.
func ContestRouter(r chi.Router, contests *services.ContestService) {
	handler := NewContestHandler(contests)

	r.Get("/contest", handler.GetContest)
	r.Get("/analytics", handler.ListAnalytics)
	r.Route("/scoreboard", func(r chi.Router) {
		r.Get("/", handler.GetScoreboard)
		r.Get("/{teamID}", handler.GetTeam)
	})
}

func (h *ContestHandler) GetContest(w http.ResponseWriter, r *http.Request) {
	info, err := h.contests.Contest()
	if err != nil {
		writeNotLoaded(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *ContestHandler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.contests.Standings()
	if err != nil {
		writeNotLoaded(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScoreboardResponse{
		Order:  snapshot.Ranking.Order,
		Ranks:  snapshot.Ranking.Ranks,
		Awards: snapshot.Ranking.Awards,
		Rows:   snapshot.Rows,
	})
}

func (h *ContestHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := parseTeamID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	standing, err := h.contests.Team(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		writeNotLoaded(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standing)
}

func (h *ContestHandler) ListAnalytics(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultAnalyticsLimit, maxAnalyticsLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, AnalyticsResponse{Items: h.contests.Analytics(limit)})
}

// ScoreboardResponse is the full scoreboard payload.
type ScoreboardResponse struct {
	Order  []types.TeamID                       `json:"order"`
	Ranks  []int                                `json:"ranks"`
	Awards []types.Award                        `json:"awards"`
	Rows   map[types.TeamID]types.ScoreboardRow `json:"rows"`
}

// AnalyticsResponse lists the latest commentary messages.
type AnalyticsResponse struct {
	Items []types.AnalyticsMessage `json:"items"`
}

func writeNotLoaded(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrNotLoaded) {
		writeError(w, http.StatusServiceUnavailable, "contest not loaded yet")
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to read contest")
}

func parseTeamID(r *http.Request) (types.TeamID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "teamID"))
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, errors.New("invalid team id")
	}
	return types.TeamID(id), nil
}
