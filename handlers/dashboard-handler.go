package handlers

import (
	"net/http"
	"strconv"

	"taskhub-backend/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DashboardHandler struct {
	service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary returns project/task totals across the caller's projects.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// TeamSummary returns the capacity ledger for one team: per-member assigned
// counts versus capacity plus the unassigned-task count.
func (h *DashboardHandler) TeamSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	teamID, err := pathObjectID(r, "teamId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid team id")
		return
	}

	summary, err := h.service.ComputeTeamLoad(r.Context(), userID, teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Reassign runs one rebalance pass for the team in the request body and
// returns the executed moves. Partial success still returns the moves that
// went through.
func (h *DashboardHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	var req reassignRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	teamID, err := primitive.ObjectIDFromHex(req.TeamID)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid team id")
		return
	}

	result, err := h.service.Rebalance(r.Context(), userID, teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RecentReassignments returns the newest reassignment records for a team,
// newest first. limit defaults to 5 when absent or not a positive integer.
func (h *DashboardHandler) RecentReassignments(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	teamIDStr := r.URL.Query().Get("teamId")
	if teamIDStr == "" {
		writeMessage(w, http.StatusBadRequest, "teamId required and must be valid")
		return
	}
	teamID, err := primitive.ObjectIDFromHex(teamIDStr)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "teamId required and must be valid")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	items, err := h.service.RecentReassignments(r.Context(), userID, teamID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
