package handlers

import (
	"net/http"

	"taskhub-backend/models"
	"taskhub-backend/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TeamHandler struct {
	service *services.TeamService
}

func NewTeamHandler(service *services.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	var req createTeamRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	team, err := h.service.CreateTeam(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) GetMyTeams(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	teams, err := h.service.GetMyTeams(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) GetTeamByID(w http.ResponseWriter, r *http.Request) {
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

	team, err := h.service.GetTeamByID(r.Context(), userID, teamID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
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

	var req addMemberRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	capacity := models.DefaultMemberCapacity
	if req.Capacity != nil {
		capacity = *req.Capacity
	}

	member, err := h.service.AddMember(r.Context(), userID, teamID, req.Name, req.Role, capacity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

func (h *TeamHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
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
	memberID, err := pathObjectID(r, "memberId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid member id")
		return
	}

	var req updateMemberRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.service.UpdateMember(r.Context(), userID, teamID, memberID, req.Name, req.Role, req.Capacity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
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
	memberID, err := pathObjectID(r, "memberId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid member id")
		return
	}

	if err := h.service.RemoveMember(r.Context(), userID, teamID, memberID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Member removed")
}

func pathObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(mux.Vars(r)[name])
}
