package handlers

import (
	"net/http"

	"taskhub-backend/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectHandler struct {
	service *services.ProjectService
}

func NewProjectHandler(service *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	var req createProjectRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	teamID, err := primitive.ObjectIDFromHex(req.Team)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid team id")
		return
	}

	project, err := h.service.CreateProject(r.Context(), userID, teamID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) GetMyProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	projects, err := h.service.GetMyProjects(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) GetProjectByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	projectID, err := pathObjectID(r, "projectId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid project id")
		return
	}

	project, err := h.service.GetProjectByID(r.Context(), userID, projectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	projectID, err := pathObjectID(r, "projectId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid project id")
		return
	}

	var req updateProjectRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.service.UpdateProject(r.Context(), userID, projectID, req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	projectID, err := pathObjectID(r, "projectId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid project id")
		return
	}

	if err := h.service.DeleteProject(r.Context(), userID, projectID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Project deleted")
}
