package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"taskhub-backend/models"
	"taskhub-backend/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	var req createTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	projectID, err := primitive.ObjectIDFromHex(req.Project)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid project id")
		return
	}

	var assignedID *primitive.ObjectID
	if req.AssignedMemberID != nil && *req.AssignedMemberID != "" {
		id, err := primitive.ObjectIDFromHex(*req.AssignedMemberID)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid member id")
			return
		}
		assignedID = &id
	}

	priority := models.TaskPriority(req.Priority)
	if req.Priority != "" && !models.ValidTaskPriority(priority) {
		writeMessage(w, http.StatusBadRequest, "Invalid priority")
		return
	}
	status := models.TaskStatus(req.Status)
	if req.Status != "" && !models.ValidTaskStatus(status) {
		writeMessage(w, http.StatusBadRequest, "Invalid status")
		return
	}

	task, err := h.service.CreateTask(r.Context(), userID, projectID, req.Title, req.Description, assignedID, priority, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// GetTasks lists the caller's tasks, narrowed by the optional query
// parameters projectId, memberId, status and priority.
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	var filter services.TaskFilter

	if v := r.URL.Query().Get("projectId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid project id")
			return
		}
		filter.ProjectID = &id
	}
	if v := r.URL.Query().Get("memberId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid member id")
			return
		}
		filter.MemberID = &id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = models.TaskStatus(v)
	}
	if v := r.URL.Query().Get("priority"); v != "" {
		filter.Priority = models.TaskPriority(v)
	}

	tasks, err := h.service.GetTasks(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	taskID, err := pathObjectID(r, "taskId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	task, err := h.service.GetTaskByID(r.Context(), userID, taskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	taskID, err := pathObjectID(r, "taskId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	var req updateTaskRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := services.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	}

	// Explicit null unassigns; a hex string reassigns; absent leaves as is.
	if len(req.AssignedMemberID) > 0 {
		if bytes.Equal(req.AssignedMemberID, []byte("null")) {
			patch.Unassign = true
		} else {
			var hex string
			if err := json.Unmarshal(req.AssignedMemberID, &hex); err != nil {
				writeMessage(w, http.StatusBadRequest, "Invalid member id")
				return
			}
			id, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "Invalid member id")
				return
			}
			patch.AssignedMemberID = &id
		}
	}

	if req.Priority != "" {
		priority := models.TaskPriority(req.Priority)
		if !models.ValidTaskPriority(priority) {
			writeMessage(w, http.StatusBadRequest, "Invalid priority")
			return
		}
		patch.Priority = priority
	}
	if req.Status != "" {
		status := models.TaskStatus(req.Status)
		if !models.ValidTaskStatus(status) {
			writeMessage(w, http.StatusBadRequest, "Invalid status")
			return
		}
		patch.Status = status
	}

	task, err := h.service.UpdateTask(r.Context(), userID, taskID, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	taskID, err := pathObjectID(r, "taskId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid task id")
		return
	}

	if err := h.service.DeleteTask(r.Context(), userID, taskID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, "Task deleted")
}
