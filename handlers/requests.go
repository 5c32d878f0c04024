package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"taskhub-backend/logging"
	"taskhub-backend/services"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createTeamRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type addMemberRequest struct {
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role"`
	Capacity *int   `json:"capacity" validate:"omitempty,min=0,max=5"`
}

type updateMemberRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Role     *string `json:"role"`
	Capacity *int    `json:"capacity" validate:"omitempty,min=0,max=5"`
}

type createProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Team        string `json:"team" validate:"required"`
}

type updateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description"`
}

type createTaskRequest struct {
	Title            string  `json:"title" validate:"required"`
	Description      string  `json:"description"`
	Project          string  `json:"project" validate:"required"`
	AssignedMemberID *string `json:"assignedMemberId"`
	Priority         string  `json:"priority"`
	Status           string  `json:"status"`
}

// updateTaskRequest keeps assignedMemberId raw so an explicit null (meaning
// "unassign") can be told apart from an absent field (meaning "no change").
type updateTaskRequest struct {
	Title            *string         `json:"title" validate:"omitempty,min=1"`
	Description      *string         `json:"description"`
	AssignedMemberID json.RawMessage `json:"assignedMemberId"`
	Priority         string          `json:"priority"`
	Status           string          `json:"status"`
}

type reassignRequest struct {
	TeamID string `json:"teamId" validate:"required"`
}

// decodeAndValidate decodes a JSON body into dst and runs the validator
// tags over it.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request payload")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid field %s", verrs[0].Field())
		}
		return fmt.Errorf("invalid request payload")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// writeServiceError maps service sentinels onto status codes. Anything not
// recognized is an internal failure: log the detail, return a generic body.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidID),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrMemberNotInTeam),
		errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrAccessDenied):
		writeMessage(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}
