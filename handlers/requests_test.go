package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskhub-backend/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeAndValidateRegister(t *testing.T) {
	var req registerRequest
	err := decodeAndValidate(jsonRequest(t, `{"name":"Ana","email":"ana@example.com","password":"secret1"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", req.Email)
}

func TestDecodeAndValidateRejectsBadEmail(t *testing.T) {
	var req registerRequest
	err := decodeAndValidate(jsonRequest(t, `{"name":"Ana","email":"not-an-email","password":"secret1"}`), &req)
	assert.Error(t, err)
}

func TestDecodeAndValidateRejectsMissingName(t *testing.T) {
	var req createTeamRequest
	err := decodeAndValidate(jsonRequest(t, `{"description":"no name"}`), &req)
	assert.Error(t, err)
}

func TestDecodeAndValidateCapacityBounds(t *testing.T) {
	var req addMemberRequest
	err := decodeAndValidate(jsonRequest(t, `{"name":"Ana","capacity":6}`), &req)
	assert.Error(t, err)

	req = addMemberRequest{}
	err = decodeAndValidate(jsonRequest(t, `{"name":"Ana","capacity":0}`), &req)
	require.NoError(t, err)
	require.NotNil(t, req.Capacity)
	assert.Equal(t, 0, *req.Capacity)

	// capacity omitted entirely is fine; the handler applies the default
	req = addMemberRequest{}
	err = decodeAndValidate(jsonRequest(t, `{"name":"Ana"}`), &req)
	require.NoError(t, err)
	assert.Nil(t, req.Capacity)
}

func TestDecodeAndValidateRejectsMalformedJSON(t *testing.T) {
	var req loginRequest
	err := decodeAndValidate(jsonRequest(t, `{"email":`), &req)
	assert.Error(t, err)
}

func TestUpdateTaskRequestNullVsAbsent(t *testing.T) {
	var absent updateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"t"}`), &absent))
	assert.Nil(t, absent.AssignedMemberID)

	var null updateTaskRequest
	require.NoError(t, json.Unmarshal([]byte(`{"assignedMemberId":null}`), &null))
	assert.Equal(t, json.RawMessage("null"), null.AssignedMemberID)
}

func TestWriteServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"team not found", services.ErrTeamNotFound, http.StatusNotFound},
		{"access denied", services.ErrAccessDenied, http.StatusForbidden},
		{"invalid credentials", services.ErrInvalidCredentials, http.StatusBadRequest},
		{"member not in team", services.ErrMemberNotInTeam, http.StatusBadRequest},
		{"internal", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["msg"])
		})
	}
}

func TestWriteServiceErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	assert.Contains(t, rec.Body.String(), "Server error")
}
