package services

import "errors"

// Sentinel errors returned by services. Handlers map these onto HTTP status
// codes; anything else is treated as an internal failure and reported
// generically.
var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAccessDenied       = errors.New("access denied")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrMemberNotInTeam    = errors.New("assigned member not found in project team")
)
