package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberLoad is one member's row in the capacity ledger. Free may be
// negative; a member with Free == 0 is neither overloaded nor available.
type MemberLoad struct {
	MemberID      primitive.ObjectID `json:"memberId"`
	Name          string             `json:"name"`
	Role          string             `json:"role"`
	Capacity      int                `json:"capacity"`
	AssignedCount int                `json:"assignedCount"`
	Free          int                `json:"free"`
	Overloaded    bool               `json:"overloaded"`
}

// TeamLoadSummary is the load snapshot for a whole team. It is computed
// from one read of the task store and carries no locks: the numbers may be
// stale the instant they are returned.
type TeamLoadSummary struct {
	TeamID          primitive.ObjectID `json:"teamId"`
	TeamName        string             `json:"teamName"`
	ProjectCount    int                `json:"projectCount"`
	UnassignedCount int                `json:"unassignedCount"`
	Members         []MemberLoad       `json:"members"`
}

// RebalanceReason explains an empty plan. An empty reason means moves were
// planned.
type RebalanceReason string

const (
	ReasonNone         RebalanceReason = ""
	ReasonNoProjects   RebalanceReason = "no-projects"
	ReasonNoOverloaded RebalanceReason = "no-overloaded"
	ReasonNoCapacity   RebalanceReason = "no-capacity"
)

// Message returns the caller-facing text for an empty-plan reason.
func (r RebalanceReason) Message() string {
	switch r {
	case ReasonNoProjects:
		return "No projects for this team"
	case ReasonNoOverloaded:
		return "No overloaded members"
	case ReasonNoCapacity:
		return "No available capacity to reassign"
	}
	return "Reassignment complete"
}

// PlannedMove is one task move decided by the planner but not yet applied.
type PlannedMove struct {
	Task Task
	From MemberLoad
	To   MemberLoad
}

// ExecutedMove is the caller-visible record of one applied move.
type ExecutedMove struct {
	TaskID  primitive.ObjectID `json:"taskId"`
	From    MemberRef          `json:"from"`
	To      MemberRef          `json:"to"`
	MovedAt time.Time          `json:"movedAt"`
}

// RebalanceResult is the outcome of one rebalance run. Reassignments holds
// the moves that succeeded; a run with per-move failures still returns the
// rest.
type RebalanceResult struct {
	Message       string         `json:"msg"`
	Reassignments []ExecutedMove `json:"reassignments"`
}
