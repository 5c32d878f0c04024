package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// UnassignedName is the denormalized member name stored on a task that has
// no assignee.
const UnassignedName = "Unassigned"

// Task belongs to exactly one project. AssignedMemberID is a weak reference
// to a team member subdocument, validated against the roster on write only.
// AssignedMemberName is a snapshot taken at assignment time; it is not
// refreshed when the member is later renamed or removed.
type Task struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Title              string              `json:"title" bson:"title"`
	Description        string              `json:"description" bson:"description"`
	ProjectID          primitive.ObjectID  `json:"projectId" bson:"project"`
	AssignedMemberID   *primitive.ObjectID `json:"assignedMemberId" bson:"assignedMemberId"`
	AssignedMemberName string              `json:"assignedMemberName" bson:"assignedMemberName"`
	Priority           TaskPriority        `json:"priority" bson:"priority"`
	Status             TaskStatus          `json:"status" bson:"status"`
	CreatedBy          primitive.ObjectID  `json:"createdBy" bson:"createdBy"`
	CreatedAt          time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt" bson:"updatedAt"`
}

func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func ValidTaskPriority(p TaskPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
