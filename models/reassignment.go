package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reassignment is an append-only audit record of one task move. The from/to
// member names are snapshots at move time and never change afterwards, even
// if the members are renamed or removed. Records outlive the tasks and
// projects they reference.
type Reassignment struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	TaskID         primitive.ObjectID  `json:"task" bson:"task"`
	ProjectID      primitive.ObjectID  `json:"project" bson:"project"`
	TeamID         primitive.ObjectID  `json:"team" bson:"team"`
	FromMemberID   *primitive.ObjectID `json:"fromMemberId" bson:"fromMemberId"`
	FromMemberName string              `json:"fromMemberName" bson:"fromMemberName"`
	ToMemberID     *primitive.ObjectID `json:"toMemberId" bson:"toMemberId"`
	ToMemberName   string              `json:"toMemberName" bson:"toMemberName"`
	MovedBy        primitive.ObjectID  `json:"movedBy" bson:"movedBy"`
	MovedAt        time.Time           `json:"movedAt" bson:"movedAt"`
}

// MemberRef is an id/name pair pointing at a team member subdocument. The
// id may be nil for unassigned tasks.
type MemberRef struct {
	ID   *primitive.ObjectID `json:"id"`
	Name string              `json:"name"`
}

// HistoryEntry is a reassignment enriched for display. Task title, project
// name and mover name are joined at read time, so renamed entities show
// their current names; the from/to snapshots keep their move-time names.
type HistoryEntry struct {
	TaskID      primitive.ObjectID `json:"taskId"`
	TaskTitle   string             `json:"taskTitle"`
	ProjectID   primitive.ObjectID `json:"projectId"`
	ProjectName string             `json:"projectName"`
	From        MemberRef          `json:"from"`
	To          MemberRef          `json:"to"`
	MovedBy     MemberRef          `json:"movedBy"`
	MovedAt     time.Time          `json:"movedAt"`
}
