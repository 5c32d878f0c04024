package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinMemberCapacity = 0
	MaxMemberCapacity = 5

	DefaultMemberRole     = "member"
	DefaultMemberCapacity = 1
)

// Member is an embedded subdocument of Team; it has no collection of its
// own and shares the team's lifecycle. Capacity is the ceiling on
// simultaneously assigned tasks, consulted only by the rebalancing engine.
type Member struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Role      string             `json:"role" bson:"role"`
	Capacity  int                `json:"capacity" bson:"capacity"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type Team struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Owner       primitive.ObjectID `json:"owner" bson:"owner"`
	Members     []Member           `json:"members" bson:"members"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// FindMember returns the member with the given id, or nil.
func (t *Team) FindMember(memberID primitive.ObjectID) *Member {
	for i := range t.Members {
		if t.Members[i].ID == memberID {
			return &t.Members[i]
		}
	}
	return nil
}

func ValidateCapacity(capacity int) error {
	if capacity < MinMemberCapacity || capacity > MaxMemberCapacity {
		return fmt.Errorf("capacity must be between %d and %d", MinMemberCapacity, MaxMemberCapacity)
	}
	return nil
}
