package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project is created by the same user that owns its team; the owner check
// happens at creation time only.
type Project struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	TeamID      primitive.ObjectID `json:"team" bson:"team"`
	Owner       primitive.ObjectID `json:"owner" bson:"owner"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}
