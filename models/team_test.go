package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		ok       bool
	}{
		{"zero", 0, true},
		{"one", 1, true},
		{"max", 5, true},
		{"negative", -1, false},
		{"above max", 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCapacity(tt.capacity)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFindMember(t *testing.T) {
	m1 := Member{ID: primitive.NewObjectID(), Name: "Ana"}
	m2 := Member{ID: primitive.NewObjectID(), Name: "Marko"}
	team := Team{Members: []Member{m1, m2}}

	found := team.FindMember(m2.ID)
	assert.NotNil(t, found)
	assert.Equal(t, "Marko", found.Name)

	assert.Nil(t, team.FindMember(primitive.NewObjectID()))
}
