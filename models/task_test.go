package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidTaskStatus(t *testing.T) {
	assert.True(t, ValidTaskStatus(StatusPending))
	assert.True(t, ValidTaskStatus(StatusInProgress))
	assert.True(t, ValidTaskStatus(StatusDone))
	assert.False(t, ValidTaskStatus("Archived"))
	assert.False(t, ValidTaskStatus("pending"))
}

func TestValidTaskPriority(t *testing.T) {
	assert.True(t, ValidTaskPriority(PriorityLow))
	assert.True(t, ValidTaskPriority(PriorityMedium))
	assert.True(t, ValidTaskPriority(PriorityHigh))
	assert.False(t, ValidTaskPriority("Urgent"))
}

func TestRebalanceReasonMessage(t *testing.T) {
	assert.Equal(t, "No projects for this team", ReasonNoProjects.Message())
	assert.Equal(t, "No overloaded members", ReasonNoOverloaded.Message())
	assert.Equal(t, "No available capacity to reassign", ReasonNoCapacity.Message())
	assert.Equal(t, "Reassignment complete", ReasonNone.Message())
}
