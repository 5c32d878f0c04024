package services

import (
	"context"
	"testing"
	"time"

	"taskhub-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestNormalizeHistoryLimit(t *testing.T) {
	assert.Equal(t, 5, normalizeHistoryLimit(0))
	assert.Equal(t, 5, normalizeHistoryLimit(-1))
	assert.Equal(t, 1, normalizeHistoryLimit(1))
	assert.Equal(t, 7, normalizeHistoryLimit(7))
}

func dashboardServiceForMock(mt *mtest.T) *DashboardService {
	return NewDashboardService(
		mt.DB.Collection("teams"),
		mt.DB.Collection("projects"),
		mt.DB.Collection("tasks"),
		mt.DB.Collection("reassignments"),
		mt.DB.Collection("users"),
		NoopNotifier{},
	)
}

func taskDoc(id, projectID, assignedID primitive.ObjectID, name string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: "task"},
		{Key: "project", Value: projectID},
		{Key: "assignedMemberId", Value: assignedID},
		{Key: "assignedMemberName", Value: name},
		{Key: "status", Value: "Pending"},
	}
}

func plannedMove(taskID primitive.ObjectID, from, to models.MemberLoad) models.PlannedMove {
	return models.PlannedMove{Task: models.Task{ID: taskID}, From: from, To: to}
}

// A move whose task vanished between planning and execution is skipped; the
// rest of the batch still runs and only the applied moves come back.
func TestExecuteMovesSkipsMissingTask(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("middle task missing", func(mt *mtest.T) {
		svc := dashboardServiceForMock(mt)

		teamID := primitive.NewObjectID()
		projectID := primitive.NewObjectID()
		from := models.MemberLoad{MemberID: primitive.NewObjectID(), Name: "Ana"}
		to := models.MemberLoad{MemberID: primitive.NewObjectID(), Name: "Marko"}

		task1 := primitive.NewObjectID()
		task2 := primitive.NewObjectID()
		task3 := primitive.NewObjectID()
		moves := []models.PlannedMove{
			plannedMove(task1, from, to),
			plannedMove(task2, from, to),
			plannedMove(task3, from, to),
		}

		mt.AddMockResponses(
			// move 1: reload, reassign, audit
			mtest.CreateCursorResponse(0, "taskhub.tasks", mtest.FirstBatch, taskDoc(task1, projectID, from.MemberID, "Ana")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(),
			// move 2: the task is gone
			mtest.CreateCursorResponse(0, "taskhub.tasks", mtest.FirstBatch),
			// move 3: reload, reassign, audit
			mtest.CreateCursorResponse(0, "taskhub.tasks", mtest.FirstBatch, taskDoc(task3, projectID, from.MemberID, "Ana")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(),
		)

		executed := svc.executeMoves(context.Background(), teamID, moves, primitive.NewObjectID())
		require.Len(mt.T, executed, 2)
		assert.Equal(mt.T, task1, executed[0].TaskID)
		assert.Equal(mt.T, task3, executed[1].TaskID)
		assert.Equal(mt.T, "Marko", executed[0].To.Name)
	})
}

// A failed assignment update skips the move without aborting the batch.
func TestExecuteMovesSkipsFailedUpdate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("update fails", func(mt *mtest.T) {
		svc := dashboardServiceForMock(mt)

		teamID := primitive.NewObjectID()
		projectID := primitive.NewObjectID()
		from := models.MemberLoad{MemberID: primitive.NewObjectID(), Name: "Ana"}
		to := models.MemberLoad{MemberID: primitive.NewObjectID(), Name: "Marko"}

		task1 := primitive.NewObjectID()
		task2 := primitive.NewObjectID()
		moves := []models.PlannedMove{
			plannedMove(task1, from, to),
			plannedMove(task2, from, to),
		}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "taskhub.tasks", mtest.FirstBatch, taskDoc(task1, projectID, from.MemberID, "Ana")),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11600, Name: "InterruptedAtShutdown", Message: "shutting down"}),
			mtest.CreateCursorResponse(0, "taskhub.tasks", mtest.FirstBatch, taskDoc(task2, projectID, from.MemberID, "Ana")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(),
		)

		executed := svc.executeMoves(context.Background(), teamID, moves, primitive.NewObjectID())
		require.Len(mt.T, executed, 1)
		assert.Equal(mt.T, task2, executed[0].TaskID)
	})
}

// When the audit insert fails after the task was already reassigned, the
// move still counts in the result; the inconsistency is only logged.
func TestExecuteMovesCountsMoveWhenAuditWriteFails(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("audit insert fails", func(mt *mtest.T) {
		svc := dashboardServiceForMock(mt)

		teamID := primitive.NewObjectID()
		projectID := primitive.NewObjectID()
		from := models.MemberLoad{MemberID: primitive.NewObjectID(), Name: "Ana"}
		to := models.MemberLoad{MemberID: primitive.NewObjectID(), Name: "Marko"}

		taskID := primitive.NewObjectID()
		moves := []models.PlannedMove{plannedMove(taskID, from, to)}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "taskhub.tasks", mtest.FirstBatch, taskDoc(taskID, projectID, from.MemberID, "Ana")),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "document validation failed"}),
		)

		executed := svc.executeMoves(context.Background(), teamID, moves, primitive.NewObjectID())
		require.Len(mt.T, executed, 1)
		assert.Equal(mt.T, taskID, executed[0].TaskID)
		assert.Equal(mt.T, to.MemberID, *executed[0].To.ID)
	})
}

func reassignmentDoc(teamID, userID, taskID, projectID primitive.ObjectID, movedAt time.Time) bson.D {
	fromID := primitive.NewObjectID()
	toID := primitive.NewObjectID()
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "task", Value: taskID},
		{Key: "project", Value: projectID},
		{Key: "team", Value: teamID},
		{Key: "fromMemberId", Value: fromID},
		{Key: "fromMemberName", Value: "Ana"},
		{Key: "toMemberId", Value: toID},
		{Key: "toMemberName", Value: "Marko"},
		{Key: "movedBy", Value: userID},
		{Key: "movedAt", Value: movedAt},
	}
}

// The history read hands ordering and truncation to the store: the find on
// the audit collection must carry sort movedAt descending and the default
// limit of 5 when the caller passes none.
func TestRecentReassignmentsQueriesNewestFirstWithDefaultLimit(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("default limit", func(mt *mtest.T) {
		svc := dashboardServiceForMock(mt)

		userID := primitive.NewObjectID()
		teamID := primitive.NewObjectID()
		taskID := primitive.NewObjectID()
		projectID := primitive.NewObjectID()

		newer := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
		older := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		rec1 := reassignmentDoc(teamID, userID, taskID, projectID, newer)
		rec2 := reassignmentDoc(teamID, userID, taskID, projectID, older)

		mt.AddMockResponses(
			// owner check
			mtest.CreateCursorResponse(0, "taskhub.teams", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: teamID},
				{Key: "name", Value: "Core"},
				{Key: "owner", Value: userID},
				{Key: "members", Value: bson.A{}},
			}),
			// audit records, newest first as the store returns them
			mtest.CreateCursorResponse(0, "taskhub.reassignments", mtest.FirstBatch, rec1, rec2),
			// display-time joins
			mtest.CreateCursorResponse(0, "taskhub.tasks", mtest.FirstBatch, bson.D{{Key: "_id", Value: taskID}, {Key: "title", Value: "Ship it"}}),
			mtest.CreateCursorResponse(0, "taskhub.projects", mtest.FirstBatch, bson.D{{Key: "_id", Value: projectID}, {Key: "name", Value: "Rollout"}}),
			mtest.CreateCursorResponse(0, "taskhub.users", mtest.FirstBatch, bson.D{{Key: "_id", Value: userID}, {Key: "name", Value: "Owner"}}),
		)

		entries, err := svc.RecentReassignments(context.Background(), userID, teamID, 0)
		require.NoError(mt.T, err)
		require.Len(mt.T, entries, 2)
		assert.True(mt.T, entries[0].MovedAt.After(entries[1].MovedAt))
		assert.Equal(mt.T, "Ship it", entries[0].TaskTitle)
		assert.Equal(mt.T, "Rollout", entries[0].ProjectName)
		assert.Equal(mt.T, "Owner", entries[0].MovedBy.Name)

		// the find against the audit collection carries the sort and limit
		var findCmd bson.Raw
		for {
			evt := mt.GetStartedEvent()
			require.NotNil(mt.T, evt)
			if evt.CommandName == "find" && evt.Command.Lookup("find").StringValue() == "reassignments" {
				findCmd = evt.Command
				break
			}
		}
		limit, ok := findCmd.Lookup("limit").Int64OK()
		require.True(mt.T, ok)
		assert.Equal(mt.T, int64(5), limit)
		sortField, ok := findCmd.Lookup("sort", "movedAt").Int32OK()
		require.True(mt.T, ok)
		assert.Equal(mt.T, int32(-1), sortField)
	})
}
