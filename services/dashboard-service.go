package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskhub-backend/logging"
	"taskhub-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxMovesPerRun caps the number of moves one rebalance run may apply. With
// member capacity capped at 5 a real team never gets near it; it bounds the
// worst case on corrupt data.
const maxMovesPerRun = 500

type DashboardService struct {
	TeamsCollection         *mongo.Collection
	ProjectsCollection      *mongo.Collection
	TasksCollection         *mongo.Collection
	ReassignmentsCollection *mongo.Collection
	UsersCollection         *mongo.Collection
	Notifier                RebalanceNotifier
}

func NewDashboardService(teams, projects, tasks, reassignments, users *mongo.Collection, notifier RebalanceNotifier) *DashboardService {
	return &DashboardService{
		TeamsCollection:         teams,
		ProjectsCollection:      projects,
		TasksCollection:         tasks,
		ReassignmentsCollection: reassignments,
		UsersCollection:         users,
		Notifier:                notifier,
	}
}

// Summary returns project and task totals across every project the user owns.
func (s *DashboardService) Summary(ctx context.Context, userID primitive.ObjectID) (*models.DashboardSummary, error) {
	projectIDs, err := s.ownedProjectIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{TotalProjects: len(projectIDs)}
	if len(projectIDs) == 0 {
		return summary, nil
	}

	total, err := s.TasksCollection.CountDocuments(ctx, bson.M{"project": bson.M{"$in": projectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %v", err)
	}
	summary.TotalTasks = int(total)
	return summary, nil
}

// ComputeTeamLoad builds the capacity ledger for a team: each member's
// assigned-task count versus capacity, plus the unassigned-task count across
// the team's projects. Pure read; the snapshot may be stale the instant it
// is returned.
func (s *DashboardService) ComputeTeamLoad(ctx context.Context, userID, teamID primitive.ObjectID) (*models.TeamLoadSummary, error) {
	team, err := s.ownedTeam(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	projectIDs, err := s.teamProjectIDs(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	summary := &models.TeamLoadSummary{
		TeamID:       team.ID,
		TeamName:     team.Name,
		ProjectCount: len(projectIDs),
	}

	counts := map[primitive.ObjectID]int{}
	if len(projectIDs) > 0 {
		counts, err = s.assignedCounts(ctx, projectIDs)
		if err != nil {
			return nil, err
		}

		unassigned, err := s.TasksCollection.CountDocuments(ctx, bson.M{
			"project":          bson.M{"$in": projectIDs},
			"assignedMemberId": nil,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to count unassigned tasks: %v", err)
		}
		summary.UnassignedCount = int(unassigned)
	}

	summary.Members = BuildMemberLoads(team.Members, counts)
	return summary, nil
}

// Rebalance runs one planning+execution pass for a team: snapshot the load,
// plan moves from overloaded members' oldest Pending tasks to members with
// spare capacity, then apply and log each move in plan order.
//
// The plan is computed from one unlocked read; two concurrent runs on the
// same team may race over the same tasks. That matches the store's
// eventual-consistency model and is not guarded against here.
func (s *DashboardService) Rebalance(ctx context.Context, userID, teamID primitive.ObjectID) (*models.RebalanceResult, error) {
	team, err := s.ownedTeam(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	projectIDs, err := s.teamProjectIDs(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if len(projectIDs) == 0 {
		return &models.RebalanceResult{
			Message:       models.ReasonNoProjects.Message(),
			Reassignments: []models.ExecutedMove{},
		}, nil
	}

	counts, err := s.assignedCounts(ctx, projectIDs)
	if err != nil {
		return nil, err
	}
	loads := BuildMemberLoads(team.Members, counts)

	fetch := func(memberID primitive.ObjectID, limit int) ([]models.Task, error) {
		return s.oldestPendingTasks(ctx, projectIDs, memberID, limit)
	}

	moves, reason, err := PlanRebalance(loads, fetch, maxMovesPerRun)
	if err != nil {
		return nil, err
	}
	if reason != models.ReasonNone {
		return &models.RebalanceResult{
			Message:       reason.Message(),
			Reassignments: []models.ExecutedMove{},
		}, nil
	}

	executed := s.executeMoves(ctx, teamID, moves, userID)

	result := &models.RebalanceResult{
		Message:       models.ReasonNone.Message(),
		Reassignments: executed,
	}

	if s.Notifier != nil && len(executed) > 0 {
		if err := s.Notifier.NotifyRebalance(ctx, teamID, executed); err != nil {
			logging.Logger.Warnf("Event ID: REBALANCE_NOTIFY_FAILED, Description: Webhook notification for team %s failed: %v", teamID.Hex(), err)
		}
	}

	return result, nil
}

// executeMoves applies planned moves one at a time, in plan order. A failed
// move is logged and skipped; the rest of the batch still runs and the
// successful moves are returned.
func (s *DashboardService) executeMoves(ctx context.Context, teamID primitive.ObjectID, moves []models.PlannedMove, movedBy primitive.ObjectID) []models.ExecutedMove {
	executed := []models.ExecutedMove{}

	for _, move := range moves {
		// Reload the task so the move acts on its current identity, not the
		// planning-time snapshot.
		var task models.Task
		err := s.TasksCollection.FindOne(ctx, bson.M{"_id": move.Task.ID}).Decode(&task)
		if err != nil {
			logging.Logger.Warnf("Event ID: REASSIGN_TASK_MISSING, Description: Task %s vanished before reassignment: %v", move.Task.ID.Hex(), err)
			continue
		}

		fromID := task.AssignedMemberID
		fromName := task.AssignedMemberName
		if fromName == "" {
			fromName = models.UnassignedName
		}

		var toID *primitive.ObjectID
		toName := models.UnassignedName
		if !move.To.MemberID.IsZero() {
			id := move.To.MemberID
			toID = &id
			toName = move.To.Name
		}

		update := bson.M{"$set": bson.M{
			"assignedMemberId":   toID,
			"assignedMemberName": toName,
			"updatedAt":          time.Now(),
		}}
		if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, update); err != nil {
			logging.Logger.Errorf("Event ID: REASSIGN_UPDATE_FAILED, Description: Failed to reassign task %s: %v", task.ID.Hex(), err)
			continue
		}

		movedAt := time.Now()
		record := models.Reassignment{
			ID:             primitive.NewObjectID(),
			TaskID:         task.ID,
			ProjectID:      task.ProjectID,
			TeamID:         teamID,
			FromMemberID:   fromID,
			FromMemberName: fromName,
			ToMemberID:     toID,
			ToMemberName:   toName,
			MovedBy:        movedBy,
			MovedAt:        movedAt,
		}
		if _, err := s.ReassignmentsCollection.InsertOne(ctx, record); err != nil {
			// The task was already mutated; the move counts, but the missing
			// audit entry is an inconsistency worth surfacing.
			logging.Logger.Errorf("Event ID: REASSIGN_LOG_WRITE_FAILED, Description: Task %s was reassigned but the audit record could not be written: %v", task.ID.Hex(), err)
		}

		executed = append(executed, models.ExecutedMove{
			TaskID:  task.ID,
			From:    models.MemberRef{ID: fromID, Name: fromName},
			To:      models.MemberRef{ID: toID, Name: toName},
			MovedAt: movedAt,
		})
	}

	return executed
}

// RecentReassignments returns the newest limit reassignment records for a
// team, enriched with the current task title, project name and mover name.
// A non-positive limit falls back to the default of 5.
func (s *DashboardService) RecentReassignments(ctx context.Context, userID, teamID primitive.ObjectID, limit int) ([]models.HistoryEntry, error) {
	if _, err := s.ownedTeam(ctx, userID, teamID); err != nil {
		return nil, err
	}

	limit = normalizeHistoryLimit(limit)

	opts := options.Find().SetSort(bson.D{{Key: "movedAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.ReassignmentsCollection.Find(ctx, bson.M{"team": teamID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reassignments: %v", err)
	}
	defer cursor.Close(ctx)

	var records []models.Reassignment
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode reassignments: %v", err)
	}

	titles, names, movers, err := s.historyJoins(ctx, records)
	if err != nil {
		return nil, err
	}

	entries := make([]models.HistoryEntry, 0, len(records))
	for _, r := range records {
		moverID := r.MovedBy
		entries = append(entries, models.HistoryEntry{
			TaskID:      r.TaskID,
			TaskTitle:   titles[r.TaskID],
			ProjectID:   r.ProjectID,
			ProjectName: names[r.ProjectID],
			From:        models.MemberRef{ID: r.FromMemberID, Name: r.FromMemberName},
			To:          models.MemberRef{ID: r.ToMemberID, Name: r.ToMemberName},
			MovedBy:     models.MemberRef{ID: &moverID, Name: movers[r.MovedBy]},
			MovedAt:     r.MovedAt,
		})
	}
	return entries, nil
}

// historyJoins resolves task titles, project names and mover names for a
// batch of records at display time. Referents deleted since the move simply
// resolve to empty strings; the audit records are durable and outlive them.
func (s *DashboardService) historyJoins(ctx context.Context, records []models.Reassignment) (map[primitive.ObjectID]string, map[primitive.ObjectID]string, map[primitive.ObjectID]string, error) {
	taskIDs := make([]primitive.ObjectID, 0, len(records))
	projectIDs := make([]primitive.ObjectID, 0, len(records))
	userIDs := make([]primitive.ObjectID, 0, len(records))
	for _, r := range records {
		taskIDs = append(taskIDs, r.TaskID)
		projectIDs = append(projectIDs, r.ProjectID)
		userIDs = append(userIDs, r.MovedBy)
	}

	titles := map[primitive.ObjectID]string{}
	if len(taskIDs) > 0 {
		cursor, err := s.TasksCollection.Find(ctx, bson.M{"_id": bson.M{"$in": taskIDs}})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to fetch tasks for history: %v", err)
		}
		var tasks []models.Task
		if err := cursor.All(ctx, &tasks); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode tasks for history: %v", err)
		}
		for _, t := range tasks {
			titles[t.ID] = t.Title
		}
	}

	names := map[primitive.ObjectID]string{}
	if len(projectIDs) > 0 {
		cursor, err := s.ProjectsCollection.Find(ctx, bson.M{"_id": bson.M{"$in": projectIDs}})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to fetch projects for history: %v", err)
		}
		var projects []models.Project
		if err := cursor.All(ctx, &projects); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode projects for history: %v", err)
		}
		for _, p := range projects {
			names[p.ID] = p.Name
		}
	}

	movers := map[primitive.ObjectID]string{}
	if len(userIDs) > 0 {
		cursor, err := s.UsersCollection.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to fetch users for history: %v", err)
		}
		var users []models.User
		if err := cursor.All(ctx, &users); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode users for history: %v", err)
		}
		for _, u := range users {
			movers[u.ID] = u.Name
		}
	}

	return titles, names, movers, nil
}

func normalizeHistoryLimit(limit int) int {
	if limit <= 0 {
		return 5
	}
	return limit
}

func (s *DashboardService) ownedTeam(ctx context.Context, userID, teamID primitive.ObjectID) (*models.Team, error) {
	var team models.Team
	err := s.TeamsCollection.FindOne(ctx, bson.M{"_id": teamID}).Decode(&team)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to fetch team: %v", err)
	}
	if team.Owner != userID {
		return nil, ErrAccessDenied
	}
	return &team, nil
}

func (s *DashboardService) ownedProjectIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.projectIDs(ctx, bson.M{"owner": userID})
}

func (s *DashboardService) teamProjectIDs(ctx context.Context, userID, teamID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.projectIDs(ctx, bson.M{"team": teamID, "owner": userID})
}

func (s *DashboardService) projectIDs(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.ProjectsCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %v", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode project ids: %v", err)
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// assignedCounts aggregates the number of assigned tasks per member across
// a set of projects.
func (s *DashboardService) assignedCounts(ctx context.Context, projectIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"project":          bson.M{"$in": projectIDs},
			"assignedMemberId": bson.M{"$ne": nil},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$assignedMemberId",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := s.TasksCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate task counts: %v", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    primitive.ObjectID `bson:"_id"`
		Count int                `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode task counts: %v", err)
	}

	counts := make(map[primitive.ObjectID]int, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Count
	}
	return counts, nil
}

// oldestPendingTasks returns up to limit Pending tasks assigned to a member
// across the given projects, oldest first by createdAt. Only Pending tasks
// are eligible to move.
func (s *DashboardService) oldestPendingTasks(ctx context.Context, projectIDs []primitive.ObjectID, memberID primitive.ObjectID, limit int) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))
	filter := bson.M{
		"project":          bson.M{"$in": projectIDs},
		"assignedMemberId": memberID,
		"status":           models.StatusPending,
	}

	cursor, err := s.TasksCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode pending tasks: %v", err)
	}
	return tasks, nil
}
