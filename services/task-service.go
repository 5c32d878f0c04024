package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskhub-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskService struct {
	TasksCollection    *mongo.Collection
	ProjectsCollection *mongo.Collection
	TeamsCollection    *mongo.Collection
}

func NewTaskService(tasks, projects, teams *mongo.Collection) *TaskService {
	return &TaskService{
		TasksCollection:    tasks,
		ProjectsCollection: projects,
		TeamsCollection:    teams,
	}
}

// TaskFilter narrows GetTasks. Zero values mean "no filter".
type TaskFilter struct {
	ProjectID *primitive.ObjectID
	MemberID  *primitive.ObjectID
	Status    models.TaskStatus
	Priority  models.TaskPriority
}

// CreateTask creates a task under a project the caller owns. An assignee, if
// given, must be on the project team's roster; its name is snapshotted onto
// the task at this moment and never refreshed.
func (s *TaskService) CreateTask(ctx context.Context, userID primitive.ObjectID, projectID primitive.ObjectID, title, description string, assignedMemberID *primitive.ObjectID, priority models.TaskPriority, status models.TaskStatus) (*models.Task, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	assignedName := models.UnassignedName
	if assignedMemberID != nil {
		member, err := s.rosterMember(ctx, project.TeamID, *assignedMemberID)
		if err != nil {
			return nil, err
		}
		assignedName = member.Name
	}

	if priority == "" {
		priority = models.PriorityMedium
	}
	if status == "" {
		status = models.StatusPending
	}

	now := time.Now()
	task := models.Task{
		ID:                 primitive.NewObjectID(),
		Title:              title,
		Description:        description,
		ProjectID:          project.ID,
		AssignedMemberID:   assignedMemberID,
		AssignedMemberName: assignedName,
		Priority:           priority,
		Status:             status,
		CreatedBy:          userID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := s.TasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}
	return &task, nil
}

// GetTasks lists tasks across the caller's projects, optionally narrowed by
// project, assignee, status or priority.
func (s *TaskService) GetTasks(ctx context.Context, userID primitive.ObjectID, filter TaskFilter) ([]models.Task, error) {
	query := bson.M{}

	if filter.ProjectID != nil {
		if _, err := s.ownedProject(ctx, userID, *filter.ProjectID); err != nil {
			return nil, err
		}
		query["project"] = *filter.ProjectID
	} else {
		ids, err := s.ownedProjectIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		query["project"] = bson.M{"$in": ids}
	}

	if filter.MemberID != nil {
		query["assignedMemberId"] = *filter.MemberID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.TasksCollection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %v", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, userID, taskID primitive.ObjectID) (*models.Task, error) {
	task, _, err := s.ownedTask(ctx, userID, taskID)
	return task, err
}

// TaskUpdate carries the patchable task fields. Nil means "leave as is";
// Unassign clears the assignee.
type TaskUpdate struct {
	Title            *string
	Description      *string
	AssignedMemberID *primitive.ObjectID
	Unassign         bool
	Priority         models.TaskPriority
	Status           models.TaskStatus
}

func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID primitive.ObjectID, patch TaskUpdate) (*models.Task, error) {
	task, project, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}

	if patch.Unassign {
		task.AssignedMemberID = nil
		task.AssignedMemberName = models.UnassignedName
	} else if patch.AssignedMemberID != nil {
		member, err := s.rosterMember(ctx, project.TeamID, *patch.AssignedMemberID)
		if err != nil {
			return nil, err
		}
		task.AssignedMemberID = patch.AssignedMemberID
		task.AssignedMemberName = member.Name
	}

	if patch.Priority != "" {
		task.Priority = patch.Priority
	}
	if patch.Status != "" {
		task.Status = patch.Status
	}
	task.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"title":              task.Title,
		"description":        task.Description,
		"assignedMemberId":   task.AssignedMemberID,
		"assignedMemberName": task.AssignedMemberName,
		"priority":           task.Priority,
		"status":             task.Status,
		"updatedAt":          task.UpdatedAt,
	}}
	if _, err := s.TasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, update); err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	task, _, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return err
	}

	if _, err := s.TasksCollection.DeleteOne(ctx, bson.M{"_id": task.ID}); err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}
	return nil
}

// rosterMember resolves a member id against the team roster; assignment is
// validated at write time only, never continuously.
func (s *TaskService) rosterMember(ctx context.Context, teamID, memberID primitive.ObjectID) (*models.Member, error) {
	var team models.Team
	err := s.TeamsCollection.FindOne(ctx, bson.M{"_id": teamID}).Decode(&team)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to fetch team: %v", err)
	}

	member := team.FindMember(memberID)
	if member == nil {
		return nil, ErrMemberNotInTeam
	}
	return member, nil
}

func (s *TaskService) ownedTask(ctx context.Context, userID, taskID primitive.ObjectID) (*models.Task, *models.Project, error) {
	var task models.Task
	err := s.TasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch task: %v", err)
	}

	project, err := s.ownedProject(ctx, userID, task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return &task, project, nil
}

func (s *TaskService) ownedProject(ctx context.Context, userID, projectID primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := s.ProjectsCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}
	if project.Owner != userID {
		return nil, ErrAccessDenied
	}
	return &project, nil
}

func (s *TaskService) ownedProjectIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.ProjectsCollection.Find(ctx, bson.M{"owner": userID}, opts)
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
