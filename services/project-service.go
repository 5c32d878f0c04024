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
)

type ProjectService struct {
	ProjectsCollection *mongo.Collection
	TeamsCollection    *mongo.Collection
	TasksCollection    *mongo.Collection
}

func NewProjectService(projects, teams, tasks *mongo.Collection) *ProjectService {
	return &ProjectService{
		ProjectsCollection: projects,
		TeamsCollection:    teams,
		TasksCollection:    tasks,
	}
}

// CreateProject creates a project under a team the caller owns. The
// owner==team.owner invariant is enforced here, at creation time only.
func (s *ProjectService) CreateProject(ctx context.Context, userID, teamID primitive.ObjectID, name, description string) (*models.Project, error) {
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

	project := models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: description,
		TeamID:      teamID,
		Owner:       userID,
		CreatedAt:   time.Now(),
	}
	if _, err := s.ProjectsCollection.InsertOne(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %v", err)
	}
	return &project, nil
}

func (s *ProjectService) GetMyProjects(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	cursor, err := s.ProjectsCollection.Find(ctx, bson.M{"owner": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %v", err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %v", err)
	}
	return projects, nil
}

func (s *ProjectService) GetProjectByID(ctx context.Context, userID, projectID primitive.ObjectID) (*models.Project, error) {
	return s.ownedProject(ctx, userID, projectID)
}

func (s *ProjectService) UpdateProject(ctx context.Context, userID, projectID primitive.ObjectID, name, description *string) (*models.Project, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		project.Name = *name
	}
	if description != nil {
		project.Description = *description
	}

	update := bson.M{"$set": bson.M{
		"name":        project.Name,
		"description": project.Description,
	}}
	if _, err := s.ProjectsCollection.UpdateOne(ctx, bson.M{"_id": project.ID}, update); err != nil {
		return nil, fmt.Errorf("failed to update project: %v", err)
	}
	return project, nil
}

// DeleteProject removes the project and cascades to its tasks. Reassignment
// history referencing the project stays; it is durable audit data.
func (s *ProjectService) DeleteProject(ctx context.Context, userID, projectID primitive.ObjectID) error {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return err
	}

	if _, err := s.ProjectsCollection.DeleteOne(ctx, bson.M{"_id": project.ID}); err != nil {
		return fmt.Errorf("failed to delete project: %v", err)
	}

	result, err := s.TasksCollection.DeleteMany(ctx, bson.M{"project": project.ID})
	if err != nil {
		return fmt.Errorf("failed to delete project tasks: %v", err)
	}
	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted with %d tasks", project.ID.Hex(), result.DeletedCount)
	return nil
}

func (s *ProjectService) ownedProject(ctx context.Context, userID, projectID primitive.ObjectID) (*models.Project, error) {
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
