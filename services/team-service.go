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
)

type TeamService struct {
	TeamsCollection *mongo.Collection
}

func NewTeamService(teams *mongo.Collection) *TeamService {
	return &TeamService{TeamsCollection: teams}
}

func (s *TeamService) CreateTeam(ctx context.Context, owner primitive.ObjectID, name, description string) (*models.Team, error) {
	team := models.Team{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: description,
		Owner:       owner,
		Members:     []models.Member{},
		CreatedAt:   time.Now(),
	}

	if _, err := s.TeamsCollection.InsertOne(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %v", err)
	}
	return &team, nil
}

func (s *TeamService) GetMyTeams(ctx context.Context, owner primitive.ObjectID) ([]models.Team, error) {
	cursor, err := s.TeamsCollection.Find(ctx, bson.M{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %v", err)
	}
	defer cursor.Close(ctx)

	teams := []models.Team{}
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams: %v", err)
	}
	return teams, nil
}

// GetTeamByID returns a team; only the owner may read it.
func (s *TeamService) GetTeamByID(ctx context.Context, userID, teamID primitive.ObjectID) (*models.Team, error) {
	return s.ownedTeam(ctx, userID, teamID)
}

// AddMember appends a member subdocument to the team roster. Capacity is
// the 0..5 ceiling consulted by the rebalancing engine.
func (s *TeamService) AddMember(ctx context.Context, userID, teamID primitive.ObjectID, name, role string, capacity int) (*models.Member, error) {
	if err := models.ValidateCapacity(capacity); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	team, err := s.ownedTeam(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = models.DefaultMemberRole
	}
	member := models.Member{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Role:      role,
		Capacity:  capacity,
		CreatedAt: time.Now(),
	}

	update := bson.M{"$push": bson.M{"members": member}}
	if _, err := s.TeamsCollection.UpdateOne(ctx, bson.M{"_id": team.ID}, update); err != nil {
		return nil, fmt.Errorf("failed to add member: %v", err)
	}
	return &member, nil
}

// UpdateMember patches name/role/capacity on a roster member. Nil fields
// are left untouched. Renames do not propagate to denormalized task
// snapshots.
func (s *TeamService) UpdateMember(ctx context.Context, userID, teamID, memberID primitive.ObjectID, name, role *string, capacity *int) (*models.Member, error) {
	if capacity != nil {
		if err := models.ValidateCapacity(*capacity); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	team, err := s.ownedTeam(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	member := team.FindMember(memberID)
	if member == nil {
		return nil, ErrMemberNotFound
	}

	if name != nil {
		member.Name = *name
	}
	if role != nil {
		member.Role = *role
	}
	if capacity != nil {
		member.Capacity = *capacity
	}

	filter := bson.M{"_id": team.ID, "members._id": memberID}
	update := bson.M{"$set": bson.M{
		"members.$.name":     member.Name,
		"members.$.role":     member.Role,
		"members.$.capacity": member.Capacity,
	}}
	if _, err := s.TeamsCollection.UpdateOne(ctx, filter, update); err != nil {
		return nil, fmt.Errorf("failed to update member: %v", err)
	}
	return member, nil
}

// RemoveMember deletes a member outright. Tasks previously assigned to the
// member keep their denormalized name snapshot but lose a valid reference.
func (s *TeamService) RemoveMember(ctx context.Context, userID, teamID, memberID primitive.ObjectID) error {
	team, err := s.ownedTeam(ctx, userID, teamID)
	if err != nil {
		return err
	}

	if team.FindMember(memberID) == nil {
		return ErrMemberNotFound
	}

	update := bson.M{"$pull": bson.M{"members": bson.M{"_id": memberID}}}
	if _, err := s.TeamsCollection.UpdateOne(ctx, bson.M{"_id": team.ID}, update); err != nil {
		return fmt.Errorf("failed to remove member: %v", err)
	}
	return nil
}

func (s *TeamService) ownedTeam(ctx context.Context, userID, teamID primitive.ObjectID) (*models.Team, error) {
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
