package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"taskhub-backend/models"
	"taskhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	UsersCollection     *mongo.Collection
	BlacklistCollection *mongo.Collection
}

func NewAuthService(users, blacklist *mongo.Collection) *AuthService {
	return &AuthService{
		UsersCollection:     users,
		BlacklistCollection: blacklist,
	}
}

// Register creates a user with a hashed password and returns a fresh token.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	var existing models.User
	if err := s.UsersCollection.FindOne(ctx, bson.M{"email": email}).Decode(&existing); err == nil {
		return "", ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %v", err)
	}

	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      html.EscapeString(name),
		Email:     email,
		Password:  string(hashed),
		CreatedAt: time.Now(),
	}
	if _, err := s.UsersCollection.InsertOne(ctx, user); err != nil {
		// Two concurrent registrations can both pass the lookup above; the
		// unique email index catches the loser here.
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("failed to save user: %v", err)
	}

	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %v", err)
	}
	return token, nil
}

// Login verifies credentials and returns a token. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	if err := s.UsersCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %v", err)
	}
	return token, nil
}

// Logout blacklists the token until its own expiry, so revocation records
// age out together with the tokens they revoke.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	expiresAt := time.Now().Add(24 * time.Hour)
	if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	record := models.BlacklistedToken{
		ID:        primitive.NewObjectID(),
		Token:     token,
		ExpiresAt: expiresAt,
	}
	if _, err := s.BlacklistCollection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to blacklist token: %v", err)
	}
	return nil
}

// IsTokenBlacklisted reports whether a token was revoked by a logout.
func (s *AuthService) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	err := s.BlacklistCollection.FindOne(ctx, bson.M{"token": token}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check token blacklist: %v", err)
	}
	return true, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.UsersCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %v", err)
	}
	user.Password = ""
	return &user, nil
}
