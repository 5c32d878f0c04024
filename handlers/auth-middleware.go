package handlers

import (
	"context"
	"net/http"
	"strings"

	"taskhub-backend/services"
	"taskhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const userIDKey contextKey = "userID"

type AuthMiddleware struct {
	Auth *services.AuthService
}

func NewAuthMiddleware(auth *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{Auth: auth}
}

// RequireAuth verifies the bearer token, rejects revoked tokens and puts
// the caller's user id on the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		blacklisted, err := m.Auth.IsTokenBlacklisted(r.Context(), token)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if blacklisted {
			writeMessage(w, http.StatusUnauthorized, "Token has been revoked. Please login again.")
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.Header.Get("x-auth-token")
}

// userIDFromRequest returns the authenticated caller's id set by RequireAuth.
func userIDFromRequest(r *http.Request) (primitive.ObjectID, bool) {
	id, ok := r.Context().Value(userIDKey).(primitive.ObjectID)
	return id, ok
}
