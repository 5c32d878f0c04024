package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"taskhub-backend/handlers"
	"taskhub-backend/logging"
	"taskhub-backend/services"
	"taskhub-backend/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-auth-token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting TaskHub backend...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "taskhub"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	usersCollection := db.Collection("users")
	blacklistCollection := db.Collection("blacklisted_tokens")
	teamsCollection := db.Collection("teams")
	projectsCollection := db.Collection("projects")
	tasksCollection := db.Collection("tasks")
	reassignmentsCollection := db.Collection("reassignments")

	if err := ensureIndexes(ctx, usersCollection, blacklistCollection, tasksCollection, reassignmentsCollection); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: Failed to create indexes: %v", err)
	}

	var notifier services.RebalanceNotifier = services.NoopNotifier{}
	if webhookURL := os.Getenv("REBALANCE_WEBHOOK_URL"); webhookURL != "" {
		webhookBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "RebalanceWebhookCB",
			MaxRequests: 1,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
			},
		})
		notifier = services.NewWebhookNotifier(webhookURL, utils.NewHTTPClient(), webhookBreaker)
		logging.Logger.Infof("Event ID: WEBHOOK_ENABLED, Description: Rebalance webhook notifications enabled for %s", webhookURL)
	}

	authService := services.NewAuthService(usersCollection, blacklistCollection)
	teamService := services.NewTeamService(teamsCollection)
	projectService := services.NewProjectService(projectsCollection, teamsCollection, tasksCollection)
	taskService := services.NewTaskService(tasksCollection, projectsCollection, teamsCollection)
	dashboardService := services.NewDashboardService(teamsCollection, projectsCollection, tasksCollection, reassignmentsCollection, usersCollection, notifier)

	authHandler := handlers.NewAuthHandler(authService)
	teamHandler := handlers.NewTeamHandler(teamService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	authMiddleware := handlers.NewAuthMiddleware(authService)

	r := mux.NewRouter()

	r.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware.RequireAuth)

	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)

	protected.HandleFunc("/teams", teamHandler.CreateTeam).Methods(http.MethodPost)
	protected.HandleFunc("/teams", teamHandler.GetMyTeams).Methods(http.MethodGet)
	protected.HandleFunc("/teams/{teamId}", teamHandler.GetTeamByID).Methods(http.MethodGet)
	protected.HandleFunc("/teams/{teamId}/members", teamHandler.AddMember).Methods(http.MethodPost)
	protected.HandleFunc("/teams/{teamId}/members/{memberId}", teamHandler.UpdateMember).Methods(http.MethodPut)
	protected.HandleFunc("/teams/{teamId}/members/{memberId}", teamHandler.RemoveMember).Methods(http.MethodDelete)

	protected.HandleFunc("/projects", projectHandler.CreateProject).Methods(http.MethodPost)
	protected.HandleFunc("/projects", projectHandler.GetMyProjects).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectId}", projectHandler.GetProjectByID).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectId}", projectHandler.UpdateProject).Methods(http.MethodPut)
	protected.HandleFunc("/projects/{projectId}", projectHandler.DeleteProject).Methods(http.MethodDelete)

	protected.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks", taskHandler.GetTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{taskId}", taskHandler.GetTaskByID).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{taskId}", taskHandler.UpdateTask).Methods(http.MethodPut)
	protected.HandleFunc("/tasks/{taskId}", taskHandler.DeleteTask).Methods(http.MethodDelete)

	protected.HandleFunc("/dashboard/summary", dashboardHandler.Summary).Methods(http.MethodGet)
	protected.HandleFunc("/dashboard/team-summary/{teamId}", dashboardHandler.TeamSummary).Methods(http.MethodGet)
	protected.HandleFunc("/dashboard/reassign", dashboardHandler.Reassign).Methods(http.MethodPost)
	protected.HandleFunc("/dashboard/reassignments", dashboardHandler.RecentReassignments).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "5000"
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}

// ensureIndexes creates the indexes the service relies on: unique user
// emails, the token blacklist with a TTL so revocations age out, and the
// query paths used by the rebalancing engine and history reader.
func ensureIndexes(ctx context.Context, users, blacklist, tasks, reassignments *mongo.Collection) error {
	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = blacklist.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return err
	}

	_, err = tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project", Value: 1}, {Key: "assignedMemberId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = reassignments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "team", Value: 1}, {Key: "movedAt", Value: -1}},
	})
	return err
}
