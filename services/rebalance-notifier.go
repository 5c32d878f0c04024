package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskhub-backend/models"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RebalanceNotifier is told about every completed rebalance run that moved
// at least one task.
type RebalanceNotifier interface {
	NotifyRebalance(ctx context.Context, teamID primitive.ObjectID, moves []models.ExecutedMove) error
}

// NoopNotifier is used when no webhook is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyRebalance(context.Context, primitive.ObjectID, []models.ExecutedMove) error {
	return nil
}

// WebhookNotifier POSTs a rebalance summary as JSON to a configured
// endpoint. Calls go through a circuit breaker so a dead endpoint cannot
// slow down rebalance runs indefinitely.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewWebhookNotifier(url string, client *http.Client, breaker *gobreaker.CircuitBreaker) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: client, breaker: breaker}
}

type rebalanceEvent struct {
	TeamID     string                `json:"teamId"`
	MoveCount  int                   `json:"moveCount"`
	Moves      []models.ExecutedMove `json:"moves"`
	NotifiedAt time.Time             `json:"notifiedAt"`
}

func (n *WebhookNotifier) NotifyRebalance(ctx context.Context, teamID primitive.ObjectID, moves []models.ExecutedMove) error {
	event := rebalanceEvent{
		TeamID:     teamID.Hex(),
		MoveCount:  len(moves),
		Moves:      moves,
		NotifiedAt: time.Now(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal rebalance event: %v", err)
	}

	_, err = n.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}
