package models

import (
	"time"

	id "creditflow/pkg/domain"
)

// Trigger names the actor behind a transition.
type Trigger string

const (
	TriggerSystem   Trigger = "system"
	TriggerUser     Trigger = "user"
	TriggerWebhook  Trigger = "webhook"
	TriggerProvider Trigger = "provider"
)

// StatusTransition is an append-only audit record. FromStatusID is nil for
// the initial status.
type StatusTransition struct {
	ID              id.TransitionID
	CreditRequestID id.CreditRequestID
	FromStatusID    *id.StatusID
	ToStatusID      id.StatusID
	TriggeredBy     Trigger
	Reason          string
	Metadata        map[string]any
	CreatedAt       time.Time
}
