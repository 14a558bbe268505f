// Package queue defines the auth event payloads exchanged over the message
// broker together with their publisher and the audit log consumer.
package queue

import (
	"fmt"
	"time"
)

// Auth event types.
const (
	EventUserRegistered     = "user.registered"
	EventUserFederatedLogin = "user.federated_login"
	EventUserLoggedOut      = "user.logged_out"
)

// AuthEvent is published after an authentication state change. It carries
// enough information for downstream consumers to audit or notify without
// querying the primary database.
type AuthEvent struct {
	Type       string `json:"type"`
	UserID     uint64 `json:"user_id"`
	Email      string `json:"email,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Created    bool   `json:"created,omitempty"`
	Linked     bool   `json:"linked,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// NewAuthEvent stamps an event with the current UTC time.
func NewAuthEvent(typ string, userID uint64) AuthEvent {
	return AuthEvent{Type: typ, UserID: userID, OccurredAt: time.Now().UTC().Format(time.RFC3339)}
}

// Line renders ev as a single human friendly audit log line.
func (ev AuthEvent) Line() string {
	line := fmt.Sprintf("[%s] %s | user_id=%d", ev.OccurredAt, ev.Type, ev.UserID)
	if ev.Email != "" {
		line += fmt.Sprintf(" | email=%q", ev.Email)
	}
	if ev.Provider != "" {
		line += " | provider=" + ev.Provider
	}
	if ev.Type == EventUserFederatedLogin {
		line += fmt.Sprintf(" | created=%t | linked=%t", ev.Created, ev.Linked)
	}
	return line + "\n"
}
