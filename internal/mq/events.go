package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ChannelUsersChanged carries UserEvent payloads.
const ChannelUsersChanged = "users.changed"

// EventKind names the mutation that produced a UserEvent.
type EventKind string

const (
	EventUserCreated EventKind = "created"
	EventUserDeleted EventKind = "deleted"
	EventUsersSeeded EventKind = "seeded"
)

// UserEvent announces that the user table changed.
type UserEvent struct {
	Kind   EventKind `json:"kind"`
	UserID int       `json:"userId,omitempty"`
	Count  int       `json:"count,omitempty"`
	At     time.Time `json:"at"`
}

// PublishUserEvent encodes event and publishes it on ChannelUsersChanged.
func (m *MQ) PublishUserEvent(ctx context.Context, event UserEvent) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode user event: %w", err)
	}
	attrs := map[string]string{"kind": string(event.Kind)}
	if event.UserID != 0 {
		attrs["user_id"] = strconv.Itoa(event.UserID)
	}
	if _, err := m.Publish(ctx, ChannelUsersChanged, data, attrs); err != nil {
		return fmt.Errorf("publish user event: %w", err)
	}
	return nil
}

// SubscribeUserEvents delivers decoded events to fn until ctx is done.
// Undecodable messages are acknowledged and dropped.
func (m *MQ) SubscribeUserEvents(ctx context.Context, fn func(context.Context, UserEvent)) error {
	return m.Subscribe(ctx, ChannelUsersChanged, func(ctx context.Context, msg Message) error {
		var event UserEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		fn(ctx, event)
		return nil
	})
}
