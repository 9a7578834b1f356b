package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"fundboard/internal/models"
)

// Event type constants prevent typos in event names.
const (
	EventPostCreated         = "post_created"
	EventPostUpdated         = "post_updated"
	EventPostDeleted         = "post_deleted"
	EventPostToggled         = "post_toggled"
	EventPostReactionUpdated = "post_reaction_updated"
	EventCommentCreated      = "comment_created"
	EventCommentDisabled     = "comment_disabled"
)

type realtimeEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// publishPostEvent delivers an event about post. Events about an inactive
// post go to its owner only, matching who may read it.
func (s *Server) publishPostEvent(ctx context.Context, post *models.Post, eventType string, payload any) {
	if post.Active {
		s.publishBroadcastEvent(ctx, eventType, payload)
		return
	}
	s.publishUserEvent(ctx, post.OwnerID, eventType, payload)
}

func (s *Server) publishUserEvent(ctx context.Context, userID uint, eventType string, payload any) {
	message, ok := marshalEvent(ctx, eventType, payload)
	if !ok {
		return
	}
	if s.notifier != nil {
		err := s.notifier.PublishUser(context.WithoutCancel(ctx), userID, message)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "event publish failed, delivering locally",
			slog.String("event", eventType), slog.String("error", err.Error()))
	}
	s.hub.Broadcast(userID, message)
}

func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload any) {
	message, ok := marshalEvent(ctx, eventType, payload)
	if !ok {
		return
	}
	if s.notifier != nil {
		err := s.notifier.PublishBroadcast(context.WithoutCancel(ctx), message)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "event publish failed, delivering locally",
			slog.String("event", eventType), slog.String("error", err.Error()))
	}
	s.hub.BroadcastAll(message)
}

func marshalEvent(ctx context.Context, eventType string, payload any) (string, bool) {
	eventJSON, err := json.Marshal(realtimeEvent{Type: eventType, Payload: payload})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal event",
			slog.String("event", eventType), slog.String("error", err.Error()))
		return "", false
	}
	return string(eventJSON), true
}
