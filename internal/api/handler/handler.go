package handler

import (
	"log/slog"

	"matcha/backend/internal/hub"
	"matcha/backend/internal/service/chat"
	"matcha/backend/internal/service/interaction"
)

// Handler bundles the HTTP surface over the realtime core: the REST trigger
// endpoints the CRUD layer exposes, and the websocket upgrade.
type Handler struct {
	Hub          *hub.Hub
	Interactions *interaction.Service
	Chat         *chat.Service
	Log          *slog.Logger
}

func New(h *hub.Hub, interactions *interaction.Service, chatSvc *chat.Service, log *slog.Logger) *Handler {
	return &Handler{
		Hub:          h,
		Interactions: interactions,
		Chat:         chatSvc,
		Log:          log,
	}
}
