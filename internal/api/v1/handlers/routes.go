package handlers

import (
	"net/http"

	"github.com/deepgram/qabot/internal/api/v1/handlers/chat"
	"github.com/deepgram/qabot/internal/api/v1/handlers/page"
	v1ws "github.com/deepgram/qabot/internal/api/v1/handlers/websocket"
	v1mware "github.com/deepgram/qabot/internal/api/v1/middleware"
	"github.com/deepgram/qabot/internal/connections"
	"github.com/deepgram/qabot/internal/services"
	"github.com/gorilla/mux"
)

// RegisterPageRoutes mounts the chat page at the root
func RegisterPageRoutes(router *mux.Router, services *services.Services) {
	conversationService := services.GetConversationService()

	pageRouter := router.NewRoute().Subrouter()
	pageRouter.Use(v1mware.RequireSession(services.GetSessionService()))

	pageRouter.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		page.HandleChatPage(conversationService, w, r)
	}).Methods("GET")
	pageRouter.Handle("/", v1mware.RateLimit("chat_turn")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page.HandleChatSubmit(conversationService, w, r)
	}))).Methods("POST")
	pageRouter.HandleFunc("/reset", func(w http.ResponseWriter, r *http.Request) {
		page.HandleResetSubmit(conversationService, w, r)
	}).Methods("POST")
}

func RegisterV1Routes(router *mux.Router, services *services.Services, manager *connections.Manager) {
	conversationService := services.GetConversationService()

	// v1 routes
	v1 := router.PathPrefix("/v1").Subrouter()

	// Public v1 routes (no session required)
	v1publicRouter := v1.NewRoute().Subrouter()
	v1publicRouter.HandleFunc("/widget.js", HandleWidgetJS).Methods("GET")

	// Session-scoped v1 chat routes
	v1chatRouter := v1.PathPrefix("/chat").Subrouter()
	v1chatRouter.Use(v1mware.RequireSession(services.GetSessionService()))

	v1chatRouter.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		chat.HandleMessages(conversationService, w, r)
	}).Methods("GET")
	v1chatRouter.Handle("/turns", v1mware.RateLimit("chat_turn")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chat.HandleTurn(conversationService, w, r)
	}))).Methods("POST")
	v1chatRouter.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
		chat.HandleReset(conversationService, w, r)
	}).Methods("DELETE")
	v1chatRouter.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		v1ws.HandleChatWebSocket(conversationService, manager, w, r)
	}).Methods("GET")
}
