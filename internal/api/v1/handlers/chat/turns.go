package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/deepgram/qabot/internal/api/v1/middleware"
	"github.com/deepgram/qabot/internal/services/conversation"
	"github.com/deepgram/qabot/pkg/httpext"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

type TurnRequest struct {
	Content string `json:"content" validate:"required,max=32000"`
}

type TurnResponse struct {
	Reply    conversation.Message   `json:"reply"`
	Messages []conversation.Message `json:"messages"`
}

type HistoryResponse struct {
	Messages []conversation.Message `json:"messages"`
}

// HandleTurn submits one user message and answers with the reply and the full history
func HandleTurn(conversationService *conversation.Service, w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r)

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("Request validation failed")
		httpext.JsonErrorWithDetails(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:            conversation.KindInvalidInput.String(),
			ErrorDescription: fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	sess, reply, err := conversationService.Turn(r.Context(), sessionID, req.Content, nil)
	if err != nil {
		WriteError(w, sessionID, err)
		return
	}

	httpext.JsonResponse(w, TurnResponse{Reply: reply, Messages: sess.Messages}, http.StatusOK)
}

// HandleMessages returns the session's history, bootstrapping it on first visit
func HandleMessages(conversationService *conversation.Service, w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r)

	sess, err := conversationService.Open(r.Context(), sessionID)
	if err != nil && sess == nil {
		WriteError(w, sessionID, err)
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Serving history of a session that is not bootstrapped")
	}

	httpext.JsonResponse(w, HistoryResponse{Messages: sess.Messages}, http.StatusOK)
}

// HandleReset clears the session's history and remote identities
func HandleReset(conversationService *conversation.Service, w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r)

	sess, err := conversationService.Reset(r.Context(), sessionID)
	if err != nil {
		WriteError(w, sessionID, err)
		return
	}

	httpext.JsonResponse(w, HistoryResponse{Messages: sess.Messages}, http.StatusOK)
}

// StatusCode maps a conversation error to the HTTP status reported for it
func StatusCode(err error) int {
	switch conversation.KindOf(err) {
	case conversation.KindInvalidInput:
		return http.StatusBadRequest
	case conversation.KindBusy:
		return http.StatusConflict
	case conversation.KindTimeout:
		return http.StatusGatewayTimeout
	case conversation.KindTurn, conversation.KindRunFailed, conversation.KindBootstrap:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError reports err as JSON with its kind and display text
func WriteError(w http.ResponseWriter, sessionID string, err error) {
	code := StatusCode(err)
	kind := conversation.KindOf(err)

	event := log.Warn()
	if code >= http.StatusInternalServerError && !errors.Is(err, conversation.ErrPollExhausted) {
		event = log.Error()
	}
	event.Err(err).
		Str("session_id", sessionID).
		Str("kind", kind.String()).
		Int("status", code).
		Msg("Chat request failed")

	httpext.JsonErrorWithDetails(w, code, httpext.ErrorResponse{
		Error:            kind.String(),
		ErrorDescription: conversation.Display(err),
	})
}
