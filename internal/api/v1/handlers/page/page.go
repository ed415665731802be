package page

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/deepgram/qabot/internal/api/v1/handlers/chat"
	"github.com/deepgram/qabot/internal/api/v1/middleware"
	"github.com/deepgram/qabot/internal/config"
	"github.com/deepgram/qabot/internal/services/conversation"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/chat.html
var templateFS embed.FS

var (
	pageTemplate = template.Must(template.ParseFS(templateFS, "templates/chat.html"))
	markdown     = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

type pageMessage struct {
	Role string
	HTML template.HTML
}

type pageData struct {
	Title    string
	Messages []pageMessage
	Error    string
	Draft    string
}

// HandleChatPage renders the conversation, bootstrapping the session on first visit
func HandleChatPage(conversationService *conversation.Service, w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r)

	sess, err := conversationService.Open(r.Context(), sessionID)
	data := pageData{Title: config.GetPageTitle()}
	code := http.StatusOK
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Session bootstrap failed")
		data.Error = conversation.Display(err)
		code = chat.StatusCode(err)
	}
	if sess != nil {
		data.Messages = renderMessages(sess.Messages)
	}

	render(w, data, code)
}

// HandleChatSubmit runs a turn from the form post and redirects back to the page
func HandleChatSubmit(conversationService *conversation.Service, w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r)

	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("Client sent malformed form")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	content := r.PostFormValue("content")

	sess, _, err := conversationService.Turn(r.Context(), sessionID, content, nil)
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	log.Warn().Err(err).Str("session_id", sessionID).Msg("Form turn failed")
	data := pageData{
		Title: config.GetPageTitle(),
		Error: conversation.Display(err),
	}
	if sess == nil {
		// busy or unreadable session; show what is stored
		sess, _ = conversationService.Open(r.Context(), sessionID)
		data.Draft = content
	}
	if sess != nil {
		data.Messages = renderMessages(sess.Messages)
	}

	render(w, data, chat.StatusCode(err))
}

// HandleResetSubmit resets the session from the page and redirects back
func HandleResetSubmit(conversationService *conversation.Service, w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r)

	if _, err := conversationService.Reset(r.Context(), sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Form reset failed")
		render(w, pageData{Title: config.GetPageTitle(), Error: conversation.Display(err)}, chat.StatusCode(err))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func renderMessages(messages []conversation.Message) []pageMessage {
	out := make([]pageMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, pageMessage{Role: string(msg.Role), HTML: RenderContent(msg)})
	}
	return out
}

// RenderContent returns the HTML shown for a message. Assistant replies are
// markdown; user text is shown as typed.
func RenderContent(msg conversation.Message) template.HTML {
	if msg.Role != conversation.RoleAssistant {
		return template.HTML("<p>" + template.HTMLEscapeString(msg.Content) + "</p>")
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(msg.Content), &buf); err != nil {
		log.Warn().Err(err).Msg("Failed to render markdown, falling back to text")
		return template.HTML("<p>" + template.HTMLEscapeString(msg.Content) + "</p>")
	}
	// goldmark omits raw HTML unless WithUnsafe is set
	return template.HTML(buf.String())
}

func render(w http.ResponseWriter, data pageData, code int) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		log.Error().Err(err).Msg("Failed to render chat page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug().Err(err).Msg("Failed to write chat page")
	}
}
