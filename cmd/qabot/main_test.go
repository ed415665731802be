package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	v1ws "github.com/deepgram/qabot/internal/api/v1/handlers/websocket"
	"github.com/deepgram/qabot/internal/config"
	"github.com/deepgram/qabot/internal/connections"
	"github.com/deepgram/qabot/internal/services"
	"github.com/deepgram/qabot/internal/services/assistant"
	"github.com/deepgram/qabot/internal/services/assistant/assistanttest"
	"github.com/deepgram/qabot/internal/services/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, fake *assistanttest.Fake) *httptest.Server {
	t.Helper()
	t.Setenv("SESSION_COOKIE_SECURE", "false")
	restore := config.SetJWTSecret([]byte("test-secret"))
	t.Cleanup(restore)

	svc := services.New(fake, assistant.Persona{Name: "QA Assistant"}, config.PollConfig{
		Interval:    time.Millisecond,
		MaxInterval: 2 * time.Millisecond,
		Timeout:     5 * time.Second,
	}, session.NewMemoryStore())

	server := httptest.NewServer(setupRouter(svc, connections.NewManager(connections.DefaultTimeouts)))
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestMainServer(t *testing.T) {
	fake := assistanttest.NewFake("Hi! How can I help?")
	server := newTestServer(t, fake)
	client := newClient(t)

	t.Run("health endpoint", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("chat page sets the session cookie", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "QA Chatbot")

		var names []string
		for _, c := range resp.Cookies() {
			names = append(names, c.Name)
		}
		assert.Contains(t, names, config.GetSessionCookieName())
	})

	t.Run("json turn in the same session", func(t *testing.T) {
		resp, err := client.Post(server.URL+"/v1/chat/turns", "application/json", strings.NewReader(`{"content":"Hello"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = client.Get(server.URL + "/v1/chat/messages")
		require.NoError(t, err)
		defer resp.Body.Close()

		var history struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
		require.Len(t, history.Messages, 2)
		assert.Equal(t, "Hello", history.Messages[0].Content)
		assert.Equal(t, "Hi! How can I help?", history.Messages[1].Content)

		assert.Equal(t, 1, fake.Calls(assistanttest.OpCreateAssistant))
	})

	t.Run("websocket turn in the same session", func(t *testing.T) {
		header := http.Header{}
		for _, c := range client.Jar.Cookies(mustParse(t, server.URL)) {
			header.Add("Cookie", c.String())
		}

		ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/v1/chat/ws", header)
		require.NoError(t, err)
		defer ws.Close()

		require.NoError(t, ws.WriteJSON(v1ws.UserMessage{Content: "Again", MessageID: "m2"}))
		var final v1ws.AssistantResponse
		for {
			ws.SetReadDeadline(time.Now().Add(5 * time.Second))
			require.NoError(t, ws.ReadJSON(&final))
			if final.Status != v1ws.StatusStreaming {
				break
			}
		}
		assert.Equal(t, v1ws.StatusComplete, final.Status)
		assert.Equal(t, 1, fake.Calls(assistanttest.OpCreateThread))
	})

	t.Run("reset session", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, server.URL+"/v1/chat/session", nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("widget script", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/v1/widget.js")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/invalid")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/v1/chat/turns")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestSeparateBrowsersGetSeparateSessions(t *testing.T) {
	fake := assistanttest.NewFake("reply")
	server := newTestServer(t, fake)

	for _, client := range []*http.Client{newClient(t), newClient(t)} {
		resp, err := client.Get(server.URL + "/")
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 2, fake.Calls(assistanttest.OpCreateAssistant))
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
