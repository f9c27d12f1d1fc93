package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/interview-practice/pkg/logger"
)

type recorded struct {
	path    string
	session string
	body    map[string]interface{}
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		calls = append(calls, recorded{path: r.URL.Path, session: r.Header.Get(Header), body: body})

		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_Selections(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"success":true}`)
	c := NewClient(Config{BaseURL: srv.URL + "/"}, logger.NewNop())
	ctx := logger.WithSessionID(context.Background(), "sess-1")

	resp, err := c.SetRole(ctx, "Backend Developer")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	_, err = c.SetExperience(ctx, "3-5")
	require.NoError(t, err)
	_, err = c.SetDifficulty(ctx, "hard")
	require.NoError(t, err)

	require.Len(t, *calls, 3)
	assert.Equal(t, "/set-role", (*calls)[0].path)
	assert.Equal(t, "Backend Developer", (*calls)[0].body["role"])
	assert.Equal(t, "/set-experience", (*calls)[1].path)
	assert.Equal(t, "3-5", (*calls)[1].body["experience"])
	assert.Equal(t, "/set-difficulty", (*calls)[2].path)
	assert.Equal(t, "hard", (*calls)[2].body["difficulty"])
	for _, call := range *calls {
		assert.Equal(t, "sess-1", call.session)
	}
}

func TestClient_PreviewDefaults(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"success":true,"first_question":"Tell me about yourself"}`)
	c := NewClient(Config{BaseURL: srv.URL}, logger.NewNop())

	resp, err := c.PreviewInterview(context.Background(), "Go developer with five years")
	require.NoError(t, err)
	assert.Equal(t, "Tell me about yourself", resp.FirstQuestion)

	require.Len(t, *calls, 1)
	body := (*calls)[0].body
	assert.Equal(t, "/preview-interview", (*calls)[0].path)
	assert.Equal(t, PreviewRole, body["role"])
	assert.Equal(t, PreviewExperience, body["experience"])
	assert.Equal(t, PreviewDifficulty, body["difficulty"])
	assert.Equal(t, PreviewUserMessage, body["user_message"])
	assert.Equal(t, "Go developer with five years", body["resume_text"])
	assert.Contains(t, body, "conversation_history")
	assert.Nil(t, body["conversation_history"])
}

func TestClient_StatusError(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, `{"success":false,"message":"bad credentials"}`)
	c := NewClient(Config{BaseURL: srv.URL}, logger.NewNop())

	_, err := c.Login(context.Background(), "a@b.co", "wrong")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "bad credentials")
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url}, logger.NewNop())
	_, err := c.SetRole(context.Background(), "Data Scientist")
	assert.Error(t, err)
}
