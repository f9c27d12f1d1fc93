package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/interview-practice/internal/models"
	"github.com/feichai0017/interview-practice/pkg/logger"
	"github.com/feichai0017/interview-practice/pkg/session"
)

type fakeAPI struct {
	err   error
	calls map[string]string
}

func newFakeAPI(err error) *fakeAPI {
	return &fakeAPI{err: err, calls: make(map[string]string)}
}

func (f *fakeAPI) record(field, value string) (*session.Response, error) {
	f.calls[field] = value
	if f.err != nil {
		return nil, f.err
	}
	return &session.Response{Success: true}, nil
}

func (f *fakeAPI) Login(_ context.Context, email, _ string) (*session.Response, error) {
	return f.record("login", email)
}
func (f *fakeAPI) SetRole(_ context.Context, v string) (*session.Response, error) {
	return f.record("role", v)
}
func (f *fakeAPI) SetExperience(_ context.Context, v string) (*session.Response, error) {
	return f.record("experience", v)
}
func (f *fakeAPI) SetDifficulty(_ context.Context, v string) (*session.Response, error) {
	return f.record("difficulty", v)
}
func (f *fakeAPI) PreviewInterview(context.Context, string) (*session.PreviewResponse, error) {
	return &session.PreviewResponse{}, f.err
}

func TestSelectRole(t *testing.T) {
	api := newFakeAPI(nil)
	svc := NewService(api, logger.NewNop())

	sel, err := svc.SelectRole(context.Background(), "  backend developer ")
	require.NoError(t, err)
	assert.Equal(t, "Backend Developer", sel.Value)
	assert.True(t, sel.Forwarded)
	assert.Equal(t, "Backend Developer", api.calls["role"])

	_, err = svc.SelectRole(context.Background(), "Astronaut")
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestSelectExperienceAndDifficulty(t *testing.T) {
	api := newFakeAPI(nil)
	svc := NewService(api, logger.NewNop())

	sel, err := svc.SelectExperience(context.Background(), "3-5")
	require.NoError(t, err)
	assert.Equal(t, "3 - 5 years", sel.Label)

	sel, err = svc.SelectDifficulty(context.Background(), "Hard")
	require.NoError(t, err)
	assert.Equal(t, "hard", sel.Value)
	assert.Equal(t, "hard", api.calls["difficulty"])

	_, err = svc.SelectExperience(context.Background(), "10+")
	assert.ErrorIs(t, err, ErrInvalidSelection)
	_, err = svc.SelectDifficulty(context.Background(), "impossible")
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestForwardFailureIsNotFatal(t *testing.T) {
	api := newFakeAPI(errors.New("connection refused"))
	log := logger.NewTestLogger()
	svc := NewService(api, log)

	sel, err := svc.SelectDifficulty(context.Background(), "easy")
	require.NoError(t, err)
	assert.False(t, sel.Forwarded)
	assert.Equal(t, 1, log.Count("WARN"))
}

func TestLoginFailureIsReturned(t *testing.T) {
	svc := NewService(newFakeAPI(errors.New("unauthorized")), logger.NewNop())

	_, err := svc.Login(context.Background(), models.Credentials{Email: "a@b.co", Password: "x"})
	assert.Error(t, err)
}
