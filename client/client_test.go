package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/aquamind/internal/config"
	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/infra/memory"
	"github.com/totegamma/aquamind/internal/infra/ratelimit"
	"github.com/totegamma/aquamind/internal/present/rest"
	"github.com/totegamma/aquamind/internal/service"
	"github.com/totegamma/aquamind/internal/usecase"
)

func newTestServer(t *testing.T) (*httptest.Server, *service.Hub) {
	t.Helper()

	conf := config.Default()
	users := memory.NewUserStore()
	hub := service.NewHub(conf.Hub.QueueSize)

	auth := usecase.NewAuthUsecase(users, service.NewTokenService("client-test"), conf.Domain(), usecase.WithHashCost(bcrypt.MinCost))
	interaction := usecase.NewInteractionUsecase(
		ratelimit.NewWindowGate(time.Minute, 1000),
		auth,
		memory.NewPostStore(users),
		memory.NewScoreStore(users),
		hub,
		conf.Domain(),
	)

	srv := httptest.NewServer(rest.NewServer(rest.NewHandler(interaction, hub, conf.Hub), "aquamind-test"))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return srv, hub
}

func TestClientRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	ann := New(srv.URL)
	session, err := ann.Register(ctx, "ann@example.com", "ann", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ann", session.DisplayName)
	assert.Equal(t, session.Token, ann.Token())

	profile, err := ann.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", profile.Email)

	post, err := ann.CreatePost(ctx, "Hello")
	require.NoError(t, err)

	likes, err := ann.ToggleLike(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	posts, err := ann.ListPosts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.True(t, *posts[0].LikedByViewer)

	_, err = ann.SubmitScore(ctx, 12)
	require.NoError(t, err)
	scores, err := ann.TopScores(ctx, 0)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "ann", scores[0].Username)

	other := New(srv.URL)
	_, err = other.Login(ctx, "ann@example.com", "wrong-password")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestClientSubscribe(t *testing.T) {
	srv, hub := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bob := New(srv.URL)
	_, err := bob.Register(ctx, "bob@example.com", "bob", "hunter22")
	require.NoError(t, err)

	received := make(chan domain.Event, 4)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- New(srv.URL).Subscribe(ctx, ready, func(e domain.Event) error {
			received <- e
			return nil
		})
	}()

	<-ready
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	_, err = bob.SubmitScore(ctx, 99)
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, domain.EventScoreSubmitted, e.Type)
		assert.Equal(t, 99, e.Score.Score)
		assert.Equal(t, "bob", e.Score.Username)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe did not return after cancel")
	}
}

func TestClientSubscribeStopsOnCallbackError(t *testing.T) {
	srv, hub := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinkBroken := errors.New("sink broken")
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- New(srv.URL).Subscribe(ctx, ready, func(domain.Event) error {
			return sinkBroken
		})
	}()

	<-ready
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Publish(ctx, domain.NewPostLikedEvent("p1", 1)))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, sinkBroken)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe kept running after the callback failed")
	}
}
