package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"

	"ai-ragchat-client/internal/mockserver"
	"ai-ragchat-client/internal/session"
	"ai-ragchat-client/pkg/ragapi"

	"github.com/stretchr/testify/require"
)

var errNetworkDown = errors.New("network is down")

// switchTransport fails every request while down is set.
type switchTransport struct {
	down atomic.Bool
}

func (t *switchTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.down.Load() {
		return nil, errNetworkDown
	}
	return http.DefaultTransport.RoundTrip(req)
}

type fixture struct {
	backend   *mockserver.Server
	store     *session.Store
	transport *switchTransport
	auth      IAuthService
	documents IDocumentService
	chats     IChatService
	ctx       context.Context
}

func newFixture(t *testing.T, cfg mockserver.Config) *fixture {
	t.Helper()

	backend := mockserver.New(cfg)
	require.NoError(t, backend.AddUser("alice", "alice@example.com", "pw"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = backend.Serve(ln) }()
	t.Cleanup(func() { _ = backend.Shutdown() })

	transport := &switchTransport{}
	api, err := ragapi.NewClient(ragapi.ClientConfig{
		BaseURL:    "http://" + ln.Addr().String(),
		HTTPClient: &http.Client{Transport: transport},
		LogoutPath: cfg.LogoutPath,
	})
	require.NoError(t, err)

	store := session.NewStore(nil, nil)
	return &fixture{
		backend:   backend,
		store:     store,
		transport: transport,
		auth:      NewAuthService(api, store, nil),
		documents: NewDocumentService(api, store, nil),
		chats:     NewChatService(api, store, nil),
		ctx:       context.Background(),
	}
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	_, err := f.auth.Login(f.ctx, "alice", "pw")
	require.NoError(t, err)
}

func answer(text string) mockserver.Answerer {
	return func(string, []string, int) *string { return &text }
}

func requireAnonymous(t *testing.T, state session.State) {
	t.Helper()
	require.Equal(t, "", state.Token)
	require.Equal(t, "", state.Username)
	require.True(t, state.CurrentChatID.IsZero())
	require.Empty(t, state.History)
	require.Empty(t, state.Documents)
}
