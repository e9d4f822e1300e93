package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"ai-ragchat-client/internal/mockserver"
	"ai-ragchat-client/internal/service"
	"ai-ragchat-client/internal/session"
	"ai-ragchat-client/internal/view"
	"ai-ragchat-client/pkg/events"
	"ai-ragchat-client/pkg/ragapi"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

type harness struct {
	backend *mockserver.Server
	store   *session.Store
	out     *bytes.Buffer
	files   map[string][]byte
	deps    Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	answer := "X is Y."
	backend := mockserver.New(mockserver.Config{
		NumericChatIDs: true,
		Answer:         func(string, []string, int) *string { return &answer },
	})
	require.NoError(t, backend.AddUser("alice", "alice@example.com", "pw"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = backend.Serve(ln) }()
	t.Cleanup(func() { _ = backend.Shutdown() })

	api, err := ragapi.NewClient(ragapi.ClientConfig{BaseURL: "http://" + ln.Addr().String()})
	require.NoError(t, err)

	bus := events.NewBus(nil)
	t.Cleanup(func() { _ = bus.Close() })
	store := session.NewStore(bus, nil)

	out := &bytes.Buffer{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, view.NewRenderer(out, store).Attach(ctx, bus))

	h := &harness{backend: backend, store: store, out: out, files: map[string][]byte{}}
	h.deps = Deps{
		Auth:      service.NewAuthService(api, store, nil),
		Documents: service.NewDocumentService(api, store, nil),
		Chats:     service.NewChatService(api, store, nil),
		Out:       out,
		ReadFile: func(path string) ([]byte, error) {
			content, ok := h.files[path]
			if !ok {
				return nil, errors.New("no such file")
			}
			return content, nil
		},
	}
	return h
}

func (h *harness) run(t *testing.T, script string) {
	t.Helper()
	deps := h.deps
	deps.In = strings.NewReader(script)
	require.NoError(t, New(deps).Run(context.Background()))
}

func TestREPLSession(t *testing.T) {
	h := newHarness(t)
	h.files["/tmp/docs/spec.pdf"] = []byte("%PDF-1.4")

	h.run(t, strings.Join([]string{
		"/login alice pw",
		"/upload /tmp/docs/spec.pdf",
		"/new",
		"What is X?",
		"/chats",
		"/quit",
		"never reached",
	}, "\n"))

	state := h.store.Current()
	assert.Equal(t, "alice", state.Username)
	assert.Equal(t, []string{"spec.pdf"}, state.Documents)
	assert.Equal(t, "1", state.CurrentChatID.String())
	require.Len(t, state.History, 2)
	assert.Equal(t, "X is Y.", state.History[1].Text)

	out := h.out.String()
	assert.Contains(t, out, "user: alice")
	assert.Contains(t, out, "Human: What is X?\nAI: X is Y.")
	assert.Contains(t, out, "  1  What is X?")
	assert.Equal(t, 1, h.backend.Calls("/chat/"))
}

func TestREPLReportsErrorsAndContinues(t *testing.T) {
	h := newHarness(t)

	h.run(t, strings.Join([]string{
		"hello before login",
		"/login alice wrong",
		"/bogus",
		"/upload",
		"/login alice pw",
	}, "\n"))

	out := h.out.String()
	assert.Contains(t, out, "error: "+service.ErrNotAuthenticated.Error())
	assert.Contains(t, out, "error: ragapi: login: unauthorized")
	assert.Contains(t, out, "error: unknown command /bogus")
	assert.Contains(t, out, "error: usage: /upload <path.pdf>")
	assert.True(t, h.store.Current().IsAuthenticated())
}

func TestREPLResetClearsLocalAndServer(t *testing.T) {
	h := newHarness(t)

	h.run(t, "/login alice pw\nfirst question\n/reset\n")

	state := h.store.Current()
	assert.Empty(t, state.History)
	assert.False(t, state.CurrentChatID.IsZero())
	assert.Equal(t, 0, h.backend.MemoryLen(state.CurrentChatID.String()))
	assert.Equal(t, 2, h.backend.Calls("/chat/"))
}

func TestREPLResetWhileAnonymous(t *testing.T) {
	h := newHarness(t)

	h.run(t, "/reset\n")

	assert.NotContains(t, h.out.String(), "error:")
	assert.Equal(t, 1, h.backend.Calls("/chat/"))
}

func TestREPLLogout(t *testing.T) {
	h := newHarness(t)

	h.run(t, "/login alice pw\nhi\n/logout\n")

	assert.False(t, h.store.Current().IsAuthenticated())
	assert.True(t, strings.HasSuffix(strings.TrimSuffix(h.out.String(), "> \n"), "not logged in (/login <user> <password>)\n"))
}

func TestREPLSelectAndDelete(t *testing.T) {
	h := newHarness(t)
	h.backend.AddDocument("alice", "old.pdf")

	h.run(t, "/login alice pw\none\n/new\n/select 1\n/delete old.pdf\n/delete ghost.pdf\n")

	state := h.store.Current()
	assert.Equal(t, "1", state.CurrentChatID.String())
	assert.Len(t, state.History, 2)
	assert.Empty(t, state.Documents)
	assert.Contains(t, h.out.String(), "error: ragapi: delete: validation (404): File not found")
}

func TestREPLSkipsOverlongLine(t *testing.T) {
	h := newHarness(t)
	long := strings.Repeat("a", 100*1024)

	h.run(t, strings.Join([]string{
		"/login alice pw",
		strings.Repeat("x", maxLineBytes+10),
		long,
		"/logout",
	}, "\n"))

	out := h.out.String()
	assert.Contains(t, out, "error: "+errLineTooLong.Error())
	assert.False(t, h.store.Current().IsAuthenticated(), "input after the skipped line must still run")
	assert.Equal(t, 1, h.backend.Calls("/chat/"), "only the line within the limit is sent")
}

func TestREPLSendsLineAboveReadBuffer(t *testing.T) {
	h := newHarness(t)
	long := strings.Repeat("a", 100*1024)

	h.run(t, "/login alice pw\n"+long+"\n")

	history := h.store.Current().History
	require.Len(t, history, 2)
	assert.Equal(t, long, history[0].Text)
}

func TestREPLStopsOnCancelWhileWaitingForInput(t *testing.T) {
	h := newHarness(t)
	in, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })

	deps := h.deps
	deps.In = in
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- New(deps).Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept waiting for input after cancel")
	}
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "trailing newline", input: "a\nb\n", want: []string{"a", "b"}},
		{name: "no trailing newline", input: "a\nb", want: []string{"a", "b"}},
		{name: "crlf", input: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "empty lines kept", input: "\n\na\n", want: []string{"", "", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bufio.NewReader(strings.NewReader(tt.input))
			var got []string
			for {
				line, err := readLine(reader)
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				got = append(got, line)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
