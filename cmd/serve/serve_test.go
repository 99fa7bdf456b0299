package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/imagedrop/internal/auth"
	"github.com/leefowlercu/imagedrop/internal/editor"
	"github.com/leefowlercu/imagedrop/internal/testutil"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type running struct {
	base   string
	stderr *syncBuffer
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, args ...string) *running {
	t.Helper()

	cmd := createTestCommand()
	cmd.SetArgs(append([]string{"--bind", "127.0.0.1", "--port", "0"}, args...))

	r := &running{stderr: &syncBuffer{}, done: make(chan error, 1)}
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(r.stderr)

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go func() {
		r.done <- cmd.ExecuteContext(ctx)
	}()
	t.Cleanup(cancel)

	require.Eventually(t, func() bool {
		return strings.Contains(r.stderr.String(), "listening on http://")
	}, 5*time.Second, 10*time.Millisecond, "server never announced its address")

	out := r.stderr.String()
	line := out[strings.Index(out, "listening on ")+len("listening on "):]
	r.base = strings.TrimSpace(strings.SplitN(line, "\n", 2)[0])
	return r
}

func (r *running) stop(t *testing.T) {
	t.Helper()
	r.cancel()
	select {
	case err := <-r.done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not exit after cancellation")
	}
}

func (r *running) document(t *testing.T) editor.Snapshot {
	t.Helper()
	resp, err := http.Get(r.base + "/document")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap editor.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestServeCmd_PasteAndDocument(t *testing.T) {
	env := testutil.NewTestEnv(t)
	pidFile := filepath.Join(env.CreateTestDir("run"), "imagedrop.pid")

	r := startServer(t, "--seed", "ab", "--pid-file", pidFile)

	_, err := os.Stat(pidFile)
	require.NoError(t, err, "PID file should exist while serving")

	resp, err := http.Post(r.base+"/paste", "image/png", bytes.NewReader(testutil.PNG(t, 2, 2)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := r.document(t)
	assert.Equal(t, 3, snap.Length)
	require.Len(t, snap.Ops, 2)
	assert.True(t, strings.HasPrefix(snap.Ops[1].Embed["image"], "data:image/png;base64,"))

	resp, err = http.Get(r.base + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(r.base + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	r.stop(t)

	assert.Contains(t, r.stderr.String(), "inserted image image/png")
	_, err = os.Stat(pidFile)
	assert.True(t, os.IsNotExist(err), "PID file should be removed on shutdown")
}

func TestServeCmd_WatchDir(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteConfig("watch:\n  debounce_ms: 50\n")
	inbox := env.CreateTestDir("inbox")

	r := startServer(t, "--pid-file", "none", "--watch-dir", inbox)

	env.CreateTestFile(inbox, "drop.png", testutil.PNG(t, 2, 2))

	require.Eventually(t, func() bool {
		resp, err := http.Get(r.base + "/document")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		var snap editor.Snapshot
		return json.NewDecoder(resp.Body).Decode(&snap) == nil && snap.Length == 1
	}, 5*time.Second, 20*time.Millisecond)

	r.stop(t)
}

func TestServeCmd_MCPEndpoint(t *testing.T) {
	testutil.NewTestEnv(t)
	r := startServer(t, "--pid-file", "none")

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`
	req, err := http.NewRequest(http.MethodPost, r.base+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"imagedrop"`)

	r.stop(t)
}

func TestServeCmd_MCPDisabled(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteConfig("server:\n  mcp_enabled: false\n  events_enabled: false\n")
	r := startServer(t, "--pid-file", "none")

	for _, path := range []string{"/mcp", "/events"} {
		resp, err := http.Get(r.base + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}

	r.stop(t)
}

func TestServeCmd_EventStream(t *testing.T) {
	testutil.NewTestEnv(t)
	r := startServer(t, "--pid-file", "none")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(r.base, "http")+"/events", nil)
	require.NoError(t, err)
	defer conn.Close()

	// Keep pasting until the stream's subscription is in place.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(50 * time.Millisecond):
				resp, err := http.Post(r.base+"/paste", "text/plain", strings.NewReader("x"))
				if err == nil {
					resp.Body.Close()
				}
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "item.inserted", msg.Type)
	assert.Equal(t, "text", msg.Payload["kind"])
}

func TestServeCmd_AuthSecret(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteConfig("server:\n  auth_secret: s3cret\n")
	r := startServer(t, "--pid-file", "none")

	resp, err := http.Post(r.base+"/paste", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tokens, err := auth.New("s3cret")
	require.NoError(t, err)
	token, err := tokens.Issue("test")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, r.base+"/paste", strings.NewReader("hello"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(r.base + "/document")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "reads stay open")

	r.stop(t)
}

func TestServeCmd_AlreadyRunning(t *testing.T) {
	env := testutil.NewTestEnv(t)
	pidFile := filepath.Join(env.CreateTestDir("run"), "imagedrop.pid")
	require.NoError(t, os.WriteFile(pidFile, []byte("1"), 0o644))

	cmd := createTestCommand()
	cmd.SetArgs([]string{"--port", "0", "--pid-file", pidFile})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestServeCmd_InvalidPort(t *testing.T) {
	testutil.NewTestEnv(t)

	for _, port := range []string{"-2", "70000"} {
		cmd := createTestCommand()
		cmd.SetArgs([]string{"--port", port})
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))

		assert.Error(t, cmd.Execute(), "port %s", port)
	}
}

func createTestCommand() *cobra.Command {
	// Reset flag variables
	serveBind = ""
	servePort = -1
	serveWatchDirs = nil
	serveSeed = ""
	servePIDFile = ""
	serveQuiet = false

	cmd := &cobra.Command{
		Use:     ServeCmd.Use,
		Args:    ServeCmd.Args,
		PreRunE: ServeCmd.PreRunE,
		RunE:    ServeCmd.RunE,
	}

	cmd.Flags().StringVar(&serveBind, "bind", "", "")
	cmd.Flags().IntVarP(&servePort, "port", "p", -1, "")
	cmd.Flags().StringArrayVar(&serveWatchDirs, "watch-dir", nil, "")
	cmd.Flags().StringVar(&serveSeed, "seed", "", "")
	cmd.Flags().StringVar(&servePIDFile, "pid-file", "", "")
	cmd.Flags().BoolVarP(&serveQuiet, "quiet", "q", false, "")

	return cmd
}
