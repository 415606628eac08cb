package cli

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProvider is a minimal provider endpoint that notes every
// request path.
type recordingProvider struct {
	mu    sync.Mutex
	paths []string
}

func (p *recordingProvider) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.paths = append(p.paths, r.URL.Path)
		p.mu.Unlock()

		switch {
		case strings.Contains(r.URL.Path, "/getStateInstance/"):
			fmt.Fprint(w, `{"stateInstance":"authorized"}`)
		case strings.Contains(r.URL.Path, "/receiveNotification/"):
			w.WriteHeader(http.StatusNoContent)
		case strings.Contains(r.URL.Path, "/logout/"):
			fmt.Fprint(w, `{"isLogout":true}`)
		default:
			fmt.Fprint(w, `{}`)
		}
	})
}

func (p *recordingProvider) sawPath(fragment string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, path := range p.paths {
		if strings.Contains(path, fragment) {
			return true
		}
	}
	return false
}

func TestRunInterruptLogsOutRemoteSession(t *testing.T) {
	provider := &recordingProvider{}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	home := t.TempDir()
	t.Setenv("WAGATE_HOME", home)
	cfgPath := filepath.Join(home, "config.yaml")
	cfgYAML := fmt.Sprintf(`provider:
  baseUrl: %s
  instanceId: "7103"
  apiToken: test-token
polling:
  stateIntervalMs: 3600000
  notifIntervalMs: 3600000
logging:
  level: silent
`, srv.URL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o600))

	// Keep stdin open for the daemon; a closed stdin is a host-driven
	// shutdown, which deliberately skips the remote logout.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	origStdin := os.Stdin
	os.Stdin = r
	t.Cleanup(func() {
		os.Stdin = origStdin
		w.Close()
		r.Close()
	})

	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "--config", cfgPath, "--log-level", "silent"})
	done := make(chan error, 1)
	go func() { done <- cmd.Execute() }()

	require.Eventually(t, func() bool {
		return provider.sawPath("/getStateInstance/")
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not shut down after interrupt")
	}

	assert.True(t, provider.sawPath("/logout/"),
		"interrupt shutdown must attempt a remote logout")
}
