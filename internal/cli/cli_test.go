package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivethru/internal/menu"
)

func writeConfig(t *testing.T, sessionLog string) string {
	t.Helper()
	dir := t.TempDir()
	data := fmt.Sprintf(`
log:
  level: error
llm:
  provider: none
menu:
  embedder: hash
  embedding_cache: %s
recovery:
  base_backoff: 1ms
  max_backoff: 1ms
session_log:
%s`, filepath.Join(dir, "embeddings.json"), sessionLog)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func jsonLogConfig(dir string) string {
	return fmt.Sprintf("  enabled: true\n  driver: json\n  dir: %s\n", dir)
}

func execute(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewAppOffline(t *testing.T) {
	logDir := t.TempDir()
	a, err := newApp(context.Background(), writeConfig(t, jsonLogConfig(logDir)), &bytes.Buffer{})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.model)
	assert.NotNil(t, a.store)
	assert.Nil(t, a.db)

	manager, err := a.newManager()
	require.NoError(t, err)
	reply := manager.ProcessInput(context.Background(), "Hi", 1.0)
	assert.NotEmpty(t, reply.Text)
}

func TestNewAppSQLiteSessionLog(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, fmt.Sprintf("  enabled: true\n  driver: sqlite3\n  dir: %s\n", dir))

	a, err := newApp(context.Background(), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, a.db)
	require.NoError(t, a.Close())

	_, err = os.Stat(filepath.Join(dir, "sessions.db"))
	assert.NoError(t, err)
}

func TestNewAppRejectsLLMEmbedderWithoutProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: none\nmenu:\n  embedder: llm\nsession_log:\n  enabled: false\n"), 0o644))

	_, err := newApp(context.Background(), path, &bytes.Buffer{})
	assert.ErrorContains(t, err, "requires an llm.provider")
}

func TestChatTakesAnOrder(t *testing.T) {
	logDir := t.TempDir()
	cfg := writeConfig(t, jsonLogConfig(logDir))

	input := "Hi\nI want two crunchy tacos\nThat's all\nYes\nThanks\n"
	out, err := execute(t, input, "--config", cfg, "chat", "--once")
	require.NoError(t, err)

	assert.Contains(t, out, "Crunchy Taco")
	assert.Contains(t, out, "$2.98")

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestChatQuit(t *testing.T) {
	logDir := t.TempDir()
	cfg := writeConfig(t, jsonLogConfig(logDir))

	out, err := execute(t, "never mind\n", "--config", cfg, "chat")
	require.NoError(t, err)
	assert.Contains(t, out, GoodbyeMessage)

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestChatRejectsBadConfidence(t *testing.T) {
	cfg := writeConfig(t, "  enabled: false\n")
	_, err := execute(t, "", "--config", cfg, "chat", "--confidence", "1.5")
	assert.ErrorContains(t, err, "--confidence")
}

func TestSearchCommand(t *testing.T) {
	cfg := writeConfig(t, "  enabled: false\n")

	out, err := execute(t, "", "--config", cfg, "search", "bean", "burrito", "-k", "1", "--json")
	require.NoError(t, err)

	var results []menu.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Bean Burrito", results[0].Item.Name)
}

func TestMenuCommand(t *testing.T) {
	cfg := writeConfig(t, "  enabled: false\n")

	out, err := execute(t, "", "--config", cfg, "menu", "--category", "tacos")
	require.NoError(t, err)
	assert.Contains(t, out, "Crunchy Taco")
	assert.NotContains(t, out, "Bean Burrito")

	_, err = execute(t, "", "--config", cfg, "menu", "--category", "pizza")
	assert.ErrorContains(t, err, "unknown category")
}

func TestEvalCommand(t *testing.T) {
	cfg := writeConfig(t, "  enabled: false\n")

	out, err := execute(t, "", "--config", cfg, "eval", "--list")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	_, err = execute(t, "", "--config", cfg, "eval", "no-such-scenario")
	assert.ErrorContains(t, err, "unknown scenario")
}

func TestModelsCommandListsProviders(t *testing.T) {
	cfg := writeConfig(t, "  enabled: false\n")

	out, err := execute(t, "", "--config", cfg, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "openai")
	assert.Contains(t, out, "gpt-4o-mini")
}

func TestServeMetricsStops(t *testing.T) {
	a, err := newApp(context.Background(), writeConfig(t, "  enabled: false\n"), &bytes.Buffer{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveMetrics(ctx, "127.0.0.1:0", a.metrics, a.logger) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}
