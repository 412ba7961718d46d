package shelfsense

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCoordinationLogFilePath(t *testing.T) {
	path := NewCoordinationLogFilePath("logs", "server", "us.anthropic.Claude:v1/x y")
	assert.Equal(t, "logs", filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".server.us.anthropic.claude_v1_x_y.json"), path)
}

func TestStreamCoordinationLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStreamCoordinationLogger(&buf)

	require.NoError(t, logger.LogIteration(IterationLog{SessionID: "s1", Mode: ModeRetail, Iteration: 1}))
	require.NoError(t, logger.LogIteration(IterationLog{SessionID: "s1", Mode: ModeRetail, Iteration: 2}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got IterationLog
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, 2, got.Iteration)
	assert.Equal(t, ModeRetail, got.Mode)
}

func TestFileCoordinationLogger_Flush(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileCoordinationLogger(&buf)

	require.NoError(t, logger.LogIteration(IterationLog{Iteration: 1, ToolCalls: []ToolCallLog{{Name: "find_taste_gaps"}}}))
	require.NoError(t, logger.Flush())

	var doc struct {
		Session struct {
			Iterations []IterationLog `json:"iterations"`
		} `json:"coordination_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Session.Iterations, 1)
	assert.Equal(t, "find_taste_gaps", doc.Session.Iterations[0].ToolCalls[0].Name)

	buf.Reset()
	require.NoError(t, logger.Flush())
	assert.Contains(t, buf.String(), `"iterations": []`)
}

func TestNewCoordinationLogger(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		logger, cleanup, err := NewCoordinationLogger(AgentConfig{CoordinationLog: "none"}, "server", "mock")
		require.NoError(t, err)
		assert.IsType(t, &NoOpCoordinationLogger{}, logger)
		assert.NoError(t, cleanup())
	})

	t.Run("stdout", func(t *testing.T) {
		logger, _, err := NewCoordinationLogger(AgentConfig{CoordinationLog: "stdout"}, "server", "mock")
		require.NoError(t, err)
		assert.IsType(t, &StreamCoordinationLogger{}, logger)
	})

	t.Run("file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")
		logger, cleanup, err := NewCoordinationLogger(AgentConfig{CoordinationLog: "file", CoordinationLogDir: dir}, "server", "mock")
		require.NoError(t, err)
		require.NoError(t, logger.LogIteration(IterationLog{Iteration: 1}))
		require.NoError(t, cleanup())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, strings.HasSuffix(entries[0].Name(), ".server.mock.json"))
	})
}
