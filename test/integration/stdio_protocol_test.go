package integration_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func serverBinary(t *testing.T) string {
	t.Helper()
	for _, path := range []string{"./bin/gmboard", "../../bin/gmboard"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("Server binary not found. Run 'go build -o bin/gmboard ./cmd/server' first.")
	return ""
}

func stdioEnv() []string {
	return append(os.Environ(),
		"GMBOARD_CONFIG_PATH=",
		"GMBOARD_TRANSPORT_MODE=stdio",
		"GMBOARD_DB_PATH=:memory:",
		"GMBOARD_LOG_PATH=",
	)
}

// TestStdioProtocolCompliance drives the server binary over stdio with the
// MCP SDK client.
func TestStdioProtocolCompliance(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = stdioEnv()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	require.NoError(t, err, "Failed to connect to server")
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "gmboard", initResult.ServerInfo.Name)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err, "tools/list failed")

		toolNames := make(map[string]bool)
		for _, tool := range tools.Tools {
			toolNames[tool.Name] = true
		}
		for _, name := range []string{"list_campaigns", "create_campaign", "add_character", "apply_mutation", "get_overlay"} {
			require.True(t, toolNames[name], "Missing expected tool: %s", name)
		}
	})

	t.Run("CampaignWorkflow", func(t *testing.T) {
		for _, call := range []sdkmcp.CallToolParams{
			{Name: "create_campaign", Arguments: map[string]any{"name": "Stdio", "system": "Generic"}},
			{Name: "add_character", Arguments: map[string]any{"campaign_id": 1, "name": "Hero"}},
			{Name: "apply_mutation", Arguments: map[string]any{"campaign_id": 1, "character_id": 1, "field": "statValue", "stat_name": "HP", "value": 12}},
		} {
			result, err := session.CallTool(ctx, &call)
			require.NoError(t, err, "tools/call %s failed", call.Name)
			require.False(t, result.IsError, "%s returned error: %v", call.Name, result)
		}

		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_campaign", Arguments: map[string]any{"campaign_id": 1}})
		require.NoError(t, err)
		require.False(t, result.IsError)
		text, ok := result.Content[0].(*sdkmcp.TextContent)
		require.True(t, ok)

		var c struct {
			Characters []struct {
				Stats []struct {
					Name  string `json:"name"`
					Value any    `json:"value"`
				} `json:"stats"`
			} `json:"characters"`
		}
		require.NoError(t, json.Unmarshal([]byte(text.Text), &c))
		require.Len(t, c.Characters, 1)
		for _, st := range c.Characters[0].Stats {
			if st.Name == "HP" {
				require.Equal(t, float64(12), st.Value)
			}
		}
	})
}

// TestStdioProtocol_StdoutHygiene checks that the first thing on stdout is
// a JSON-RPC message and not a log line.
func TestStdioProtocol_StdoutHygiene(t *testing.T) {
	binaryPath := serverBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = stdioEnv()

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	defer func() {
		_ = stdin.Close()
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	initReq := `{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}},"id":1}`
	_, err = stdin.Write([]byte(initReq + "\n"))
	require.NoError(t, err)

	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		if scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	select {
	case line, ok := <-lines:
		require.True(t, ok, "Server produced no stdout output")
		var msg map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &msg), "stdout line is not JSON: %q", line)
		require.Equal(t, "2.0", msg["jsonrpc"])
		require.EqualValues(t, 1, msg["id"])
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for server response")
	}
}
