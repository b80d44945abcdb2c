package cgi

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o755))
	return p
}

func TestExecuteHeaderBlock(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "hdr.sh",
		"#!/bin/sh\nprintf 'Content-Type: text/plain\\nX-Script: yes\\n\\nhello'\n")

	e := &Executor{}
	res, err := e.Execute(context.Background(), Invocation{
		ScriptPath: script,
		Method:     http.MethodGet,
		Path:       "/scripts/hdr.sh",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, []Header{
		{Name: "Content-Type", Value: "text/plain"},
		{Name: "X-Script", Value: "yes"},
	}, res.Headers)
	assert.Equal(t, "hello", string(res.Body))
}

func TestExecuteNoHeaderBlock(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "plain.sh",
		"#!/bin/sh\nprintf 'plain output without a blank line'\n")

	e := &Executor{}
	res, err := e.Execute(context.Background(), Invocation{
		ScriptPath: script,
		Method:     http.MethodGet,
		Path:       "/scripts/plain.sh",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Empty(t, res.Headers)
	assert.Equal(t, "plain output without a blank line", string(res.Body))
}

func TestExecuteEnv(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "env.sh",
		"#!/bin/sh\nprintf '%s %s %s %s %s' \"$Method\" \"$Path\" \"$Query_a\" \"$Query_b\" \"$Token\"\n")

	e := &Executor{Env: []string{"PATH=/usr/bin:/bin"}}
	res, err := e.Execute(context.Background(), Invocation{
		ScriptPath: script,
		Method:     http.MethodPost,
		Path:       "/scripts/env.sh",
		Headers:    map[string]string{"Token": "t1"},
		Params:     map[string]string{"a": "1", "b": "2"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "POST /scripts/env.sh 1 2 t1", string(res.Body))
}

func TestExecuteStdin(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "echo.sh", "#!/bin/sh\ncat\n")

	e := &Executor{}
	res, err := e.Execute(context.Background(), Invocation{
		ScriptPath: script,
		Method:     http.MethodPost,
		Path:       "/scripts/echo.sh",
		Body:       []byte("a=1&b=2"),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "a=1&b=2", string(res.Body))
}

func TestExecuteNonzeroExit(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/bin/sh\necho boom >&2\nexit 3\n")

	e := &Executor{}
	res, err := e.Execute(context.Background(), Invocation{
		ScriptPath: script,
		Method:     http.MethodGet,
		Path:       "/scripts/fail.sh",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, "boom\n", string(res.Body))
	assert.Empty(t, res.Headers)
}

func TestExecuteSpawnFailure(t *testing.T) {
	t.Parallel()

	e := &Executor{}
	res, err := e.Execute(context.Background(), Invocation{
		ScriptPath: filepath.Join(t.TempDir(), "missing.sh"),
		Method:     http.MethodGet,
		Path:       "/scripts/missing.sh",
	})
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestExecuteTimeout(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "slow.sh", "#!/bin/sh\nsleep 10\n")

	e := &Executor{Timeout: 100 * time.Millisecond}
	start := time.Now()
	res, err := e.Execute(context.Background(), Invocation{
		ScriptPath: script,
		Method:     http.MethodGet,
		Path:       "/scripts/slow.sh",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSplitOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		out        string
		expHeaders []Header
		expBody    string
	}{
		{
			name:       "lf_separated",
			out:        "Content-Type: text/plain\n\nbody",
			expHeaders: []Header{{Name: "Content-Type", Value: "text/plain"}},
			expBody:    "body",
		},
		{
			name:       "crlf_separated",
			out:        "Content-Type: text/plain\r\n\r\nbody",
			expHeaders: []Header{{Name: "Content-Type", Value: "text/plain"}},
			expBody:    "body",
		},
		{
			name:    "no_blank_line",
			out:     "Content-Type: text/plain\nstill going",
			expBody: "Content-Type: text/plain\nstill going",
		},
		{
			name:    "non_header_line",
			out:     "hello world\n\nrest",
			expBody: "hello world\n\nrest",
		},
		{
			name:    "leading_blank_line",
			out:     "\nbody only",
			expBody: "body only",
		},
		{name: "empty", out: "", expBody: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			headers, body := splitOutput([]byte(tt.out))
			assert.Equal(t, tt.expHeaders, headers)
			assert.Equal(t, tt.expBody, string(body))
		})
	}
}
