package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retriever-cli/internal/core/domain"
)

func TestQueryCmd_Use(t *testing.T) {
	assert.Equal(t, "query [text]", queryCmd.Use)
}

func TestQueryCmd_Short(t *testing.T) {
	assert.Equal(t, "Retrieve the top-k chunks for a query", queryCmd.Short)
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd_HasTopKFlag(t *testing.T) {
	flag := queryCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag, "top-k flag should exist")
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
}

func TestQueryCmd_HasThresholdFlag(t *testing.T) {
	flag := queryCmd.Flags().Lookup("threshold")
	require.NotNil(t, flag, "threshold flag should exist")
	assert.Equal(t, "0", flag.DefValue)
}

func TestQueryCmd_HasJSONFlag(t *testing.T) {
	flag := queryCmd.Flags().Lookup("json")
	require.NotNil(t, flag, "json flag should exist")
	assert.Equal(t, "false", flag.DefValue)
}

func TestOutputDecisionText_Fallback(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := rootCmd
	cmd.SetOut(buf)

	decision := domain.GateDecision{
		Status:     domain.GateFallback,
		Confidence: 0.12,
		Reason:     domain.FallbackLowConfidence,
	}
	require.NoError(t, outputDecisionText(cmd, decision))

	out := buf.String()
	assert.Contains(t, out, "fallback")
	assert.Contains(t, out, domain.FallbackLowConfidence)
}

func TestOutputDecisionText_Pass(t *testing.T) {
	buf := new(bytes.Buffer)
	cmd := rootCmd
	cmd.SetOut(buf)

	decision := domain.GateDecision{
		Status:     domain.GatePass,
		Confidence: 0.87,
		Chunks: []domain.ScoredChunk{
			{Chunk: domain.Chunk{ID: "a", Text: "rates rose", SourceDocID: "doc-1"}, Score: 0.9},
		},
	}
	require.NoError(t, outputDecisionText(cmd, decision))

	out := buf.String()
	assert.Contains(t, out, "pass")
	assert.Contains(t, out, "rates rose")
	assert.Contains(t, out, "doc-1")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "short text", firstLine("short text"))
	assert.Equal(t, "line one...", firstLine("line one\nline two"))

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	truncated := firstLine(string(long))
	assert.Len(t, truncated, 123)
	assert.Contains(t, truncated, "...")
}
