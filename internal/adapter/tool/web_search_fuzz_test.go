package tool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// FuzzWebSearchTool fuzzes the search tool params to find validation bypasses.
func FuzzWebSearchTool(f *testing.F) {
	ws := newSearchFixture(nil, nil)

	// Seed corpus
	f.Add(`{"query":"golang tutorial"}`)
	f.Add(`{"query":""}`)
	f.Add(`{"query":"   "}`)
	f.Add(`{"query":"test\r\nX-Injected: true"}`)
	f.Add(`{"query":"` + strings.Repeat("A", 10*1024) + `"}`)
	f.Add(`malformed json`)
	f.Add(`{"query":"\x00test"}`)
	f.Add(`{"query":42}`)
	f.Add(`{}`)
	f.Add(`null`)

	f.Fuzz(func(t *testing.T, input string) {
		result, err := ws.Execute(context.Background(), json.RawMessage(input))

		// Execute must never return a Go error; operational failures go in
		// ToolResult.IsError.
		if err != nil {
			t.Fatalf("Execute returned Go error: %v", err)
		}
		if result == nil {
			t.Fatal("Execute returned nil result")
		}

		// A success implies the parsed query was non-blank.
		if !result.IsError {
			var params webSearchParams
			if json.Unmarshal([]byte(input), &params) == nil {
				if strings.TrimSpace(params.Query) == "" {
					t.Errorf("empty query succeeded")
				}
			}
		}
	})
}
