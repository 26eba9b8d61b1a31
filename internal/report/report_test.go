package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"SalesScanner/internal/stage"
	"SalesScanner/internal/usecase"
)

func TestRenderIncludesStagesAndSinks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Render(&buf, "run-1", usecase.Report{
		Stages: []stage.Summary{
			{Stage: usecase.StageDiscover, Succeeded: 12, Duration: 120 * time.Millisecond},
			{Stage: usecase.StageResolve, Succeeded: 10, Failed: 2, Duration: time.Second},
		},
		SoldRows:     7,
		SinkRows:     map[string]int{"csv": 7, "postgres": 6},
		SinkFailures: map[string]int{"postgres": 1},
		Duration:     2 * time.Second,
	})

	out := buf.String()
	assert.Contains(t, out, "Run run-1 (2s)")
	assert.Contains(t, out, "discover")
	assert.Contains(t, out, "resolve")
	assert.Less(t, strings.Index(out, "csv"), strings.Index(out, "postgres"))
	assert.Contains(t, strings.ToLower(out), "sold events")
}

func TestRenderSkipsEmptySinkTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Render(&buf, "run-2", usecase.Report{
		Stages: []stage.Summary{{Stage: usecase.StageDiscover, Failed: 1}},
	})

	assert.Contains(t, buf.String(), "discover")
	assert.NotContains(t, strings.ToUpper(buf.String()), "SINK")
}
