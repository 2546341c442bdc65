package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartchat/chartchat/internal/schema"
)

var plotTag = regexp.MustCompile(`<plot>(.+)</plot>`)

func newTestPlotTool(t *testing.T, format PlotResultFormat) *PlotTool {
	t.Helper()
	tool := NewPlotTool(filepath.Join(t.TempDir(), "plots"), format)
	tool.now = func() time.Time { return time.Date(2024, 3, 15, 14, 30, 22, 0, time.UTC) }
	return tool
}

func TestPlot_FromGeneratedSeries(t *testing.T) {
	gen := NewTimeSeriesTool(0, nil)
	data, err := gen.Execute(context.Background(), map[string]any{
		"start_date": "2024-01-01",
		"end_date":   "2024-01-10",
	})
	require.NoError(t, err)

	tool := newTestPlotTool(t, PlotResultTag)
	out, err := tool.Execute(context.Background(), map[string]any{"data": data})
	require.NoError(t, err)

	m := plotTag.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	assert.True(t, strings.HasPrefix(out, "Image file path:"))
	assert.Equal(t, filepath.Join(tool.Dir(), "plot_20240315_143022.png"), m[1])

	info, err := os.Stat(m[1])
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPlot_SingleDay(t *testing.T) {
	tool := newTestPlotTool(t, PlotResultTag)
	_, err := tool.Render(`{"date":["2024-01-01"],"value":[0.5]}`)
	require.NoError(t, err)
}

func TestPlot_SameSecondGetsSuffix(t *testing.T) {
	tool := newTestPlotTool(t, PlotResultTag)
	data := `{"date":["2024-01-01","2024-01-02"],"value":[1.2,-0.5]}`

	first, err := tool.Render(data)
	require.NoError(t, err)
	second, err := tool.Render(data)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "plot_20240315_143022_1.png", filepath.Base(second))
}

func TestPlot_MarkdownFormat(t *testing.T) {
	tool := newTestPlotTool(t, PlotResultMarkdown)
	out, err := tool.Execute(context.Background(), map[string]any{
		"data": map[string]any{"date": []any{"2024-01-01", "2024-01-02"}, "value": []any{1.0, 2.0}},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^!\[Time Series Data\]\(.+\.png\)$`, out)
}

func TestPlot_MalformedData(t *testing.T) {
	tool := newTestPlotTool(t, PlotResultTag)

	for _, data := range []string{
		`not json`,
		`{"date":["2024-01-01"]}`,
		`{"value":[1]}`,
		`{"date":["2024-01-01","2024-01-02"],"value":[1]}`,
		`{"date":[],"value":[]}`,
		`{"date":["yesterday"],"value":[1]}`,
		`{"date":["2024-01-01"],"value":["high"]}`,
	} {
		_, err := tool.Render(data)
		assert.True(t, errors.Is(err, schema.ErrMalformedData), "%s: %v", data, err)
	}

	_, err := tool.Execute(context.Background(), map[string]any{})
	assert.True(t, errors.Is(err, schema.ErrMalformedData))
}

func TestPlot_AcceptsTimestampDates(t *testing.T) {
	tool := newTestPlotTool(t, PlotResultTag)
	_, err := tool.Render(`{"date":["2024-01-01 00:00:00","2024-01-02 00:00:00"],"value":[1,2]}`)
	require.NoError(t, err)
}
