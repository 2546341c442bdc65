package cmdutils

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPrintResponse(t *testing.T) {
	var buf bytes.Buffer
	PrintResponse(&buf, "hello")
	if !strings.Contains(buf.String(), "chartchat\nhello") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	PrintResponse(&buf, "   ")
	if buf.Len() != 0 {
		t.Errorf("blank reply should print nothing, got %q", buf.String())
	}
}

func TestPrintProgressAndError(t *testing.T) {
	var buf bytes.Buffer
	PrintProgress(&buf, "%s(%s)", "plot_time_series_data", "x")
	if buf.String() != "  ↳ plot_time_series_data(x)\n" {
		t.Errorf("unexpected progress line: %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, "TurnTimeoutError", errors.New("too slow"))
	if buf.String() != "✗ TurnTimeoutError: too slow\n" {
		t.Errorf("unexpected error line: %q", buf.String())
	}
}
