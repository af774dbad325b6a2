package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tendermint/tendermint/libs/log"
)

func TestReport(t *testing.T) {
	var output bytes.Buffer
	reporter := New(log.NewTMLogger(&output))

	reporter.Report("Grant creation failed", errors.New("relay down"), map[string]interface{}{
		"project": "project-1",
		"flow":    "grant",
	})

	if reporter.Count() != 1 {
		t.Errorf("Failed counting reports, got %d", reporter.Count())
	}
	line := output.String()
	for _, expected := range []string{"Grant creation failed", "module=report", "flow=grant", "project=project-1", "err=\"relay down\""} {
		if !strings.Contains(line, expected) {
			t.Errorf("Failed logging %q in %q", expected, line)
		}
	}
	if strings.Index(line, "flow=") > strings.Index(line, "project=") {
		t.Errorf("Failed sorting context keys: %q", line)
	}
}
