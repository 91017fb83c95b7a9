package runlog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sabouaram/uacore/runlog"
)

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	log := runlog.New(buf)
	log.SetLevel(runlog.WarnLevel)

	if log.GetLevel() != runlog.WarnLevel {
		t.Fatalf("expected WarnLevel, got %v", log.GetLevel())
	}

	log.Debug("should be filtered", nil)
	if strings.Contains(buf.String(), "should be filtered") {
		t.Fatalf("debug line leaked through warn-level filter: %q", buf.String())
	}

	log.Error("should appear", nil)
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("error line missing: %q", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := runlog.New(buf).WithFields(runlog.Fields{"source": "tcp-listener"})
	log.Info("established", nil)

	if !strings.Contains(buf.String(), "source=tcp-listener") {
		t.Fatalf("expected field in output, got %q", buf.String())
	}
}

func TestHCLogAdapter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := runlog.New(buf)
	h := log.HCLog()

	h.Info("signal delivered", "signal", "SIGTERM")
	if !strings.Contains(buf.String(), "signal delivered") {
		t.Fatalf("expected hclog bridge to reach the sink, got %q", buf.String())
	}
}
