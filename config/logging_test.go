package config

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestLogfReportsCaller(t *testing.T) {
	var buf bytes.Buffer
	oldDebug, oldLog := Debug, DebugLog
	t.Cleanup(func() { Debug, DebugLog = oldDebug, oldLog })

	Debug = true
	DebugLog = log.New(&buf, "", log.Lshortfile)
	Logf("[Test] hello %d", 1)

	out := buf.String()
	if !strings.HasPrefix(out, "logging_test.go:") {
		t.Errorf("log line = %q, want caller file", out)
	}
	if !strings.Contains(out, "[Test] hello 1") {
		t.Errorf("log line = %q", out)
	}

	buf.Reset()
	Debug = false
	Logf("[Test] hidden")
	if buf.Len() != 0 {
		t.Errorf("disabled log wrote %q", buf.String())
	}
}
