package logging

import "testing"

func TestNewLoggerWithService(t *testing.T) {
	l := NewLoggerWithService("console-core")
	entry := l.WithField("k", "v")
	if entry == nil {
		t.Fatalf("expected non-nil entry")
	}
}

func TestWithTenant(t *testing.T) {
	entry := WithTenant(NewLogger(), "acme")
	if entry.Data["tenant"] != "acme" {
		t.Fatalf("expected tenant field, got %v", entry.Data)
	}
}
