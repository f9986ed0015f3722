package logger

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"notify_token", "abc",
		"fid", 42,
		"Authorization", "Bearer x",
		"payload", map[string]interface{}{"api_key": "k", "url": "https://x"},
		"dangling",
	})
	if got[1] != "[REDACTED]" {
		t.Fatalf("notify_token not redacted: %v", got[1])
	}
	if got[3] != 42 {
		t.Fatalf("fid should pass through, got %v", got[3])
	}
	if got[5] != "[REDACTED]" {
		t.Fatalf("Authorization not redacted: %v", got[5])
	}
	m, ok := got[7].(map[string]interface{})
	if !ok {
		t.Fatalf("payload should stay a map, got %T", got[7])
	}
	if m["api_key"] != "[REDACTED]" || m["url"] != "https://x" {
		t.Fatalf("nested payload not sanitized: %v", m)
	}
	if got[len(got)-1] != "dangling" {
		t.Fatalf("odd trailing key dropped: %v", got)
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production", "test"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.With("component", "test").Debug("hello", "k", "v")
	}
}
