package writer

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateSessionPath(t *testing.T) {
	tests := []struct {
		name    string
		session string
		wantErr string
	}{
		{name: "timestamped session", session: "session_2026-03-01T08-15-00"},
		{name: "end of year", session: "session_2025-12-31T23-59-59"},
		{name: "empty", session: "", wantErr: "cannot be empty"},
		{name: "parent dir", session: "..", wantErr: "path traversal"},
		{name: "escape then reenter", session: "../output/session_2026-03-01T08-15-00", wantErr: "path traversal"},
		{name: "absolute", session: "/tmp/session_2026-03-01T08-15-00", wantErr: "must be relative"},
		{name: "nested", session: "session_2026-03-01T08-15-00/journal.json", wantErr: "without path separators"},
		{name: "backslash", session: `session_2026-03-01T08-15-00\x`, wantErr: "without path separators"},
		{name: "missing prefix", session: "2026-03-01T08-15-00", wantErr: "invalid session name format"},
		{name: "date only", session: "session_2026-03-01", wantErr: "invalid session name format"},
		{name: "trailing text", session: "session_2026-03-01T08-15-00_old", wantErr: "invalid session name format"},
		{name: "uppercase prefix", session: "SESSION_2026-03-01T08-15-00", wantErr: "invalid session name format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionPath("output", tt.session)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateSessionPath(%q) = %v, want nil", tt.session, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateSessionPath(%q) = %v, want error containing %q", tt.session, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSessionPath_OutputDirs(t *testing.T) {
	name := "session_2026-03-01T08-15-00"
	for _, dir := range []string{"output", "./output", t.TempDir(), filepath.Join(t.TempDir(), "nested", "out")} {
		if err := ValidateSessionPath(dir, name); err != nil {
			t.Errorf("ValidateSessionPath(%q, %q) = %v", dir, name, err)
		}
	}
}

func TestSessionPath(t *testing.T) {
	dir := t.TempDir()

	got, err := SessionPath(dir, "session_2026-03-01T08-15-00")
	if err != nil {
		t.Fatalf("SessionPath failed: %v", err)
	}
	if want := filepath.Join(dir, "session_2026-03-01T08-15-00"); got != want {
		t.Errorf("SessionPath = %q, want %q", got, want)
	}

	if _, err := SessionPath(dir, "../session_2026-03-01T08-15-00"); err == nil {
		t.Error("SessionPath should reject traversal")
	}
}
