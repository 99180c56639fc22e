package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git init failed: %v\n%s", err, out)
	}
	return dir
}

func TestFormatOutsideRepo(t *testing.T) {
	if got := Format(&Status{File: ".quickdb"}); got != "" {
		t.Errorf("Format outside repo = %q, want empty", got)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{Status{IsRepo: true, File: ".quickdb", Tracked: true}, "error: .quickdb is tracked"},
		{Status{IsRepo: true, File: ".quickdb", Ignored: true}, "ok: .quickdb is in .gitignore"},
		{Status{IsRepo: true, File: ".quickdb"}, "warning: .quickdb not in .gitignore"},
	}
	for _, tt := range tests {
		if got := Format(&tt.status); !strings.Contains(got, tt.want) {
			t.Errorf("Format(%+v) = %q, want it to contain %q", tt.status, got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	requireGit(t)

	if s := Check(t.TempDir(), ".quickdb"); s.IsRepo {
		t.Error("temp dir should not be a repository")
	}

	dir := initRepo(t)
	if err := os.WriteFile(filepath.Join(dir, ".quickdb"), []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s := Check(dir, ".quickdb")
	if !s.IsRepo || s.Tracked || s.Ignored {
		t.Errorf("untracked file: %+v", s)
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(".quickdb\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if s := Check(dir, ".quickdb"); !s.Ignored {
		t.Errorf("file should be ignored: %+v", s)
	}
}
