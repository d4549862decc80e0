package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/bunk/internal/config"
	"github.com/verte-zerg/bunk/internal/model"
	"github.com/verte-zerg/bunk/internal/stats"
	"github.com/verte-zerg/bunk/internal/store"
)

func runBunk(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", db}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, err := runBunk(t, db, args...)
	if err != nil {
		t.Fatalf("bunk %v: %v\n%s", args, err, out)
	}
	return out
}

func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv(config.EnvDB, "")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv("NO_COLOR", "1")
	return filepath.Join(dir, "bunk.db")
}

func TestMarkAndStatus(t *testing.T) {
	db := testEnv(t)
	mustRun(t, db, "subject", "add", "Web Programming", "--total", "60")

	out := mustRun(t, db, "mark", "Web Programming", "present", "--date", "2026-02-03")
	if !strings.Contains(out, "Web Programming: 1/1 (100.00%) safe, need 0, can miss 12") {
		t.Fatalf("unexpected mark output: %q", out)
	}
	out = mustRun(t, db, "mark", "web programming", "x", "--date", "2026-02-03")
	if !strings.Contains(out, "Web Programming: 0/1 (0.00%) danger, need 4, can miss 11") {
		t.Fatalf("unexpected remark output: %q", out)
	}

	out = mustRun(t, db, "status", "--json")
	var report stats.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if len(report.Rows) != 1 || report.Conducted != 1 || report.Attended != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	out = mustRun(t, db, "status")
	for _, want := range []string{"Semester 1", "Web Programming", "0/1", "danger", "Overall: 0.00% (0/1)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in status:\n%s", want, out)
		}
	}

	out = mustRun(t, db, "day", "--date", "2026-02-03")
	if !strings.Contains(out, "absent") {
		t.Fatalf("expected absent in day output:\n%s", out)
	}
}

func TestMarkRejectsBadInput(t *testing.T) {
	db := testEnv(t)
	mustRun(t, db, "subject", "add", "ML")
	if _, err := runBunk(t, db, "mark", "ML", "late"); err == nil {
		t.Fatalf("expected unknown status error")
	}
	if _, err := runBunk(t, db, "mark", "ML", "present", "--date", "2026-13-01"); err == nil {
		t.Fatalf("expected bad date error")
	}
	if _, err := runBunk(t, db, "mark", "Physics", "present"); err == nil {
		t.Fatalf("expected missing subject error")
	}
}

func TestCheckReportsDrift(t *testing.T) {
	db := testEnv(t)
	mustRun(t, db, "subject", "add", "ML", "--total", "30")
	mustRun(t, db, "mark", "ML", "present", "--date", "2026-02-03")

	out := mustRun(t, db, "check")
	if !strings.Contains(out, "Counters match the daily log.") {
		t.Fatalf("expected no drift:\n%s", out)
	}

	out = mustRun(t, db, "attend", "ML")
	if !strings.Contains(out, "ML: 2/2") {
		t.Fatalf("unexpected attend output: %q", out)
	}
	out = mustRun(t, db, "check")
	if !strings.Contains(out, "ML") || !strings.Contains(out, "+1") {
		t.Fatalf("expected drift for ML:\n%s", out)
	}

	out = mustRun(t, db, "miss", "ML", "--undo")
	if !strings.Contains(out, "ML: 2/2") {
		t.Fatalf("expected rejected miss undo to keep counters: %q", out)
	}
}

func TestSubjectTotalClamps(t *testing.T) {
	db := testEnv(t)
	mustRun(t, db, "subject", "add", "Art", "--total", "10")
	for i := 0; i < 3; i++ {
		mustRun(t, db, "attend", "Art")
	}
	out := mustRun(t, db, "subject", "total", "Art", "2")
	if !strings.Contains(out, "Art: 2 classes") {
		t.Fatalf("unexpected total output: %q", out)
	}
	out = mustRun(t, db, "subject", "list")
	if !strings.Contains(out, "Art  2/2 of 2") {
		t.Fatalf("expected clamped counters:\n%s", out)
	}
	if _, err := runBunk(t, db, "subject", "total", "Art", "0"); err == nil {
		t.Fatalf("expected total validation error")
	}
}

func TestSubjectAddUsesConfigTotal(t *testing.T) {
	db := testEnv(t)
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("[subjects]\ndefault-total = 45\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out := mustRun(t, db, "subject", "add", "Statistik")
	if !strings.Contains(out, "45 classes") {
		t.Fatalf("expected config total: %q", out)
	}
	out = mustRun(t, db, "subject", "add", "Physics", "--total", "12")
	if !strings.Contains(out, "12 classes") {
		t.Fatalf("expected flag to override config: %q", out)
	}
}

func TestSemesterCommands(t *testing.T) {
	db := testEnv(t)
	mustRun(t, db, "subject", "add", "ML", "--total", "30")
	mustRun(t, db, "attend", "ML")

	out := mustRun(t, db, "semester", "new", "Semester 2", "--copy-from", "Semester 1")
	if !strings.Contains(out, "Created Semester 2") || !strings.Contains(out, "1 subjects") {
		t.Fatalf("unexpected new output: %q", out)
	}
	out = mustRun(t, db, "subject", "list")
	if !strings.Contains(out, "ML  0/0 of 30") {
		t.Fatalf("expected copied subject with zero counters:\n%s", out)
	}

	out = mustRun(t, db, "semester", "list")
	if !strings.Contains(out, "* ") || !strings.Contains(out, "Semester 2") {
		t.Fatalf("unexpected list:\n%s", out)
	}

	if _, err := runBunk(t, db, "semester", "delete", "Semester 2"); err == nil {
		t.Fatalf("expected delete without --yes to fail")
	}
	mustRun(t, db, "semester", "delete", "Semester 2", "--yes")
	out = mustRun(t, db, "subject", "list")
	if !strings.Contains(out, "ML  1/1 of 30") {
		t.Fatalf("expected first semester to become current:\n%s", out)
	}
	if _, err := runBunk(t, db, "semester", "delete", "Semester 1", "--yes"); err == nil {
		t.Fatalf("expected deleting the last semester to fail")
	}

	mustRun(t, db, "semester", "rename", "Semester 1", "Spring")
	mustRun(t, db, "semester", "reset", "Spring", "--yes")
	out = mustRun(t, db, "--semester", "spring", "subject", "list")
	if !strings.Contains(out, "ML  0/0 of 30") {
		t.Fatalf("expected reset counters:\n%s", out)
	}
}

func TestExportImport(t *testing.T) {
	db := testEnv(t)
	mustRun(t, db, "subject", "add", "Web Programming", "--total", "60")
	mustRun(t, db, "mark", "Web Programming", "p", "--date", "2026-02-03")
	mustRun(t, db, "mark", "Web Programming", "a", "--date", "2026-02-04")

	file := filepath.Join(t.TempDir(), "out", "bunk.json")
	mustRun(t, db, "export", file)

	other := filepath.Join(t.TempDir(), "other.db")
	out := mustRun(t, other, "import", file)
	if !strings.Contains(out, "Imported Semester 1") {
		t.Fatalf("unexpected import output: %q", out)
	}
	out = mustRun(t, other, "subject", "list")
	if !strings.Contains(out, "Web Programming  1/2 of 60") {
		t.Fatalf("expected imported counters:\n%s", out)
	}
	out = mustRun(t, other, "check")
	if !strings.Contains(out, "Counters match the daily log.") {
		t.Fatalf("expected imported log to match:\n%s", out)
	}
}

func TestImportLegacy(t *testing.T) {
	db := testEnv(t)
	file := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `[{"id":"web","name":"Web Programming","totalClasses":19,"classesAttended":15}]`
	if err := os.WriteFile(file, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy: %v", err)
	}
	if _, err := runBunk(t, db, "import", file, "--name", "Old"); err == nil {
		t.Fatalf("expected --name without --legacy to fail")
	}
	out := mustRun(t, db, "import", file, "--legacy", "--name", "Old")
	if !strings.Contains(out, "Imported Old") {
		t.Fatalf("unexpected import output: %q", out)
	}
	out = mustRun(t, db, "--semester", "Old", "subject", "list")
	if !strings.Contains(out, "Web Programming  15/19 of 60") {
		t.Fatalf("expected legacy fallback total:\n%s", out)
	}
}

func TestConfigTemplateParses(t *testing.T) {
	var cfg config.FileConfig
	if _, err := toml.Decode(defaultConfigTemplate(), &cfg); err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if cfg.Subjects.DefaultTotal != nil {
		t.Fatalf("expected commented defaults")
	}
}

func TestWriteConfigTemplateKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bunk", "config.toml")
	if err := writeConfigTemplate(path); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := os.WriteFile(path, []byte("[display]\ndecimals = 1\n"), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := writeConfigTemplate(path); err != nil {
		t.Fatalf("write template again: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "[display]\ndecimals = 1\n" {
		t.Fatalf("expected existing config to be kept, got %q", data)
	}
}

func TestResolveSemesterPrefersNames(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "bunk.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()
	first, err := st.CreateSemester(ctx, model.NewSemester{Name: "Semester 1"})
	if err != nil {
		t.Fatalf("create semester: %v", err)
	}
	named, err := st.CreateSemester(ctx, model.NewSemester{Name: "sem"})
	if err != nil {
		t.Fatalf("create semester: %v", err)
	}

	got, err := resolveSemester(ctx, st, "SEM")
	if err != nil || got.ID != named.ID {
		t.Fatalf("expected name match %s, got %+v (%v)", named.ID, got, err)
	}
	got, err = resolveSemester(ctx, st, first.ID[:len(first.ID)-1])
	if err != nil || got.ID != first.ID {
		t.Fatalf("expected prefix match %s, got %+v (%v)", first.ID, got, err)
	}
	if _, err := resolveSemester(ctx, st, "sem-"); err == nil {
		t.Fatalf("expected ambiguous prefix error")
	}
	if _, err := resolveSemester(ctx, st, "Winter"); !errors.Is(err, store.ErrSemesterNotFound) {
		t.Fatalf("expected ErrSemesterNotFound, got %v", err)
	}
}
