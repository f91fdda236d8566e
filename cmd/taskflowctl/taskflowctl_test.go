package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskflow/models"
	"taskflow/store"
	"taskflow/store/sqlite"
	"taskflow/utils"
)

func createTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "ctl.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSeedDemo(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	if err := seedDemo(ctx, s, &out); err != nil {
		t.Fatalf("seedDemo() error = %v", err)
	}

	user, err := s.GetUserByLogin(ctx, demoUsername)
	if err != nil {
		t.Fatalf("demo user missing: %v", err)
	}
	if !utils.CheckPasswordHash(demoPassword, user.PasswordHash) {
		t.Errorf("demo password does not match")
	}

	list, err := s.ListTasks(ctx, user.ID, models.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(list) != len(sampleTasks) {
		t.Fatalf("seeded %d tasks, want %d", len(list), len(sampleTasks))
	}
	for i, task := range list {
		want := sampleTasks[i]
		if task.Title != want.title || task.Status != want.status || task.Position != i {
			t.Errorf("task %d = %+v, want %+v", i, task, want)
		}
	}

	out.Reset()
	if err := seedDemo(ctx, s, &out); err != nil {
		t.Fatalf("second seedDemo() error = %v", err)
	}
	if !strings.Contains(out.String(), "skipping") {
		t.Errorf("second run output = %q", out.String())
	}
	list, _ = s.ListTasks(ctx, user.ID, models.TaskFilter{})
	if len(list) != len(sampleTasks) {
		t.Errorf("second run changed task count to %d", len(list))
	}
}

func TestWriteBackup(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := seedDemo(ctx, s, &bytes.Buffer{}); err != nil {
		t.Fatalf("seedDemo() error = %v", err)
	}

	dir := filepath.Join(t.TempDir(), "backups")
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	path, err := writeBackup(ctx, s, dir, now)
	if err != nil {
		t.Fatalf("writeBackup() error = %v", err)
	}
	if filepath.Base(path) != "taskflow-backup-2024-03-10T12-00-00.000Z.json" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	var b backupFile
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("decoding backup: %v", err)
	}
	if len(b.Tables) != len(store.Tables) {
		t.Errorf("tables = %d, want %d", len(b.Tables), len(store.Tables))
	}
	if len(b.Tables["users"]) != 1 || len(b.Tables["tasks"]) != len(sampleTasks) {
		t.Errorf("users = %d, tasks = %d", len(b.Tables["users"]), len(b.Tables["tasks"]))
	}
	if b.Tables["users"][0]["username"] != demoUsername {
		t.Errorf("user row = %v", b.Tables["users"][0])
	}

	if _, err := writeBackup(ctx, s, dir, now); err == nil {
		t.Errorf("writeBackup() overwrote an existing backup")
	}
}

func TestPruneBackups(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"taskflow-backup-2024-01-01T00-00-00.000Z.json",
		"taskflow-backup-2024-01-02T00-00-00.000Z.json",
		"taskflow-backup-2024-01-03T00-00-00.000Z.json",
		"taskflow-backup-2024-01-04T00-00-00.000Z.json",
		"unrelated.json",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name        string
		keep        int
		wantRemoved int
	}{
		{name: "Under limit", keep: 10, wantRemoved: 0},
		{name: "Trim to two", keep: 2, wantRemoved: 2},
		{name: "Already trimmed", keep: 2, wantRemoved: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			removed, err := pruneBackups(dir, tt.keep)
			if err != nil {
				t.Fatalf("pruneBackups() error = %v", err)
			}
			if len(removed) != tt.wantRemoved {
				t.Errorf("removed = %v, want %d files", removed, tt.wantRemoved)
			}
		})
	}

	for _, n := range []string{names[2], names[3], names[4]} {
		if _, err := os.Stat(filepath.Join(dir, n)); err != nil {
			t.Errorf("%s was removed: %v", n, err)
		}
	}
	for _, n := range names[:2] {
		if _, err := os.Stat(filepath.Join(dir, n)); !os.IsNotExist(err) {
			t.Errorf("%s was kept", n)
		}
	}
}
