package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"taskflow/store"
)

const backupPrefix = "taskflow-backup-"

type backupFile struct {
	CreatedAt time.Time                   `json:"created_at"`
	Tables    map[string][]map[string]any `json:"tables"`
}

func backupCmd() *cobra.Command {
	var dir string
	var keep int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Dump every table to a timestamped JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if dir == "" {
				dir = cfg.BackupDir
			}
			if keep <= 0 {
				keep = cfg.BackupKeep
			}

			path, err := writeBackup(ctx, s, dir, time.Now())
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s (%.2f MB)\n", path, float64(info.Size())/1024/1024)

			removed, err := pruneBackups(dir, keep)
			if err != nil {
				return err
			}
			for _, name := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "removed old backup %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "backup directory (default BACKUP_DIR)")
	cmd.Flags().IntVar(&keep, "keep", 0, "number of backups to keep (default BACKUP_KEEP)")
	return cmd
}

// writeBackup dumps every known table into dir and returns the file path.
func writeBackup(ctx context.Context, d store.Dumper, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	b := backupFile{CreatedAt: now.UTC(), Tables: make(map[string][]map[string]any, len(store.Tables))}
	for _, table := range store.Tables {
		rows, err := d.DumpTable(ctx, table)
		if err != nil {
			return "", fmt.Errorf("dumping %s: %w", table, err)
		}
		b.Tables[table] = rows
	}

	path := filepath.Join(dir, backupPrefix+now.UTC().Format("2006-01-02T15-04-05.000Z")+".json")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// pruneBackups deletes all but the newest keep backups in dir and returns the
// removed file names. Names sort chronologically.
func pruneBackups(dir string, keep int) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, backupPrefix+"*.json"))
	if err != nil {
		return nil, err
	}
	if len(matches) <= keep {
		return nil, nil
	}

	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	var removed []string
	for _, path := range matches[keep:] {
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed = append(removed, filepath.Base(path))
	}
	return removed, nil
}
