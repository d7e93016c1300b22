// Package checkpoint persists typed JSON work-state files with atomic
// replacement. Checkpoint files are the single source of truth for which
// units of work have completed; they are read once at the start of a run and
// fully rewritten at each flush point.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads a checkpoint file into v, failing fast on shape mismatches.
// A missing file is not an error: v is left untouched and ok is false.
func Load(path string, v any) (ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}
	return true, nil
}

// Save writes v as indented JSON to path, creating parent directories as
// needed. The file is written to a temp file and renamed so a crash mid-write
// never leaves a truncated checkpoint.
func Save(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("writing checkpoint temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replacing checkpoint: %w", err)
	}

	return nil
}

// LoadProcessedFiles reads the flat list of already-ingested file paths.
// A missing checkpoint yields an empty list.
func LoadProcessedFiles(path string) ([]string, error) {
	var files []string
	if _, err := Load(path, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// SaveProcessedFiles persists the processed-file list.
func SaveProcessedFiles(path string, files []string) error {
	if files == nil {
		files = []string{}
	}
	return Save(path, files)
}
