// Package convert batch-converts a tree of TEI-XML files into document JSON
// records, mirroring the source directory structure.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/qgr-lab/qgr/internal/document"
	"github.com/qgr-lab/qgr/internal/tei"
)

// DefaultPattern is the file-name suffix that identifies TEI input files.
const DefaultPattern = ".tei.xml"

// CollisionPolicy controls what happens when two inputs produce the same
// output name.
type CollisionPolicy string

const (
	// Overwrite silently replaces the earlier output.
	Overwrite CollisionPolicy = "overwrite"
	// Fail treats a name collision as an error for the offending file.
	Fail CollisionPolicy = "error"
)

// ParsePolicy validates a collision policy string.
func ParsePolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case Overwrite, Fail:
		return CollisionPolicy(s), nil
	case "":
		return Overwrite, nil
	default:
		return "", fmt.Errorf("invalid collision policy %q (valid: overwrite, error)", s)
	}
}

// Converter walks a source tree and writes one JSON record per extracted
// document under the destination tree.
type Converter struct {
	SrcRoot     string
	DstRoot     string
	Pattern     string // file-name suffix; "" = DefaultPattern
	OnCollision CollisionPolicy
}

// Skip records one file that was skipped with a diagnostic.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Stats summarizes a conversion run.
type Stats struct {
	Converted int    `json:"converted"`
	Skipped   []Skip `json:"skipped,omitempty"`
}

// Run converts every matching file under SrcRoot. A file whose extraction
// fails with a missing title is skipped with a diagnostic; the batch never
// aborts for a single bad input.
func (c *Converter) Run() (*Stats, error) {
	pattern := c.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	policy := c.OnCollision
	if policy == "" {
		policy = Overwrite
	}

	stats := &Stats{}
	written := make(map[string]string) // output path -> source path

	err := filepath.WalkDir(c.SrcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), pattern) {
			return nil
		}

		if err := c.convertOne(path, policy, written, stats); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walking source tree: %w", err)
	}

	return stats, nil
}

// convertOne extracts a single file and writes its record, mirroring the
// file's relative directory under the destination root.
func (c *Converter) convertOne(path string, policy CollisionPolicy, written map[string]string, stats *Stats) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	doc, err := tei.Extract(f)
	f.Close()
	if err != nil {
		if errors.Is(err, tei.ErrMissingTitle) {
			stats.Skipped = append(stats.Skipped, Skip{Path: path, Reason: err.Error()})
			return nil
		}
		stats.Skipped = append(stats.Skipped, Skip{Path: path, Reason: fmt.Sprintf("extraction failed: %v", err)})
		return nil
	}

	rel, err := filepath.Rel(c.SrcRoot, filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("resolving relative path for %s: %w", path, err)
	}

	destDir := filepath.Join(c.DstRoot, rel)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating destination directory %s: %w", destDir, err)
	}

	destPath := filepath.Join(destDir, document.FileName(doc.Title))
	if prev, ok := written[destPath]; ok {
		if policy == Fail {
			stats.Skipped = append(stats.Skipped, Skip{
				Path:   path,
				Reason: fmt.Sprintf("output name collides with %s", prev),
			})
			return nil
		}
		// Overwrite: fall through; the later file wins.
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document for %s: %w", path, err)
	}
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}

	written[destPath] = path
	stats.Converted++
	return nil
}
