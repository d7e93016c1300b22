package convert

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/qgr-lab/qgr/internal/document"
)

// writeTEI writes a minimal valid TEI file with the given title.
func writeTEI(t *testing.T, path, title string) {
	t.Helper()
	content := fmt.Sprintf(`<TEI><teiHeader><fileDesc><titleStmt><title>%s</title></titleStmt></fileDesc></teiHeader></TEI>`, title)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunConvertsTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeTEI(t, filepath.Join(src, "a.tei.xml"), "First Paper")
	writeTEI(t, filepath.Join(src, "ml", "b.tei.xml"), "Second Paper")
	// A non-matching file is ignored.
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	conv := &Converter{SrcRoot: src, DstRoot: dst}
	stats, err := conv.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Converted != 2 {
		t.Errorf("Converted = %d, want 2", stats.Converted)
	}
	if len(stats.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", stats.Skipped)
	}

	// Output names come from the slugified title; the relative directory
	// structure is mirrored.
	for _, want := range []string{
		filepath.Join(dst, "first_paper.json"),
		filepath.Join(dst, "ml", "second_paper.json"),
	} {
		data, err := os.ReadFile(want)
		if err != nil {
			t.Fatalf("expected output %s: %v", want, err)
		}
		var doc document.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("output %s is not valid JSON: %v", want, err)
		}
		if doc.Title == "" {
			t.Errorf("output %s has empty title", want)
		}
	}
}

func TestRunSkipsBadInputs(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeTEI(t, filepath.Join(src, "good.tei.xml"), "Good Paper")
	// No title: skipped with a diagnostic, batch continues.
	if err := os.WriteFile(filepath.Join(src, "untitled.tei.xml"),
		[]byte(`<TEI><teiHeader><fileDesc><titleStmt/></fileDesc></teiHeader></TEI>`), 0644); err != nil {
		t.Fatal(err)
	}
	// Malformed XML: also skipped.
	if err := os.WriteFile(filepath.Join(src, "broken.tei.xml"), []byte("<TEI><oops>"), 0644); err != nil {
		t.Fatal(err)
	}

	conv := &Converter{SrcRoot: src, DstRoot: dst}
	stats, err := conv.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Converted != 1 {
		t.Errorf("Converted = %d, want 1", stats.Converted)
	}
	if len(stats.Skipped) != 2 {
		t.Errorf("Skipped = %v, want 2 entries", stats.Skipped)
	}
	for _, s := range stats.Skipped {
		if s.Reason == "" {
			t.Errorf("skip for %s has no reason", s.Path)
		}
	}
}

func TestRunCollisionPolicies(t *testing.T) {
	// Two different files, same title, same directory.
	setup := func(t *testing.T) (string, string) {
		src := t.TempDir()
		dst := t.TempDir()
		writeTEI(t, filepath.Join(src, "a.tei.xml"), "Same Title")
		writeTEI(t, filepath.Join(src, "b.tei.xml"), "Same Title")
		return src, dst
	}

	t.Run("overwrite", func(t *testing.T) {
		src, dst := setup(t)
		conv := &Converter{SrcRoot: src, DstRoot: dst, OnCollision: Overwrite}
		stats, err := conv.Run()
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if stats.Converted != 2 {
			t.Errorf("Converted = %d, want 2 (later file wins)", stats.Converted)
		}
		if len(stats.Skipped) != 0 {
			t.Errorf("Skipped = %v, want none", stats.Skipped)
		}
	})

	t.Run("error", func(t *testing.T) {
		src, dst := setup(t)
		conv := &Converter{SrcRoot: src, DstRoot: dst, OnCollision: Fail}
		stats, err := conv.Run()
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if stats.Converted != 1 {
			t.Errorf("Converted = %d, want 1", stats.Converted)
		}
		if len(stats.Skipped) != 1 {
			t.Fatalf("Skipped = %v, want 1 entry", stats.Skipped)
		}
	})
}

func TestRunCustomPattern(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeTEI(t, filepath.Join(src, "a.xml"), "Custom Pattern Paper")
	writeTEI(t, filepath.Join(src, "b.tei.xml"), "Default Pattern Paper")

	conv := &Converter{SrcRoot: src, DstRoot: dst, Pattern: ".xml"}
	stats, err := conv.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// ".xml" matches both files.
	if stats.Converted != 2 {
		t.Errorf("Converted = %d, want 2", stats.Converted)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    CollisionPolicy
		wantErr bool
	}{
		{input: "", want: Overwrite},
		{input: "overwrite", want: Overwrite},
		{input: "error", want: Fail},
		{input: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePolicy(%q) succeeded, want error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePolicy(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
