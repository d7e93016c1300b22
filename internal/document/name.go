package document

import "strings"

const (
	// MaxBaseNameLen bounds the slug portion of a generated file name.
	MaxBaseNameLen = 250

	// FileSuffix is appended to every generated file name.
	FileSuffix = ".json"
)

// FileName derives a filesystem-safe name from a document title: lowercase,
// spaces replaced by underscores, everything but alphanumerics dropped,
// separator runs collapsed, truncated to MaxBaseNameLen, FileSuffix appended.
// Total for any input; a title with no usable characters yields just the
// suffix.
func FileName(title string) string {
	return slug(title) + FileSuffix
}

// slug builds the base name portion of FileName.
func slug(title string) string {
	lower := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lower))
	lastSep := true // suppress leading separators
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		case r == ' ' || r == '_':
			if !lastSep {
				b.WriteByte('_')
				lastSep = true
			}
		}
	}

	s := strings.TrimRight(b.String(), "_")
	if len(s) > MaxBaseNameLen {
		s = strings.TrimRight(s[:MaxBaseNameLen], "_")
	}
	return s
}
