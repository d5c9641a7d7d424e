// Package pathutil provides shared helpers for building document paths such as
// "pipeline.stages[3].dependencies[0]".
package pathutil

import (
	"strconv"
	"strings"
)

// Field appends a named field segment to base.
func Field(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

// Index appends an index segment to base.
func Index(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}

// FromSegments converts a JSON-pointer style location (as reported by the
// schema validator) into a document path. Purely numeric segments become
// indices; "/" and an empty location both map to the empty path.
func FromSegments(segments []string) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if isIndex(seg) && sb.Len() > 0 {
			sb.WriteString("[")
			sb.WriteString(seg)
			sb.WriteString("]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(".")
		}
		sb.WriteString(seg)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
