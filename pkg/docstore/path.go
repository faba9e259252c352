package docstore

import "strings"

// Join builds a path from segments, ignoring empty ones.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.Trim(seg, "/")
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}

// Split returns the non-empty path segments.
func Split(path string) []string {
	raw := strings.Split(strings.Trim(path, "/"), "/")
	parts := raw[:0]
	for _, seg := range raw {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}

// IsDocument reports whether the path addresses a document.
func IsDocument(path string) bool {
	parts := Split(path)
	return len(parts) > 0 && len(parts)%2 == 0
}

// IsCollection reports whether the path addresses a collection.
func IsCollection(path string) bool {
	return len(Split(path))%2 == 1
}

// Parent returns the collection path containing the document.
func Parent(path string) string {
	parts := Split(path)
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], "/")
}

// Base returns the last path segment.
func Base(path string) string {
	parts := Split(path)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// Clean normalises slashes.
func Clean(path string) string {
	return strings.Join(Split(path), "/")
}
