package site

import (
	"fmt"
	"strings"
	"unicode"
)

// Normalize canonicalizes a hierarchical path for storage and comparison.
// Rules: empty or whitespace-only input becomes "/", a leading slash is
// enforced, runs of slashes collapse to one, a trailing slash is enforced,
// and any query string or fragment is stripped. Normalize is idempotent.
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}

	var b strings.Builder
	b.Grow(len(path) + 2)
	b.WriteByte('/')
	prevSlash := true
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' {
			if !prevSlash {
				b.WriteByte('/')
			}
			prevSlash = true
			continue
		}
		b.WriteByte(c)
		prevSlash = false
	}
	out := b.String()
	if !strings.HasSuffix(out, "/") {
		out += "/"
	}
	return out
}

// Depth returns the nesting level of a normalized path: 0 for the root,
// 1 for "/a/", 2 for "/a/b/", and so on.
func Depth(path string) int {
	path = Normalize(path)
	if path == "/" {
		return 0
	}
	return strings.Count(path, "/") - 1
}

// Segments splits a normalized path into its non-empty components.
func Segments(path string) []string {
	path = strings.Trim(Normalize(path), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// LastSegment returns the final component of a normalized path, or "" for
// the root.
func LastSegment(path string) string {
	segs := Segments(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// BestMatch returns the mapping whose path is the longest string prefix of
// requestPath, or nil when no mapping matches. Paths carry their normalized
// trailing slash, so "/ab/" never matches a request for "/abc/". The root
// mapping never matches: "/" is a prefix of everything, and the platform's
// default resolution already serves the primary site.
func BestMatch(mappings []PathMapping, requestPath string) *PathMapping {
	requestPath = Normalize(requestPath)
	var best *PathMapping
	for i := range mappings {
		m := &mappings[i]
		if m.Path == "/" || !strings.HasPrefix(requestPath, m.Path) {
			continue
		}
		if best == nil || len(m.Path) > len(best.Path) {
			best = m
		}
	}
	return best
}

// DisplayName derives a human-readable site name from a nested path,
// e.g. "/parent1/child2/" becomes "Parent 1 / Child 2 (Level 2)".
// The root path maps to "Root".
func DisplayName(path string) string {
	depth := Depth(path)
	if depth == 0 {
		return "Root"
	}

	parts := make([]string, 0, depth)
	for _, seg := range Segments(path) {
		parts = append(parts, titleSegment(seg))
	}
	return fmt.Sprintf("%s (Level %d)", strings.Join(parts, " / "), depth)
}

// titleSegment converts a path segment like "parent1" into "Parent 1".
func titleSegment(seg string) string {
	// Split a trailing number off the word, e.g. child2 -> Child 2.
	i := len(seg)
	for i > 0 && unicode.IsDigit(rune(seg[i-1])) {
		i--
	}
	word := seg[:i]
	num := seg[i:]

	if word == "" {
		return seg
	}
	word = strings.ToUpper(word[:1]) + word[1:]
	if num == "" {
		return word
	}
	return word + " " + num
}
