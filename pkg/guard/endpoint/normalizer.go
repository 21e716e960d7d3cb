package endpoint

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// maxSegments bounds the number of path segments in a normalized label.
	maxSegments = 8

	// maxLabelLength bounds the length of any label emitted to metrics.
	maxLabelLength = 120

	// cacheSize bounds the normalization memo cache.
	cacheSize = 4096
)

// Normalizer converts raw request paths into bounded, low-cardinality
// endpoint labels.
type Normalizer struct {
	cache *lru.Cache[string, string]
}

// NewNormalizer builds a Normalizer with its memo cache.
func NewNormalizer() (*Normalizer, error) {
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Normalizer{cache: cache}, nil
}

// Normalize returns the endpoint label for a request.
//
// When the router matched a route template, the template is used verbatim.
// Otherwise the raw path is sanitized segment by segment. Unmatched paths
// (routeTemplate empty and matched false) collapse to an "unmatched:" label
// built from the first two sanitized segments.
func (n *Normalizer) Normalize(routeTemplate, path string, matched bool) string {
	if routeTemplate != "" {
		return ValidateLabel(routeTemplate)
	}

	key := path
	if !matched {
		key = "!" + path
	}
	if label, ok := n.cache.Get(key); ok {
		return label
	}

	var label string
	if matched {
		label = sanitizePath(path, maxSegments)
	} else {
		// The "/*" suffix already marks the tail; drop the truncation
		// ellipsis so long paths collapse to "unmatched:/a/b/*".
		prefix := strings.TrimSuffix(sanitizePath(path, 2), "/...")
		label = "unmatched:" + prefix + "/*"
	}
	label = ValidateLabel(label)
	n.cache.Add(key, label)
	return label
}

// sanitizePath rewrites high-cardinality segments and truncates to maxSegs.
func sanitizePath(path string, maxSegs int) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	segments := strings.Split(trimmed, "/")

	truncated := false
	if len(segments) > maxSegs {
		segments = segments[:maxSegs]
		truncated = true
	}
	for i, seg := range segments {
		segments[i] = sanitizeSegment(seg)
	}

	out := "/" + strings.Join(segments, "/")
	if truncated {
		out += "/..."
	}
	return out
}

func sanitizeSegment(seg string) string {
	switch {
	case isDigits(seg):
		return ":id"
	case isUUID(seg):
		return ":uuid"
	case len(seg) >= 16 && isHex(seg):
		return ":token"
	}
	return seg
}

func isDigits(s string) bool {
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

// isUUID checks the 8-4-4-4-12 hex shape without allocating.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, r := range s {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			if !isHexRune(r) {
				return false
			}
		}
	}
	return true
}

func isHex(s string) bool {
	for _, r := range s {
		if !isHexRune(r) {
			return false
		}
	}
	return true
}

func isHexRune(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// ValidateLabel bounds a label's length and charset. Characters outside
// [a-zA-Z0-9_\-:/.*] are stripped; an empty result becomes "unknown".
func ValidateLabel(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		if isLabelRune(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > maxLabelLength {
		out = out[:maxLabelLength]
	}
	if out == "" {
		return "unknown"
	}
	return out
}

func isLabelRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '-', r == ':', r == '/', r == '.', r == '*':
		return true
	}
	return false
}
