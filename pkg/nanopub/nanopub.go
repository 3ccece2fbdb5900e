// Package nanopub holds the publication model: a content-addressed,
// immutable TriG-style text blob whose canonical URI embeds a hash of the
// content (the artifact code).
package nanopub

import (
	"errors"
	"strings"
)

// ErrMalformed is returned when a blob cannot be parsed into a nanopub.
var ErrMalformed = errors.New("nanopub: malformed content")

// Nanopub is one parsed publication. Content is the format-preserving
// serialized form; TripleCount and ByteCount are derived from it.
type Nanopub struct {
	URI         string
	Content     string
	TripleCount int64
	ByteCount   int64
}

// Parse extracts the canonical URI and counts from a serialized nanopub.
// The canonical URI is taken from the `this:` prefix declaration when
// present (the usual nanopub convention), otherwise from the first IRI
// token of the first statement line.
func Parse(data []byte) (*Nanopub, error) {
	content := string(data)
	var uri string
	var triples int64
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		if strings.HasPrefix(t, "@prefix") {
			name, iri := parsePrefixDecl(t)
			if name == "this" && uri == "" {
				uri = iri
			}
			continue
		}
		if !isStatementLine(t) {
			continue
		}
		triples++
		if uri == "" {
			uri = firstIRI(t)
		}
	}
	if uri == "" || triples == 0 {
		return nil, ErrMalformed
	}
	np := &Nanopub{URI: uri, Content: content, TripleCount: triples}
	np.ByteCount = int64(len(np.Content))
	return np, nil
}

// Normalize drops @prefix declarations whose prefix is never used by any
// other line. Cosmetic only; the trusty check runs on the normalized form
// so this never invalidates an artifact code minted on normalized content.
func (np *Nanopub) Normalize() {
	lines := strings.Split(np.Content, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "@prefix") {
			name, _ := parsePrefixDecl(t)
			if name != "" && !prefixUsed(lines, i, name) {
				continue
			}
		}
		out = append(out, line)
	}
	np.Content = strings.Join(out, "\n")
	np.ByteCount = int64(len(np.Content))
}

// prefixUsed reports whether `name:` occurs on any line other than the
// declaration at index declIdx.
func prefixUsed(lines []string, declIdx int, name string) bool {
	needle := name + ":"
	for i, line := range lines {
		if i == declIdx {
			continue
		}
		if strings.Contains(line, needle) {
			return true
		}
	}
	return false
}

// parsePrefixDecl splits "@prefix name: <iri> ." into its parts. Returns
// empty strings if the line is not a well-formed declaration.
func parsePrefixDecl(line string) (name, iri string) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "@prefix"))
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", ""
	}
	name = strings.TrimSpace(rest[:colon])
	iri = firstIRI(rest[colon+1:])
	return name, iri
}

// isStatementLine filters out structural TriG lines (graph headers and
// braces) so only quad/triple statements are counted.
func isStatementLine(t string) bool {
	if t == "{" || t == "}" {
		return false
	}
	if strings.HasSuffix(t, "{") {
		return false
	}
	return true
}

// firstIRI returns the first <...> token of s, or "".
func firstIRI(s string) string {
	start := strings.Index(s, "<")
	if start < 0 {
		return ""
	}
	end := strings.Index(s[start:], ">")
	if end < 0 {
		return ""
	}
	return s[start+1 : start+end]
}
