package nanopub

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Artifact codes are "RA" followed by the base64url (no padding) SHA-256
// of the content with every occurrence of the code itself blanked out.
// 32 hash bytes encode to exactly 43 characters, so codes are 45 long.

const (
	codePrefix = "RA"
	codeLen    = 45
)

// ArtifactCode returns the artifact code segment of a nanopub URI, or ""
// if the trailing segment is not shaped like one.
func ArtifactCode(uri string) string {
	seg := uri
	if i := strings.LastIndexAny(uri, "/#"); i >= 0 {
		seg = uri[i+1:]
	}
	if !looksLikeCode(seg) {
		return ""
	}
	return seg
}

func looksLikeCode(s string) bool {
	if len(s) != codeLen || !strings.HasPrefix(s, codePrefix) {
		return false
	}
	for _, c := range s[len(codePrefix):] {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// codeForBlanked hashes content that already has the artifact code
// blanked out.
func codeForBlanked(blanked string) string {
	h := sha256.Sum256([]byte(blanked))
	return codePrefix + base64.RawURLEncoding.EncodeToString(h[:])
}

// IsValidTrusty reports whether the nanopub's URI ends in an artifact
// code that matches the hash of its own content. Verification runs on the
// normalized form, matching the order of the load path.
func IsValidTrusty(np *Nanopub) bool {
	code := ArtifactCode(np.URI)
	if code == "" {
		return false
	}
	blanked := strings.ReplaceAll(np.Content, code, "")
	return code == codeForBlanked(blanked)
}

// MintContent fills a content template with its own artifact code: the
// code is computed over the template with every occurrence of marker
// removed, then substituted for each marker. Intended for tools and tests
// that need valid trusty nanopubs.
func MintContent(template, marker string) string {
	code := codeForBlanked(strings.ReplaceAll(template, marker, ""))
	return strings.ReplaceAll(template, marker, code)
}
