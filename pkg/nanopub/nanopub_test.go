package nanopub

import (
	"strings"
	"testing"
)

const sampleTemplate = `@prefix this: <http://example.org/np/CODE> .
@prefix sub: <http://example.org/np/CODE#> .
sub:head {
  this: <http://example.org/hasAssertion> sub:assertion .
}
sub:assertion {
  <http://example.org/s> <http://example.org/p> "hello" .
}
`

func TestParse(t *testing.T) {
	content := MintContent(sampleTemplate, "CODE")
	np, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.HasPrefix(np.URI, "http://example.org/np/RA") {
		t.Fatalf("unexpected uri: %s", np.URI)
	}
	if np.TripleCount != 2 {
		t.Fatalf("expected 2 triples, got %d", np.TripleCount)
	}
	if np.ByteCount != int64(len(content)) {
		t.Fatalf("byte count mismatch: %d vs %d", np.ByteCount, len(content))
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []string{
		"",
		"# nothing but a comment\n",
		"@prefix ex: <http://example.org/> .\n",
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c)); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestParseFallbackURI(t *testing.T) {
	content := "<http://example.org/s> <http://example.org/p> <http://example.org/o> .\n"
	np, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if np.URI != "http://example.org/s" {
		t.Fatalf("expected first IRI as uri, got %s", np.URI)
	}
}

func TestNormalizeDropsUnusedPrefixes(t *testing.T) {
	content := `@prefix unused: <http://example.org/unused/> .
@prefix ex: <http://example.org/> .
<http://example.org/s> <http://example.org/p> ex:o .
`
	np, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	np.Normalize()
	if strings.Contains(np.Content, "unused:") {
		t.Fatalf("unused prefix not dropped:\n%s", np.Content)
	}
	if !strings.Contains(np.Content, "@prefix ex:") {
		t.Fatalf("used prefix dropped:\n%s", np.Content)
	}
	if np.ByteCount != int64(len(np.Content)) {
		t.Fatalf("byte count not refreshed")
	}
}

func TestNormalizeIsStableOnMintedContent(t *testing.T) {
	content := MintContent(sampleTemplate, "CODE")
	np, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	np.Normalize()
	if np.Content != content {
		t.Fatalf("normalize changed minted content")
	}
}

func TestTrustyRoundtrip(t *testing.T) {
	content := MintContent(sampleTemplate, "CODE")
	np, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !IsValidTrusty(np) {
		t.Fatalf("minted nanopub should verify")
	}

	// Any content change must break verification.
	np.Content = strings.Replace(np.Content, "hello", "hellO", 1)
	if IsValidTrusty(np) {
		t.Fatalf("tampered nanopub should not verify")
	}
}

func TestArtifactCode(t *testing.T) {
	content := MintContent(sampleTemplate, "CODE")
	np, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	code := ArtifactCode(np.URI)
	if len(code) != 45 || !strings.HasPrefix(code, "RA") {
		t.Fatalf("bad code: %q", code)
	}

	for _, uri := range []string{
		"http://example.org/np/not-a-code",
		"http://example.org/np/RAtooShort",
		"http://example.org/np/",
		"",
	} {
		if got := ArtifactCode(uri); got != "" {
			t.Fatalf("expected empty code for %q, got %q", uri, got)
		}
	}

	// fragment separator works too
	if got := ArtifactCode("http://example.org/np#" + code); got != code {
		t.Fatalf("fragment form: got %q", got)
	}
}

func TestMintContentDistinctPayloads(t *testing.T) {
	a := MintContent(sampleTemplate, "CODE")
	b := MintContent(strings.Replace(sampleTemplate, "hello", "world", 1), "CODE")
	if a == b {
		t.Fatalf("different payloads minted identical content")
	}
	npA, _ := Parse([]byte(a))
	npB, _ := Parse([]byte(b))
	if npA.URI == npB.URI {
		t.Fatalf("different payloads minted identical codes")
	}
}
