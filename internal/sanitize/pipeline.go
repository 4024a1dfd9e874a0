// Package sanitize turns rich-text editor HTML into a safe, structurally valid
// fragment. Sanitizing is idempotent: feeding the output back in returns it
// unchanged.
package sanitize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ErrPolicyFailed means the allow-list stage could not produce output. No
// partial result is returned with it.
var ErrPolicyFailed = errors.New("sanitize: allow-list policy failed")

// Pipeline holds the compiled allow-list. It is immutable and safe for
// concurrent use.
type Pipeline struct {
	policy *bluemonday.Policy
}

// New builds a pipeline.
func New() *Pipeline {
	return &Pipeline{policy: newPolicy()}
}

var defaultPipeline = New()

// lineEnds normalizes line breaks the way the HTML tokenizer does, so a
// second pass sees the same text as the first. NUL is dropped for the same
// reason.
var lineEnds = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\x00", "")

// Sanitize runs the package default pipeline.
func Sanitize(raw string) (string, error) {
	return defaultPipeline.Sanitize(raw)
}

// Sanitize cleans raw. Paragraphs never wrap blocks or sit inside tables,
// empty paragraphs are gone, whitespace between elements is collapsed and
// character references are decoded wherever that cannot create markup.
// Only the allow-list stage can fail; later stages fall back to the last good
// string.
func (p *Pipeline) Sanitize(raw string) (string, error) {
	s := lineEnds.Replace(raw)
	s = unwrapAll(s)
	s = decodeEntities(s)

	var b strings.Builder
	if err := p.policy.SanitizeReaderToWriter(strings.NewReader(s), &b); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPolicyFailed, err)
	}
	s = b.String()

	s = unwrapAll(s)
	s = stripTableParagraphs(s)

	if normalized, err := normalizeDOM(s); err == nil {
		s = normalized
	}

	s = decodeEntities(s)
	return strings.TrimSpace(s), nil
}
