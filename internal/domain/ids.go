package domain

import (
	"crypto/rand"
	"sync"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a ULID for t. Ids from one process sort in creation order, which
// makes the id a stable sort tie-break.
func NewID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// stripMarks builds a fresh chain per call; a transform.Chain holds buffers
// and must not be shared between goroutines.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Slugify lowercases s, folds accents and joins runs of letters and digits with
// single dashes: "Café & Crème!" becomes "cafe-creme".
func Slugify(s string) string {
	folded, _, err := transform.String(stripMarks(), s)
	if err != nil {
		folded = s
	}

	out := make([]rune, 0, len(folded))
	dash := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && len(out) > 0 {
				out = append(out, '-')
			}
			out = append(out, unicode.ToLower(r))
			dash = false
		default:
			dash = true
		}
	}
	return string(out)
}
