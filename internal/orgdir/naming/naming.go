// Package naming derives storage partition identifiers from free-text
// organization names.
//
// A partition id is the namespace tag "org_" followed by the lower-cased,
// accent-folded alphanumeric words of the name joined with "_". Spelled-out
// initialisms ("S R M", "S.R.M.") collapse into one word so they land on the
// same partition as the compact form. Normalize is idempotent: feeding a
// partition id back in returns it unchanged.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// Prefix keeps partition ids clear of the metadata tables and any
	// system-reserved names in the same database.
	Prefix = "org_"

	// MaxLength bounds a partition id in bytes, staging suffix excluded.
	MaxLength = 64

	separator     = "_"
	stagingSuffix = "__staging"
)

// Slugs that would shadow well-known administrative namespaces.
var reserved = map[string]struct{}{
	"admin":  {},
	"config": {},
	"local":  {},
	"system": {},
}

var partitionPattern = regexp.MustCompile(`^org_[a-z0-9]+(_[a-z0-9]+)*$`)

// Normalize maps a human organization name to its partition id.
func Normalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: name is empty", domain.ErrInvalidName)
	}

	folded, err := foldAccents(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidName, err)
	}

	words := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return !isWordRune(r)
	})
	words = mergeInitials(words)
	if len(words) == 0 {
		return "", fmt.Errorf("%w: %q has no letters or digits", domain.ErrInvalidName, raw)
	}

	id := strings.Join(words, separator)
	if !strings.HasPrefix(id, Prefix) {
		id = Prefix + id
	}

	if _, ok := reserved[strings.TrimPrefix(id, Prefix)]; ok {
		return "", fmt.Errorf("%w: %q is reserved", domain.ErrInvalidName, raw)
	}
	if len(id) > MaxLength {
		return "", fmt.Errorf("%w: partition id exceeds %d bytes", domain.ErrInvalidName, MaxLength)
	}

	return id, nil
}

// NameKey is the case-insensitive uniqueness key for an organization name.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Valid reports whether id is a well-formed partition id.
func Valid(id string) bool {
	return len(id) <= MaxLength && partitionPattern.MatchString(id)
}

// StagingID is the name a partition is copied to before it is swapped into
// place. Normalized ids never contain "__", so staging names cannot collide
// with a live partition.
func StagingID(id string) string { return id + stagingSuffix }

// IsStaging reports whether name is a staging partition, and for which id.
func IsStaging(name string) (string, bool) {
	id, ok := strings.CutSuffix(name, stagingSuffix)
	if !ok || !Valid(id) {
		return "", false
	}
	return id, true
}

func foldAccents(s string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	return out, err
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// mergeInitials joins runs of two or more single-character words.
func mergeInitials(words []string) []string {
	out := make([]string, 0, len(words))
	var run strings.Builder
	runLen := 0

	flush := func() {
		if runLen > 0 {
			out = append(out, run.String())
		}
		run.Reset()
		runLen = 0
	}

	for _, w := range words {
		if len(w) == 1 {
			run.WriteString(w)
			runLen++
			continue
		}
		flush()
		out = append(out, w)
	}
	flush()

	return out
}
