package application

import (
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// foldCaser is a package-level Unicode case folder for performance.
// This avoids creating a new caser for each comparison.
var foldCaser = cases.Fold()

// CategoryResolver maps a section title to the category bucket key it
// pools under. The source system joins purely on title-string equality;
// that behavior is isolated behind this interface so a stable
// category-id join can replace it without touching the aggregation math.
type CategoryResolver interface {
	// Resolve returns the bucket key for a section title.
	Resolve(sectionTitle string) string
}

// TitleResolver is the default resolver: the section title itself is the
// bucket key, so two sections pool together exactly when their titles
// are byte-for-byte equal.
type TitleResolver struct{}

// Resolve returns the title unchanged.
func (TitleResolver) Resolve(sectionTitle string) string { return sectionTitle }

// FuzzyTitleResolver maps section titles onto a canonical category list
// using case-folded Levenshtein similarity. It exists for deployments
// whose templates drifted ("Radio Proceedures" vs "Radio Procedures");
// it is opt-in and never the default because it changes which sections
// pool together.
type FuzzyTitleResolver struct {
	canonical []string
	folded    []string
	threshold float64
}

// NewFuzzyTitleResolver creates a resolver over a canonical category
// list. Titles whose best similarity falls below threshold resolve to
// themselves, so unknown sections still get their own bucket.
func NewFuzzyTitleResolver(canonical []string, threshold float64) (*FuzzyTitleResolver, error) {
	if len(canonical) == 0 {
		return nil, fmt.Errorf("canonical category list cannot be empty")
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be in [0,1], got %v", threshold)
	}

	folded := make([]string, len(canonical))
	for i, title := range canonical {
		folded[i] = foldCaser.String(title)
	}
	return &FuzzyTitleResolver{
		canonical: canonical,
		folded:    folded,
		threshold: threshold,
	}, nil
}

// Resolve returns the canonical title with the highest similarity to the
// section title, or the section title itself when nothing clears the
// threshold.
func (r *FuzzyTitleResolver) Resolve(sectionTitle string) string {
	prepared := foldCaser.String(sectionTitle)

	best := -1
	bestSim := 0.0
	for i, candidate := range r.folded {
		sim := similarity(prepared, candidate)
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}

	if best < 0 || bestSim < r.threshold {
		return sectionTitle
	}
	return r.canonical[best]
}

// similarity computes a 0.0-1.0 similarity score between two strings
// from their Levenshtein distance. The distance operates on runes, so
// the maximum distance uses rune count for Unicode correctness.
func similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(s1, s2)

	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}
