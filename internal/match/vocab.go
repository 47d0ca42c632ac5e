// Package match ranks potential mentors for a learner by cosine similarity
// between skill vectors. It is pure and deterministic:
//
//   - No I/O and no logging (callers load the corpus and decide what to log)
//   - Vocabulary indices follow lexicographic order of normalized names
//   - Equal scores keep corpus order, so identical input gives identical output
//
// A learner's WANT vector is unweighted; a mentor's HAVE vector is weighted by
// proficiency (beginner=1, intermediate=2, advanced=3).
package match

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Proficiency levels accepted on HAVE assertions.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// HaveSkill is a skill a user can teach, with its proficiency level.
type HaveSkill struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// Profile is one user's skill assertions as seen by the ranker.
type Profile struct {
	ID         uint64
	Name       string
	SkillsHave []HaveSkill
	SkillsWant []string
}

// Vector is a dense skill vector indexed by a Vocabulary.
type Vector []float64

// IsZero reports whether every component is zero.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Dot returns the dot product of v and w. Vectors of different length are
// compared over their common prefix.
func (v Vector) Dot(w Vector) float64 {
	n := len(v)
	if len(w) < n {
		n = len(w)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += v[i] * w[i]
	}
	return s
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Vocabulary maps normalized skill names to vector indices.
type Vocabulary struct {
	index map[string]int
	names []string
}

// NormalizeName trims surrounding whitespace and lower-cases a skill name.
// A Caser is stateful, so one is built per call.
func NormalizeName(name string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}

// LevelWeight maps a proficiency level to its HAVE weight. Unknown levels
// weigh the same as beginner.
func LevelWeight(level string) float64 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelIntermediate:
		return 2
	case LevelAdvanced:
		return 3
	default:
		return 1
	}
}

// ValidLevel reports whether level is one of the accepted proficiency levels.
func ValidLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// BuildVocabulary collects every HAVE and WANT skill name in the corpus,
// normalizes it, and assigns indices in lexicographic order. Empty names are
// ignored.
func BuildVocabulary(corpus []Profile) *Vocabulary {
	seen := make(map[string]struct{})
	for _, p := range corpus {
		for _, h := range p.SkillsHave {
			if n := NormalizeName(h.Name); n != "" {
				seen[n] = struct{}{}
			}
		}
		for _, w := range p.SkillsWant {
			if n := NormalizeName(w); n != "" {
				seen[n] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return &Vocabulary{index: idx, names: names}
}

// Len returns the number of distinct skills.
func (v *Vocabulary) Len() int { return len(v.names) }

// Index returns the position of name, normalizing it first.
func (v *Vocabulary) Index(name string) (int, bool) {
	i, ok := v.index[NormalizeName(name)]
	return i, ok
}

// Names returns the normalized names in index order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// EncodeHave returns the proficiency-weighted HAVE vector for skills. Names
// absent from the vocabulary are ignored; a repeated name keeps its last level.
func (v *Vocabulary) EncodeHave(skills []HaveSkill) Vector {
	out := make(Vector, v.Len())
	for _, s := range skills {
		if i, ok := v.Index(s.Name); ok {
			out[i] = LevelWeight(s.Level)
		}
	}
	return out
}

// EncodeWant returns the unweighted WANT vector for names.
func (v *Vocabulary) EncodeWant(names []string) Vector {
	out := make(Vector, v.Len())
	for _, n := range names {
		if i, ok := v.Index(n); ok {
			out[i] = 1
		}
	}
	return out
}
