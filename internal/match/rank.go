package match

import "sort"

// DefaultTopK is used when Rank is called with a non-positive topK.
const DefaultTopK = 5

// Match is a ranked candidate mentor.
type Match struct {
	Profile Profile
	Score   float64
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minScore float64
}

func defaultConfig() config {
	return config{minScore: 0}
}

// WithMinScore drops candidates scoring below s. Values outside [0,1] are
// ignored.
func WithMinScore(s float64) Option {
	return func(c *config) {
		if s >= 0 && s <= 1 {
			c.minScore = s
		}
	}
}

// ----------------------------------------------------------------------------
// Ranking

// Cosine returns the cosine similarity of a and b clamped to [0,1]. It is 0
// when either vector has zero norm.
func Cosine(a, b Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	s := a.Dot(b) / (na * nb)
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// Rank scores every candidate in corpus against the learner's WANT vector and
// returns up to topK matches, best first. The learner is excluded, as are
// candidates with nothing to teach. An unknown learner or one with no wanted
// skills yields an empty result.
func Rank(learnerID uint64, corpus []Profile, topK int, opts ...Option) []Match {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vocab := BuildVocabulary(corpus)

	var learner *Profile
	for i := range corpus {
		if corpus[i].ID == learnerID {
			learner = &corpus[i]
			break
		}
	}
	if learner == nil {
		return []Match{}
	}
	want := vocab.EncodeWant(learner.SkillsWant)
	if want.IsZero() {
		return []Match{}
	}

	out := make([]Match, 0, len(corpus))
	for _, p := range corpus {
		if p.ID == learnerID {
			continue
		}
		have := vocab.EncodeHave(p.SkillsHave)
		if have.IsZero() {
			continue
		}
		score := Cosine(want, have)
		if score < cfg.minScore {
			continue
		}
		out = append(out, Match{Profile: p, Score: score})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}
