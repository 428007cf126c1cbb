package sentiment

import "maps"

// Lexicon is the immutable word table used by the lexicon sub-scorer.
type Lexicon struct {
	positive     map[string]struct{}
	negative     map[string]struct{}
	neutral      map[string]struct{}
	intensifiers map[string]float64
	negators     map[string]struct{}
}

// NewLexicon builds a Lexicon from word lists. The inputs are copied.
func NewLexicon(positive, negative, neutral []string, intensifiers map[string]float64, negators []string) Lexicon {
	return Lexicon{
		positive:     toSet(positive),
		negative:     toSet(negative),
		neutral:      toSet(neutral),
		intensifiers: maps.Clone(intensifiers),
		negators:     toSet(negators),
	}
}

// DefaultLexicon returns the built-in feedback lexicon.
func DefaultLexicon() Lexicon {
	return NewLexicon(
		[]string{
			"excellent", "outstanding", "exceptional", "superior", "effective",
			"efficient", "successful", "improved", "enhanced", "optimized",
			"beneficial", "valuable", "useful", "helpful", "positive",
			"good", "great", "amazing", "wonderful", "fantastic",
			"recommend", "commend", "praise", "appreciate", "satisfied",
			"pleased", "impressed", "delighted", "thrilled", "excited",
			"innovative", "creative", "brilliant", "smart", "clever",
			"professional", "competent", "skilled", "experienced", "qualified",
		},
		[]string{
			"poor", "bad", "terrible", "awful", "horrible",
			"disappointing", "ineffective", "inefficient", "problematic", "concerning",
			"worrying", "inadequate", "insufficient", "lacking", "missing",
			"absent", "failed", "failure", "error", "mistake",
			"issue", "problem", "difficulty", "challenge", "obstacle",
			"barrier", "limitation", "frustrated", "annoyed", "disappointed",
			"concerned", "worried", "critical", "negative", "unsatisfactory",
			"unacceptable", "substandard", "deficient", "flawed", "broken",
			"damaged", "corrupted",
			"bug", "bugs", "crash", "crashes", "crashed",
		},
		[]string{
			"standard", "normal", "average", "typical", "regular",
			"routine", "acceptable", "adequate", "sufficient", "reasonable",
			"fair", "moderate", "balanced", "neutral", "objective",
			"factual", "informational", "descriptive", "explanatory", "procedural",
		},
		map[string]float64{
			"very":       1.5,
			"extremely":  2.0,
			"highly":     1.8,
			"incredibly": 2.0,
			"absolutely": 2.0,
			"completely": 1.8,
			"totally":    1.8,
			"quite":      1.3,
			"rather":     1.2,
			"somewhat":   0.8,
			"slightly":   0.6,
			"barely":     0.4,
		},
		[]string{"not", "no", "never", "none", "nothing", "neither", "nor"},
	)
}

// Counts reports the size of each word table.
func (l Lexicon) Counts() map[string]int {
	return map[string]int{
		"positive_words": len(l.positive),
		"negative_words": len(l.negative),
		"neutral_words":  len(l.neutral),
		"intensifiers":   len(l.intensifiers),
		"negators":       len(l.negators),
	}
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
