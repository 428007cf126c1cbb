package sentiment

import (
	"log"
	"math"
	"regexp"
	"strings"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

const (
	lexiconWeight = 0.4
	patternWeight = 0.3
	contextWeight = 0.3

	patternValue  = 0.8
	polarityBand  = 0.1
	mixedStrength = 0.5
	maxKeyPhrases = 20
)

var tokenRe = regexp.MustCompile(`\b\w+\b`)

var (
	positivePatterns = compileAll(
		`(?i)\b(?:recommend|suggest|advise)\b.*\b(?:highly|strongly)\b`,
		`(?i)\b(?:excellent|outstanding|exceptional)\b.*\b(?:work|job|performance)\b`,
		`(?i)\b(?:very|extremely)\b.*\b(?:pleased|satisfied|impressed)\b`,
		`(?i)\b(?:significant|substantial)\b.*\b(?:improvement|progress|enhancement)\b`,
		`(?i)\b(?:well|effectively|efficiently)\b.*\b(?:implemented|executed|managed)\b`,
	)
	negativePatterns = compileAll(
		`(?i)\b(?:major|serious|significant)\b.*\b(?:issue|problem|concern)\b`,
		`(?i)\b(?:failed|failure)\b.*\b(?:to|in)\b`,
		`(?i)\b(?:lack|lacking|absence)\b.*\b(?:of|in)\b`,
		`(?i)\b(?:disappointed|frustrated|concerned)\b.*\b(?:with|about)\b`,
		`(?i)\b(?:needs|requires)\b.*\b(?:immediate|urgent)\b.*\b(?:attention|action)\b`,
	)
	neutralPatterns = compileAll(
		`(?i)\b(?:according|based)\b.*\b(?:to|on)\b`,
		`(?i)\b(?:data|statistics|metrics)\b.*\b(?:show|indicate|suggest)\b`,
		`(?i)\b(?:process|procedure|method)\b.*\b(?:involves|includes|requires)\b`,
	)
)

var (
	sentenceRe    = regexp.MustCompile(`[.!?]+`)
	conditionalRe = regexp.MustCompile(`\b(?:if|unless|provided|assuming)\b`)
	comparativeRe = regexp.MustCompile(`\b(?:better|worse|more|less|compared|versus)\b`)
	comparePosRe  = regexp.MustCompile(`\b(?:better|more|improved|enhanced)\b`)
	compareNegRe  = regexp.MustCompile(`\b(?:worse|less|declined|degraded)\b`)
	pastRe        = regexp.MustCompile(`\b(?:previously|before|used to)\b`)
	presentRe     = regexp.MustCompile(`\b(?:now|currently|recently)\b`)
	certainRe     = regexp.MustCompile(`\b(?:clearly|obviously|definitely|certainly)\b`)
	uncertainRe   = regexp.MustCompile(`\b(?:maybe|perhaps|possibly|might)\b`)
	keyPhraseRes  = compileAll(
		`(?i)\b(?:very|extremely|highly|quite)\s+\w+`,
		`(?i)\b\w+\s+(?:recommend|suggest|advise)`,
		`(?i)\b(?:significant|major|minor)\s+\w+`,
		`(?i)\b\w+\s+(?:improvement|enhancement|issue|problem)`,
		`(?i)\b(?:well|poorly|effectively|ineffectively)\s+\w+`,
	)
	emotionRes = compileAll(
		`(?i)\b(?:excited|thrilled|delighted|pleased|satisfied)\b`,
		`(?i)\b(?:frustrated|disappointed|concerned|worried|annoyed)\b`,
		`(?i)\b(?:impressed|amazed|surprised|shocked)\b`,
		`(?i)\b(?:confident|uncertain|doubtful|skeptical)\b`,
		`(?i)\b(?:optimistic|pessimistic|hopeful|hopeless)\b`,
	)
)

// Analyzer scores documents with three independent sub-scorers.
type Analyzer struct {
	lex Lexicon
}

// NewAnalyzer creates an Analyzer backed by lex.
func NewAnalyzer(lex Lexicon) *Analyzer {
	return &Analyzer{lex: lex}
}

// Analyze scores every document. A document is only dropped if it has no text.
func (a *Analyzer) Analyze(docs []feedback.CleanedDocument) feedback.Batch[feedback.SentimentResult] {
	var b feedback.Batch[feedback.SentimentResult]
	log.Printf("Analyzing sentiment for %d documents", len(docs))

	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			log.Printf("Error analyzing sentiment for document %s: empty content", doc.ID)
			b.Reject(doc.ID, feedback.ErrEmptyContent)
			continue
		}
		r := a.Score(doc.Content)
		r.DocumentID = doc.ID
		b.Accept(r)
	}

	log.Printf("Analyzed sentiment for %d documents", len(b.Accepted))
	return b
}

// Score computes the sentiment of a single text.
func (a *Analyzer) Score(text string) feedback.SentimentResult {
	lower := strings.ToLower(text)

	lexScore, lexConf := a.lexiconScore(lower)
	patScore, patConf := patternScore(lower)
	ctxScore, ctxConf := contextScore(lower)

	score := lexiconWeight*lexScore + patternWeight*patScore + contextWeight*ctxScore
	conf := lexiconWeight*lexConf + patternWeight*patConf + contextWeight*ctxConf

	bd := feedback.Breakdown{
		LexiconScore:      round3(lexScore),
		PatternScore:      round3(patScore),
		ContextScore:      round3(ctxScore),
		LexiconConfidence: round3(lexConf),
		PatternConfidence: round3(patConf),
		ContextConfidence: round3(ctxConf),
	}

	return feedback.SentimentResult{
		Sentiment:           classify(score, bd),
		Score:               round3(clamp(score, -1, 1)),
		Confidence:          round3(clamp(conf, 0, 1)),
		Breakdown:           bd,
		KeyPhrases:          keyPhrases(text),
		EmotionalIndicators: emotionalIndicators(text),
	}
}

func (a *Analyzer) lexiconScore(lower string) (float64, float64) {
	words := tokenRe.FindAllString(lower, -1)
	if len(words) == 0 {
		return 0, 0
	}

	var pos, neg float64
	total := 0
	for i, w := range words {
		negated := false
		intensity := 1.0
		if i > 0 {
			prev := words[i-1]
			if _, ok := a.lex.negators[prev]; ok {
				negated = true
			}
			if m, ok := a.lex.intensifiers[prev]; ok {
				intensity = m
			}
		}

		var polarity float64
		switch {
		case has(a.lex.positive, w):
			polarity = 1
		case has(a.lex.negative, w):
			polarity = -1
		case has(a.lex.neutral, w):
			total++
			continue
		default:
			continue
		}
		total++

		s := polarity * intensity
		if negated {
			s = -s
		}
		if s > 0 {
			pos += s
		} else {
			neg -= s
		}
	}

	if total == 0 {
		return 0, 0
	}
	score := clamp((pos-neg)/float64(total), -1, 1)
	conf := math.Min(float64(total)/float64(len(words)), 1)
	return score, conf
}

func patternScore(lower string) (float64, float64) {
	var score float64
	matches := 0
	for _, re := range positivePatterns {
		n := len(re.FindAllStringIndex(lower, -1))
		score += float64(n) * patternValue
		matches += n
	}
	for _, re := range negativePatterns {
		n := len(re.FindAllStringIndex(lower, -1))
		score -= float64(n) * patternValue
		matches += n
	}
	for _, re := range neutralPatterns {
		matches += len(re.FindAllStringIndex(lower, -1))
	}

	if matches == 0 {
		return 0, 0
	}
	return clamp(score/float64(matches), -1, 1), math.Min(float64(matches)/10, 1)
}

// contextScore averages per-sentence heuristics. Text where no sentence
// carries any marker scores 0 with confidence 0.
func contextScore(lower string) (float64, float64) {
	var scores []float64
	signal := false

	for _, sentence := range sentenceRe.Split(lower, -1) {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 5 {
			continue
		}

		s := 0.0
		marked := false
		if strings.HasSuffix(sentence, "?") {
			s -= 0.1
			marked = true
		}
		if conditionalRe.MatchString(sentence) {
			s -= 0.2
			marked = true
		}
		if comparativeRe.MatchString(sentence) {
			marked = true
			if comparePosRe.MatchString(sentence) {
				s += 0.3
			} else if compareNegRe.MatchString(sentence) {
				s -= 0.3
			}
		}
		if pastRe.MatchString(sentence) {
			s -= 0.1
			marked = true
		} else if presentRe.MatchString(sentence) {
			s += 0.1
			marked = true
		}
		if certainRe.MatchString(sentence) {
			s += 0.2
			marked = true
		} else if uncertainRe.MatchString(sentence) {
			s -= 0.1
			marked = true
		}

		signal = signal || marked
		scores = append(scores, s)
	}

	if len(scores) == 0 || !signal {
		return 0, 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return clamp(sum/float64(len(scores)), -1, 1), math.Min(float64(len(scores))/5, 1)
}

// classify maps a combined score to a class. Inside the neutral band a
// strong disagreement between the lexicon and another sub-scorer is mixed.
func classify(score float64, bd feedback.Breakdown) feedback.Sentiment {
	switch {
	case score > polarityBand:
		return feedback.SentimentPositive
	case score < -polarityBand:
		return feedback.SentimentNegative
	}
	if opposed(bd.LexiconScore, bd.PatternScore) || opposed(bd.LexiconScore, bd.ContextScore) {
		return feedback.SentimentMixed
	}
	return feedback.SentimentNeutral
}

func opposed(a, b float64) bool {
	return math.Abs(a) >= mixedStrength && math.Abs(b) >= mixedStrength && (a > 0) != (b > 0)
}

func keyPhrases(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, re := range keyPhraseRes {
		for _, m := range re.FindAllString(text, -1) {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
			if len(out) == maxKeyPhrases {
				return out
			}
		}
	}
	return out
}

func emotionalIndicators(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, re := range emotionRes {
		for _, m := range re.FindAllString(text, -1) {
			m = strings.ToLower(m)
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

func has(set map[string]struct{}, w string) bool {
	_, ok := set[w]
	return ok
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}
