package categorize

import (
	"regexp"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

// Rule is one weighted pattern contributing to a category's score.
type Rule struct {
	Pattern *regexp.Regexp
	Weight  float64
}

// Taxonomy maps each category to its weighted rules, in a fixed order.
type Taxonomy struct {
	order []feedback.Category
	rules map[feedback.Category][]Rule
}

func rule(expr string, weight float64) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?i)\b(?:` + expr + `)\b`), Weight: weight}
}

// DefaultTaxonomy returns the seven-category feedback taxonomy.
func DefaultTaxonomy() Taxonomy {
	rules := map[feedback.Category][]Rule{
		feedback.CategoryTechnicalIssues: {
			rule(`error|bug|issue|problem|crash|failure|defect|glitch`, 0.8),
			rule(`not working|doesn'?t work|broken|malfunction|failure`, 0.7),
			rule(`performance|slow|lag|latency|timeout|response time`, 0.6),
			rule(`compatibility|version|update|upgrade|migration`, 0.5),
			rule(`bug|defect|flaw|vulnerability|security|hack|breach`, 0.8),
		},
		feedback.CategoryProceduralInefficiencies: {
			rule(`process|procedure|workflow|methodology|steps|protocol`, 0.7),
			rule(`inefficient|bottleneck|redundant|duplicate|repetitive`, 0.8),
			rule(`complicated|complex|convoluted|confusing|unclear|vague`, 0.7),
			rule(`time.?consuming|takes too long|lengthy|delayed|slow`, 0.6),
			rule(`manual|automate|automation|streamline|optimize|improve`, 0.6),
		},
		feedback.CategoryResourceAllocation: {
			rule(`resource|budget|funding|allocation|staffing|personnel`, 0.8),
			rule(`insufficient|limited|lack|shortage|constraint|restriction`, 0.7),
			rule(`need more|require additional|not enough|too few|inadequate`, 0.7),
			rule(`workload|capacity|utilization|overload|overwhelmed|burnout`, 0.6),
			rule(`cost|expensive|over budget|financial|ROI|return on investment`, 0.7),
		},
		feedback.CategoryCommunication: {
			rule(`communication|inform|notify|update|announce|announcement`, 0.8),
			rule(`unclear|confusing|vague|ambiguous|misleading|contradictory`, 0.7),
			rule(`response|reply|answer|feedback|acknowledgment|confirmation`, 0.7),
			rule(`documentation|manual|guide|tutorial|help|instructions|FAQ`, 0.6),
			rule(`language|jargon|technical term|acronym|abbreviation|slang`, 0.5),
		},
		feedback.CategoryTrainingNeeds: {
			rule(`train|training|educate|teach|instruct|coach|mentor|workshop`, 0.9),
			rule(`skill|knowledge|expertise|proficiency|competency|ability`, 0.7),
			rule(`new hire|onboarding|orientation|induction|introduction`, 0.8),
			rule(`certification|certify|accreditation|qualification|license`, 0.7),
			rule(`knowledge gap|skill gap|learning curve|familiarity|experience`, 0.7),
		},
		feedback.CategorySystemImprovements: {
			rule(`feature|functionality|tool|system|application|platform|software`, 0.7),
			rule(`enhance|improve|upgrade|update|modernize|refactor|redesign`, 0.8),
			rule(`user.?friendly|intuitive|easy to use|straightforward|simple`, 0.7),
			rule(`integration|API|interface|connection|compatibility|interoperability`, 0.7),
			rule(`customization|configuration|setting|preference|option|parameter`, 0.6),
		},
		feedback.CategoryPolicyRecommendations: {
			rule(`policy|policies|guideline|rule|regulation|standard|protocol`, 0.9),
			rule(`compliance|regulatory|legal|law|statute|mandate|requirement`, 0.8),
			rule(`change|update|revise|modify|amend|reform|overhaul`, 0.7),
			rule(`best practice|industry standard|benchmark|framework|model`, 0.7),
			rule(`risk|liability|responsibility|accountability|governance`, 0.6),
		},
	}

	return Taxonomy{
		order: []feedback.Category{
			feedback.CategoryTechnicalIssues,
			feedback.CategoryProceduralInefficiencies,
			feedback.CategoryResourceAllocation,
			feedback.CategoryCommunication,
			feedback.CategoryTrainingNeeds,
			feedback.CategorySystemImprovements,
			feedback.CategoryPolicyRecommendations,
		},
		rules: rules,
	}
}

type topicRule struct {
	pattern    *regexp.Regexp
	confidence float64
}

const topicEnd = `(?:\.|,|;|\s+and|\s+or|\s+but|$)`

var topicRules = []topicRule{
	{regexp.MustCompile(`(?i)\b(?:focus|concentrate|priority|emphasis|highlight|address)\s+on\s+(?:the\s+)?([\w\s]+?)` + topicEnd), 0.8},
	{regexp.MustCompile(`(?i)\b(?:issue|problem|challenge|difficulty|obstacle|barrier|bottleneck)\s+(?:with|in|regarding|related\s+to)\s+(?:the\s+)?([\w\s]+?)` + topicEnd), 0.9},
	{regexp.MustCompile(`(?i)\b(?:improve|enhance|upgrade|update|modify|change|fix|resolve|address)\s+(?:the\s+)?([\w\s]+?)` + topicEnd), 0.8},
	{regexp.MustCompile(`(?i)\b(?:need|require|want|must|should|could|would)\s+(?:to\s+)?(?:have|get|implement|add|create|develop|build|design)\s+(?:a\s+)?(?:new\s+)?([\w\s]+?)` + topicEnd), 0.7},
	{regexp.MustCompile(`(?i)\b(?:the|this|our|current|existing)\s+([\w\s]+?)\s+(?:is|are|was|were|has|have|had|needs?|requires?|lacks?|missing)`), 0.6},
}

var commonWords = toSet(
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can",
	"our", "was", "has", "had", "she", "its", "her", "with", "this",
	"that", "from", "have", "they", "will", "would", "there", "their", "what",
	"about", "which", "when", "make", "like", "time", "just", "know", "take",
	"into", "year", "your", "good", "some", "could", "them", "other", "than",
	"then", "look", "only", "come", "over", "think", "also", "back", "after",
	"used", "two", "how", "work", "first", "well", "way", "even", "new",
	"want", "because", "these", "give", "most", "should", "need",
	"where", "why", "who", "whom", "whose",
	"those", "here", "while", "before",
	"since", "until", "although", "though", "if",
	"unless", "whereas", "whether", "either", "neither", "both",
	"each", "every", "none", "such", "own", "same",
	"more", "less", "least", "few", "many", "much", "several", "one",
	"three", "second", "last", "next", "previous",
	"different", "another", "certain", "various",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
