package recommend

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/feedbacklens/internal/feedback"
)

// fields are the named values a template can draw on. Empty strings mean
// the value is not available for the insight at hand.
type fields struct {
	Category       string
	TrendDirection string
	Sentiment      string
	PatternType    string
	Area           string
	Topic          string
	Category1      string
	Category2      string
	Action         string
	Objective      string
}

// template builds the title and description of a recommendation and knows
// how to resolve its priority and effort.
type template struct {
	title       func(f fields) (string, error)
	description func(f fields) (string, error)

	// Maps are consulted with the sentiment first, then the trend direction.
	priorityBy map[string]feedback.Priority
	effortBy   map[string]feedback.Effort
	priority   feedback.Priority
	effort     feedback.Effort
}

func (t template) resolvePriority(f fields) feedback.Priority {
	if p, ok := t.priorityBy[f.Sentiment]; ok {
		return p
	}
	if p, ok := t.priorityBy[f.TrendDirection]; ok {
		return p
	}
	if t.priority != "" {
		return t.priority
	}
	return feedback.PriorityMedium
}

func (t template) resolveEffort(f fields) feedback.Effort {
	if e, ok := t.effortBy[f.Sentiment]; ok {
		return e
	}
	if e, ok := t.effortBy[f.TrendDirection]; ok {
		return e
	}
	if t.effort != "" {
		return t.effort
	}
	return feedback.EffortMedium
}

func require(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", feedback.ErrMissingField, name)
	}
	return nil
}

// sentence joins the fixed lead-in with the action clause.
func sentence(lead string, f fields, consider bool) string {
	if consider {
		return fmt.Sprintf("%s Consider %s to %s.", lead, f.Action, f.Objective)
	}
	return fmt.Sprintf("%s %s to %s.", lead, f.Action, f.Objective)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var trendTemplate = template{
	title: func(f fields) (string, error) {
		return fmt.Sprintf("Address the %s trend in %s", f.TrendDirection, f.Category), nil
	},
	description: func(f fields) (string, error) {
		lead := fmt.Sprintf("The analysis shows a %s trend in %s feedback.", f.TrendDirection, f.Category)
		return sentence(lead, f, false), nil
	},
	priorityBy: map[string]feedback.Priority{
		string(feedback.TrendIncreasing): feedback.PriorityHigh,
		string(feedback.TrendDecreasing): feedback.PriorityMedium,
		string(feedback.TrendStable):     feedback.PriorityLow,
	},
	effort: feedback.EffortMedium,
}

var templates = map[feedback.InsightType]template{
	feedback.InsightTrend: trendTemplate,
	feedback.InsightPattern: {
		title: func(f fields) (string, error) {
			return fmt.Sprintf("Address the pattern of %s in %s", f.PatternType, f.Category), nil
		},
		description: func(f fields) (string, error) {
			lead := fmt.Sprintf("A consistent pattern of %s has been identified in %s feedback.", f.PatternType, f.Category)
			return sentence(lead, f, true), nil
		},
		priority: feedback.PriorityMedium,
		effort:   feedback.EffortMedium,
	},
	feedback.InsightAnomaly: {
		title: func(f fields) (string, error) {
			return fmt.Sprintf("Investigate anomaly in %s", f.Category), nil
		},
		description: func(f fields) (string, error) {
			return sentence(fmt.Sprintf("An anomaly has been detected in %s feedback.", f.Category), f, false), nil
		},
		priority: feedback.PriorityHigh,
		effort:   feedback.EffortHigh,
	},
	feedback.InsightCorrelation: {
		title: func(f fields) (string, error) {
			if err := require("category1", f.Category1); err != nil {
				return "", err
			}
			if err := require("category2", f.Category2); err != nil {
				return "", err
			}
			return fmt.Sprintf("Address correlation between %s and %s", f.Category1, f.Category2), nil
		},
		description: func(f fields) (string, error) {
			lead := fmt.Sprintf("A correlation has been identified between %s and %s.", f.Category1, f.Category2)
			return sentence(lead, f, true), nil
		},
		priority: feedback.PriorityMedium,
		effort:   feedback.EffortMedium,
	},
	feedback.InsightSentimentShift: {
		title: func(f fields) (string, error) {
			return fmt.Sprintf("Address %s sentiment in %s", f.Sentiment, f.Category), nil
		},
		description: func(f fields) (string, error) {
			lead := fmt.Sprintf("%s sentiment has been identified in %s feedback.", capitalize(f.Sentiment), f.Category)
			return sentence(lead, f, false), nil
		},
		priorityBy: map[string]feedback.Priority{
			string(feedback.SentimentPositive): feedback.PriorityLow,
			string(feedback.SentimentNegative): feedback.PriorityHigh,
			string(feedback.SentimentNeutral):  feedback.PriorityMedium,
		},
		effortBy: map[string]feedback.Effort{
			string(feedback.SentimentPositive): feedback.EffortLow,
			string(feedback.SentimentNegative): feedback.EffortHigh,
			string(feedback.SentimentNeutral):  feedback.EffortMedium,
		},
	},
	feedback.InsightEmergingTopic: {
		title: func(f fields) (string, error) {
			if err := require("topic", f.Topic); err != nil {
				return "", err
			}
			return fmt.Sprintf("Address emerging topic: %s", f.Topic), nil
		},
		description: func(f fields) (string, error) {
			lead := fmt.Sprintf("An emerging topic '%s' has been identified in the feedback.", f.Topic)
			return sentence(lead, f, true), nil
		},
		priority: feedback.PriorityMedium,
		effort:   feedback.EffortMedium,
	},
	feedback.InsightFrequentIssue: {
		title: func(f fields) (string, error) {
			return fmt.Sprintf("Resolve frequent issue in %s", f.Category), nil
		},
		description: func(f fields) (string, error) {
			return sentence(fmt.Sprintf("A frequent issue has been reported in %s.", f.Category), f, false), nil
		},
		priority: feedback.PriorityHigh,
		effort:   feedback.EffortHigh,
	},
	feedback.InsightImprovementArea: {
		title: func(f fields) (string, error) {
			return fmt.Sprintf("Improve %s in %s", f.Area, f.Category), nil
		},
		description: func(f fields) (string, error) {
			lead := fmt.Sprintf("An area for improvement has been identified in %s related to %s.", f.Category, f.Area)
			return sentence(lead, f, false), nil
		},
		priority: feedback.PriorityMedium,
		effort:   feedback.EffortMedium,
	},
	feedback.InsightSuccessStory: {
		title: func(f fields) (string, error) {
			return fmt.Sprintf("Leverage success in %s", f.Category), nil
		},
		description: func(f fields) (string, error) {
			return sentence(fmt.Sprintf("Positive outcomes have been reported in %s.", f.Category), f, true), nil
		},
		priority: feedback.PriorityLow,
		effort:   feedback.EffortLow,
	},
	feedback.InsightFeedbackQuality: {
		title: func(f fields) (string, error) {
			return fmt.Sprintf("Improve feedback quality in %s", f.Category), nil
		},
		description: func(f fields) (string, error) {
			lead := fmt.Sprintf("Opportunities to improve feedback quality have been identified in %s.", f.Category)
			return sentence(lead, f, false), nil
		},
		priority: feedback.PriorityLow,
		effort:   feedback.EffortMedium,
	},
}

// templateFor returns the template for an insight type, falling back to the
// trend template.
func templateFor(t feedback.InsightType) template {
	if tmpl, ok := templates[t]; ok {
		return tmpl
	}
	return trendTemplate
}

type action struct {
	verb      string
	objective string
}

var categoryActions = map[feedback.Category]map[feedback.Sentiment][]action{
	feedback.CategoryTechnicalIssues: {
		feedback.SentimentPositive: {
			{"document and share", "leverage this success in other areas"},
			{"recognize the team", "acknowledge their contribution"},
			{"analyze the success factors", "replicate them elsewhere"},
		},
		feedback.SentimentNegative: {
			{"investigate the root cause", "prevent recurrence"},
			{"prioritize bug fixes", "address the most critical issues first"},
			{"improve testing procedures", "catch issues earlier"},
		},
		feedback.SentimentNeutral: {
			{"monitor the situation", "identify any emerging patterns"},
			{"gather more data", "better understand the context"},
			{"review documentation", "ensure clarity and completeness"},
		},
	},
	feedback.CategoryProceduralInefficiencies: {
		feedback.SentimentPositive: {
			{"document the process", "share best practices"},
			{"recognize the team", "acknowledge their efficiency"},
			{"consider automation", "further improve productivity"},
		},
		feedback.SentimentNegative: {
			{"streamline the process", "reduce inefficiencies"},
			{"review and update procedures", "align with current needs"},
			{"provide additional training", "ensure proper implementation"},
		},
		feedback.SentimentNeutral: {
			{"analyze the process", "identify potential improvements"},
			{"gather more feedback", "understand pain points"},
			{"benchmark against industry standards", "identify gaps"},
		},
	},
}

var defaultActions = map[feedback.Sentiment][]action{
	feedback.SentimentPositive: {
		{"leverage this success", "reinforce positive outcomes"},
		{"recognize the team", "acknowledge their contribution"},
		{"document best practices", "share knowledge across teams"},
	},
	feedback.SentimentNegative: {
		{"investigate the issue", "understand the root cause"},
		{"develop an action plan", "address the concerns"},
		{"communicate with stakeholders", "keep them informed"},
	},
	feedback.SentimentNeutral: {
		{"monitor the situation", "identify emerging trends"},
		{"gather more information", "better understand the context"},
		{"review related processes", "ensure consistency"},
	},
}

var fallbackAction = action{"take appropriate action", "address this issue"}

var taxonomy = []feedback.Category{
	feedback.CategoryTechnicalIssues,
	feedback.CategoryProceduralInefficiencies,
	feedback.CategoryResourceAllocation,
	feedback.CategoryCommunication,
	feedback.CategoryTrainingNeeds,
	feedback.CategorySystemImprovements,
	feedback.CategoryPolicyRecommendations,
}

// actionsFor resolves up to three actions for an area: category and
// sentiment specific first, padded with sentiment defaults.
func actionsFor(sentiment feedback.Sentiment, area string) []action {
	var out []action
	lower := strings.ToLower(area)
	for _, c := range taxonomy {
		if !strings.Contains(lower, string(c)) {
			continue
		}
		if table, ok := categoryActions[c]; ok {
			acts, ok := table[sentiment]
			if !ok {
				acts = table[feedback.SentimentNeutral]
			}
			out = append(out, acts...)
		}
		break
	}
	if len(out) < maxActions {
		out = append(out, defaultActions[sentiment]...)
	}
	if len(out) == 0 {
		out = []action{fallbackAction}
	}
	if len(out) > maxActions {
		out = out[:maxActions]
	}
	return out
}
