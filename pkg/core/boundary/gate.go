// Package boundary implements the deterministic policy gate that runs before
// any costly generation, plus the post-retrieval knowledge coverage check.
package boundary

import (
	"regexp"
	"strings"
	"unicode"
)

// Decision is the gate's routing outcome.
type Decision int

const (
	// AllowFast short-circuits to the fast generation loop.
	AllowFast Decision = iota
	// AllowDeep permits full context-grounded generation.
	AllowDeep
	// ProceedToRetrieval defers the final decision to knowledge verification.
	ProceedToRetrieval
	// Refuse blocks generation; the verdict carries a canned template.
	Refuse
)

// String returns the decision label.
func (d Decision) String() string {
	switch d {
	case AllowFast:
		return "ALLOW_FAST"
	case AllowDeep:
		return "ALLOW_DEEP"
	case ProceedToRetrieval:
		return "PROCEED_TO_RETRIEVAL"
	case Refuse:
		return "REFUSE"
	default:
		return "UNKNOWN"
	}
}

// RefusalReason explains a Refuse decision.
type RefusalReason string

const (
	ReasonMalicious     RefusalReason = "malicious"
	ReasonOffTopic      RefusalReason = "off_topic"
	ReasonModeViolation RefusalReason = "mode_violation"
	ReasonLowConfidence RefusalReason = "low_confidence"
)

// Intent is the heuristic classification of a user utterance.
type Intent string

const (
	IntentGreeting  Intent = "greeting"
	IntentPersonal  Intent = "personal"
	IntentTechnical Intent = "technical"
	IntentMeta      Intent = "meta"
	IntentUnknown   Intent = "unknown"
)

// Verdict is produced fresh per utterance and never persisted beyond the turn.
type Verdict struct {
	Decision          Decision
	Confidence        float64
	RefusalReason     RefusalReason
	SuggestedTemplate string
	Intent            Intent
}

// Canned refusal and deflection lines returned verbatim to the speaker.
const (
	MaliciousTemplate      = "I cannot discuss that topic."
	StandupDeflectTemplate = "Let's save the deep dive for a follow-up; I want to focus on today's status."
	NoKnowledgeTemplate    = "I don't have the specific details on that right now."
)

// Config holds the gate's tunable policy knobs.
type Config struct {
	// DeepQuestionWords is the word count above which a query counts as deep.
	DeepQuestionWords int
	// KnowledgeThreshold is the minimum top similarity score accepted by
	// VerifyKnowledge when the caller passes no explicit threshold.
	KnowledgeThreshold float64
}

// DefaultConfig returns the gate defaults.
func DefaultConfig() Config {
	return Config{
		DeepQuestionWords:  10,
		KnowledgeThreshold: 0.75,
	}
}

// maliciousSignatures block obvious jailbreaks and off-limits topics before
// any model call. Matched case-insensitively against the raw query.
var maliciousSignatures = []string{
	`(ignore|forget) (all )?instructions`,
	`system prompt`,
	`you are (a|an) ai`,
	`simulat(e|ion)`,
	`(write|generate) malware`,
	`illegal`,
	`hack`,
	`salary`,
	`immigration`,
	`visa sponsorship`,
}

var greetingMarkers = []string{"hi", "hello", "hey", "good morning", "can you hear me"}

var personalMarkers = []string{"tell me about yourself", "experience", "background", "resume"}

var depthMarkers = []string{"how", "why", "explain", "architecture", "design"}

// Gate evaluates utterances in stages, short-circuiting at the first match.
type Gate struct {
	cfg      Config
	patterns []*regexp.Regexp
}

// NewGate compiles the signature list and returns a ready gate.
func NewGate(cfg Config) *Gate {
	if cfg.DeepQuestionWords <= 0 {
		cfg.DeepQuestionWords = DefaultConfig().DeepQuestionWords
	}
	if cfg.KnowledgeThreshold <= 0 {
		cfg.KnowledgeThreshold = DefaultConfig().KnowledgeThreshold
	}
	patterns := make([]*regexp.Regexp, 0, len(maliciousSignatures))
	for _, sig := range maliciousSignatures {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+sig))
	}
	return &Gate{cfg: cfg, patterns: patterns}
}

// Evaluate runs the pre-retrieval stages: input guard, intent classification,
// and the mode gate. The returned decision is either terminal (AllowFast,
// Refuse) or ProceedToRetrieval, in which case the caller retrieves and then
// calls VerifyKnowledge.
func (g *Gate) Evaluate(query, mode string) Verdict {
	for _, p := range g.patterns {
		if p.MatchString(query) {
			return Verdict{
				Decision:          Refuse,
				Confidence:        1.0,
				RefusalReason:     ReasonMalicious,
				SuggestedTemplate: MaliciousTemplate,
				Intent:            IntentUnknown,
			}
		}
	}

	intent := g.classifyIntent(query)
	if intent == IntentGreeting {
		return Verdict{Decision: AllowFast, Confidence: 1.0, Intent: IntentGreeting}
	}

	if mode == "standup" && g.IsDeepQuestion(query) {
		return Verdict{
			Decision:          Refuse,
			Confidence:        0.9,
			RefusalReason:     ReasonModeViolation,
			SuggestedTemplate: StandupDeflectTemplate,
			Intent:            intent,
		}
	}

	return Verdict{Decision: ProceedToRetrieval, Confidence: 0.5, Intent: intent}
}

// VerifyKnowledge is the post-retrieval stage. scores must be descending.
// A zero threshold falls back to the configured default.
func (g *Gate) VerifyKnowledge(scores []float64, threshold float64) Verdict {
	if threshold <= 0 {
		threshold = g.cfg.KnowledgeThreshold
	}
	if len(scores) == 0 || scores[0] < threshold {
		return Verdict{
			Decision:          Refuse,
			Confidence:        1.0,
			RefusalReason:     ReasonLowConfidence,
			SuggestedTemplate: NoKnowledgeTemplate,
			Intent:            IntentUnknown,
		}
	}
	return Verdict{Decision: AllowDeep, Confidence: scores[0], Intent: IntentTechnical}
}

// IsDeepQuestion reports whether a query exceeds the standup-mode depth
// budget: long queries or ones carrying analytical keywords.
func (g *Gate) IsDeepQuestion(query string) bool {
	if len(strings.Fields(query)) > g.cfg.DeepQuestionWords {
		return true
	}
	lower := strings.ToLower(query)
	for _, kw := range depthMarkers {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (g *Gate) classifyIntent(query string) Intent {
	lower := strings.ToLower(query)
	words := splitWords(lower)
	for _, m := range greetingMarkers {
		if markerMatches(lower, words, m) {
			return IntentGreeting
		}
	}
	for _, m := range personalMarkers {
		if markerMatches(lower, words, m) {
			return IntentPersonal
		}
	}
	return IntentTechnical
}

func splitWords(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// markerMatches matches single-word markers on whole words only, so "hi"
// does not fire inside "this" or "history". Phrase markers stay substring
// matches.
func markerMatches(lower string, words []string, marker string) bool {
	if strings.ContainsRune(marker, ' ') {
		return strings.Contains(lower, marker)
	}
	for _, w := range words {
		if w == marker {
			return true
		}
	}
	return false
}
