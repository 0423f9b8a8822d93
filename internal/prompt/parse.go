package prompt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fadilmartias/interview-coach/internal/model"
)

// Defaults used when the model drifts from the requested format. A formatting
// slip must never fail the request, so every field degrades independently.
const (
	DefaultFeedback        = "No feedback provided"
	DefaultFirstFeedback   = "Welcome to your interview practice!"
	DefaultNextQuestion    = "Could not generate the next question."
	DefaultFirstQuestion   = "Could not generate the first question."
	DefaultOverallFeedback = "No overall feedback provided"
)

// Result holds the fields extracted from one model response. Score pointers
// are nil when the label is absent or non-numeric (the "Score: N/A" case).
type Result struct {
	Feedback     string
	Score        *int
	CodeFeedback string
	CodeScore    *int
	NextQuestion string
}

// Labels are matched at line starts so that "Code Feedback:" never satisfies
// the "Feedback:" pattern. Bodies run lazily up to the next known label or end
// of text, which tolerates commentary the model wraps around the template.
var (
	feedbackRe     = regexp.MustCompile(`(?is)(?:\A|\n)\s*Feedback:\s*(.*?)\s*(?:\n\s*(?:Score:|Code Feedback:|Next Question:)|\z)`)
	scoreRe        = regexp.MustCompile(`(?i)(?:\A|\n)\s*Score:\s*(\d+)`)
	codeFeedbackRe = regexp.MustCompile(`(?is)(?:\A|\n)\s*Code Feedback:\s*(.*?)\s*(?:\n\s*(?:Code Score:|Next Question:)|\z)`)
	codeScoreRe    = regexp.MustCompile(`(?i)(?:\A|\n)\s*Code Score:\s*(\d+)`)
	nextQuestionRe = regexp.MustCompile(`(?i)(?:\A|\n)\s*Next Question:\s*`)
	overallRe      = regexp.MustCompile(`(?is)(?:\A|\n)\s*Overall Feedback:\s*(.+)\s*\z`)
)

// Parse extracts evaluation fields from a model response. It never fails:
// missing fields fall back to defaults.
func Parse(text string) Result {
	return parse(text, DefaultFeedback, DefaultNextQuestion)
}

// ParseFirst is Parse with the greeting defaults used when the interview is
// being created and no answer exists yet.
func ParseFirst(text string) Result {
	return parse(text, DefaultFirstFeedback, DefaultFirstQuestion)
}

func parse(text, feedbackDefault, questionDefault string) Result {
	r := Result{
		Feedback:     feedbackDefault,
		NextQuestion: questionDefault,
	}

	if m := lastMatch(feedbackRe, text); m != "" {
		r.Feedback = m
	}
	if m := lastMatch(scoreRe, text); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			r.Score = &n
		}
	}
	if m := lastMatch(codeFeedbackRe, text); m != "" {
		r.CodeFeedback = m
	}
	if m := lastMatch(codeScoreRe, text); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			r.CodeScore = &n
		}
	}
	if q := extractNextQuestion(text); q != "" {
		r.NextQuestion = q
	}

	return r
}

// ParseOverall extracts the closing feedback from the one-field overall
// template.
func ParseOverall(text string) string {
	if m := lastMatch(overallRe, text); m != "" {
		return m
	}
	return DefaultOverallFeedback
}

// lastMatch returns the trimmed capture of the last occurrence, since the
// model sometimes restates the template before filling it in.
func lastMatch(re *regexp.Regexp, text string) string {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return strings.TrimSpace(matches[len(matches)-1][1])
}

// extractNextQuestion takes everything after the last "Next Question:" label
// to the end of the response, so multi-line coding problems survive intact.
func extractNextQuestion(text string) string {
	locs := nextQuestionRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return ""
	}
	return strings.TrimSpace(text[locs[len(locs)-1][1]:])
}

// ClassifyQuestion splits the coding marker off a generated question. The
// marker is a content-embedded tag from the model; storage keeps an explicit
// kind instead.
func ClassifyQuestion(text string) (model.QuestionKind, string) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, CodingMarker) {
		return model.QuestionKindCoding, strings.TrimSpace(strings.TrimPrefix(trimmed, CodingMarker))
	}
	return model.QuestionKindText, trimmed
}
