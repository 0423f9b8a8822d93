// Package prompt turns interview state into Gemini prompts and parses the
// labeled free-text responses back into structured fields. Everything here is
// pure: the LLM keeps no memory between calls, so the full conversation is
// re-serialized into every prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/fadilmartias/interview-coach/internal/model"
)

// CodingMarker tags a generated question as a coding problem. The model is
// instructed to emit it as a literal prefix; we strip it on storage and re-add
// it whenever history is rendered back into a prompt.
const CodingMarker = "[CODING_PROBLEM]"

const systemInstruction = "You are an AI interviewer conducting a job interview. " +
	"Ask one question at a time. The interview should consist of exactly 5 questions. " +
	"After the user provides an answer, provide constructive feedback on their answer, " +
	"give a score out of 10 for that answer, and then ask the next question. " +
	"You can sometimes ask a coding problem for technical roles. " +
	"If you ask a coding problem, start the question text with " + CodingMarker + ".\n\n"

// Build renders the conversation prompt for an interview. With no questions
// yet it asks for the first question; otherwise it replays the full history
// and asks for feedback on the latest answer plus the next question.
func Build(iv *model.Interview) string {
	var b strings.Builder
	b.WriteString(systemInstruction)

	fmt.Fprintf(&b, "The candidate is interviewing for a %s position.", strings.ReplaceAll(iv.Role, "-", " "))
	if iv.ProgrammingLanguage != "" {
		fmt.Fprintf(&b, " The preferred programming language is %s.", iv.ProgrammingLanguage)
	}
	b.WriteString("\n\n")

	if len(iv.Questions) == 0 {
		b.WriteString("Start the interview by asking the first question for the selected role. " +
			"The interview should consist of exactly 5 questions in total. " +
			"If the first question is a coding problem, start its text with " + CodingMarker + ". " +
			"Respond using the exact format: Feedback: [Initial feedback or greeting]\nScore: [N/A]\nNext Question: [Your first question here]")
		return b.String()
	}

	for i := range iv.Questions {
		writeQuestionHistory(&b, &iv.Questions[i], i+1)
	}

	// If the latest answer has not been graded yet, repeat it directly before
	// the final instruction so it cannot get lost in the history replay.
	last := iv.LastQuestion()
	if (last.AnswerText != nil && last.Feedback == nil) || (last.CodeAnswer != nil && last.CodeFeedback == nil) {
		writeAnswer(&b, last)
	}

	if last.IsCoding() {
		b.WriteString("\nBased on the above history, specifically the last coding question and code answer, " +
			"provide constructive feedback on the code, give a score out of 10 for the code, and then ask the next question. " +
			"If the next question is also a coding problem, start its text with " + CodingMarker + ". " +
			"Format your response strictly as follows: " +
			"Feedback: [Feedback on conceptual understanding of the problem]\nScore: [Score out of 10 for conceptual understanding]\nCode Feedback: [Feedback on the submitted code]\nCode Score: [Score out of 10 for the code]\nNext Question: [Your next question here]")
	} else {
		b.WriteString("\nBased on the above history, specifically the last question and answer, " +
			"provide constructive feedback on their answer, give a score out of 10 for that answer, and then ask the next question. " +
			"If the next question is a coding problem, start its text with " + CodingMarker + ". " +
			"Format your response strictly as follows: " +
			"Feedback: [Your feedback here]\nScore: [Score out of 10]\nNext Question: [Your next question here]")
	}

	return b.String()
}

func writeQuestionHistory(b *strings.Builder, q *model.Question, number int) {
	fmt.Fprintf(b, "Question %d: %s\n", number, DisplayText(q))
	writeAnswer(b, q)
	if q.Feedback != nil {
		fmt.Fprintf(b, "Feedback on Answer %d: %s\n", number, *q.Feedback)
	}
	if q.Score != nil {
		fmt.Fprintf(b, "Score on Answer %d: %d/10\n", number, *q.Score)
	}
	if q.CodeFeedback != nil {
		fmt.Fprintf(b, "Code Feedback on Answer %d: %s\n", number, *q.CodeFeedback)
	}
	if q.CodeScore != nil {
		fmt.Fprintf(b, "Code Score on Answer %d: %d/10\n", number, *q.CodeScore)
	}
}

func writeAnswer(b *strings.Builder, q *model.Question) {
	if q.AnswerText != nil {
		fmt.Fprintf(b, "Your Answer: %s\n", *q.AnswerText)
	}
	if q.CodeAnswer != nil {
		lang := ""
		if q.CodeLanguage != nil {
			lang = *q.CodeLanguage
		}
		fmt.Fprintf(b, "Your Code Answer (in %s):\n```%s\n%s\n```\n", lang, lang, *q.CodeAnswer)
	}
}

// DisplayText renders the question text as the model originally produced it,
// coding marker included.
func DisplayText(q *model.Question) string {
	if q.IsCoding() {
		return CodingMarker + " " + q.QuestionText
	}
	return q.QuestionText
}

const evaluationFooter = "\n\nPlease provide:\n1. Detailed feedback\n2. A score out of 10\n3. Areas for improvement\n\n" +
	"Format your response as:\nFeedback: [your feedback]\nScore: [score out of 10]\nAreas for Improvement: [specific areas to improve]"

// TextEvaluation asks for a grade on a plain written answer.
func TextEvaluation(q *model.Question) string {
	answer := ""
	if q.AnswerText != nil {
		answer = *q.AnswerText
	}
	return fmt.Sprintf("You are an expert interviewer. Please evaluate this answer and provide feedback and a score out of 10. "+
		"Focus on clarity, technical accuracy, and communication skills.\n\nQuestion: %s\nAnswer: %s%s",
		DisplayText(q), answer, evaluationFooter)
}

// AudioEvaluation asks for a grade on an answer recorded as audio. The audio
// itself is not transcribed or analyzed; the model only sees the question, so
// this is a best-effort context-only evaluation.
func AudioEvaluation(q *model.Question) string {
	return fmt.Sprintf("You are an expert interviewer. Please evaluate the candidate's answer based on the context that it was "+
		"provided as an audio recording for the following question and provide feedback and a score out of 10. "+
		"Focus on clarity, technical accuracy (based on the question), and communication skills.\n\nQuestion: %s%s",
		DisplayText(q), evaluationFooter)
}

// VideoEvaluation is the video counterpart of AudioEvaluation, with the same
// context-only limitation.
func VideoEvaluation(q *model.Question) string {
	return fmt.Sprintf("You are an expert interviewer. Please evaluate this video answer for the following question and provide "+
		"feedback and a score out of 10. Focus on clarity, technical accuracy, and communication skills.\n\nQuestion: %s%s",
		DisplayText(q), evaluationFooter)
}

// CodingConceptEvaluation asks for a grade on the conceptual understanding a
// code answer demonstrates. Coding questions are graded on two axes; the code
// itself goes through CodeEvaluation in a separate call.
func CodingConceptEvaluation(q *model.Question) string {
	lang, code := "", ""
	if q.CodeLanguage != nil {
		lang = *q.CodeLanguage
	}
	if q.CodeAnswer != nil {
		code = *q.CodeAnswer
	}
	return fmt.Sprintf("You are an expert interviewer. Please evaluate the conceptual understanding of the problem demonstrated "+
		"by this code answer and provide feedback and a score out of 10. Focus on the approach, not on code style.\n\n"+
		"Question: %s\nProgramming Language: %s\nCode Answer: %s%s",
		DisplayText(q), lang, code, evaluationFooter)
}

// CodeEvaluation asks for a grade on the submitted code itself, separate from
// the conceptual evaluation of the same question.
func CodeEvaluation(q *model.Question) string {
	lang, code := "", ""
	if q.CodeLanguage != nil {
		lang = *q.CodeLanguage
	}
	if q.CodeAnswer != nil {
		code = *q.CodeAnswer
	}
	return fmt.Sprintf("You are an expert programmer. Please evaluate this code answer and provide feedback and a score out of 10. "+
		"Focus on code quality, efficiency, and best practices.\n\nQuestion: %s\nProgramming Language: %s\nCode Answer: %s%s",
		DisplayText(q), lang, code, evaluationFooter)
}

// Overall asks for closing feedback across the whole interview.
func Overall(iv *model.Interview, overallScore int) string {
	var b strings.Builder
	b.WriteString("You are an expert interviewer. Please provide overall feedback for this interview based on the following scores and feedback:\n")
	for i := range iv.Questions {
		q := &iv.Questions[i]
		feedback := ""
		if q.IsCoding() && q.CodeFeedback != nil {
			feedback = *q.CodeFeedback
		} else if !q.IsCoding() && q.Feedback != nil {
			feedback = *q.Feedback
		}
		fmt.Fprintf(&b, "\nQuestion %d: %s\nScore: %d/10\nFeedback: %s\n", i+1, DisplayText(q), q.EffectiveScore(), feedback)
	}
	fmt.Fprintf(&b, "\nOverall Score: %d/10\n\n", overallScore)
	b.WriteString("Please provide comprehensive feedback focusing on:\n" +
		"1. Overall performance\n2. Key strengths\n3. Areas for improvement\n4. Recommendations for future interviews\n\n" +
		"Format your response as:\nOverall Feedback: [your feedback]")
	return b.String()
}
