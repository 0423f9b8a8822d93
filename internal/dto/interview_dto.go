package dto

import (
	"time"

	"github.com/fadilmartias/interview-coach/internal/model"
	"github.com/google/uuid"
)

type StartInterviewRequest struct {
	Role                string `json:"role"`
	ProgrammingLanguage string `json:"programming_language"`
}

type SubmitAnswerRequest struct {
	QuestionIndex       *int   `json:"question_index"`
	AnswerText          string `json:"answer_text"`
	CodeAnswer          string `json:"code_answer"`
	ProgrammingLanguage string `json:"programming_language"`
	AudioAnswer         string `json:"audio_answer"`
	VideoAnswer         string `json:"video_answer"`
}

// InterviewSummaryDTO is the list/profile view of an interview: enough to
// render history without shipping full question transcripts.
type InterviewSummaryDTO struct {
	ID                  uuid.UUID `json:"id"`
	Role                string    `json:"role"`
	ProgrammingLanguage string    `json:"programming_language,omitempty"`
	QuestionCount       int       `json:"question_count"`
	Complete            bool      `json:"complete"`
	OverallScore        *int      `json:"overall_score"`
	CreatedAt           time.Time `json:"created_at"`
}

func NewInterviewSummary(interview *model.Interview) InterviewSummaryDTO {
	return InterviewSummaryDTO{
		ID:                  interview.ID,
		Role:                interview.Role,
		ProgrammingLanguage: interview.ProgrammingLanguage,
		QuestionCount:       len(interview.Questions),
		Complete:            interview.Complete(),
		OverallScore:        interview.OverallScore,
		CreatedAt:           interview.CreatedAt,
	}
}
