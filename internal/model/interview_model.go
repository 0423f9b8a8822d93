package model

import (
	"time"

	"github.com/google/uuid"
)

// Interview roles offered by the product. Every role except product manager
// is technical and requires a preferred programming language.
const (
	RoleSoftwareEngineer  = "software-engineer"
	RoleFrontendDeveloper = "frontend-developer"
	RoleBackendDeveloper  = "backend-developer"
	RoleDataScientist     = "data-scientist"
	RoleProductManager    = "product-manager"
	RoleDevopsEngineer    = "devops-engineer"
)

// MaxQuestions is the fixed length of an interview.
const MaxQuestions = 5

type QuestionKind string

const (
	QuestionKindText   QuestionKind = "text"
	QuestionKindCoding QuestionKind = "coding"
)

var validRoles = map[string]bool{
	RoleSoftwareEngineer:  true,
	RoleFrontendDeveloper: true,
	RoleBackendDeveloper:  true,
	RoleDataScientist:     true,
	RoleProductManager:    true,
	RoleDevopsEngineer:    true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

// IsTechnicalRole reports whether the role requires a programming language.
func IsTechnicalRole(role string) bool {
	return validRoles[role] && role != RoleProductManager
}

type Interview struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID              uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Role                string     `gorm:"type:varchar(50)" json:"role"`
	ProgrammingLanguage string     `gorm:"type:varchar(50)" json:"programming_language,omitempty"`
	Questions           []Question `gorm:"foreignKey:InterviewID;constraint:OnDelete:CASCADE" json:"questions"`
	OverallFeedback     *string    `gorm:"type:text" json:"overall_feedback"`
	OverallScore        *int       `json:"overall_score"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (i *Interview) TableName() string {
	return "interviews"
}

// LastQuestion returns the only answerable question, or nil for an interview
// with no questions yet.
func (i *Interview) LastQuestion() *Question {
	if len(i.Questions) == 0 {
		return nil
	}
	return &i.Questions[len(i.Questions)-1]
}

// Complete reports whether the interview has run its full course: five
// questions, with the final one evaluated.
func (i *Interview) Complete() bool {
	if len(i.Questions) < MaxQuestions {
		return false
	}
	last := i.Questions[len(i.Questions)-1]
	return last.Evaluated()
}

type Question struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	InterviewID  uuid.UUID    `gorm:"type:uuid;index" json:"interview_id"`
	Position     int          `gorm:"index" json:"position"`
	Kind         QuestionKind `gorm:"type:varchar(10)" json:"kind"`
	QuestionText string       `gorm:"type:text" json:"question_text"`
	AnswerText   *string      `gorm:"type:text" json:"answer_text"`
	CodeAnswer   *string      `gorm:"type:text" json:"code_answer"`
	CodeLanguage *string      `gorm:"type:varchar(50)" json:"code_language"`
	AudioAnswer  *string      `gorm:"type:text" json:"audio_answer"`
	VideoAnswer  *string      `gorm:"type:text" json:"video_answer"`
	Feedback     *string      `gorm:"type:text" json:"feedback"`
	Score        *int         `json:"score"`
	CodeFeedback *string      `gorm:"type:text" json:"code_feedback"`
	CodeScore    *int         `json:"code_score"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (q *Question) TableName() string {
	return "questions"
}

func (q *Question) IsCoding() bool {
	return q.Kind == QuestionKindCoding
}

// Evaluated reports whether the question has been scored. Coding questions
// are graded on the code axis, everything else on the conceptual one.
func (q *Question) Evaluated() bool {
	if q.IsCoding() {
		return q.CodeScore != nil
	}
	return q.Score != nil
}

// EffectiveScore is the score that counts toward the overall average. A
// question whose evaluation produced no score counts as zero.
func (q *Question) EffectiveScore() int {
	var s *int
	if q.IsCoding() {
		s = q.CodeScore
	} else {
		s = q.Score
	}
	if s == nil {
		return 0
	}
	return *s
}
