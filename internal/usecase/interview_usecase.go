package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/fadilmartias/interview-coach/internal/dto"
	"github.com/fadilmartias/interview-coach/internal/model"
	"github.com/fadilmartias/interview-coach/internal/prompt"
	"github.com/fadilmartias/interview-coach/internal/service"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("interview not found")
	ErrNotOwner        = errors.New("not authorized")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidIndex    = fmt.Errorf("%w: invalid question index", ErrValidation)
	ErrAlreadyAnswered = fmt.Errorf("%w: question has already been answered", ErrValidation)
)

// InterviewStore is the persistence surface the orchestrator needs. The GORM
// repository satisfies it; tests use an in-memory fake.
type InterviewStore interface {
	Create(interview *model.Interview) error
	Update(interview *model.Interview) error
	FindByID(id uuid.UUID) (*model.Interview, error)
	Delete(interview *model.Interview) error
	ListByUser(userID uuid.UUID, page, pageSize int) ([]model.Interview, int64, error)
}

// InterviewUsecase drives an interview through its question/answer/feedback
// cycles: it builds prompts from state, calls the model, parses the response,
// and mutates and persists the aggregate.
type InterviewUsecase struct {
	interviews InterviewStore
	gemini     service.GeminiServiceInterface
	locks      keyedMutex
}

func NewInterviewUsecase(interviews InterviewStore, gemini service.GeminiServiceInterface) *InterviewUsecase {
	return &InterviewUsecase{interviews: interviews, gemini: gemini}
}

// Start creates an interview and obtains its first question from the model.
// Nothing is persisted if the generation fails.
func (uc *InterviewUsecase) Start(ctx context.Context, userID uuid.UUID, req dto.StartInterviewRequest) (*model.Interview, error) {
	if !model.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: role must be one of the offered interview roles", ErrValidation)
	}
	if model.IsTechnicalRole(req.Role) && req.ProgrammingLanguage == "" {
		return nil, fmt.Errorf("%w: programming language is required for technical roles", ErrValidation)
	}

	interview := &model.Interview{
		UserID:              userID,
		Role:                req.Role,
		ProgrammingLanguage: req.ProgrammingLanguage,
	}

	text, err := uc.gemini.GenerateText(ctx, prompt.Build(interview))
	if err != nil {
		return nil, fmt.Errorf("generate first question: %w", err)
	}

	parsed := prompt.ParseFirst(text)
	kind, questionText := prompt.ClassifyQuestion(parsed.NextQuestion)
	feedback := parsed.Feedback
	interview.Questions = []model.Question{{
		Position:     0,
		Kind:         kind,
		QuestionText: questionText,
		Feedback:     &feedback,
	}}

	if err := uc.interviews.Create(interview); err != nil {
		return nil, fmt.Errorf("persist interview: %w", err)
	}
	return interview, nil
}

// SubmitAnswer records an answer for the current question, has the model
// grade it, and appends the next question while fewer than five exist. Calls
// are serialized per interview so concurrent submissions cannot race on the
// same aggregate.
func (uc *InterviewUsecase) SubmitAnswer(ctx context.Context, userID, interviewID uuid.UUID, req dto.SubmitAnswerRequest) (*model.Interview, error) {
	unlock := uc.locks.lock(interviewID)
	defer unlock()

	interview, err := uc.findOwned(userID, interviewID)
	if err != nil {
		return nil, err
	}

	if req.QuestionIndex == nil {
		return nil, fmt.Errorf("%w: question index is required", ErrValidation)
	}
	idx := *req.QuestionIndex
	// Only the most recent question is answerable; answering out of order or
	// past the end is rejected before any model call is made.
	if idx != len(interview.Questions)-1 {
		return nil, ErrInvalidIndex
	}
	question := &interview.Questions[idx]
	if question.Evaluated() {
		return nil, ErrAlreadyAnswered
	}

	if err := uc.recordAndEvaluate(ctx, question, req); err != nil {
		return nil, err
	}

	// The answered question is always the last one, so the overall result is
	// recomputed on every submission; it stays provisional until the fifth
	// question has been graded.
	if err := uc.finalize(ctx, interview); err != nil {
		return nil, err
	}

	if err := uc.interviews.Update(interview); err != nil {
		return nil, fmt.Errorf("persist evaluation: %w", err)
	}

	if len(interview.Questions) < model.MaxQuestions {
		uc.appendNextQuestion(ctx, interview)
		if err := uc.interviews.Update(interview); err != nil {
			return nil, fmt.Errorf("persist next question: %w", err)
		}
	}

	return interview, nil
}

// recordAndEvaluate validates the payload for the question kind, stores the
// answer, and runs the grading calls. Any overload error aborts the whole
// submission before persistence.
func (uc *InterviewUsecase) recordAndEvaluate(ctx context.Context, question *model.Question, req dto.SubmitAnswerRequest) error {
	if question.IsCoding() {
		if req.CodeAnswer == "" || req.ProgrammingLanguage == "" {
			return fmt.Errorf("%w: code answer and programming language are required for coding questions", ErrValidation)
		}
		question.CodeAnswer = &req.CodeAnswer
		question.CodeLanguage = &req.ProgrammingLanguage

		parsed, err := uc.evaluate(ctx, prompt.CodingConceptEvaluation(question))
		if err != nil {
			return err
		}
		question.Feedback = &parsed.Feedback
		question.Score = parsed.Score

		parsed, err = uc.evaluate(ctx, prompt.CodeEvaluation(question))
		if err != nil {
			return err
		}
		question.CodeFeedback = &parsed.Feedback
		question.CodeScore = parsed.Score
		return nil
	}

	var evalPrompt string
	switch {
	case req.AnswerText != "":
		question.AnswerText = &req.AnswerText
		evalPrompt = prompt.TextEvaluation(question)
	case req.AudioAnswer != "":
		question.AudioAnswer = &req.AudioAnswer
		evalPrompt = prompt.AudioEvaluation(question)
	case req.VideoAnswer != "":
		question.VideoAnswer = &req.VideoAnswer
		evalPrompt = prompt.VideoEvaluation(question)
	default:
		return fmt.Errorf("%w: answer text, audio answer, or video answer is required for non-coding questions", ErrValidation)
	}

	parsed, err := uc.evaluate(ctx, evalPrompt)
	if err != nil {
		return err
	}
	question.Feedback = &parsed.Feedback
	question.Score = parsed.Score
	return nil
}

func (uc *InterviewUsecase) evaluate(ctx context.Context, p string) (prompt.Result, error) {
	text, err := uc.gemini.GenerateText(ctx, p)
	if err != nil {
		return prompt.Result{}, fmt.Errorf("evaluate answer: %w", err)
	}
	return prompt.Parse(text), nil
}

// finalize computes the overall score as the rounded mean over all questions,
// an unscored question counting as zero, and asks the model for closing
// feedback over the whole interview.
func (uc *InterviewUsecase) finalize(ctx context.Context, interview *model.Interview) error {
	total := 0
	for i := range interview.Questions {
		total += interview.Questions[i].EffectiveScore()
	}
	overall := int(math.Round(float64(total) / float64(len(interview.Questions))))

	text, err := uc.gemini.GenerateText(ctx, prompt.Overall(interview, overall))
	if err != nil {
		return fmt.Errorf("generate overall feedback: %w", err)
	}
	feedback := prompt.ParseOverall(text)

	interview.OverallScore = &overall
	interview.OverallFeedback = &feedback
	return nil
}

// appendNextQuestion asks the model for the next question over the updated
// history. Generation failure degrades to a placeholder question so the user
// is never blocked mid-interview by transient AI unavailability.
func (uc *InterviewUsecase) appendNextQuestion(ctx context.Context, interview *model.Interview) {
	position := len(interview.Questions)

	text, err := uc.gemini.GenerateText(ctx, prompt.Build(interview))
	if err != nil {
		logrus.WithError(err).WithField("interview_id", interview.ID).
			Warn("next question generation failed, appending placeholder")
		feedback := "Failed to generate feedback or next question due to an issue with the AI service. " +
			"Please continue with the next question or try again later."
		interview.Questions = append(interview.Questions, model.Question{
			InterviewID:  interview.ID,
			Position:     position,
			Kind:         model.QuestionKindText,
			QuestionText: prompt.DefaultNextQuestion,
			Feedback:     &feedback,
		})
		return
	}

	parsed := prompt.Parse(text)
	kind, questionText := prompt.ClassifyQuestion(parsed.NextQuestion)
	interview.Questions = append(interview.Questions, model.Question{
		InterviewID:  interview.ID,
		Position:     position,
		Kind:         kind,
		QuestionText: questionText,
	})
}

// Get returns an interview; only the owner may read it.
func (uc *InterviewUsecase) Get(userID, interviewID uuid.UUID) (*model.Interview, error) {
	return uc.findOwned(userID, interviewID)
}

func (uc *InterviewUsecase) List(userID uuid.UUID, page, pageSize int) ([]model.Interview, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return uc.interviews.ListByUser(userID, page, pageSize)
}

func (uc *InterviewUsecase) Delete(userID, interviewID uuid.UUID) error {
	interview, err := uc.findOwned(userID, interviewID)
	if err != nil {
		return err
	}
	if err := uc.interviews.Delete(interview); err != nil {
		return fmt.Errorf("delete interview: %w", err)
	}
	return nil
}

func (uc *InterviewUsecase) findOwned(userID, interviewID uuid.UUID) (*model.Interview, error) {
	interview, err := uc.interviews.FindByID(interviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load interview: %w", err)
	}
	if interview.UserID != userID {
		return nil, ErrNotOwner
	}
	return interview, nil
}

// keyedMutex serializes work per interview id. Entries are refcounted so the
// map does not grow with every interview ever touched.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id uuid.UUID) func() {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[uuid.UUID]*lockEntry)
	}
	entry, ok := k.entries[id]
	if !ok {
		entry = &lockEntry{}
		k.entries[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, id)
		}
		k.mu.Unlock()
	}
}
