package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/fadilmartias/interview-coach/internal/dto"
	"github.com/fadilmartias/interview-coach/internal/model"
	"github.com/fadilmartias/interview-coach/internal/prompt"
	"github.com/fadilmartias/interview-coach/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// scripted response for one GenerateText call.
type llmReply struct {
	text string
	err  error
}

type fakeGemini struct {
	replies []llmReply
	prompts []string
}

func (f *fakeGemini) GenerateText(_ context.Context, p string) (string, error) {
	f.prompts = append(f.prompts, p)
	if len(f.replies) == 0 {
		return "", fmt.Errorf("fake gemini: no scripted reply for call %d", len(f.prompts))
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply.text, reply.err
}

// fakeInterviewStore hands out copies so unpersisted mutations never leak
// back, mirroring a real database round-trip.
type fakeInterviewStore struct {
	interviews map[uuid.UUID]*model.Interview
	creates    int
	updates    int
}

func newFakeInterviewStore() *fakeInterviewStore {
	return &fakeInterviewStore{interviews: make(map[uuid.UUID]*model.Interview)}
}

func copyInterview(iv *model.Interview) *model.Interview {
	clone := *iv
	clone.Questions = append([]model.Question(nil), iv.Questions...)
	return &clone
}

func (f *fakeInterviewStore) Create(iv *model.Interview) error {
	if iv.ID == uuid.Nil {
		iv.ID = uuid.New()
	}
	f.creates++
	f.interviews[iv.ID] = copyInterview(iv)
	return nil
}

func (f *fakeInterviewStore) Update(iv *model.Interview) error {
	f.updates++
	f.interviews[iv.ID] = copyInterview(iv)
	return nil
}

func (f *fakeInterviewStore) FindByID(id uuid.UUID) (*model.Interview, error) {
	iv, ok := f.interviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyInterview(iv), nil
}

func (f *fakeInterviewStore) Delete(iv *model.Interview) error {
	delete(f.interviews, iv.ID)
	return nil
}

func (f *fakeInterviewStore) ListByUser(userID uuid.UUID, page, pageSize int) ([]model.Interview, int64, error) {
	var out []model.Interview
	for _, iv := range f.interviews {
		if iv.UserID == userID {
			out = append(out, *copyInterview(iv))
		}
	}
	return out, int64(len(out)), nil
}

func overloaded() error {
	return fmt.Errorf("%w: still failing after 5 attempts", service.ErrOverloaded)
}

func seedInterview(store *fakeInterviewStore, userID uuid.UUID, questions ...model.Question) uuid.UUID {
	iv := &model.Interview{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      model.RoleBackendDeveloper,
		Questions: questions,
	}
	store.interviews[iv.ID] = iv
	return iv.ID
}

func TestStart_CreatesInterviewWithFirstQuestion(t *testing.T) {
	store := newFakeInterviewStore()
	gemini := &fakeGemini{replies: []llmReply{
		{text: "Feedback: Welcome aboard!\nScore: N/A\nNext Question: Tell me about yourself."},
	}}
	uc := NewInterviewUsecase(store, gemini)
	userID := uuid.New()

	iv, err := uc.Start(context.Background(), userID, dto.StartInterviewRequest{
		Role:                model.RoleBackendDeveloper,
		ProgrammingLanguage: "Go",
	})

	require.NoError(t, err)
	require.Len(t, iv.Questions, 1)
	require.Equal(t, "Tell me about yourself.", iv.Questions[0].QuestionText)
	require.Equal(t, model.QuestionKindText, iv.Questions[0].Kind)
	require.Equal(t, "Welcome aboard!", *iv.Questions[0].Feedback)
	require.Nil(t, iv.Questions[0].Score)
	require.Equal(t, 1, store.creates)
}

func TestStart_CodingFirstQuestionGetsExplicitKind(t *testing.T) {
	store := newFakeInterviewStore()
	gemini := &fakeGemini{replies: []llmReply{
		{text: "Feedback: Welcome!\nScore: N/A\nNext Question: " + prompt.CodingMarker + " Reverse a string."},
	}}
	uc := NewInterviewUsecase(store, gemini)

	iv, err := uc.Start(context.Background(), uuid.New(), dto.StartInterviewRequest{
		Role:                model.RoleSoftwareEngineer,
		ProgrammingLanguage: "Go",
	})

	require.NoError(t, err)
	require.Equal(t, model.QuestionKindCoding, iv.Questions[0].Kind)
	// The marker is carried by the kind field, not the stored text.
	require.Equal(t, "Reverse a string.", iv.Questions[0].QuestionText)
}

func TestStart_ValidatesRoleAndLanguage(t *testing.T) {
	uc := NewInterviewUsecase(newFakeInterviewStore(), &fakeGemini{})

	_, err := uc.Start(context.Background(), uuid.New(), dto.StartInterviewRequest{Role: "astronaut"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = uc.Start(context.Background(), uuid.New(), dto.StartInterviewRequest{Role: model.RoleBackendDeveloper})
	require.ErrorIs(t, err, ErrValidation)

	// Product manager is the one non-technical role.
	gemini := &fakeGemini{replies: []llmReply{
		{text: "Feedback: Hi\nScore: N/A\nNext Question: Describe a product launch."},
	}}
	uc = NewInterviewUsecase(newFakeInterviewStore(), gemini)
	_, err = uc.Start(context.Background(), uuid.New(), dto.StartInterviewRequest{Role: model.RoleProductManager})
	require.NoError(t, err)
}

func TestStart_OverloadAbortsWithoutPersisting(t *testing.T) {
	store := newFakeInterviewStore()
	gemini := &fakeGemini{replies: []llmReply{{err: overloaded()}}}
	uc := NewInterviewUsecase(store, gemini)

	_, err := uc.Start(context.Background(), uuid.New(), dto.StartInterviewRequest{
		Role:                model.RoleBackendDeveloper,
		ProgrammingLanguage: "Go",
	})

	require.ErrorIs(t, err, service.ErrOverloaded)
	require.Equal(t, 0, store.creates)
}

func TestSubmitAnswer_TextFlowAppendsNextQuestion(t *testing.T) {
	store := newFakeInterviewStore()
	userID := uuid.New()
	id := seedInterview(store, userID, model.Question{
		Position: 0, Kind: model.QuestionKindText, QuestionText: "What is a goroutine?",
	})
	gemini := &fakeGemini{replies: []llmReply{
		{text: "Feedback: Good answer\nScore: 8\nAreas for Improvement: none"},
		{text: "Overall Feedback: Solid start."},
		{text: "Feedback: ok\nScore: 8\nNext Question: Explain channels."},
	}}
	uc := NewInterviewUsecase(store, gemini)

	iv, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		AnswerText:    "A lightweight thread managed by the runtime.",
	})

	require.NoError(t, err)
	require.Len(t, iv.Questions, 2)
	require.Equal(t, "Good answer", *iv.Questions[0].Feedback)
	require.Equal(t, 8, *iv.Questions[0].Score)
	require.Equal(t, "Explain channels.", iv.Questions[1].QuestionText)
	require.Nil(t, iv.Questions[1].Score)

	// Provisional overall result after one graded question.
	require.Equal(t, 8, *iv.OverallScore)
	require.Equal(t, "Solid start.", *iv.OverallFeedback)

	persisted, _ := store.FindByID(id)
	require.Len(t, persisted.Questions, 2)
}

func TestSubmitAnswer_OnlyLastIndexIsAnswerable(t *testing.T) {
	store := newFakeInterviewStore()
	userID := uuid.New()
	id := seedInterview(store, userID,
		model.Question{Position: 0, Kind: model.QuestionKindText, QuestionText: "Q1", Score: intPtr(7), Feedback: strPtr("ok")},
		model.Question{Position: 1, Kind: model.QuestionKindText, QuestionText: "Q2"},
	)
	uc := NewInterviewUsecase(store, &fakeGemini{})

	for _, idx := range []int{0, 2, -1} {
		_, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{
			QuestionIndex: intPtr(idx),
			AnswerText:    "answer",
		})
		require.ErrorIs(t, err, ErrInvalidIndex, "index %d", idx)
	}

	_, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{AnswerText: "answer"})
	require.ErrorIs(t, err, ErrValidation)

	require.Equal(t, 0, store.updates)
}

func TestSubmitAnswer_OwnershipEnforced(t *testing.T) {
	store := newFakeInterviewStore()
	id := seedInterview(store, uuid.New(), model.Question{Position: 0, Kind: model.QuestionKindText, QuestionText: "Q1"})
	uc := NewInterviewUsecase(store, &fakeGemini{})

	_, err := uc.SubmitAnswer(context.Background(), uuid.New(), id, dto.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		AnswerText:    "answer",
	})

	require.ErrorIs(t, err, ErrNotOwner)
}

func TestSubmitAnswer_UnknownInterview(t *testing.T) {
	uc := NewInterviewUsecase(newFakeInterviewStore(), &fakeGemini{})

	_, err := uc.SubmitAnswer(context.Background(), uuid.New(), uuid.New(), dto.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		AnswerText:    "answer",
	})

	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitAnswer_CodingRequiresCodeAndLanguage(t *testing.T) {
	store := newFakeInterviewStore()
	userID := uuid.New()
	id := seedInterview(store, userID, model.Question{
		Position: 0, Kind: model.QuestionKindCoding, QuestionText: "Reverse a string.",
	})
	gemini := &fakeGemini{}
	uc := NewInterviewUsecase(store, gemini)

	_, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		AnswerText:    "I would use a loop",
	})

	require.ErrorIs(t, err, ErrValidation)
	// Fail fast: no model call was wasted.
	require.Empty(t, gemini.prompts)
}

func TestSubmitAnswer_NonCodingRequiresSomeAnswer(t *testing.T) {
	store := newFakeInterviewStore()
	userID := uuid.New()
	id := seedInterview(store, userID, model.Question{
		Position: 0, Kind: model.QuestionKindText, QuestionText: "Q1",
	})
	uc := NewInterviewUsecase(store, &fakeGemini{})

	_, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{QuestionIndex: intPtr(0)})

	require.ErrorIs(t, err, ErrValidation)
}

func TestSubmitAnswer_CodingQuestionGradedOnTwoAxes(t *testing.T) {
	store := newFakeInterviewStore()
	userID := uuid.New()
	id := seedInterview(store, userID, model.Question{
		Position: 0, Kind: model.QuestionKindCoding, QuestionText: "Reverse a string.",
	})
	gemini := &fakeGemini{replies: []llmReply{
		{text: "Feedback: Understands the problem\nScore: 7"},
		{text: "Feedback: Code is clean\nScore: 9"},
		{text: "Overall Feedback: Nice."},
		{text: "Feedback: ok\nScore: 9\nNext Question: Explain slices."},
	}}
	uc := NewInterviewUsecase(store, gemini)

	iv, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{
		QuestionIndex:       intPtr(0),
		CodeAnswer:          "func reverse(s string) string { return s }",
		ProgrammingLanguage: "Go",
	})

	require.NoError(t, err)
	q := iv.Questions[0]
	require.Equal(t, "Understands the problem", *q.Feedback)
	require.Equal(t, 7, *q.Score)
	require.Equal(t, "Code is clean", *q.CodeFeedback)
	require.Equal(t, 9, *q.CodeScore)
	// Coding questions count their code score toward the overall mean.
	require.Equal(t, 9, *iv.OverallScore)
	require.Len(t, gemini.prompts, 4)
}

func TestSubmitAnswer_ResubmissionRejected(t *testing.T) {
	store := newFakeInterviewStore()
	userID := uuid.New()
	id := seedInterview(store, userID, model.Question{
		Position: 0, Kind: model.QuestionKindText, QuestionText: "Q1",
		AnswerText: strPtr("done"), Feedback: strPtr("fine"), Score: intPtr(6),
	})
	uc := NewInterviewUsecase(store, &fakeGemini{})

	_, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		AnswerText:    "again",
	})

	require.ErrorIs(t, err, ErrAlreadyAnswered)
	require.Equal(t, 0, store.updates)
}

func TestSubmitAnswer_EvaluationOverloadAbortsUnpersisted(t *testing.T) {
	store := newFakeInterviewStore()
	userID := uuid.New()
	id := seedInterview(store, userID, model.Question{
		Position: 0, Kind: model.QuestionKindText, QuestionText: "Q1",
	})
	gemini := &fakeGemini{replies: []llmReply{{err: overloaded()}}}
	uc := NewInterviewUsecase(store, gemini)

	_, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		AnswerText:    "answer",
	})

	require.ErrorIs(t, err, service.ErrOverloaded)
	require.Equal(t, 0, store.updates)

	persisted, _ := store.FindByID(id)
	require.Nil(t, persisted.Questions[0].AnswerText)
	require.Nil(t, persisted.Questions[0].Score)
}

func TestSubmitAnswer_NextQuestionFailureDegradesToPlaceholder(t *testing.T) {
	store := newFakeInterviewStore()
	userID := uuid.New()
	id := seedInterview(store, userID, model.Question{
		Position: 0, Kind: model.QuestionKindText, QuestionText: "Q1",
	})
	gemini := &fakeGemini{replies: []llmReply{
		{text: "Feedback: fine\nScore: 6"},
		{text: "Overall Feedback: ok"},
		{err: overloaded()},
	}}
	uc := NewInterviewUsecase(store, gemini)

	iv, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		AnswerText:    "answer",
	})

	// The submission itself must still succeed.
	require.NoError(t, err)
	require.Len(t, iv.Questions, 2)
	require.Equal(t, prompt.DefaultNextQuestion, iv.Questions[1].QuestionText)
	require.NotNil(t, iv.Questions[1].Feedback)

	persisted, _ := store.FindByID(id)
	require.Len(t, persisted.Questions, 2)
}

func TestSubmitAnswer_FifthAnswerCompletesInterview(t *testing.T) {
	store := newFakeInterviewStore()
	userID := uuid.New()
	id := seedInterview(store, userID,
		model.Question{Position: 0, Kind: model.QuestionKindText, QuestionText: "Q1", Feedback: strPtr("a"), Score: intPtr(8)},
		model.Question{Position: 1, Kind: model.QuestionKindText, QuestionText: "Q2", Feedback: strPtr("b"), Score: intPtr(6)},
		// Evaluation for Q3 produced no score; it counts as zero.
		model.Question{Position: 2, Kind: model.QuestionKindText, QuestionText: "Q3", Feedback: strPtr("c")},
		model.Question{Position: 3, Kind: model.QuestionKindText, QuestionText: "Q4", Feedback: strPtr("d"), Score: intPtr(9)},
		model.Question{Position: 4, Kind: model.QuestionKindText, QuestionText: "Q5"},
	)
	gemini := &fakeGemini{replies: []llmReply{
		{text: "Feedback: closing answer graded\nScore: 7"},
		{text: "Overall Feedback: Good interview overall."},
	}}
	uc := NewInterviewUsecase(store, gemini)

	iv, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{
		QuestionIndex: intPtr(4),
		AnswerText:    "final answer",
	})

	require.NoError(t, err)
	// round((8+6+0+9+7)/5) == 6 under the missing-as-zero policy.
	require.Equal(t, 6, *iv.OverallScore)
	require.Equal(t, "Good interview overall.", *iv.OverallFeedback)
	// No sixth question, ever.
	require.Len(t, iv.Questions, 5)
	require.True(t, iv.Complete())
	// Only the two calls: evaluation and overall feedback.
	require.Len(t, gemini.prompts, 2)

	// Re-submitting the finished last question is rejected.
	_, err = uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{
		QuestionIndex: intPtr(4),
		AnswerText:    "one more time",
	})
	require.ErrorIs(t, err, ErrAlreadyAnswered)
}

func TestSubmitAnswer_AudioAnswerEvaluatedFromContext(t *testing.T) {
	store := newFakeInterviewStore()
	userID := uuid.New()
	id := seedInterview(store, userID, model.Question{
		Position: 0, Kind: model.QuestionKindText, QuestionText: "Q1",
	})
	gemini := &fakeGemini{replies: []llmReply{
		{text: "Feedback: clear delivery\nScore: 7"},
		{text: "Overall Feedback: ok"},
		{text: "Feedback: ok\nScore: 7\nNext Question: Q2"},
	}}
	uc := NewInterviewUsecase(store, gemini)

	iv, err := uc.SubmitAnswer(context.Background(), userID, id, dto.SubmitAnswerRequest{
		QuestionIndex: intPtr(0),
		AudioAnswer:   "base64-audio-blob",
	})

	require.NoError(t, err)
	require.Equal(t, "base64-audio-blob", *iv.Questions[0].AudioAnswer)
	require.Equal(t, 7, *iv.Questions[0].Score)
	require.Contains(t, gemini.prompts[0], "audio recording")
}

func TestGetAndDelete_OwnershipEnforced(t *testing.T) {
	store := newFakeInterviewStore()
	owner := uuid.New()
	id := seedInterview(store, owner, model.Question{Position: 0, Kind: model.QuestionKindText, QuestionText: "Q1"})
	uc := NewInterviewUsecase(store, &fakeGemini{})

	_, err := uc.Get(uuid.New(), id)
	require.ErrorIs(t, err, ErrNotOwner)

	iv, err := uc.Get(owner, id)
	require.NoError(t, err)
	require.Equal(t, id, iv.ID)

	require.ErrorIs(t, uc.Delete(uuid.New(), id), ErrNotOwner)
	require.NoError(t, uc.Delete(owner, id))
	_, err = uc.Get(owner, id)
	require.ErrorIs(t, err, ErrNotFound)
}
