package validator

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/classroom-service/internal/models"
)

func intPtr(v int) *int { return &v }

func fields(errs ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidate_UsesJSONNames(t *testing.T) {
	v := New()

	err := v.Validate(&ExamCreateRequest{Type: "quiz"})
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, fields(verrs), "title")
	assert.Contains(t, fields(verrs), "type")

	assert.NoError(t, v.Validate(&ExamCreateRequest{Title: "Đề thi"}))
}

func TestValidateExamCreate_QuestionRules(t *testing.T) {
	bv := New().GetBusinessValidator()
	now := time.Now()
	past := now.Add(-time.Hour)

	req := &ExamCreateRequest{
		Title:    "Kiểm tra",
		Type:     models.ExamTypeMultipleChoice,
		Deadline: &past,
		Questions: []QuestionRequest{
			{Question: "2+2", Type: models.QuestionMultipleChoice, Answers: []string{"3", "4"}, Correct: intPtr(1)},
			{Question: "bad", Type: models.QuestionMultipleChoice, Answers: []string{"only"}, Correct: intPtr(3)},
			{Question: "essay", Type: models.QuestionEssay},
		},
	}

	errs := bv.ValidateExamCreate(req, now)
	got := fields(errs)
	assert.Contains(t, got, "questions[1].answers")
	assert.Contains(t, got, "questions[1].correct")
	assert.Contains(t, got, "deadline")
	assert.Contains(t, got, "questions[2].type")
	assert.NotContains(t, got, "questions[0].correct")
}

func TestValidateExamCreate_AcceptsClassNameString(t *testing.T) {
	var req ExamCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","className":"10A1, 10A2"}`), &req))
	assert.Equal(t, models.ClassNames{"10A1", "10A2"}, req.ClassName)
	assert.Empty(t, New().GetBusinessValidator().ValidateExamCreate(&req, time.Now()))
}

func TestValidateStatusTransition(t *testing.T) {
	bv := New().GetBusinessValidator()

	assert.Empty(t, bv.ValidateStatusTransition(models.ExamDraft, models.ExamPublished, 2))
	assert.Len(t, bv.ValidateStatusTransition(models.ExamDraft, models.ExamPublished, 0), 1)
	assert.Len(t, bv.ValidateStatusTransition(models.ExamCompleted, models.ExamPublished, 2), 1)
}

func TestQuestionRequest_ToModelDropsEssayKey(t *testing.T) {
	q := QuestionRequest{Question: "Viết đoạn văn", Type: models.QuestionEssay, Answers: []string{"x"}, Correct: intPtr(0)}.ToModel()
	assert.Nil(t, q.Correct)
	assert.Nil(t, q.Answers)
}
