package services

import (
	"sort"
	"strings"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

// ScoreResult is the outcome of auto-scoring a set of answers against an exam.
type ScoreResult struct {
	Answers     []models.SubmissionAnswer
	RawMcPoints float64
	McScore     float64
	EssayCount  int
}

// indexAnswers keys answers by question index. Later entries win and indices
// outside the exam are dropped.
func indexAnswers(questionCount int, answers []AnswerRequest) map[int]AnswerRequest {
	byIndex := make(map[int]AnswerRequest, len(answers))
	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= questionCount {
			continue
		}
		byIndex[a.QuestionIndex] = a
	}
	return byIndex
}

// ScoreAnswers scores multiple-choice answers and scales the raw points to
// totalPoints. Essay answers are stored ungraded and counted.
func ScoreAnswers(questions []models.Question, totalPoints float64, answers []AnswerRequest) ScoreResult {
	byIndex := indexAnswers(len(questions), answers)

	indices := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var result ScoreResult
	result.Answers = make([]models.SubmissionAnswer, 0, len(indices))
	for _, i := range indices {
		q := questions[i]
		a := byIndex[i]

		stored := models.SubmissionAnswer{QuestionIndex: i}
		if q.IsEssay() {
			stored.EssayAnswer = a.EssayAnswer
			if strings.TrimSpace(a.EssayAnswer) != "" {
				result.EssayCount++
			}
		} else {
			if a.Answer != nil {
				selected := *a.Answer
				stored.Answer = &selected
			}
			if q.IsCorrect(a.Answer) {
				result.RawMcPoints += q.Weight()
			}
		}
		result.Answers = append(result.Answers, stored)
	}

	var questionPoints float64
	for _, q := range questions {
		questionPoints += q.Weight()
	}
	if questionPoints > 0 {
		result.McScore = utils.Round2(result.RawMcPoints / questionPoints * totalPoints)
	}
	return result
}

// QuestionMaxScore is the share of totalPoints a question is worth.
func QuestionMaxScore(questions []models.Question, index int, totalPoints float64) float64 {
	var questionPoints float64
	for _, q := range questions {
		questionPoints += q.Weight()
	}
	if questionPoints == 0 || index < 0 || index >= len(questions) {
		return 0
	}
	return utils.Round2(questions[index].Weight() / questionPoints * totalPoints)
}

// BuildResults lists every question with the stored answer next to it.
// withKey controls whether correct answers and explanations are revealed.
func BuildResults(questions []models.Question, totalPoints float64, stored []models.SubmissionAnswer, withKey bool) []QuestionResult {
	byIndex := make(map[int]models.SubmissionAnswer, len(stored))
	for _, a := range stored {
		byIndex[a.QuestionIndex] = a
	}

	results := make([]QuestionResult, len(questions))
	for i, q := range questions {
		r := QuestionResult{
			Index:    i,
			Question: q.Question,
			Type:     q.Type,
			Answers:  q.Answers,
			Points:   q.Weight(),
			MaxScore: QuestionMaxScore(questions, i, totalPoints),
		}
		a, answered := byIndex[i]
		if q.IsEssay() {
			if answered {
				r.StudentEssay = a.EssayAnswer
				r.EssayScore = a.EssayScore
				r.Feedback = a.Feedback
				r.Graded = a.Graded
			}
		} else {
			if answered {
				r.StudentAnswer = a.Answer
			}
			if withKey {
				r.Correct = q.Correct
				correct := q.IsCorrect(r.StudentAnswer)
				r.IsCorrect = &correct
			}
		}
		if withKey {
			r.Explanation = q.Explanation
		}
		results[i] = r
	}
	return results
}

// studentQuestions strips answer keys and rubrics.
func studentQuestions(questions []models.Question, totalPoints float64) []StudentQuestion {
	out := make([]StudentQuestion, len(questions))
	for i, q := range questions {
		out[i] = StudentQuestion{
			Index:    i,
			Question: q.Question,
			Type:     q.Type,
			Answers:  q.Answers,
			Points:   q.Weight(),
			MaxScore: QuestionMaxScore(questions, i, totalPoints),
		}
	}
	return out
}
