package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"elearn_backend/internal/model"
	"elearn_backend/internal/repository"
	"elearn_backend/internal/util"
	"elearn_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuizService struct {
	QuizRepo       *repository.QuizRepository
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	Reward         *RewardService
}

func NewQuizService(
	quizRepo *repository.QuizRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	reward *RewardService,
) *QuizService {
	return &QuizService{
		QuizRepo:       quizRepo,
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		Reward:         reward,
	}
}

const defaultPassingScore = 70

type QuizRequest struct {
	CourseID     uint   `json:"courseId" binding:"required"`
	LessonID     uint   `json:"lessonId"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	PassingScore int    `json:"passingScore"`
	TimeLimit    int    `json:"timeLimit"`
}

type QuizQuestionRequest struct {
	QuestionType model.QuestionType `json:"questionType" binding:"required"`
	Content      string             `json:"content" binding:"required"`
	Options      json.RawMessage    `json:"options"`
	Answer       string             `json:"answer" binding:"required"`
	Points       int                `json:"points"`
	Explanation  string             `json:"explanation"`
	Order        int                `json:"order"`
}

type QuizRewardRequest struct {
	AttemptNumber int `json:"attemptNumber" binding:"required"`
	Points        int `json:"points" binding:"required"`
}

func (s *QuizService) CreateQuiz(req QuizRequest) (*model.Quiz, error) {
	if _, err := s.CourseRepo.FindByID(req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	if req.PassingScore <= 0 {
		req.PassingScore = defaultPassingScore
	}

	quiz := &model.Quiz{
		CourseID:     req.CourseID,
		LessonID:     req.LessonID,
		Title:        req.Title,
		Description:  req.Description,
		PassingScore: req.PassingScore,
		TimeLimit:    req.TimeLimit,
	}
	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) GetQuiz(id uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	return quiz, err
}

func (s *QuizService) ListByCourse(courseID uint) ([]model.Quiz, error) {
	return s.QuizRepo.ListByCourse(courseID)
}

func (s *QuizService) ListByLesson(lessonID uint) ([]model.Quiz, error) {
	return s.QuizRepo.ListByLesson(lessonID)
}

func (s *QuizService) UpdateQuiz(id uint, req QuizRequest) (*model.Quiz, error) {
	quiz, err := s.GetQuiz(id)
	if err != nil {
		return nil, err
	}

	if req.PassingScore <= 0 {
		req.PassingScore = defaultPassingScore
	}

	quiz.LessonID = req.LessonID
	quiz.Title = req.Title
	quiz.Description = req.Description
	quiz.PassingScore = req.PassingScore
	quiz.TimeLimit = req.TimeLimit
	if err := s.QuizRepo.Update(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) DeleteQuiz(id uint) error {
	return s.QuizRepo.Delete(id)
}

func (s *QuizService) AddQuestion(quizID uint, req QuizQuestionRequest) (*model.QuizQuestion, error) {
	if _, err := s.GetQuiz(quizID); err != nil {
		return nil, err
	}

	if req.Points <= 0 {
		req.Points = 1
	}

	q := &model.QuizQuestion{
		QuizID:       quizID,
		QuestionType: req.QuestionType,
		Content:      req.Content,
		Options:      req.Options,
		Answer:       req.Answer,
		Points:       req.Points,
		Explanation:  req.Explanation,
		Order:        req.Order,
	}
	if err := s.QuizRepo.CreateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuizService) UpdateQuestion(id uint, req QuizQuestionRequest) (*model.QuizQuestion, error) {
	q, err := s.QuizRepo.FindQuestionByID(id)
	if err != nil {
		return nil, err
	}

	if req.Points <= 0 {
		req.Points = 1
	}

	q.QuestionType = req.QuestionType
	q.Content = req.Content
	q.Options = req.Options
	q.Answer = req.Answer
	q.Points = req.Points
	q.Explanation = req.Explanation
	q.Order = req.Order
	if err := s.QuizRepo.UpdateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuizService) DeleteQuestion(id uint) error {
	return s.QuizRepo.DeleteQuestion(id)
}

func (s *QuizService) SetReward(quizID uint, req QuizRewardRequest) (*model.QuizReward, error) {
	if _, err := s.GetQuiz(quizID); err != nil {
		return nil, err
	}

	reward := &model.QuizReward{
		QuizID:        quizID,
		AttemptNumber: req.AttemptNumber,
		Points:        req.Points,
	}
	if err := s.QuizRepo.UpsertReward(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

func (s *QuizService) ListRewards(quizID uint) ([]model.QuizReward, error) {
	return s.QuizRepo.ListRewards(quizID)
}

// LearnerQuestion 学生端题目视图，不含标准答案与解析
type LearnerQuestion struct {
	ID           uint               `json:"id"`
	QuestionType model.QuestionType `json:"questionType"`
	Content      string             `json:"content"`
	Options      json.RawMessage    `json:"options,omitempty"`
	Points       int                `json:"points"`
	Order        int                `json:"order"`
}

type LearnerQuizView struct {
	Quiz      *model.Quiz       `json:"quiz"`
	Questions []LearnerQuestion `json:"questions"`
}

func (s *QuizService) GetQuizForLearner(userID, quizID uint) (*LearnerQuizView, error) {
	quiz, err := s.GetQuiz(quizID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.EnrollmentRepo.HasActiveEnrollment(quiz.CourseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, util.ErrNotEnrolled
	}

	questions, err := s.QuizRepo.ListQuestions(quizID)
	if err != nil {
		return nil, err
	}

	view := &LearnerQuizView{Quiz: quiz, Questions: make([]LearnerQuestion, len(questions))}
	for i, q := range questions {
		view.Questions[i] = LearnerQuestion{
			ID:           q.ID,
			QuestionType: q.QuestionType,
			Content:      q.Content,
			Options:      q.Options,
			Points:       q.Points,
			Order:        q.Order,
		}
	}
	return view, nil
}

func (s *QuizService) ListMyAttempts(userID, quizID uint) ([]model.QuizAttempt, error) {
	return s.QuizRepo.ListAttempts(quizID, userID)
}

// AttemptHistory 跨测验的个人提交历史，按提交时间倒序分页
func (s *QuizService) AttemptHistory(userID uint, page, limit int) ([]model.QuizAttempt, int64, error) {
	return s.QuizRepo.ListAttemptsByUser(userID, page, limit)
}

type QuestionResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
}

type AttemptResult struct {
	Attempt         *model.QuizAttempt        `json:"attempt"`
	Score           int                       `json:"score"`
	Passed          bool                      `json:"passed"`
	PointsEarned    int                       `json:"pointsEarned"`
	CorrectCount    int                       `json:"correctCount"`
	TotalQuestions  int                       `json:"totalQuestions"`
	QuestionResults map[string]QuestionResult `json:"questionResults"`
}

// normalizeAnswer 将提交值与标准答案统一为 trim + 小写后的字符串再比较，
// 数字和布尔提交值按其字面形式转为字符串（"4"、"true"）
func normalizeAnswer(v interface{}) string {
	var s string
	switch val := v.(type) {
	case nil:
		s = ""
	case string:
		s = val
	case bool:
		s = strconv.FormatBool(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		s = val.String()
	default:
		s = fmt.Sprintf("%v", val)
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// SubmitAttempt 判分并落库一次测验提交。
// 前置校验全部通过后才会产生任何写入；奖励与徽章更新在插入成绩之后
// 尽力执行，失败不影响已写入的成绩记录与响应。
func (s *QuizService) SubmitAttempt(userID, quizID uint, answers map[string]interface{}) (*AttemptResult, error) {
	if answers == nil {
		return nil, util.ErrInvalidAnswers
	}

	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	enrolled, err := s.EnrollmentRepo.HasActiveEnrollment(quiz.CourseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, util.ErrNotEnrolled
	}

	questions, err := s.QuizRepo.ListQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, util.ErrQuizNoQuestions
	}

	// 判分：缺答视为答错，不报错
	correctCount := 0
	questionResults := make(map[string]QuestionResult, len(questions))
	for _, q := range questions {
		key := strconv.FormatUint(uint64(q.ID), 10)
		submitted, ok := answers[key]
		correct := ok && normalizeAnswer(submitted) == normalizeAnswer(q.Answer)
		if correct {
			correctCount++
		}
		questionResults[key] = QuestionResult{
			Correct:       correct,
			CorrectAnswer: q.Answer,
		}
	}

	totalQuestions := len(questions)
	score := int(math.Round(float64(correctCount) / float64(totalQuestions) * 100))

	passingScore := quiz.PassingScore
	if passingScore <= 0 {
		passingScore = defaultPassingScore
	}
	passed := score >= passingScore

	priorAttempts, err := s.QuizRepo.CountAttempts(quizID, userID)
	if err != nil {
		return nil, err
	}
	attemptNumber := int(priorAttempts) + 1

	// 奖励查找：超出配置上限的次数取配置的最高次数（上限来自数据，而非固定常量）
	rewardPoints := 0
	maxAttempt, err := s.QuizRepo.MaxRewardAttempt(quizID)
	if err != nil {
		return nil, err
	}
	if maxAttempt > 0 {
		lookup := attemptNumber
		if lookup > maxAttempt {
			lookup = maxAttempt
		}
		reward, err := s.QuizRepo.FindReward(quizID, lookup)
		if err == nil {
			rewardPoints = reward.Points
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	pointsEarned := 0
	if passed {
		pointsEarned = rewardPoints
	}

	answersBlob, err := json.Marshal(answers)
	if err != nil {
		return nil, util.ErrInvalidAnswers
	}

	now := time.Now()
	attempt := &model.QuizAttempt{
		QuizID:        quizID,
		UserID:        userID,
		Score:         score,
		Passed:        passed,
		AttemptNumber: attemptNumber,
		PointsEarned:  pointsEarned,
		Answers:       answersBlob,
		StartedAt:     now,
		CompletedAt:   now,
	}
	if err := s.QuizRepo.CreateAttempt(attempt); err != nil {
		return nil, err
	}

	// 成绩记录是权威结果，积分与徽章为次级副作用：失败只记日志
	if passed && pointsEarned > 0 {
		if err := s.Reward.ApplyReward(userID, pointsEarned); err != nil {
			logger.Log.Error("apply quiz reward failed",
				zap.Uint("userId", userID),
				zap.Uint("quizId", quizID),
				zap.Int("points", pointsEarned),
				zap.Error(err))
		}
	}

	return &AttemptResult{
		Attempt:         attempt,
		Score:           score,
		Passed:          passed,
		PointsEarned:    pointsEarned,
		CorrectCount:    correctCount,
		TotalQuestions:  totalQuestions,
		QuestionResults: questionResults,
	}, nil
}
