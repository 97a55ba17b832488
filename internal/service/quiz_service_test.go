package service

import (
	"fmt"
	"strconv"
	"testing"

	"elearn_backend/internal/model"
	"elearn_backend/internal/repository"
	"elearn_backend/internal/util"
	"elearn_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Log = zap.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.Quiz{},
		&model.QuizQuestion{},
		&model.QuizReward{},
		&model.QuizAttempt{},
		&model.LearnerProfile{},
		&model.Badge{},
		&model.UserBadge{},
	))
	return db
}

type quizTestEnv struct {
	db      *gorm.DB
	svc     *QuizService
	reward  *RewardService
	gamRepo *repository.GamificationRepository
	learner *model.User
	course  *model.Course
	quiz    *model.Quiz
}

// newQuizEnv 构造一个已报名学习者 + 四题测验（及格线70）的测试环境
func newQuizEnv(t *testing.T) *quizTestEnv {
	t.Helper()
	db := newTestDB(t)

	quizRepo := repository.NewQuizRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	gamRepo := repository.NewGamificationRepository(db)

	reward := NewRewardService(gamRepo)
	svc := NewQuizService(quizRepo, enrollmentRepo, courseRepo, reward)

	learner := &model.User{Name: "learner", Email: "learner@test.com", Password: "x", Role: model.Learner}
	require.NoError(t, db.Create(learner).Error)

	course := &model.Course{Title: "Go 101", InstructorID: 99, IsPublished: true}
	require.NoError(t, db.Create(course).Error)

	require.NoError(t, db.Create(&model.Enrollment{
		CourseID: course.ID,
		UserID:   learner.ID,
		Status:   model.EnrollmentActive,
	}).Error)

	quiz := &model.Quiz{CourseID: course.ID, Title: "Basics", PassingScore: 70}
	require.NoError(t, db.Create(quiz).Error)

	questions := []model.QuizQuestion{
		{QuizID: quiz.ID, QuestionType: model.MultipleChoice, Content: "q1", Answer: "A", Points: 1, Order: 1},
		{QuizID: quiz.ID, QuestionType: model.MultipleChoice, Content: "q2", Answer: "B", Points: 1, Order: 2},
		{QuizID: quiz.ID, QuestionType: model.TrueFalse, Content: "q3", Answer: "true", Points: 1, Order: 3},
		{QuizID: quiz.ID, QuestionType: model.ShortAnswer, Content: "q4", Answer: "Paris", Points: 1, Order: 4},
	}
	for i := range questions {
		require.NoError(t, db.Create(&questions[i]).Error)
	}

	rewards := []model.QuizReward{
		{QuizID: quiz.ID, AttemptNumber: 1, Points: 15},
		{QuizID: quiz.ID, AttemptNumber: 2, Points: 10},
		{QuizID: quiz.ID, AttemptNumber: 3, Points: 5},
		{QuizID: quiz.ID, AttemptNumber: 4, Points: 2},
	}
	for i := range rewards {
		require.NoError(t, db.Create(&rewards[i]).Error)
	}

	badges := []model.Badge{
		{Name: "Starter", MinPoints: 10},
		{Name: "Climber", MinPoints: 50},
		{Name: "Master", MinPoints: 100},
	}
	for i := range badges {
		require.NoError(t, db.Create(&badges[i]).Error)
	}

	return &quizTestEnv{
		db:      db,
		svc:     svc,
		reward:  reward,
		gamRepo: gamRepo,
		learner: learner,
		course:  course,
		quiz:    quiz,
	}
}

func (e *quizTestEnv) questionIDs(t *testing.T) []uint {
	t.Helper()
	var qs []model.QuizQuestion
	require.NoError(t, e.db.Where("quiz_id = ?", e.quiz.ID).Order("`order` asc").Find(&qs).Error)
	ids := make([]uint, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}

func key(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestSubmitAttempt_PassAwardsRewardAndBadge(t *testing.T) {
	env := newQuizEnv(t)
	ids := env.questionIDs(t)

	// 3/4 正确 → 75 分，通过，第一次尝试奖励 15 分
	answers := map[string]interface{}{
		key(ids[0]): "A",
		key(ids[1]): "B",
		key(ids[2]): "true",
		key(ids[3]): "wrong",
	}

	result, err := env.svc.SubmitAttempt(env.learner.ID, env.quiz.ID, answers)
	require.NoError(t, err)

	assert.Equal(t, 75, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, 15, result.PointsEarned)
	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 4, result.TotalQuestions)
	assert.Equal(t, 1, result.Attempt.AttemptNumber)
	assert.Equal(t, result.Attempt.StartedAt, result.Attempt.CompletedAt)

	require.Len(t, result.QuestionResults, 4)
	assert.True(t, result.QuestionResults[key(ids[0])].Correct)
	assert.False(t, result.QuestionResults[key(ids[3])].Correct)
	assert.Equal(t, "Paris", result.QuestionResults[key(ids[3])].CorrectAnswer)

	profile, err := env.gamRepo.GetOrCreateProfile(env.learner.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, profile.TotalPoints)

	userBadges, err := env.gamRepo.ListUserBadges(env.learner.ID)
	require.NoError(t, err)
	require.Len(t, userBadges, 1)
	assert.Equal(t, "Starter", userBadges[0].Badge.Name)
}

func TestSubmitAttempt_FailEarnsNothing(t *testing.T) {
	env := newQuizEnv(t)
	ids := env.questionIDs(t)

	answers := map[string]interface{}{
		key(ids[0]): "A",
		key(ids[1]): "B",
	}

	result, err := env.svc.SubmitAttempt(env.learner.ID, env.quiz.ID, answers)
	require.NoError(t, err)

	assert.Equal(t, 50, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, 0, result.PointsEarned)

	var profiles int64
	require.NoError(t, env.db.Model(&model.LearnerProfile{}).Count(&profiles).Error)
	assert.Zero(t, profiles)

	var badges int64
	require.NoError(t, env.db.Model(&model.UserBadge{}).Count(&badges).Error)
	assert.Zero(t, badges)
}

func TestSubmitAttempt_EmptyAnswersAllIncorrect(t *testing.T) {
	env := newQuizEnv(t)

	result, err := env.svc.SubmitAttempt(env.learner.ID, env.quiz.ID, map[string]interface{}{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, 0, result.CorrectCount)
	for _, qr := range result.QuestionResults {
		assert.False(t, qr.Correct)
	}
}

func TestSubmitAttempt_NilAnswersRejected(t *testing.T) {
	env := newQuizEnv(t)

	_, err := env.svc.SubmitAttempt(env.learner.ID, env.quiz.ID, nil)
	assert.ErrorIs(t, err, util.ErrInvalidAnswers)
}

func TestSubmitAttempt_QuizNotFound(t *testing.T) {
	env := newQuizEnv(t)

	_, err := env.svc.SubmitAttempt(env.learner.ID, 9999, map[string]interface{}{})
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestSubmitAttempt_NotEnrolled(t *testing.T) {
	env := newQuizEnv(t)

	stranger := &model.User{Name: "other", Email: "other@test.com", Password: "x", Role: model.Learner}
	require.NoError(t, env.db.Create(stranger).Error)

	_, err := env.svc.SubmitAttempt(stranger.ID, env.quiz.ID, map[string]interface{}{})
	assert.ErrorIs(t, err, util.ErrNotEnrolled)

	var attempts int64
	require.NoError(t, env.db.Model(&model.QuizAttempt{}).Count(&attempts).Error)
	assert.Zero(t, attempts)
}

func TestSubmitAttempt_DroppedEnrollmentRejected(t *testing.T) {
	env := newQuizEnv(t)

	require.NoError(t, env.db.Model(&model.Enrollment{}).
		Where("course_id = ? AND user_id = ?", env.course.ID, env.learner.ID).
		Update("status", model.EnrollmentDropped).Error)

	_, err := env.svc.SubmitAttempt(env.learner.ID, env.quiz.ID, map[string]interface{}{})
	assert.ErrorIs(t, err, util.ErrNotEnrolled)
}

func TestSubmitAttempt_NoQuestions(t *testing.T) {
	env := newQuizEnv(t)

	empty := &model.Quiz{CourseID: env.course.ID, Title: "empty", PassingScore: 70}
	require.NoError(t, env.db.Create(empty).Error)

	_, err := env.svc.SubmitAttempt(env.learner.ID, empty.ID, map[string]interface{}{})
	assert.ErrorIs(t, err, util.ErrQuizNoQuestions)

	var attempts int64
	require.NoError(t, env.db.Model(&model.QuizAttempt{}).Count(&attempts).Error)
	assert.Zero(t, attempts)
}

func TestSubmitAttempt_AnswerNormalization(t *testing.T) {
	env := newQuizEnv(t)
	ids := env.questionIDs(t)

	// 大小写、首尾空白、布尔与字符串形式均应匹配
	answers := map[string]interface{}{
		key(ids[0]): " a ",
		key(ids[1]): "b",
		key(ids[2]): true,
		key(ids[3]): "  PARIS ",
	}

	result, err := env.svc.SubmitAttempt(env.learner.ID, env.quiz.ID, answers)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, 4, result.CorrectCount)
}

func TestSubmitAttempt_NumericAnswerCoercion(t *testing.T) {
	env := newQuizEnv(t)

	quiz := &model.Quiz{CourseID: env.course.ID, Title: "math", PassingScore: 70}
	require.NoError(t, env.db.Create(quiz).Error)
	q := &model.QuizQuestion{QuizID: quiz.ID, QuestionType: model.ShortAnswer, Content: "2+2", Answer: "4", Points: 1}
	require.NoError(t, env.db.Create(q).Error)

	// JSON 数字提交值按字面形式比较
	result, err := env.svc.SubmitAttempt(env.learner.ID, quiz.ID, map[string]interface{}{
		key(q.ID): float64(4),
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
}

func TestSubmitAttempt_AttemptNumberIncrements(t *testing.T) {
	env := newQuizEnv(t)
	ids := env.questionIDs(t)

	answers := map[string]interface{}{key(ids[0]): "A"}
	for want := 1; want <= 3; want++ {
		result, err := env.svc.SubmitAttempt(env.learner.ID, env.quiz.ID, answers)
		require.NoError(t, err)
		assert.Equal(t, want, result.Attempt.AttemptNumber)
	}
}

func TestSubmitAttempt_RewardClampedAtHighestConfigured(t *testing.T) {
	env := newQuizEnv(t)
	ids := env.questionIDs(t)

	allCorrect := map[string]interface{}{
		key(ids[0]): "A",
		key(ids[1]): "B",
		key(ids[2]): "true",
		key(ids[3]): "Paris",
	}

	// 奖励表只配置到第 4 次；第 5 次取第 4 次的奖励
	var last *AttemptResult
	for i := 0; i < 5; i++ {
		result, err := env.svc.SubmitAttempt(env.learner.ID, env.quiz.ID, allCorrect)
		require.NoError(t, err)
		last = result
	}

	assert.Equal(t, 5, last.Attempt.AttemptNumber)
	assert.Equal(t, 2, last.PointsEarned)
}

func TestSubmitAttempt_NoRewardConfigured(t *testing.T) {
	env := newQuizEnv(t)

	quiz := &model.Quiz{CourseID: env.course.ID, Title: "unrewarded", PassingScore: 70}
	require.NoError(t, env.db.Create(quiz).Error)
	q := &model.QuizQuestion{QuizID: quiz.ID, QuestionType: model.TrueFalse, Content: "q", Answer: "true", Points: 1}
	require.NoError(t, env.db.Create(q).Error)

	result, err := env.svc.SubmitAttempt(env.learner.ID, quiz.ID, map[string]interface{}{
		key(q.ID): "true",
	})
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.Equal(t, 0, result.PointsEarned)
}

func TestSubmitAttempt_ScoreRounding(t *testing.T) {
	env := newQuizEnv(t)

	quiz := &model.Quiz{CourseID: env.course.ID, Title: "thirds", PassingScore: 70}
	require.NoError(t, env.db.Create(quiz).Error)

	var qs []model.QuizQuestion
	for i := 0; i < 3; i++ {
		q := model.QuizQuestion{QuizID: quiz.ID, QuestionType: model.TrueFalse, Content: fmt.Sprintf("q%d", i), Answer: "true", Points: 1}
		require.NoError(t, env.db.Create(&q).Error)
		qs = append(qs, q)
	}

	// 2/3 → 66.67 → 四舍五入 67，不及格
	result, err := env.svc.SubmitAttempt(env.learner.ID, quiz.ID, map[string]interface{}{
		key(qs[0].ID): "true",
		key(qs[1].ID): "true",
		key(qs[2].ID): "false",
	})
	require.NoError(t, err)

	assert.Equal(t, 67, result.Score)
	assert.False(t, result.Passed)
}

func TestSubmitAttempt_DefaultPassingScore(t *testing.T) {
	env := newQuizEnv(t)

	// passing_score 未设置时按 70 处理
	quiz := &model.Quiz{CourseID: env.course.ID, Title: "default-pass"}
	require.NoError(t, env.db.Create(quiz).Error)
	require.NoError(t, env.db.Model(quiz).Update("passing_score", 0).Error)

	var qs []model.QuizQuestion
	for i := 0; i < 4; i++ {
		q := model.QuizQuestion{QuizID: quiz.ID, QuestionType: model.TrueFalse, Content: fmt.Sprintf("q%d", i), Answer: "true", Points: 1}
		require.NoError(t, env.db.Create(&q).Error)
		qs = append(qs, q)
	}

	result, err := env.svc.SubmitAttempt(env.learner.ID, quiz.ID, map[string]interface{}{
		key(qs[0].ID): "true",
		key(qs[1].ID): "true",
		key(qs[2].ID): "true",
	})
	require.NoError(t, err)

	assert.Equal(t, 75, result.Score)
	assert.True(t, result.Passed)
}

func TestGetQuizForLearner_StripsAnswers(t *testing.T) {
	env := newQuizEnv(t)

	view, err := env.svc.GetQuizForLearner(env.learner.ID, env.quiz.ID)
	require.NoError(t, err)

	require.Len(t, view.Questions, 4)
	assert.Equal(t, "q1", view.Questions[0].Content)
}
