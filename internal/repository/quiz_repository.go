package repository

import (
	"database/sql"

	"elearn_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.First(&quiz, id).Error
	return &quiz, err
}

func (r *QuizRepository) ListByCourse(courseID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("course_id = ?", courseID).Order("created_at asc").Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) ListByLesson(lessonID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("lesson_id = ?", lessonID).Order("created_at asc").Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Quiz{}, id).Error
}

// Question related methods

func (r *QuizRepository) CreateQuestion(question *model.QuizQuestion) error {
	return r.DB.Create(question).Error
}

func (r *QuizRepository) FindQuestionByID(id uint) (*model.QuizQuestion, error) {
	var q model.QuizQuestion
	err := r.DB.First(&q, id).Error
	return &q, err
}

// ListQuestions 按出题顺序返回，供判分结果按原顺序输出
func (r *QuizRepository) ListQuestions(quizID uint) ([]model.QuizQuestion, error) {
	var qs []model.QuizQuestion
	err := r.DB.Where("quiz_id = ?", quizID).
		Order("`order` asc, created_at asc").
		Find(&qs).Error
	return qs, err
}

func (r *QuizRepository) UpdateQuestion(question *model.QuizQuestion) error {
	return r.DB.Save(question).Error
}

func (r *QuizRepository) DeleteQuestion(id uint) error {
	return r.DB.Delete(&model.QuizQuestion{}, id).Error
}

// Reward related methods

// UpsertReward (quiz_id, attempt_number) 唯一，重复配置时覆盖积分
func (r *QuizRepository) UpsertReward(reward *model.QuizReward) error {
	var existing model.QuizReward
	err := r.DB.Where("quiz_id = ? AND attempt_number = ?", reward.QuizID, reward.AttemptNumber).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.DB.Create(reward).Error
	}
	if err != nil {
		return err
	}
	existing.Points = reward.Points
	if err := r.DB.Save(&existing).Error; err != nil {
		return err
	}
	*reward = existing
	return nil
}

func (r *QuizRepository) FindReward(quizID uint, attemptNumber int) (*model.QuizReward, error) {
	var reward model.QuizReward
	err := r.DB.Where("quiz_id = ? AND attempt_number = ?", quizID, attemptNumber).
		First(&reward).Error
	return &reward, err
}

// MaxRewardAttempt 返回该测验奖励表中配置的最大 attempt_number，没有配置时返回 0
func (r *QuizRepository) MaxRewardAttempt(quizID uint) (int, error) {
	var max sql.NullInt64
	err := r.DB.Model(&model.QuizReward{}).
		Where("quiz_id = ?", quizID).
		Select("MAX(attempt_number)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

func (r *QuizRepository) ListRewards(quizID uint) ([]model.QuizReward, error) {
	var rewards []model.QuizReward
	err := r.DB.Where("quiz_id = ?", quizID).Order("attempt_number asc").Find(&rewards).Error
	return rewards, err
}

// Attempt related methods

func (r *QuizRepository) CreateAttempt(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

// CountAttempts 提交时实时读取该 (learner, quiz) 的历史次数
func (r *QuizRepository) CountAttempts(quizID, userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Count(&count).Error
	return count, err
}

func (r *QuizRepository) ListAttempts(quizID, userID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("attempt_number asc").
		Find(&attempts).Error
	return attempts, err
}

func (r *QuizRepository) ListAttemptsByUser(userID uint, page, limit int) ([]model.QuizAttempt, int64, error) {
	var attempts []model.QuizAttempt
	var total int64

	query := r.DB.Model(&model.QuizAttempt{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&attempts).Error
	return attempts, total, err
}
