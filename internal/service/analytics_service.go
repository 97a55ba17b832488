package service

import (
	"time"

	"elearn_backend/internal/model"

	"gorm.io/gorm"
)

// AnalyticsService 管理端统计聚合，只读
type AnalyticsService struct {
	DB *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{DB: db}
}

type PlatformOverview struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalCourses      int64 `json:"totalCourses"`
	PublishedCourses  int64 `json:"publishedCourses"`
	ActiveEnrollments int64 `json:"activeEnrollments"`
	TotalAttempts     int64 `json:"totalAttempts"`
	ActiveLearners7d  int64 `json:"activeLearners7d"`
}

func (s *AnalyticsService) GetOverview() (*PlatformOverview, error) {
	overview := &PlatformOverview{}

	if err := s.DB.Model(&model.User{}).Count(&overview.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&model.Course{}).Count(&overview.TotalCourses).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&model.Course{}).Where("is_published = ?", true).
		Count(&overview.PublishedCourses).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&model.Enrollment{}).Where("status = ?", model.EnrollmentActive).
		Count(&overview.ActiveEnrollments).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&model.QuizAttempt{}).Count(&overview.TotalAttempts).Error; err != nil {
		return nil, err
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	if err := s.DB.Model(&model.QuizAttempt{}).
		Where("created_at >= ?", weekAgo).
		Distinct("user_id").
		Count(&overview.ActiveLearners7d).Error; err != nil {
		return nil, err
	}

	return overview, nil
}

type QuizStats struct {
	QuizID        uint    `json:"quizId"`
	Title         string  `json:"title"`
	TotalAttempts int64   `json:"totalAttempts"`
	PassedCount   int64   `json:"passedCount"`
	PassRate      float64 `json:"passRate"`
	AverageScore  float64 `json:"averageScore"`
}

func (s *AnalyticsService) GetQuizStats(quizID uint) (*QuizStats, error) {
	var quiz model.Quiz
	if err := s.DB.First(&quiz, quizID).Error; err != nil {
		return nil, err
	}

	stats := &QuizStats{QuizID: quiz.ID, Title: quiz.Title}

	query := s.DB.Model(&model.QuizAttempt{}).Where("quiz_id = ?", quizID)
	if err := query.Count(&stats.TotalAttempts).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Model(&model.QuizAttempt{}).
		Where("quiz_id = ? AND passed = ?", quizID, true).
		Count(&stats.PassedCount).Error; err != nil {
		return nil, err
	}

	if stats.TotalAttempts > 0 {
		stats.PassRate = float64(stats.PassedCount) / float64(stats.TotalAttempts)

		var avg struct {
			Avg float64
		}
		if err := s.DB.Model(&model.QuizAttempt{}).
			Where("quiz_id = ?", quizID).
			Select("AVG(score) as avg").
			Scan(&avg).Error; err != nil {
			return nil, err
		}
		stats.AverageScore = avg.Avg
	}

	return stats, nil
}

type CourseQuizStats struct {
	CourseID uint        `json:"courseId"`
	Quizzes  []QuizStats `json:"quizzes"`
}

func (s *AnalyticsService) GetCourseQuizStats(courseID uint) (*CourseQuizStats, error) {
	var quizzes []model.Quiz
	if err := s.DB.Where("course_id = ?", courseID).Find(&quizzes).Error; err != nil {
		return nil, err
	}

	result := &CourseQuizStats{CourseID: courseID, Quizzes: make([]QuizStats, 0, len(quizzes))}
	for _, quiz := range quizzes {
		stats, err := s.GetQuizStats(quiz.ID)
		if err != nil {
			return nil, err
		}
		result.Quizzes = append(result.Quizzes, *stats)
	}
	return result, nil
}
