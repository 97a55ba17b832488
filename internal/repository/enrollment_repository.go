package repository

import (
	"elearn_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) error {
	return r.DB.Create(enrollment).Error
}

// FindByCourseAndUser 返回该学习者在课程内的报名记录（任何状态）
func (r *EnrollmentRepository) FindByCourseAndUser(courseID, userID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.Where("course_id = ? AND user_id = ?", courseID, userID).First(&enrollment).Error
	return &enrollment, err
}

// HasActiveEnrollment 答题前置校验使用：仅 active 状态算已报名
func (r *EnrollmentRepository) HasActiveEnrollment(courseID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).
		Where("course_id = ? AND user_id = ? AND status = ?", courseID, userID, model.EnrollmentActive).
		Count(&count).Error
	return count > 0, err
}

func (r *EnrollmentRepository) Update(enrollment *model.Enrollment) error {
	return r.DB.Save(enrollment).Error
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Preload("Course").
		Where("user_id = ? AND status = ?", userID, model.EnrollmentActive).
		Order("enrolled_at desc").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) ListByCourse(courseID uint, page, limit int) ([]model.Enrollment, int64, error) {
	var enrollments []model.Enrollment
	var total int64

	query := r.DB.Model(&model.Enrollment{}).Where("course_id = ?", courseID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("enrolled_at desc").Offset(offset).Limit(limit).Find(&enrollments).Error
	return enrollments, total, err
}
