package service

import (
	"errors"
	"time"

	"elearn_backend/internal/model"
	"elearn_backend/internal/repository"
	"elearn_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
) *CourseService {
	return &CourseService{
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
	}
}

type CourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	CoverURL    string `json:"coverUrl"`
}

type LessonRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
	VideoURL string `json:"videoUrl"`
	Order    int    `json:"order"`
}

func (s *CourseService) CreateCourse(instructorID uint, req CourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		CoverURL:     req.CoverURL,
		InstructorID: instructorID,
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetCourse(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByIDWithInstructor(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return course, err
}

func (s *CourseService) ListCourses(page, limit int, publishedOnly bool, instructorID uint) ([]model.Course, int64, error) {
	return s.CourseRepo.List(page, limit, publishedOnly, instructorID)
}

// checkOwnership 仅课程归属讲师或管理员可修改课程内容
func (s *CourseService) checkOwnership(course *model.Course, userID uint, role model.UserRole) error {
	if role == model.Admin {
		return nil
	}
	if course.InstructorID != userID {
		return util.ErrPermissionDenied
	}
	return nil
}

func (s *CourseService) UpdateCourse(id, userID uint, role model.UserRole, req CourseRequest) (*model.Course, error) {
	course, err := s.GetCourse(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(course, userID, role); err != nil {
		return nil, err
	}

	course.Title = req.Title
	course.Description = req.Description
	if req.CoverURL != "" {
		course.CoverURL = req.CoverURL
	}
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) PublishCourse(id, userID uint, role model.UserRole, publish bool) (*model.Course, error) {
	course, err := s.GetCourse(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(course, userID, role); err != nil {
		return nil, err
	}

	course.IsPublished = publish
	if publish {
		now := time.Now()
		course.PublishedAt = &now
	} else {
		course.PublishedAt = nil
	}
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(id, userID uint, role model.UserRole) error {
	course, err := s.GetCourse(id)
	if err != nil {
		return err
	}
	if err := s.checkOwnership(course, userID, role); err != nil {
		return err
	}
	return s.CourseRepo.Delete(id)
}

// Lesson operations

func (s *CourseService) AddLesson(courseID, userID uint, role model.UserRole, req LessonRequest) (*model.Lesson, error) {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(course, userID, role); err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		CourseID: courseID,
		Title:    req.Title,
		Content:  req.Content,
		VideoURL: req.VideoURL,
		Order:    req.Order,
	}
	if err := s.CourseRepo.CreateLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *CourseService) GetLesson(id uint) (*model.Lesson, error) {
	lesson, err := s.CourseRepo.FindLessonByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLessonNotFound
	}
	return lesson, err
}

func (s *CourseService) ListLessons(courseID uint) ([]model.Lesson, error) {
	return s.CourseRepo.ListLessons(courseID)
}

func (s *CourseService) UpdateLesson(id, userID uint, role model.UserRole, req LessonRequest) (*model.Lesson, error) {
	lesson, err := s.GetLesson(id)
	if err != nil {
		return nil, err
	}

	course, err := s.GetCourse(lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwnership(course, userID, role); err != nil {
		return nil, err
	}

	lesson.Title = req.Title
	lesson.Content = req.Content
	if req.VideoURL != "" {
		lesson.VideoURL = req.VideoURL
	}
	lesson.Order = req.Order
	if err := s.CourseRepo.UpdateLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *CourseService) DeleteLesson(id, userID uint, role model.UserRole) error {
	lesson, err := s.GetLesson(id)
	if err != nil {
		return err
	}

	course, err := s.GetCourse(lesson.CourseID)
	if err != nil {
		return err
	}
	if err := s.checkOwnership(course, userID, role); err != nil {
		return err
	}
	return s.CourseRepo.DeleteLesson(id)
}

// Enrollment operations

func (s *CourseService) Enroll(courseID, userID uint) (*model.Enrollment, error) {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, util.ErrCourseUnpublished
	}

	existing, err := s.EnrollmentRepo.FindByCourseAndUser(courseID, userID)
	if err == nil {
		if existing.Status == model.EnrollmentActive {
			return nil, util.ErrAlreadyEnrolled
		}
		// 退课后重新报名：复用原记录
		existing.Status = model.EnrollmentActive
		existing.EnrolledAt = time.Now()
		if err := s.EnrollmentRepo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.Enrollment{
		CourseID:   courseID,
		UserID:     userID,
		Status:     model.EnrollmentActive,
		EnrolledAt: time.Now(),
	}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (s *CourseService) Drop(courseID, userID uint) error {
	enrollment, err := s.EnrollmentRepo.FindByCourseAndUser(courseID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotEnrolled
		}
		return err
	}
	if enrollment.Status != model.EnrollmentActive {
		return util.ErrNotEnrolled
	}

	enrollment.Status = model.EnrollmentDropped
	return s.EnrollmentRepo.Update(enrollment)
}

func (s *CourseService) MyEnrollments(userID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByUser(userID)
}

func (s *CourseService) CourseRoster(courseID, userID uint, role model.UserRole, page, limit int) ([]model.Enrollment, int64, error) {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.checkOwnership(course, userID, role); err != nil {
		return nil, 0, err
	}
	return s.EnrollmentRepo.ListByCourse(courseID, page, limit)
}
