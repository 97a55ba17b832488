package util

import "errors"

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrEmailRegistered   = errors.New("该邮箱已被注册")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrCourseNotFound    = errors.New("course not found")
	ErrLessonNotFound    = errors.New("lesson not found")
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrQuizNoQuestions   = errors.New("quiz has no questions")
	ErrNotEnrolled       = errors.New("must be enrolled in this course")
	ErrAlreadyEnrolled   = errors.New("already enrolled in this course")
	ErrInvalidAnswers    = errors.New("answers must be an object keyed by question id")
	ErrBadgeNotFound     = errors.New("badge not found")
	ErrCourseUnpublished = errors.New("course not published")
)
