package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"elearn_backend/internal/model"
	"elearn_backend/internal/repository"
	"elearn_backend/internal/util"
	"elearn_backend/pkg/logger"

	"go.uber.org/zap"
)

// ContentService 课程封面、课时视频、头像等文件内容上传
type ContentService struct {
	CourseRepo *repository.CourseRepository
	Storage    *StorageService
}

func NewContentService(courseRepo *repository.CourseRepository, storage *StorageService) *ContentService {
	return &ContentService{
		CourseRepo: courseRepo,
		Storage:    storage,
	}
}

func uploadFilename(prefix, original string) string {
	ext := filepath.Ext(original)
	return fmt.Sprintf("%s/%d_%s%s", prefix, time.Now().UnixNano(), model.GenerateUUID()[:8], ext)
}

// UploadImage 头像/封面等图片上传，校验 MIME 后写入存储
func (s *ContentService) UploadImage(ctx context.Context, prefix string, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := util.ValidateMimeType(file, []string{util.MimeImage}); err != nil {
		return "", err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return "", err
	}

	filename := uploadFilename(prefix, fileHeader.Filename)
	return s.Storage.Upload(ctx, filename, file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
}

// UploadLessonVideo 上传课时视频：先落临时文件探测时长，再写入存储并更新课时
func (s *ContentService) UploadLessonVideo(ctx context.Context, lessonID uint, fileHeader *multipart.FileHeader) (*model.Lesson, error) {
	lesson, err := s.CourseRepo.FindLessonByID(lessonID)
	if err != nil {
		return nil, util.ErrLessonNotFound
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, []string{util.MimeVideo, util.MimeOctetStream})
	if err != nil {
		return nil, err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "lesson_video_*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.ReadFrom(file); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	// 时长探测失败不阻塞上传，只是时长记 0
	duration := 0.0
	if info, err := util.GetVideoInfo(tmp.Name()); err == nil {
		duration = info.Duration
	} else {
		logger.Log.Warn("video probe failed", zap.Uint("lessonId", lessonID), zap.Error(err))
	}

	filename := uploadFilename("lessons", fileHeader.Filename)
	url, err := s.Storage.UploadFile(ctx, filename, tmp.Name(), mimeType)
	if err != nil {
		return nil, err
	}

	lesson.VideoURL = url
	lesson.VideoDuration = duration
	if err := s.CourseRepo.UpdateLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}
