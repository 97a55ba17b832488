package model

import "time"

// swagger:model Course
type Course struct {
	BaseModel
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	InstructorID uint       `gorm:"index" json:"instructorId"`
	Instructor   *User      `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	CoverURL     string     `gorm:"size:255" json:"coverUrl"`
	IsPublished  bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID      uint    `gorm:"index" json:"courseId"`
	Title         string  `gorm:"size:255;not null" json:"title"`
	Content       string  `gorm:"type:text" json:"content"`
	VideoURL      string  `gorm:"size:255" json:"videoUrl"`
	VideoDuration float64 `gorm:"default:0" json:"videoDuration"` // 秒
	Order         int     `gorm:"default:0" json:"order"`
}

func (Lesson) TableName() string {
	return "lessons"
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentDropped   EnrollmentStatus = "dropped"
	EnrollmentCompleted EnrollmentStatus = "completed"
)

// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	CourseID   uint             `gorm:"uniqueIndex:idx_course_user" json:"courseId"`
	Course     *Course          `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	UserID     uint             `gorm:"uniqueIndex:idx_course_user" json:"userId"`
	Status     EnrollmentStatus `gorm:"size:20;default:'active'" json:"status"`
	EnrolledAt time.Time        `json:"enrolledAt"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
