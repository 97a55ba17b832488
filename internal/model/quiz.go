package model

import (
	"encoding/json"
	"time"
)

// QuestionType 封闭的题型枚举，仅影响前端渲染；判分逻辑与题型无关
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// swagger:model Quiz
type Quiz struct {
	BaseModel
	CourseID     uint   `gorm:"index" json:"courseId"`
	LessonID     uint   `gorm:"index" json:"lessonId"`
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	PassingScore int    `gorm:"default:70" json:"passingScore"` // 百分比
	TimeLimit    int    `gorm:"default:0" json:"timeLimit"`     // Minutes
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID       uint            `gorm:"index" json:"quizId"`
	QuestionType QuestionType    `gorm:"size:50;not null" json:"questionType"`
	Content      string          `gorm:"type:text;not null" json:"content"` // 题干
	Options      json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	Answer       string          `gorm:"type:text" json:"answer"` // 标准答案
	Points       int             `gorm:"default:1" json:"points"`
	Explanation  string          `gorm:"type:text" json:"explanation"`
	Order        int             `gorm:"default:0" json:"order"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizReward (quiz, attempt_number) -> 通过该次尝试可获得的积分，稀疏表
// swagger:model QuizReward
type QuizReward struct {
	BaseModel
	QuizID        uint `gorm:"uniqueIndex:idx_quiz_attempt" json:"quizId"`
	AttemptNumber int  `gorm:"uniqueIndex:idx_quiz_attempt" json:"attemptNumber"`
	Points        int  `gorm:"default:0" json:"points"`
}

func (QuizReward) TableName() string {
	return "quiz_rewards"
}

// QuizAttempt 每次提交一行，只插入，永不修改或删除
// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel
	QuizID        uint            `gorm:"index" json:"quizId"`
	UserID        uint            `gorm:"index" json:"userId"`
	Score         int             `gorm:"not null" json:"score"` // 0-100
	Passed        bool            `gorm:"default:false" json:"passed"`
	AttemptNumber int             `gorm:"not null" json:"attemptNumber"`
	PointsEarned  int             `gorm:"default:0" json:"pointsEarned"`
	Answers       json.RawMessage `gorm:"type:json" json:"answers"`
	StartedAt     time.Time       `json:"startedAt"`
	CompletedAt   time.Time       `json:"completedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
