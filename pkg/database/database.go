package database

import (
	"fmt"
	"log"

	"elearn_backend/internal/config"
	"elearn_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
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
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认徽章目录
	var count int64
	db.Model(&model.Badge{}).Count(&count)
	if count == 0 {
		defaultBadges := []model.Badge{
			{Name: "初来乍到", Description: "获得第一批积分", Icon: "seedling", MinPoints: 10},
			{Name: "稳步前行", Description: "累计 50 积分", Icon: "walking", MinPoints: 50},
			{Name: "学有所成", Description: "累计 200 积分", Icon: "medal", MinPoints: 200},
			{Name: "百炼成钢", Description: "累计 500 积分", Icon: "trophy", MinPoints: 500},
		}
		for i := range defaultBadges {
			db.Create(&defaultBadges[i])
		}
	}

	return db, nil
}
