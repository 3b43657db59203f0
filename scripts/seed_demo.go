// 写入演示数据并打印各角色的访问令牌
//
// 用法: go run scripts/seed_demo.go
//
// 令牌由外部认证服务签发，这里仅为本地联调生成。

package main

import (
	"errors"
	"fmt"
	"learning_backend/internal/config"
	"learning_backend/internal/model"
	"learning_backend/internal/util"
	"learning_backend/pkg/database"
	"learning_backend/pkg/logger"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = config.DriverSQLite
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	var instructor, learner *model.User
	err = db.Transaction(func(tx *gorm.DB) error {
		course := model.Course{Name: "Math", Color: "#007bff"}
		if err := tx.Where(model.Course{Name: course.Name}).FirstOrCreate(&course).Error; err != nil {
			return err
		}

		if instructor, err = ensureUser(tx, "Ivy Instructor", "instructor@example.com", model.RoleInstructor); err != nil {
			return err
		}
		if learner, err = ensureUser(tx, "Leo Learner", "learner@example.com", model.RoleLearner); err != nil {
			return err
		}

		profile := model.Learner{UserID: learner.ID}
		if err := tx.Where(model.Learner{UserID: learner.ID}).FirstOrCreate(&profile).Error; err != nil {
			return err
		}
		if err := tx.Model(&profile).Association("Interests").Replace([]model.Course{course}); err != nil {
			return err
		}

		var existing int64
		tx.Model(&model.Quiz{}).Where("name = ? AND owner_id = ?", "Algebra Basics", instructor.ID).Count(&existing)
		if existing == 0 {
			quiz := model.Quiz{
				Name:     "Algebra Basics",
				OwnerID:  instructor.ID,
				CourseID: course.ID,
				Questions: []model.Question{
					{Text: "2+2", Answers: []model.Answer{{Text: "3"}, {Text: "4", IsCorrect: true}}},
					{Text: "3+3", Answers: []model.Answer{{Text: "6", IsCorrect: true}, {Text: "9"}}},
				},
			}
			if err := tx.Create(&quiz).Error; err != nil {
				return err
			}
		}

		return tx.Create(&model.Announcement{
			UserID:   instructor.ID,
			Content:  "Algebra Basics is open, good luck!",
			PostedAt: time.Now().UTC(),
		}).Error
	})
	if err != nil {
		log.Fatalf("写入演示数据失败: %v", err)
	}

	for _, u := range []*model.User{instructor, learner} {
		token, err := util.GenerateJWT(u, cfg.JWT.Secret, 24*time.Hour)
		if err != nil {
			log.Fatalf("生成令牌失败: %v", err)
		}
		fmt.Printf("%-10s %s\n", u.Role, token)
	}
}

func ensureUser(tx *gorm.DB, name, email string, role model.Role) (*model.User, error) {
	var u model.User
	err := tx.Where("email = ?", email).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	u = model.User{Name: name, Email: email, Role: role, LastAnnouncementsCheck: time.Now().UTC()}
	return &u, tx.Create(&u).Error
}
