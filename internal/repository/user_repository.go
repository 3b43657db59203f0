package repository

import (
	"learning_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) Create(user *model.User) error {
	if user.LastAnnouncementsCheck.IsZero() {
		user.LastAnnouncementsCheck = time.Now().UTC()
	}
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

// LockByID 读取用户并加行锁（SQLite 忽略 FOR UPDATE，靠单连接串行）
func (r *UserRepository) LockByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error
	return &user, err
}

// AdvanceAnnouncementsCursor 以版本号做 CAS 推进游标，返回受影响行数；
// 0 表示期间有其他 Poll 抢先提交
func (r *UserRepository) AdvanceAnnouncementsCursor(id, version uint, to time.Time) (int64, error) {
	res := r.DB.Model(&model.User{}).
		Where("id = ? AND notify_version = ?", id, version).
		Updates(map[string]interface{}{
			"last_announcements_check": to,
			"notify_version":           gorm.Expr("notify_version + 1"),
		})
	return res.RowsAffected, res.Error
}

func (r *UserRepository) ClearAnnouncementsCount(id uint) (int64, error) {
	res := r.DB.Model(&model.User{}).Where("id = ?", id).Update("new_announcements_count", 0)
	return res.RowsAffected, res.Error
}
