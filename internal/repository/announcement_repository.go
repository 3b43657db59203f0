package repository

import (
	"learning_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AnnouncementRepository struct {
	DB *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{DB: db}
}

func (r *AnnouncementRepository) WithTx(tx *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{DB: tx}
}

// Create 未指定发布时间时取当前时间
func (r *AnnouncementRepository) Create(a *model.Announcement) error {
	if a.PostedAt.IsZero() {
		a.PostedAt = time.Now().UTC()
	}
	return r.DB.Create(a).Error
}

// ListPostedBetween 返回 after < posted_at <= upTo 的公告，按发布时间升序
func (r *AnnouncementRepository) ListPostedBetween(after, upTo time.Time) ([]model.Announcement, error) {
	var list []model.Announcement
	err := r.DB.Preload("User").
		Where("posted_at > ? AND posted_at <= ?", after, upTo).
		Order("posted_at ASC").
		Order("id ASC").
		Find(&list).Error
	return list, err
}
