package service

import (
	"context"
	"errors"
	"fmt"
	"learning_backend/internal/model"
	"learning_backend/internal/repository"
	"learning_backend/internal/util"
	"learning_backend/pkg/lock"
	"learning_backend/pkg/logger"
	"learning_backend/pkg/monitoring"
	"learning_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errCursorMoved 游标在本次事务期间被其他 Poll 推进
var errCursorMoved = errors.New("announcement cursor moved")

type AnnouncementItem struct {
	ID         uint      `json:"id"`
	Author     uint      `json:"author"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	PostedAt   time.Time `json:"postedAt"`
}

type PollResult struct {
	Count         int                `json:"count"`
	Announcements []AnnouncementItem `json:"announcements"`
	// 本次推进后的游标
	CheckedAt time.Time `json:"checkedAt"`
}

// NotificationService 每个用户一个"上次查看"游标，Poll 返回游标之后的新公告并推进游标
type NotificationService struct {
	DB            *gorm.DB
	Users         *repository.UserRepository
	Announcements *repository.AnnouncementRepository
	Locker        lock.Locker
	MaxRetries    int
	Now           func() time.Time
}

func NewNotificationService(db *gorm.DB, users *repository.UserRepository, announcements *repository.AnnouncementRepository, locker lock.Locker, maxRetries int) *NotificationService {
	if locker == nil {
		locker = lock.Noop{}
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &NotificationService{
		DB:            db,
		Users:         users,
		Announcements: announcements,
		Locker:        locker,
		MaxRetries:    maxRetries,
		Now:           time.Now,
	}
}

// Poll 同一用户的并发 Poll 不会重复返回同一条公告：
// 读取游标和推进游标在同一事务内完成，推进以版本号 CAS，冲突则整体重试
func (s *NotificationService) Poll(ctx context.Context, userID uint) (*PollResult, error) {
	ctx, span := tracing.Tracer().Start(ctx, "NotificationService.Poll")
	defer span.End()
	span.SetAttributes(attribute.Int("user.id", int(userID)))

	unlock := lock.Acquire(ctx, s.Locker, fmt.Sprintf("notify:poll:%d", userID))
	defer unlock()

	for attempt := 1; attempt <= s.MaxRetries; attempt++ {
		result, err := s.pollOnce(ctx, userID)
		if err == nil {
			monitoring.NotificationPolls.WithLabelValues("ok").Inc()
			span.SetAttributes(attribute.Int("announcements.count", result.Count))
			return result, nil
		}
		if !errors.Is(err, errCursorMoved) {
			monitoring.NotificationPolls.WithLabelValues("error").Inc()
			if !errors.Is(err, util.ErrUserNotFound) {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return nil, err
		}
		monitoring.NotificationPolls.WithLabelValues("retry").Inc()
		logger.Log.Debug("announcement cursor moved, retrying poll",
			zap.Uint("user_id", userID), zap.Int("attempt", attempt))
	}

	monitoring.NotificationPolls.WithLabelValues("exhausted").Inc()
	return nil, util.ErrNotificationRetry
}

func (s *NotificationService) pollOnce(ctx context.Context, userID uint) (*PollResult, error) {
	var result *PollResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.Users.WithTx(tx)

		user, err := users.LockByID(userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		last := user.LastAnnouncementsCheck.UTC()
		now := s.Now().UTC()
		// 游标单调不减，时钟回拨时停在原位
		if now.Before(last) {
			now = last
		}

		list, err := s.Announcements.WithTx(tx).ListPostedBetween(last, now)
		if err != nil {
			return err
		}

		affected, err := users.AdvanceAnnouncementsCursor(userID, user.NotifyVersion, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errCursorMoved
		}

		result = &PollResult{
			Count:         len(list),
			Announcements: toAnnouncementItems(list),
			CheckedAt:     now,
		}
		return nil
	})
	return result, err
}

// Clear 兼容旧客户端的未读计数清零，不影响游标
func (s *NotificationService) Clear(ctx context.Context, userID uint) error {
	users := s.Users.WithTx(s.DB.WithContext(ctx))
	affected, err := users.ClearAnnouncementsCount(userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		// MySQL 对未变化的行返回 0，需要再确认用户是否存在
		if _, err := users.FindByID(userID); errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrUserNotFound
		} else if err != nil {
			return err
		}
	}
	return nil
}

func toAnnouncementItems(list []model.Announcement) []AnnouncementItem {
	items := make([]AnnouncementItem, 0, len(list))
	for _, a := range list {
		item := AnnouncementItem{
			ID:       a.ID,
			Author:   a.UserID,
			Content:  a.Content,
			PostedAt: a.PostedAt,
		}
		if a.User != nil {
			item.AuthorName = a.User.Name
		}
		items = append(items, item)
	}
	return items
}
