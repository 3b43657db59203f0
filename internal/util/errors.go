package util

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUserNotFound     = errors.New("用户不存在")

	// 测验作答
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrNotPlayable       = errors.New("quiz is not playable")
	ErrAlreadyCompleted  = errors.New("quiz already completed")
	ErrInvalidChoice     = errors.New("answer does not belong to the presented question")
	ErrDuplicateAnswer   = errors.New("question already answered")
	ErrInvalidQuestion   = errors.New("a question needs 2 to 10 answers with at least one correct")
	ErrCourseNotFound    = errors.New("course not found")
	ErrLearnerNotFound   = errors.New("learner not found")
	ErrNotificationRetry = errors.New("notification cursor kept changing, giving up")
)

// IsDuplicateKey 判断是否唯一索引冲突。开启 TranslateError 的方言返回 gorm.ErrDuplicatedKey，
// 其余按驱动错误文本兜底
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
