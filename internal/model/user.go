package model

import (
	"time"
)

// Role 是授权闸门产出的角色标签，每个入口只接受其中之一（管理员可代行讲师权限）
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleLearner    Role = "learner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleLearner:
		return true
	}
	return false
}

// swagger:model User
type User struct {
	BaseModel
	Name  string `gorm:"size:100;not null" json:"name"`
	Email string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Role  Role   `gorm:"size:20;not null;default:'learner'" json:"role"`
	// 通知游标：只由 Poll 推进，单调不减
	LastAnnouncementsCheck time.Time `gorm:"not null" json:"lastAnnouncementsCheck"`
	// 游标的乐观锁版本号
	NotifyVersion uint `gorm:"not null;default:0" json:"-"`
	// 兼容旧接口的未读计数，仅由 Clear 清零
	NewAnnouncementsCount int `gorm:"not null;default:0" json:"newAnnouncementsCount"`
}

func (User) TableName() string {
	return "users"
}
