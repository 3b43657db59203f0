package model

// swagger:model Course
type Course struct {
	BaseModel
	Name  string `gorm:"size:30;not null" json:"name"`
	Color string `gorm:"size:7;default:'#007bff'" json:"color"`
}

func (Course) TableName() string {
	return "courses"
}
