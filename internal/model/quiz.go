package model

// swagger:model Quiz
type Quiz struct {
	BaseModel
	Name      string     `gorm:"size:255;not null" json:"name"`
	OwnerID   uint       `gorm:"index;not null;<-:create" json:"ownerId"` // 创建后不可修改
	CourseID  uint       `gorm:"index;not null" json:"courseId"`
	Course    *Course    `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Questions []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model Question
type Question struct {
	BaseModel
	QuizID  uint     `gorm:"index;not null" json:"quizId"`
	Text    string   `gorm:"size:255;not null" json:"text"`
	Answers []Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model Answer
type Answer struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Text       string `gorm:"size:255;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
}

func (Answer) TableName() string {
	return "answers"
}
