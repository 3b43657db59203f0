package model

import "time"

// swagger:model Learner
type Learner struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Interests []Course  `gorm:"many2many:learner_interests;joinForeignKey:LearnerID;joinReferences:CourseID" json:"interests,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Learner) TableName() string {
	return "learners"
}

// LearnerAnswer 学员对某道题的一次作答；(learner_id, question_id) 唯一，
// question_id 为冗余字段，仅用于承载这个唯一约束
type LearnerAnswer struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LearnerID  uint      `gorm:"not null;uniqueIndex:idx_learner_question" json:"learnerId"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_learner_question;index" json:"questionId"`
	AnswerID   uint      `gorm:"not null;index" json:"answerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (LearnerAnswer) TableName() string {
	return "learner_answers"
}

// TakenQuiz 一次完成的测验，创建后不再修改
// swagger:model TakenQuiz
type TakenQuiz struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LearnerID uint      `gorm:"not null;uniqueIndex:idx_learner_quiz" json:"learnerId"`
	QuizID    uint      `gorm:"not null;uniqueIndex:idx_learner_quiz;index" json:"quizId"`
	Quiz      *Quiz     `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	Score     float64   `gorm:"not null" json:"score"`
	Date      time.Time `gorm:"not null" json:"date"`
}

func (TakenQuiz) TableName() string {
	return "taken_quizzes"
}
