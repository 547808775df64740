package models

import (
	"time"
)

// Theme is a quiz category. Static content, read-only at game time.
type Theme struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Theme) TableName() string {
	return "themes"
}

type Question struct {
	ID        uint      `gorm:"primaryKey"`
	ThemeID   uint      `gorm:"not null;index"`
	Theme     Theme     `gorm:"foreignKey:ThemeID;constraint:OnDelete:CASCADE"`
	Title     string    `gorm:"type:text;not null;uniqueIndex"`
	Points    int       `gorm:"not null;index"`
	Answers   []Answer  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectAnswer returns the question's correct answer. Content authoring
// guarantees exactly one per question.
func (q *Question) CorrectAnswer() *Answer {
	for i := range q.Answers {
		if q.Answers[i].IsCorrect {
			return &q.Answers[i]
		}
	}
	return nil
}

type Answer struct {
	ID         uint   `gorm:"primaryKey"`
	QuestionID uint   `gorm:"not null;index"`
	Title      string `gorm:"type:text;not null"`
	IsCorrect  bool   `gorm:"not null;default:false"`
}

func (Answer) TableName() string {
	return "answers"
}
