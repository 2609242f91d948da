package models

import (
	"time"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text"`
	Email        string    `json:"email" gorm:"type:text;uniqueIndex:uniq_user_email;not null"`
	DisplayName  string    `json:"displayName" gorm:"type:text;not null"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	CDate        time.Time `json:"cdate" gorm:"not null"`
}

type Post struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	AuthorID  string    `json:"authorID" gorm:"type:text;index;not null"`
	Author    User      `json:"-" gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE;"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	LikeCount int       `json:"likeCount" gorm:"not null;default:0"`
	CDate     time.Time `json:"cdate" gorm:"not null;index"`
}

// PostLike is the membership row of a post's like set. The composite key
// keeps one row per (post, user).
type PostLike struct {
	PostID string    `json:"postID" gorm:"primaryKey;type:text"`
	Post   Post      `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE;"`
	UserID string    `json:"userID" gorm:"primaryKey;type:text;index"`
	CDate  time.Time `json:"cdate" gorm:"not null"`
}

type HighScore struct {
	ID     int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID string    `json:"userID" gorm:"type:text;index;not null"`
	User   User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
	Score  int       `json:"score" gorm:"not null;index"`
	CDate  time.Time `json:"cdate" gorm:"not null"`
}
