package models

import (
	"time"
)

// ReactionType 表情反应类型，按分类分组展示
type ReactionType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Category  string    `gorm:"size:40;not null;index" json:"category"`
	Name      string    `gorm:"size:40;not null;uniqueIndex" json:"name"`
	Emoji     string    `gorm:"size:16;not null" json:"emoji"`
	Position  int       `gorm:"default:0" json:"position"`
	CreatedAt time.Time `json:"-"`
}

// 每个用户对同一评论最多一个反应
type Reaction struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"not null;uniqueIndex:idx_reaction_user_comment" json:"userId"`
	CommentID      uint         `gorm:"not null;index;uniqueIndex:idx_reaction_user_comment" json:"commentId"`
	ReactionTypeID uint         `gorm:"not null;index" json:"reactionTypeId"`
	ReactionType   ReactionType `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"reactionType"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
