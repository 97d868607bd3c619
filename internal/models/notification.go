package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeCommentDiscussion NotificationType = "comment_discussion"
	NotificationTypeReplyComment      NotificationType = "reply_comment"
)

type Notification struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	UserID       uint             `gorm:"not null;index" json:"userId"` // Receiver
	User         User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ActorID      *uint            `gorm:"index" json:"actorId"` // Sender
	Actor        User             `gorm:"foreignKey:ActorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"actor"`
	Type         NotificationType `gorm:"type:varchar(24);not null" json:"type"`
	DiscussionID uint             `gorm:"index" json:"discussionId"`
	CommentID    *uint            `json:"commentId,omitempty"`
	Reason       string           `gorm:"type:text" json:"reason"`
	IsRead       bool             `gorm:"default:false;index" json:"isRead"`
	CreatedAt    time.Time        `json:"createdAt"`
}
