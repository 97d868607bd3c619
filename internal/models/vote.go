package models

import (
	"fmt"
	"strings"
	"time"
)

type VoteValue int

const (
	Downvote VoteValue = -1
	Upvote   VoteValue = 1
)

// ParseVoteValue accepts the wire names UPVOTE / DOWNVOTE.
func ParseVoteValue(s string) (VoteValue, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UPVOTE":
		return Upvote, nil
	case "DOWNVOTE":
		return Downvote, nil
	}
	return 0, fmt.Errorf("unknown vote value %q", s)
}

func (v VoteValue) String() string {
	switch v {
	case Upvote:
		return "UPVOTE"
	case Downvote:
		return "DOWNVOTE"
	}
	return ""
}

// One vote per (user, comment); a new vote replaces the old one.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_vote_user_comment" json:"userId"`
	CommentID uint      `gorm:"not null;index;uniqueIndex:idx_vote_user_comment" json:"commentId"`
	Value     VoteValue `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
