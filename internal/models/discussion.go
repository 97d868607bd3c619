package models

import (
	"time"
)

// Discussion 挂在剧集/季/单集下的讨论串，区别于评测（review）
type Discussion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"userId"`
	User          User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ShowID        uint      `gorm:"not null;index:idx_discussion_target" json:"showId"`
	SeasonNumber  *int      `gorm:"index:idx_discussion_target" json:"seasonNumber,omitempty"`
	EpisodeNumber *int      `gorm:"index:idx_discussion_target" json:"episodeNumber,omitempty"`
	Title         string    `gorm:"not null" json:"title"`
	Body          string    `gorm:"type:text" json:"body"`
	Spoiler       bool      `gorm:"default:false" json:"spoiler"`
	CommentCount  int       `gorm:"default:0" json:"commentCount"`
	Score         int       `gorm:"default:0;index" json:"score"` // 热度，由 ActivityService 异步刷新
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Target describes what the discussion hangs off.
func (d *Discussion) Target() string {
	switch {
	case d.EpisodeNumber != nil && d.SeasonNumber != nil:
		return "episode"
	case d.SeasonNumber != nil:
		return "season"
	}
	return "show"
}
