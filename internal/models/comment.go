package models

import (
	"strconv"
	"strings"
	"time"
)

// DeletedPlaceholder 删除后对外展示的内容
const DeletedPlaceholder = "comment deleted"

type Comment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	DiscussionID uint       `gorm:"not null;index" json:"discussionId"`
	Discussion   Discussion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID       uint       `gorm:"not null;index" json:"userId"`
	User         User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID     *uint      `gorm:"index" json:"parentId"` // Nullable for top-level comments
	Parent       *Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	// Path 祖先 ID 以 "/" 连接，根评论为空串
	Path      string    `gorm:"size:512;not null;default:'';index" json:"path"`
	Depth     int       `gorm:"not null;default:0" json:"depth"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Spoiler   bool      `gorm:"default:false" json:"spoiler"`
	IsDeleted bool      `gorm:"default:false;index" json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Votes     []Vote     `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Reactions []Reaction `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// IsTopLevel reports whether the comment has no parent.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// ChildPath is the path every direct reply of c carries.
func (c *Comment) ChildPath() string {
	id := strconv.FormatUint(uint64(c.ID), 10)
	if c.Path == "" {
		return id
	}
	return c.Path + "/" + id
}

// DisplayContent 已删除评论返回占位文本
func (c *Comment) DisplayContent() string {
	if c.IsDeleted {
		return DeletedPlaceholder
	}
	return c.Content
}

// PathDepth counts the ancestor ids encoded in a materialized path.
func PathDepth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, "/") + 1
}
