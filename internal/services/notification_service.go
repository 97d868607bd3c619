package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"showtalk/internal/models"
)

// NotificationService 回复通知：站内信 + 邮件
type NotificationService struct {
	db      *gorm.DB
	mail    *MailService
	siteURL string
}

func NewNotificationService(db *gorm.DB, mail *MailService, siteURL string) *NotificationService {
	return &NotificationService{db: db, mail: mail, siteURL: siteURL}
}

// CommentCreated notifies the parent comment's author for a reply, or the
// discussion owner for a top-level comment. Self-notifications are skipped.
func (s *NotificationService) CommentCreated(ctx context.Context, actor *models.User, discussion *models.Discussion, comment *models.Comment) error {
	tx := s.db.WithContext(ctx)
	link := fmt.Sprintf("%s/d/%d#comment-%d", s.siteURL, discussion.ID, comment.ID)

	if !comment.IsTopLevel() {
		var parent models.Comment
		if err := tx.Preload("User").First(&parent, *comment.ParentID).Error; err != nil {
			return fmt.Errorf("load parent comment: %w", err)
		}
		if parent.UserID == actor.ID {
			return nil
		}
		n := models.Notification{
			UserID:       parent.UserID,
			ActorID:      &actor.ID,
			Type:         models.NotificationTypeReplyComment,
			DiscussionID: discussion.ID,
			CommentID:    &comment.ID,
			Reason:       fmt.Sprintf("%s replied to your comment in \"%s\"", actor.Username, discussion.Title),
		}
		if err := tx.Create(&n).Error; err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		if s.mail != nil {
			s.mail.SendReplyNotification(parent.User.Email, actor.Username, discussion.Title, comment.Content, parent.DisplayContent(), link)
		}
		return nil
	}

	if discussion.UserID == actor.ID {
		return nil
	}
	n := models.Notification{
		UserID:       discussion.UserID,
		ActorID:      &actor.ID,
		Type:         models.NotificationTypeCommentDiscussion,
		DiscussionID: discussion.ID,
		CommentID:    &comment.ID,
		Reason:       fmt.Sprintf("%s commented on your discussion \"%s\"", actor.Username, discussion.Title),
	}
	if err := tx.Create(&n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// CommentCreatedAsync runs CommentCreated in the background and only logs failures.
func (s *NotificationService) CommentCreatedAsync(actor models.User, discussion models.Discussion, comment models.Comment) {
	go func() {
		if err := s.CommentCreated(context.Background(), &actor, &discussion, &comment); err != nil {
			log.Error().Err(err).Uint("comment_id", comment.ID).Msg("reply notification failed")
		}
	}()
}

// List returns the newest notifications of a user.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.Notification
	err := s.db.WithContext(ctx).Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// MarkRead flags one notification of the user as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of the user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// UnreadCount counts unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
