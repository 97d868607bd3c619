package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"showtalk/internal/metrics"
	"showtalk/internal/models"
	"showtalk/internal/utils"
)

// ActivityService 异步刷新讨论的评论数与热度
type ActivityService struct {
	db      *gorm.DB
	queue   chan uint // 待更新的讨论 ID 队列
	pending map[uint]bool
	mu      sync.Mutex
	now     func() time.Time

	batchSize int
	interval  time.Duration
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{
		db:        db,
		queue:     make(chan uint, 1000), // 缓冲队列，防止阻塞
		pending:   make(map[uint]bool),
		now:       time.Now,
		batchSize: 50,
		interval:  500 * time.Millisecond,
	}
}

// Start runs the background worker until ctx is cancelled.
func (s *ActivityService) Start(ctx context.Context) {
	go s.worker(ctx)
}

// ScheduleUpdate 将讨论加入更新队列（异步）
// 使用去重机制避免短时间内重复计算同一讨论
func (s *ActivityService) ScheduleUpdate(discussionID uint) {
	s.mu.Lock()
	if s.pending[discussionID] {
		s.mu.Unlock()
		return
	}
	s.pending[discussionID] = true
	s.mu.Unlock()

	select {
	case s.queue <- discussionID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, discussionID)
		s.mu.Unlock()
		metrics.ActivityQueueDropped.Inc()
		log.Warn().Uint("discussion_id", discussionID).Msg("activity queue full, skipping recount")
	}
}

func (s *ActivityService) worker(ctx context.Context) {
	batch := make([]uint, 0, s.batchSize)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				s.processBatch(context.Background(), batch)
			}
			return
		case id := <-s.queue:
			batch = append(batch, id)
			if len(batch) >= s.batchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *ActivityService) processBatch(ctx context.Context, ids []uint) {
	for _, id := range ids {
		err := s.UpdateSync(ctx, id)
		metrics.ActivityUpdates.WithLabelValues(metrics.Outcome(err)).Inc()
		if err != nil {
			log.Error().Err(err).Uint("discussion_id", id).Msg("discussion recount failed")
		}

		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}
}

// UpdateSync recounts comments and votes of one discussion and stores the
// comment count and hot score.
func (s *ActivityService) UpdateSync(ctx context.Context, discussionID uint) error {
	tx := s.db.WithContext(ctx)

	var discussion models.Discussion
	if err := tx.First(&discussion, discussionID).Error; err != nil {
		return fmt.Errorf("load discussion %d: %w", discussionID, err)
	}

	var comments int64
	if err := tx.Model(&models.Comment{}).
		Where("discussion_id = ? AND is_deleted = ?", discussionID, false).
		Count(&comments).Error; err != nil {
		return fmt.Errorf("count comments: %w", err)
	}

	var votes struct {
		Upvotes   int
		Downvotes int
	}
	if err := tx.Model(&models.Vote{}).
		Select("COALESCE(SUM(CASE WHEN votes.value = 1 THEN 1 ELSE 0 END), 0) AS upvotes, "+
			"COALESCE(SUM(CASE WHEN votes.value = -1 THEN 1 ELSE 0 END), 0) AS downvotes").
		Joins("JOIN comments ON comments.id = votes.comment_id").
		Where("comments.discussion_id = ?", discussionID).
		Scan(&votes).Error; err != nil {
		return fmt.Errorf("count votes: %w", err)
	}

	score := utils.CalculateHotScore(discussion.CreatedAt, s.now(), int(comments), votes.Upvotes, votes.Downvotes)

	return tx.Model(&discussion).UpdateColumns(map[string]interface{}{
		"comment_count": comments,
		"score":         int(score),
	}).Error
}
