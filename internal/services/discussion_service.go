package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"showtalk/internal/models"
)

const maxTitleLength = 200

// DiscussionInput creates a discussion on a show, a season or an episode.
type DiscussionInput struct {
	ShowID        uint   `json:"showId" binding:"required"`
	SeasonNumber  *int   `json:"seasonNumber"`
	EpisodeNumber *int   `json:"episodeNumber"`
	Title         string `json:"title" binding:"required"`
	Body          string `json:"body"`
	Spoiler       bool   `json:"spoiler"`
}

// DiscussionFilter selects discussions of one target. Nil numbers match
// discussions about the whole show or season.
type DiscussionFilter struct {
	ShowID        uint
	SeasonNumber  *int
	EpisodeNumber *int
	Sort          string // "hot" or "new"
	Offset        int
	Limit         int
}

type DiscussionService struct {
	db *gorm.DB
}

func NewDiscussionService(db *gorm.DB) *DiscussionService {
	return &DiscussionService{db: db}
}

func (s *DiscussionService) Create(ctx context.Context, user *models.User, in DiscussionInput) (*models.Discussion, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxTitleLength)
	}
	if in.ShowID == 0 {
		return nil, fmt.Errorf("%w: showId", ErrInvalidInput)
	}
	if in.EpisodeNumber != nil && in.SeasonNumber == nil {
		return nil, fmt.Errorf("%w: episodeNumber requires seasonNumber", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Body) > MaxCommentLength {
		return nil, fmt.Errorf("%w: body too long", ErrInvalidInput)
	}

	d := models.Discussion{
		UserID:        user.ID,
		ShowID:        in.ShowID,
		SeasonNumber:  in.SeasonNumber,
		EpisodeNumber: in.EpisodeNumber,
		Title:         title,
		Body:          strings.TrimSpace(in.Body),
		Spoiler:       in.Spoiler,
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, fmt.Errorf("create discussion: %w", err)
	}
	d.User = *user
	return &d, nil
}

func (s *DiscussionService) Get(ctx context.Context, id uint) (*models.Discussion, error) {
	var d models.Discussion
	err := s.db.WithContext(ctx).Preload("User").First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load discussion: %w", err)
	}
	return &d, nil
}

// List returns discussions of a target, hottest first unless f.Sort is "new".
func (s *DiscussionService) List(ctx context.Context, f DiscussionFilter) ([]models.Discussion, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := s.db.WithContext(ctx).Model(&models.Discussion{}).Where("show_id = ?", f.ShowID)
	if f.SeasonNumber != nil {
		q = q.Where("season_number = ?", *f.SeasonNumber)
	} else {
		q = q.Where("season_number IS NULL")
	}
	if f.EpisodeNumber != nil {
		q = q.Where("episode_number = ?", *f.EpisodeNumber)
	} else {
		q = q.Where("episode_number IS NULL")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count discussions: %w", err)
	}

	order := "score DESC, created_at DESC"
	if f.Sort == "new" {
		order = "created_at DESC"
	}
	var out []models.Discussion
	err := q.Preload("User").Order(order).Order("id DESC").
		Offset(f.Offset).Limit(f.Limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list discussions: %w", err)
	}
	return out, total, nil
}
