package comments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmcrisostomo/lrt-density/backend/internal/models"
)

// Service owns the comment lifecycle and the vote ledger.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// VoteResult is what the vote endpoint returns for the client to render.
type VoteResult struct {
	Upvotes      int       `json:"upvotes"`
	Downvotes    int       `json:"downvotes"`
	NewVoteState VoteState `json:"newVoteState"`
}

// Vote applies one vote click for a viewer. The whole read-modify-write
// runs in a single transaction holding a row lock on the comment, so
// concurrent votes on the same comment serialize while votes on other
// comments proceed untouched. Counters and the vote row always change
// together.
func (s *Service) Vote(ctx context.Context, viewer Viewer, commentID int, voteType string) (VoteResult, error) {
	if viewer.IsAnonymous() {
		return VoteResult{}, ErrUnauthenticated
	}

	polarity, err := ParsePolarity(voteType)
	if err != nil {
		return VoteResult{}, err
	}

	var result VoteResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&comment, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load comment: %w", err)
		}

		var existing models.CommentVote
		ballot := Ballot{}
		hasVote := true
		if err := tx.Where("comment_id = ? AND user_id = ?", comment.ID, viewer.ID).First(&existing).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load vote: %w", err)
			}
			hasVote = false
		} else {
			ballot = Ballot{
				Upvoted:   existing.VoteType == int(PolarityUp),
				Downvoted: existing.VoteType == int(PolarityDown),
			}
		}

		next, delta, state := ballot.Apply(polarity)

		switch {
		case !hasVote:
			vote := models.CommentVote{CommentID: comment.ID, UserID: viewer.ID, VoteType: int(polarity)}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("record vote: %w", err)
			}
		case next == (Ballot{}):
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("remove vote: %w", err)
			}
		default:
			existing.VoteType = int(polarity)
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("switch vote: %w", err)
			}
		}

		comment.Upvotes += delta.Up
		comment.Downvotes += delta.Down
		updates := map[string]interface{}{
			"upvotes":   comment.Upvotes,
			"downvotes": comment.Downvotes,
		}
		if err := tx.Model(&comment).Updates(updates).Error; err != nil {
			return fmt.Errorf("update counters: %w", err)
		}

		result = VoteResult{
			Upvotes:      comment.Upvotes,
			Downvotes:    comment.Downvotes,
			NewVoteState: state,
		}
		return nil
	})
	if err != nil {
		return VoteResult{}, err
	}
	return result, nil
}

// Create posts a new comment against an existing station. Author identity
// and username are snapshotted from the viewer.
func (s *Service) Create(ctx context.Context, viewer Viewer, stationID int, text string) (*models.Comment, error) {
	if viewer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	var station models.Station
	if err := s.db.WithContext(ctx).First(&station, stationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load station: %w", err)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(trimmed) > models.MaxCommentLength {
		return nil, ErrTextTooLong
	}

	comment := models.Comment{
		AuthorID:       viewer.ID,
		AuthorUsername: viewer.Username,
		StationID:      station.ID,
		Text:           trimmed,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &comment, nil
}

// Edit replaces a comment's text. Author only; even admins are refused.
// Vote state and every other field stay untouched.
func (s *Service) Edit(ctx context.Context, viewer Viewer, commentID int, newText string) (*models.Comment, error) {
	if viewer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load comment: %w", err)
	}

	trimmed := strings.TrimSpace(newText)
	if trimmed == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(trimmed) > models.MaxCommentLength {
		return nil, ErrTextTooLong
	}

	if comment.AuthorID != viewer.ID {
		return nil, ErrForbidden
	}

	if err := s.db.WithContext(ctx).Model(&comment).Update("text", trimmed).Error; err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	comment.Text = trimmed
	return &comment, nil
}

// Delete permanently removes a comment and its votes. Author or admin.
func (s *Service) Delete(ctx context.Context, viewer Viewer, commentID int) error {
	if viewer.IsAnonymous() {
		return ErrUnauthenticated
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load comment: %w", err)
	}

	if comment.AuthorID != viewer.ID && !viewer.IsAdmin() {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.CommentVote{}).Error; err != nil {
			return fmt.Errorf("delete votes: %w", err)
		}
		if err := tx.Delete(&comment).Error; err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		return nil
	})
}

// Get loads a single comment with its voter sets.
func (s *Service) Get(ctx context.Context, commentID int) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("Votes").First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load comment: %w", err)
	}
	return &comment, nil
}

// ForStation returns a station's comments newest-first with voter sets
// loaded, ready for Project.
func (s *Service) ForStation(ctx context.Context, stationID int) ([]models.Comment, error) {
	var list []models.Comment
	err := s.db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Preload("Votes").
		Order("created_at desc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return list, nil
}

// Recent returns the newest comments across all stations, for the home feed.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.Comment, error) {
	var list []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Votes").
		Order("created_at desc").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return list, nil
}

// ByAuthor returns a user's comments newest-first, for profile pages.
func (s *Service) ByAuthor(ctx context.Context, authorID int) ([]models.Comment, error) {
	var list []models.Comment
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Preload("Votes").
		Order("created_at desc").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	return list, nil
}

// RenameAuthor rewrites the denormalized username on every comment the
// author wrote.
func (s *Service) RenameAuthor(ctx context.Context, authorID int, newUsername string) error {
	err := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("author_id = ?", authorID).
		Update("author_username", newUsername).Error
	if err != nil {
		return fmt.Errorf("rename author on comments: %w", err)
	}
	return nil
}

// SyncAuthorRename runs RenameAuthor in the background. The rename request
// never waits on it; the denormalized field is eventually consistent and a
// failure here is logged, not surfaced.
func (s *Service) SyncAuthorRename(authorID int, newUsername string) {
	go func() {
		if err := s.RenameAuthor(context.Background(), authorID, newUsername); err != nil {
			log.Printf("Failed to update comment usernames: %v", err)
		}
	}()
}
