package models

import "time"

// CommentVote is one user's active vote on one comment. The unique index on
// (comment_id, user_id) means a user is in at most one voter set at a time:
// switching polarity updates the row rather than adding a second one.
type CommentVote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	CommentID int       `gorm:"not null;uniqueIndex:idx_comment_voter" json:"comment_id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_comment_voter" json:"user_id"`
	VoteType  int       `gorm:"not null" json:"vote_type"` // 1 up, -1 down
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
