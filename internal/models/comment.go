package models

import "time"

// MaxCommentLength keeps comments concise; the column is sized to match.
const MaxCommentLength = 500

type Comment struct {
	ID       int `gorm:"primaryKey" json:"id"`
	AuthorID int `gorm:"not null" json:"author_id"`
	// AuthorUsername is a denormalized display copy of the author's current
	// username. When a user renames, every comment they authored gets this
	// field rewritten in the background.
	AuthorUsername string `gorm:"not null" json:"author_username"`
	StationID      int    `gorm:"not null;index" json:"station_id"`
	Text           string `gorm:"size:500;not null" json:"text"`

	Upvotes   int `gorm:"default:0" json:"upvotes"`
	Downvotes int `gorm:"default:0" json:"downvotes"`

	Votes []CommentVote `gorm:"foreignKey:CommentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
