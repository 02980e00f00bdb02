package comments

import (
	"github.com/mmcrisostomo/lrt-density/backend/internal/models"
)

// Viewer is the identity acting on a comment, threaded in explicitly from
// the auth middleware. The zero value is an anonymous viewer.
type Viewer struct {
	ID       int
	Username string
	Role     string
}

func (v Viewer) IsAnonymous() bool {
	return v.ID == 0
}

func (v Viewer) IsAdmin() bool {
	return v.Role == models.RoleAdmin
}

// Permissions are the per-viewer flags a comment renders with.
type Permissions struct {
	UserVote  VoteState `json:"user_vote"`
	CanEdit   bool      `json:"can_edit"`
	CanDelete bool      `json:"can_delete"`
}

// BallotFor reads a user's voter-set membership out of a loaded comment.
func BallotFor(c *models.Comment, userID int) Ballot {
	for _, vote := range c.Votes {
		if vote.UserID == userID {
			return Ballot{
				Upvoted:   vote.VoteType == int(PolarityUp),
				Downvoted: vote.VoteType == int(PolarityDown),
			}
		}
	}
	return Ballot{}
}

// Evaluate computes what a viewer may do with a comment. Editing is the
// author's alone — admins can delete other people's comments but never
// rewrite them.
func Evaluate(c *models.Comment, viewer Viewer) Permissions {
	if viewer.IsAnonymous() {
		return Permissions{UserVote: VoteStateNone}
	}

	isAuthor := c.AuthorID == viewer.ID
	return Permissions{
		UserVote:  BallotFor(c, viewer.ID).State(),
		CanEdit:   isAuthor,
		CanDelete: isAuthor || viewer.IsAdmin(),
	}
}

// AnnotatedComment is a comment plus the viewer-specific flags the page
// renders with.
type AnnotatedComment struct {
	models.Comment
	Permissions
}

// Project annotates a list of comments for one viewer, preserving order.
func Project(list []models.Comment, viewer Viewer) []AnnotatedComment {
	annotated := make([]AnnotatedComment, 0, len(list))
	for i := range list {
		annotated = append(annotated, AnnotatedComment{
			Comment:     list[i],
			Permissions: Evaluate(&list[i], viewer),
		})
	}
	return annotated
}
