package comments

// Polarity is the direction of a vote. The values double as the stored
// vote_type column.
type Polarity int

const (
	PolarityUp   Polarity = 1
	PolarityDown Polarity = -1
)

// ParsePolarity maps the wire values ("upvote"/"downvote") to a Polarity.
func ParsePolarity(voteType string) (Polarity, error) {
	switch voteType {
	case "upvote":
		return PolarityUp, nil
	case "downvote":
		return PolarityDown, nil
	default:
		return 0, ErrInvalidVote
	}
}

// VoteState is a viewer's resulting relationship to a comment, as the
// frontend displays it.
type VoteState string

const (
	VoteStateUp   VoteState = "upvoted"
	VoteStateDown VoteState = "downvoted"
	VoteStateNone VoteState = "none"
)

// Ballot is one user's current membership in a comment's voter sets.
// At most one of the two flags is set.
type Ballot struct {
	Upvoted   bool
	Downvoted bool
}

// Delta is the counter adjustment a transition produces.
type Delta struct {
	Up   int
	Down int
}

// State reports which voter set the ballot currently belongs to.
func (b Ballot) State() VoteState {
	switch {
	case b.Upvoted:
		return VoteStateUp
	case b.Downvoted:
		return VoteStateDown
	default:
		return VoteStateNone
	}
}

// Apply runs the tri-state toggle for one vote click:
// clicking the same polarity again removes the vote, clicking the opposite
// polarity switches it, and a first click records it. The returned delta
// keeps the comment counters equal to the voter-set sizes.
func (b Ballot) Apply(p Polarity) (Ballot, Delta, VoteState) {
	same := (p == PolarityUp && b.Upvoted) || (p == PolarityDown && b.Downvoted)
	opposite := (p == PolarityUp && b.Downvoted) || (p == PolarityDown && b.Upvoted)

	switch {
	case same:
		// Toggle off
		if p == PolarityUp {
			return Ballot{}, Delta{Up: -1}, VoteStateNone
		}
		return Ballot{}, Delta{Down: -1}, VoteStateNone
	case opposite:
		// Switch sides
		if p == PolarityUp {
			return Ballot{Upvoted: true}, Delta{Up: 1, Down: -1}, VoteStateUp
		}
		return Ballot{Downvoted: true}, Delta{Up: -1, Down: 1}, VoteStateDown
	default:
		// First vote
		if p == PolarityUp {
			return Ballot{Upvoted: true}, Delta{Up: 1}, VoteStateUp
		}
		return Ballot{Downvoted: true}, Delta{Down: 1}, VoteStateDown
	}
}
