package comments

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mmcrisostomo/lrt-density/backend/internal/models"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("lrt_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		log.Printf("postgres container unavailable, service tests will skip: %v", err)
		os.Exit(m.Run())
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err == nil {
		var db *gorm.DB
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err == nil {
			err = db.AutoMigrate(
				&models.User{},
				&models.Station{},
				&models.Comment{},
				&models.CommentVote{},
			)
			if err == nil {
				testDB = db
			}
		}
	}
	if err != nil {
		log.Printf("test database setup failed, service tests will skip: %v", err)
	}

	code := m.Run()

	if terr := testcontainers.TerminateContainer(ctr); terr != nil {
		log.Printf("failed to terminate container: %v", terr)
	}
	os.Exit(code)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres container unavailable")
	}
	require.NoError(t, testDB.Exec(
		"TRUNCATE comment_votes, comments, stations, users RESTART IDENTITY CASCADE").Error)
	return NewService(testDB)
}

func seedUser(t *testing.T, username, role string) models.User {
	t.Helper()
	user := models.User{Username: username, Password: "x", Role: role}
	require.NoError(t, testDB.Create(&user).Error)
	return user
}

func seedStation(t *testing.T, name string, order int) models.Station {
	t.Helper()
	station := models.Station{Name: name, Order: order}
	require.NoError(t, testDB.Create(&station).Error)
	return station
}

func seedComment(t *testing.T, author models.User, station models.Station, text string) models.Comment {
	t.Helper()
	comment := models.Comment{
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		StationID:      station.ID,
		Text:           text,
	}
	require.NoError(t, testDB.Create(&comment).Error)
	return comment
}

func asViewer(u models.User) Viewer {
	return Viewer{ID: u.ID, Username: u.Username, Role: u.Role}
}

// reload fetches the comment fresh and checks the counter invariant against
// the actual vote rows.
func reload(t *testing.T, id int) models.Comment {
	t.Helper()
	var comment models.Comment
	require.NoError(t, testDB.Preload("Votes").First(&comment, id).Error)

	up, down := 0, 0
	seen := map[int]bool{}
	for _, v := range comment.Votes {
		require.False(t, seen[v.UserID], "user %d voted twice on comment %d", v.UserID, id)
		seen[v.UserID] = true
		if v.VoteType == int(PolarityUp) {
			up++
		} else {
			down++
		}
	}
	require.Equal(t, up, comment.Upvotes, "upvote counter != upvoter set size")
	require.Equal(t, down, comment.Downvotes, "downvote counter != downvoter set size")
	return comment
}

func TestVoteScenario(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, "author", models.RoleUser)
	voter := seedUser(t, "voter_a", models.RoleUser)
	station := seedStation(t, "Baclaran", 1)
	comment := seedComment(t, author, station, "crush load by 5pm")

	result, err := svc.Vote(ctx, asViewer(voter), comment.ID, "upvote")
	require.NoError(t, err)
	assert.Equal(t, VoteResult{Upvotes: 1, Downvotes: 0, NewVoteState: VoteStateUp}, result)
	reload(t, comment.ID)

	result, err = svc.Vote(ctx, asViewer(voter), comment.ID, "downvote")
	require.NoError(t, err)
	assert.Equal(t, VoteResult{Upvotes: 0, Downvotes: 1, NewVoteState: VoteStateDown}, result)
	reload(t, comment.ID)

	result, err = svc.Vote(ctx, asViewer(voter), comment.ID, "downvote")
	require.NoError(t, err)
	assert.Equal(t, VoteResult{Upvotes: 0, Downvotes: 0, NewVoteState: VoteStateNone}, result)

	final := reload(t, comment.ID)
	assert.Empty(t, final.Votes)
}

func TestVotePreconditions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, "author", models.RoleUser)
	voter := seedUser(t, "voter", models.RoleUser)
	station := seedStation(t, "Monumento", 1)
	comment := seedComment(t, author, station, "still moving fine")

	_, err := svc.Vote(ctx, Viewer{}, comment.ID, "upvote")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Vote(ctx, asViewer(voter), comment.ID, "sideways")
	assert.ErrorIs(t, err, ErrInvalidVote)

	_, err = svc.Vote(ctx, asViewer(voter), 99999, "upvote")
	assert.ErrorIs(t, err, ErrNotFound)

	// None of the failures may have touched the ledger
	final := reload(t, comment.ID)
	assert.Zero(t, final.Upvotes)
	assert.Zero(t, final.Downvotes)
	assert.Empty(t, final.Votes)
}

func TestVoteSetsStayDisjoint(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, "author", models.RoleUser)
	a := seedUser(t, "voter_a", models.RoleUser)
	b := seedUser(t, "voter_b", models.RoleUser)
	station := seedStation(t, "EDSA", 1)
	comment := seedComment(t, author, station, "northbound queue past the stairs")

	_, err := svc.Vote(ctx, asViewer(a), comment.ID, "upvote")
	require.NoError(t, err)
	_, err = svc.Vote(ctx, asViewer(b), comment.ID, "downvote")
	require.NoError(t, err)

	loaded := reload(t, comment.ID)
	assert.Equal(t, 1, loaded.Upvotes)
	assert.Equal(t, 1, loaded.Downvotes)

	// Switching one voter moves them between sets, never into both
	_, err = svc.Vote(ctx, asViewer(a), comment.ID, "downvote")
	require.NoError(t, err)

	loaded = reload(t, comment.ID)
	assert.Equal(t, 0, loaded.Upvotes)
	assert.Equal(t, 2, loaded.Downvotes)
}

func TestConcurrentVotesOnOneComment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, "author", models.RoleUser)
	station := seedStation(t, "Libertad", 1)
	comment := seedComment(t, author, station, "heavy since the earlier stoppage")

	const voters = 12
	users := make([]models.User, voters)
	for i := range users {
		users[i] = seedUser(t, fmt.Sprintf("voter_%d", i), models.RoleUser)
	}

	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := range users {
		wg.Add(1)
		go func(u models.User) {
			defer wg.Done()
			if _, err := svc.Vote(ctx, asViewer(u), comment.ID, "upvote"); err != nil {
				errs <- err
			}
		}(users[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent vote failed: %v", err)
	}

	final := reload(t, comment.ID)
	assert.Equal(t, voters, final.Upvotes)
	assert.Zero(t, final.Downvotes)
	assert.Len(t, final.Votes, voters)
}

func TestConcurrentToggleStorm(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, "author", models.RoleUser)
	station := seedStation(t, "Gil Puyat", 1)
	comment := seedComment(t, author, station, "platform clearing out now")

	const voters = 8
	users := make([]models.User, voters)
	for i := range users {
		users[i] = seedUser(t, fmt.Sprintf("voter_%d", i), models.RoleUser)
	}

	// Each voter lands on none: up, switch to down, toggle off
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := range users {
		wg.Add(1)
		go func(u models.User) {
			defer wg.Done()
			for _, voteType := range []string{"upvote", "downvote", "downvote"} {
				if _, err := svc.Vote(ctx, asViewer(u), comment.ID, voteType); err != nil {
					errs <- err
					return
				}
			}
		}(users[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent vote failed: %v", err)
	}

	final := reload(t, comment.ID)
	assert.Zero(t, final.Upvotes)
	assert.Zero(t, final.Downvotes)
	assert.Empty(t, final.Votes)
}

func TestVotesOnDifferentCommentsAreIndependent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, "author", models.RoleUser)
	voter := seedUser(t, "voter", models.RoleUser)
	station := seedStation(t, "Doroteo Jose", 1)
	first := seedComment(t, author, station, "LRT-2 transfer crowded")
	second := seedComment(t, author, station, "second platform fine")

	_, err := svc.Vote(ctx, asViewer(voter), first.ID, "upvote")
	require.NoError(t, err)
	_, err = svc.Vote(ctx, asViewer(voter), second.ID, "downvote")
	require.NoError(t, err)

	assert.Equal(t, 1, reload(t, first.ID).Upvotes)
	assert.Equal(t, 1, reload(t, second.ID).Downvotes)
	assert.Zero(t, reload(t, first.ID).Downvotes)
}

func TestCreateComment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user := seedUser(t, "commuter", models.RoleUser)
	station := seedStation(t, "Carriedo", 1)

	comment, err := svc.Create(ctx, asViewer(user), station.ID, "  trains every 4 minutes  ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, comment.AuthorID)
	assert.Equal(t, "commuter", comment.AuthorUsername)
	assert.Equal(t, station.ID, comment.StationID)
	assert.Equal(t, "trains every 4 minutes", comment.Text)
	assert.Zero(t, comment.Upvotes)
	assert.Zero(t, comment.Downvotes)
	assert.False(t, comment.CreatedAt.IsZero())
}

func TestCreateCommentFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user := seedUser(t, "commuter", models.RoleUser)
	station := seedStation(t, "Carriedo", 1)

	_, err := svc.Create(ctx, Viewer{}, station.ID, "hello")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Create(ctx, asViewer(user), 999, "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(ctx, asViewer(user), station.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = svc.Create(ctx, asViewer(user), station.ID, strings.Repeat("a", models.MaxCommentLength+1))
	assert.ErrorIs(t, err, ErrTextTooLong)

	var count int64
	require.NoError(t, testDB.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEditComment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, "author", models.RoleUser)
	admin := seedUser(t, "boss", models.RoleAdmin)
	other := seedUser(t, "other", models.RoleUser)
	voter := seedUser(t, "voter", models.RoleUser)
	station := seedStation(t, "Central Terminal", 1)
	comment := seedComment(t, author, station, "original text")

	_, err := svc.Vote(ctx, asViewer(voter), comment.ID, "upvote")
	require.NoError(t, err)

	_, err = svc.Edit(ctx, Viewer{}, comment.ID, "new text")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Edit(ctx, asViewer(author), 999, "new text")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Edit(ctx, asViewer(author), comment.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyText)

	// Admins may delete other people's comments but never edit them
	_, err = svc.Edit(ctx, asViewer(admin), comment.ID, "admin rewrite")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Edit(ctx, asViewer(other), comment.ID, "drive-by rewrite")
	assert.ErrorIs(t, err, ErrForbidden)

	// Failed edits leave the stored text alone
	assert.Equal(t, "original text", reload(t, comment.ID).Text)

	edited, err := svc.Edit(ctx, asViewer(author), comment.ID, "  corrected text  ")
	require.NoError(t, err)
	assert.Equal(t, "corrected text", edited.Text)

	// Vote state survives an edit
	final := reload(t, comment.ID)
	assert.Equal(t, "corrected text", final.Text)
	assert.Equal(t, 1, final.Upvotes)
	assert.Len(t, final.Votes, 1)
}

func TestDeleteComment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, "author", models.RoleUser)
	admin := seedUser(t, "boss", models.RoleAdmin)
	other := seedUser(t, "other", models.RoleUser)
	station := seedStation(t, "UN Avenue", 1)

	mine := seedComment(t, author, station, "keep this one")
	theirs := seedComment(t, author, station, "admin will remove this")

	_, err := svc.Vote(ctx, asViewer(other), mine.ID, "upvote")
	require.NoError(t, err)

	err = svc.Delete(ctx, Viewer{}, mine.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	err = svc.Delete(ctx, asViewer(other), mine.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Forbidden delete leaves the comment retrievable
	_, err = svc.Get(ctx, mine.ID)
	require.NoError(t, err)

	// Author removes their own, votes go with it
	require.NoError(t, svc.Delete(ctx, asViewer(author), mine.ID))
	_, err = svc.Get(ctx, mine.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var orphanVotes int64
	require.NoError(t, testDB.Model(&models.CommentVote{}).Where("comment_id = ?", mine.ID).Count(&orphanVotes).Error)
	assert.Zero(t, orphanVotes)

	// Admin removes someone else's
	require.NoError(t, svc.Delete(ctx, asViewer(admin), theirs.ID))
	_, err = svc.Get(ctx, theirs.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(ctx, asViewer(author), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForStationOrdersNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, "author", models.RoleUser)
	station := seedStation(t, "Pedro Gil", 1)
	elsewhere := seedStation(t, "Quirino", 2)

	old := models.Comment{
		AuthorID: author.ID, AuthorUsername: author.Username,
		StationID: station.ID, Text: "older",
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, testDB.Create(&old).Error)
	fresh := seedComment(t, author, station, "newer")
	seedComment(t, author, elsewhere, "different station")

	list, err := svc.ForStation(ctx, station.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, fresh.ID, list[0].ID)
	assert.Equal(t, old.ID, list[1].ID)
}

func TestRenameAuthorAcrossComments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	renamed := seedUser(t, "old_name", models.RoleUser)
	bystander := seedUser(t, "bystander", models.RoleUser)
	station := seedStation(t, "Vito Cruz", 1)

	first := seedComment(t, renamed, station, "one")
	second := seedComment(t, renamed, station, "two")
	untouched := seedComment(t, bystander, station, "not mine")

	require.NoError(t, svc.RenameAuthor(ctx, renamed.ID, "new_name"))

	assert.Equal(t, "new_name", reload(t, first.ID).AuthorUsername)
	assert.Equal(t, "new_name", reload(t, second.ID).AuthorUsername)
	assert.Equal(t, "bystander", reload(t, untouched.ID).AuthorUsername)
}
