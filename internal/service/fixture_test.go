package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Baaaki/instagallery/internal/audit"
	"github.com/Baaaki/instagallery/internal/authz"
	"github.com/Baaaki/instagallery/internal/feed"
	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/internal/repository"
	"github.com/Baaaki/instagallery/internal/service"
	"github.com/Baaaki/instagallery/internal/session"
	"github.com/Baaaki/instagallery/internal/testutil"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-service-tests"

// fixture wires real repositories over sqlite and sessions over miniredis
type fixture struct {
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis
	journal   *audit.Journal

	users    *repository.UserRepository
	posts    *repository.PostRepository
	sessions *session.RedisStore

	auth *service.AuthService
	user *service.UserService
	post *service.PostService
	ctx  context.Context
}

func newFixture(t *testing.T, policy authz.Policy) *fixture {
	logger.Init(false)

	f := &fixture{ctx: context.Background()}
	f.testDB = testutil.SetupTestDatabase(t)
	f.testRedis = testutil.SetupTestRedis(t)

	journal, err := audit.NewJournal(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)
	f.journal = journal

	db := f.testDB.DB
	f.users = repository.NewUserRepository(db)
	f.posts = repository.NewPostRepository(db)
	follows := repository.NewFollowRepository(db)
	filters := repository.NewFilterRepository(db)
	f.sessions = session.NewRedisStoreFromClient(f.testRedis.Client)

	f.auth = service.NewAuthService(f.users, f.sessions, testSecret, time.Hour, "test",
		service.WithHashParams(testutil.FastHashParams))
	f.user = service.NewUserService(f.users, f.posts, follows, f.sessions, journal, policy)
	f.post = service.NewPostService(f.posts, f.users, filters, feed.NewComposer(follows, f.posts), journal, policy)
	return f
}

func (f *fixture) teardown(t *testing.T) {
	f.journal.Close()
	f.testRedis.Teardown(t)
	f.testDB.Teardown(t)
}

func (f *fixture) reset(t *testing.T) {
	testutil.CleanDatabase(t, f.testDB.DB)
	f.testRedis.Server.FlushAll()
}

func principalOf(u *models.User) authz.Principal {
	return authz.User(u.ID, u.Role)
}

func image(url string) service.MediaInput {
	return service.MediaInput{MediaFileURL: url, MediaType: models.MediaTypeImage}
}

func strPtr(s string) *string {
	return &s
}

func kindOf(err error) models.ErrorKind {
	return models.KindOf(err)
}
