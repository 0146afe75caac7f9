package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Baaaki/instagallery/internal/models"
	"github.com/Baaaki/instagallery/internal/repository"
	"github.com/Baaaki/instagallery/internal/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type PostRepositoryIntegrationTestSuite struct {
	suite.Suite
	testDB   *testutil.TestDatabase
	postRepo *repository.PostRepository
	ctx      context.Context
}

func (s *PostRepositoryIntegrationTestSuite) SetupSuite() {
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.postRepo = repository.NewPostRepository(s.testDB.DB)
	s.ctx = context.Background()
}

func (s *PostRepositoryIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *PostRepositoryIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
}

// failInsertsInto makes every INSERT into table fail until the returned func is called
func (s *PostRepositoryIntegrationTestSuite) failInsertsInto(table string) func() {
	name := "test:fail_" + table
	err := s.testDB.DB.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			tx.AddError(errors.New("simulated write failure"))
		}
	})
	s.Require().NoError(err)
	return func() {
		s.Require().NoError(s.testDB.DB.Callback().Create().Remove(name))
	}
}

func media(urls ...string) []models.PostMedia {
	out := make([]models.PostMedia, 0, len(urls))
	for _, u := range urls {
		out = append(out, models.PostMedia{MediaFileURL: u, MediaType: models.MediaTypeImage})
	}
	return out
}

func (s *PostRepositoryIntegrationTestSuite) TestCreatePost_AssignsPositionsInOrder() {
	owner := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleUser)
	post := &models.Post{UserID: owner.ID, Visibility: models.VisibilityPublic}

	err := s.postRepo.CreatePost(s.ctx, post, media("c.jpg", "a.jpg", "b.jpg"))
	s.Require().NoError(err)
	s.NotZero(post.ID)

	loaded, err := s.postRepo.GetPostByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Require().NotNil(loaded)
	s.Require().NotNil(loaded.Author)
	s.Equal("alice", loaded.Author.Username)
	s.Require().Len(loaded.Media, 3)
	for i, want := range []string{"c.jpg", "a.jpg", "b.jpg"} {
		s.Equal(i, loaded.Media[i].Position)
		s.Equal(want, loaded.Media[i].MediaFileURL)
	}
}

func (s *PostRepositoryIntegrationTestSuite) TestCreatePost_RollsBackWhenMediaFails() {
	owner := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleUser)
	restore := s.failInsertsInto("post_media")
	defer restore()

	err := s.postRepo.CreatePost(s.ctx, &models.Post{UserID: owner.ID}, media("a.jpg"))

	s.Error(err)
	s.Equal(int64(0), testutil.CountRows(s.T(), s.testDB.DB, &models.Post{}))
	s.Equal(int64(0), testutil.CountRows(s.T(), s.testDB.DB, &models.PostMedia{}))
}

func (s *PostRepositoryIntegrationTestSuite) TestGetPostByID_Missing() {
	post, err := s.postRepo.GetPostByID(s.ctx, 4242)
	s.NoError(err)
	s.Nil(post)
}

func (s *PostRepositoryIntegrationTestSuite) TestUpdatePost_ReplacesMedia() {
	owner := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleUser)
	post := testutil.CreateTestPost(s.T(), s.testDB.DB, owner.ID, models.VisibilityPublic, 0, 3)
	oldIDs := []uint{post.Media[0].ID, post.Media[1].ID, post.Media[2].ID}

	err := s.postRepo.UpdatePost(s.ctx, post.ID, nil, true, media("new.mp4"))
	s.Require().NoError(err)

	loaded, err := s.postRepo.GetPostByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Require().Len(loaded.Media, 1)
	s.Equal("new.mp4", loaded.Media[0].MediaFileURL)
	s.Equal(0, loaded.Media[0].Position)
	s.True(loaded.UpdatedAt.After(post.UpdatedAt))

	var stale int64
	s.testDB.DB.Model(&models.PostMedia{}).Where("id IN ?", oldIDs).Count(&stale)
	s.Equal(int64(0), stale, "old media ids must no longer resolve")
}

func (s *PostRepositoryIntegrationTestSuite) TestUpdatePost_FieldsOnlyKeepsMedia() {
	owner := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleUser)
	post := testutil.CreateTestPost(s.T(), s.testDB.DB, owner.ID, models.VisibilityPublic, 0, 2)

	err := s.postRepo.UpdatePost(s.ctx, post.ID, map[string]interface{}{"caption": "edited"}, false, nil)
	s.Require().NoError(err)

	loaded, err := s.postRepo.GetPostByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal("edited", *loaded.Caption)
	s.Equal(models.VisibilityPublic, loaded.Visibility)
	s.Len(loaded.Media, 2)
}

func (s *PostRepositoryIntegrationTestSuite) TestUpdatePost_RollsBackWhenMediaFails() {
	owner := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleUser)
	post := testutil.CreateTestPost(s.T(), s.testDB.DB, owner.ID, models.VisibilityPublic, 0, 2)

	restore := s.failInsertsInto("post_media")
	err := s.postRepo.UpdatePost(s.ctx, post.ID, map[string]interface{}{"caption": "edited"}, true, media("x.jpg"))
	restore()
	s.Error(err)

	loaded, err := s.postRepo.GetPostByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal(*post.Caption, *loaded.Caption)
	s.Len(loaded.Media, 2, "previous media must survive a failed replace")
}

func (s *PostRepositoryIntegrationTestSuite) TestDeletePost_CascadesMedia() {
	owner := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleUser)
	post := testutil.CreateTestPost(s.T(), s.testDB.DB, owner.ID, models.VisibilityPublic, 0, 2)
	other := testutil.CreateTestPost(s.T(), s.testDB.DB, owner.ID, models.VisibilityPublic, 1, 1)

	deleted, err := s.postRepo.DeletePost(s.ctx, post.ID)
	s.Require().NoError(err)
	s.True(deleted)
	s.Equal(int64(1), testutil.CountRows(s.T(), s.testDB.DB, &models.PostMedia{}))

	deleted, err = s.postRepo.DeletePost(s.ctx, post.ID)
	s.NoError(err)
	s.False(deleted)

	kept, err := s.postRepo.GetPostByID(s.ctx, other.ID)
	s.NoError(err)
	s.NotNil(kept)
}

func (s *PostRepositoryIntegrationTestSuite) TestDeleteAllPosts() {
	a := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleUser)
	b := testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", models.RoleUser)
	testutil.CreateTestPost(s.T(), s.testDB.DB, a.ID, models.VisibilityPublic, 0, 1)
	testutil.CreateTestPost(s.T(), s.testDB.DB, b.ID, models.VisibilityPrivate, 1, 2)

	n, err := s.postRepo.DeleteAllPosts(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), n)
	s.Equal(int64(0), testutil.CountRows(s.T(), s.testDB.DB, &models.Post{}))
	s.Equal(int64(0), testutil.CountRows(s.T(), s.testDB.DB, &models.PostMedia{}))
	s.Equal(int64(2), testutil.CountRows(s.T(), s.testDB.DB, &models.User{}))
}

func (s *PostRepositoryIntegrationTestSuite) TestListByAuthors_OrderAndPaging() {
	a := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleUser)
	b := testutil.CreateTestUser(s.T(), s.testDB.DB, "bob", models.RoleUser)
	c := testutil.CreateTestUser(s.T(), s.testDB.DB, "carol", models.RoleUser)

	p1 := testutil.CreateTestPost(s.T(), s.testDB.DB, a.ID, models.VisibilityPublic, 1, 1)
	p2 := testutil.CreateTestPost(s.T(), s.testDB.DB, b.ID, models.VisibilityPrivate, 5, 1)
	// same timestamp as p2: the higher id wins the tie
	p3 := testutil.CreateTestPost(s.T(), s.testDB.DB, a.ID, models.VisibilityFriendsOnly, 5, 1)
	testutil.CreateTestPost(s.T(), s.testDB.DB, c.ID, models.VisibilityPublic, 9, 1)

	posts, err := s.postRepo.ListByAuthors(s.ctx, []uint{a.ID, b.ID}, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(posts, 3)
	s.Equal([]uint{p3.ID, p2.ID, p1.ID}, []uint{posts[0].ID, posts[1].ID, posts[2].ID})

	page, err := s.postRepo.ListByAuthors(s.ctx, []uint{a.ID, b.ID}, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(p1.ID, page[0].ID)

	empty, err := s.postRepo.ListByAuthors(s.ctx, nil, 0, 10)
	s.NoError(err)
	s.Empty(empty)
}

func (s *PostRepositoryIntegrationTestSuite) TestListByVisibilityAndAuthor() {
	a := testutil.CreateTestUser(s.T(), s.testDB.DB, "alice", models.RoleUser)
	pub := testutil.CreateTestPost(s.T(), s.testDB.DB, a.ID, models.VisibilityPublic, 1, 1)
	testutil.CreateTestPost(s.T(), s.testDB.DB, a.ID, models.VisibilityPrivate, 2, 1)

	public, err := s.postRepo.ListByVisibility(s.ctx, models.VisibilityPublic, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(public, 1)
	s.Equal(pub.ID, public[0].ID)

	all, err := s.postRepo.ListByAuthor(s.ctx, a.ID, false, 0, 10)
	s.Require().NoError(err)
	s.Len(all, 2)

	onlyPublic, err := s.postRepo.ListByAuthor(s.ctx, a.ID, true, 0, 10)
	s.Require().NoError(err)
	s.Len(onlyPublic, 1)

	n, err := s.postRepo.CountByUser(s.ctx, a.ID)
	s.NoError(err)
	s.Equal(int64(2), n)
}

func TestPostRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(PostRepositoryIntegrationTestSuite))
}
