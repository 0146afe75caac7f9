package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Baaaki/instagallery/internal/audit"
	"github.com/Baaaki/instagallery/internal/authz"
	"github.com/Baaaki/instagallery/internal/feed"
	"github.com/Baaaki/instagallery/internal/handler"
	"github.com/Baaaki/instagallery/internal/repository"
	"github.com/Baaaki/instagallery/internal/service"
	"github.com/Baaaki/instagallery/internal/session"
	"github.com/Baaaki/instagallery/internal/storage"
	"github.com/Baaaki/instagallery/internal/testutil"
	"github.com/Baaaki/instagallery/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret-key"
	mediaBaseURL = "http://localhost:8080"
	maxUpload    = 64 << 10
)

// testServer is the full HTTP stack over sqlite, miniredis and a temp dir
type testServer struct {
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis
	journal   *audit.Journal
	router    *gin.Engine
	mediaDir  string
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	logger.Init(false)

	srv := &testServer{}
	srv.testDB = testutil.SetupTestDatabase(t)
	srv.testRedis = testutil.SetupTestRedis(t)

	journal, err := audit.NewJournal(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)
	srv.journal = journal

	srv.mediaDir = t.TempDir()
	local, err := storage.NewLocalStorage(srv.mediaDir, mediaBaseURL)
	require.NoError(t, err)

	db := srv.testDB.DB
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	followRepo := repository.NewFollowRepository(db)
	filterRepo := repository.NewFilterRepository(db)
	sessions := session.NewRedisStoreFromClient(srv.testRedis.Client)
	policy := authz.Policy{}

	srv.router = handler.NewRouter(handler.RouterConfig{
		AuthService: service.NewAuthService(userRepo, sessions, testSecret, time.Hour, "development",
			service.WithHashParams(testutil.FastHashParams)),
		UserService:        service.NewUserService(userRepo, postRepo, followRepo, sessions, journal, policy),
		PostService:        service.NewPostService(postRepo, userRepo, filterRepo, feed.NewComposer(followRepo, postRepo), journal, policy),
		MediaService:       service.NewMediaService(local, filterRepo, maxUpload),
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		MediaDir:           srv.mediaDir,
	})
	return srv
}

func (srv *testServer) teardown(t *testing.T) {
	srv.journal.Close()
	srv.testRedis.Teardown(t)
	srv.testDB.Teardown(t)
}

func (srv *testServer) reset(t *testing.T) {
	testutil.CleanDatabase(t, srv.testDB.DB)
	srv.testRedis.Server.FlushAll()
}

func (srv *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	return testutil.PerformRequest(t, srv.router, method, path, body, token)
}

// login signs in a fixture user and returns the bearer token
func (srv *testServer) login(t *testing.T, username string) string {
	w := srv.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    username + "@example.com",
		"password": testutil.DefaultPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token, ok := testutil.DecodeJSON(t, w)["token"].(string)
	require.True(t, ok)
	return token
}

// upload posts data as the multipart "file" field
func (srv *testServer) upload(t *testing.T, filename string, data []byte, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != nil {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}
