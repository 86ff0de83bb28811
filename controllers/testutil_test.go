package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/avdeevm/blogapi/config"
	"github.com/avdeevm/blogapi/models"
	"github.com/avdeevm/blogapi/routes"
	"github.com/avdeevm/blogapi/utils"
)

var testDBSeq int64

// setupTestAPI builds the full HTTP stack backed by a private in-memory
// database. Config is process-wide, so every test sets the same environment
// before the first load.
func setupTestAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	os.Setenv("JWT_SECRET", "test-secret-key")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("LOG_LEVEL", "error")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "100000")
	os.Setenv("ADMIN_USERNAMES", "root_admin")
	// Point redis at a closed port: response caching becomes inert, so tests
	// with private databases can never see each other's cached payloads, and
	// token revocation exercises the in-memory fallback.
	os.Setenv("REDIS_HOST", "127.0.0.1")
	os.Setenv("REDIS_PORT", "1")

	cfg := config.Load()
	require.NoError(t, utils.InitLogger(cfg))

	dsn := fmt.Sprintf("file:apitest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Category{}, &models.Article{}, &models.Comment{}))

	return routes.SetupRouter(db), db
}

type apiEnvelope struct {
	Code    int                        `json:"code"`
	Message string                     `json:"message"`
	Data    map[string]json.RawMessage `json:"data"`
}

func doJSON(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

func registerUser(t *testing.T, r http.Handler, username, password string) {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/blog/register", gin.H{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, "register %s: %s", username, w.Body.String())
}

func loginUser(t *testing.T, r http.Handler, username, password string) (access, refresh string) {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, "login %s: %s", username, w.Body.String())

	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data["access_token"], &access))
	require.NoError(t, json.Unmarshal(env.Data["refresh_token"], &refresh))
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}

// createArticle registers a published article for the given token and returns its ID.
func createArticle(t *testing.T, r http.Handler, token, title, content string, categories ...uint) uint {
	t.Helper()
	body := gin.H{"title": title, "content": content}
	if len(categories) > 0 {
		body["categories"] = categories
	}
	w := doJSON(r, http.MethodPost, "/api/blog/articles", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	var article struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data["article"], &article))
	require.NotZero(t, article.ID)
	return article.ID
}

func createComment(t *testing.T, r http.Handler, token string, articleID uint, content string) uint {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/blog/comments", gin.H{
		"article_id": articleID,
		"content":    content,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	var comment struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data["comment"], &comment))
	require.NotZero(t, comment.ID)
	return comment.ID
}
