package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeevm/blogapi/models"
)

func TestCreateArticle(t *testing.T) {
	r, _ := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	access, _ := loginUser(t, r, "alice", "pw123456")

	w := doJSON(r, http.MethodPost, "/api/blog/articles", gin.H{
		"title":   "First post",
		"content": "Hello world",
	}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	var article struct {
		ID        uint `json:"id"`
		Published bool `json:"published"`
		Author    struct {
			Username string `json:"username"`
		} `json:"author"`
	}
	require.NoError(t, json.Unmarshal(env.Data["article"], &article))
	assert.NotZero(t, article.ID)
	assert.True(t, article.Published)
	assert.Equal(t, "alice", article.Author.Username)
}

func TestCreateArticleRequiresAuth(t *testing.T) {
	r, _ := setupTestAPI(t)

	w := doJSON(r, http.MethodPost, "/api/blog/articles", gin.H{
		"title":   "Anonymous",
		"content": "should fail",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateArticleValidation(t *testing.T) {
	r, _ := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	access, _ := loginUser(t, r, "alice", "pw123456")

	w := doJSON(r, http.MethodPost, "/api/blog/articles", gin.H{"content": "no title"}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/blog/articles", gin.H{
		"title":      "Tagged",
		"content":    "body",
		"categories": []uint{9999},
	}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown category must be rejected")
}

func TestUpdateArticleOwnership(t *testing.T) {
	r, _ := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	registerUser(t, r, "bob", "pw123456")
	aliceToken, _ := loginUser(t, r, "alice", "pw123456")
	bobToken, _ := loginUser(t, r, "bob", "pw123456")

	id := createArticle(t, r, aliceToken, "Original", "content")
	path := fmt.Sprintf("/api/blog/articles/%d", id)

	// A non-owner gets a hard 403, never a silent no-op.
	w := doJSON(r, http.MethodPut, path, gin.H{"title": "Hijacked"}, bobToken)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Original")

	w = doJSON(r, http.MethodPut, path, gin.H{"title": "Revised"}, aliceToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Revised")

	w = doJSON(r, http.MethodPut, "/api/blog/articles/424242", gin.H{"title": "x"}, aliceToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateArticleUnknownCategoryKeepsState(t *testing.T) {
	r, _ := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	access, _ := loginUser(t, r, "alice", "pw123456")

	id := createArticle(t, r, access, "Original", "untouched body")
	path := fmt.Sprintf("/api/blog/articles/%d", id)

	// A rejected update must not apply any of its fields.
	w := doJSON(r, http.MethodPut, path, gin.H{
		"title":      "Changed",
		"content":    "changed body",
		"categories": []uint{9999},
	}, access)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var article struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data["article"], &article))
	assert.Equal(t, "Original", article.Title)
	assert.Equal(t, "untouched body", article.Content)
}

func TestDeleteArticleOwnership(t *testing.T) {
	r, _ := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	registerUser(t, r, "bob", "pw123456")
	aliceToken, _ := loginUser(t, r, "alice", "pw123456")
	bobToken, _ := loginUser(t, r, "bob", "pw123456")

	id := createArticle(t, r, aliceToken, "Mine", "content")
	path := fmt.Sprintf("/api/blog/articles/%d", id)

	w := doJSON(r, http.MethodDelete, path, nil, bobToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodDelete, path, nil, aliceToken)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleting again is a 404, the record is gone.
	w = doJSON(r, http.MethodDelete, path, nil, aliceToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteArticleCascadesComments(t *testing.T) {
	r, db := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	registerUser(t, r, "bob", "pw123456")
	aliceToken, _ := loginUser(t, r, "alice", "pw123456")
	bobToken, _ := loginUser(t, r, "bob", "pw123456")

	id := createArticle(t, r, aliceToken, "Discussed", "content")
	createComment(t, r, bobToken, id, "first")
	createComment(t, r, aliceToken, id, "second")

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Where("article_id = ?", id).Count(&count).Error)
	require.EqualValues(t, 2, count)

	w := doJSON(r, http.MethodDelete, fmt.Sprintf("/api/blog/articles/%d", id), nil, aliceToken)
	require.Equal(t, http.StatusNoContent, w.Code)

	require.NoError(t, db.Model(&models.Comment{}).Where("article_id = ?", id).Count(&count).Error)
	assert.Zero(t, count, "comments must not survive their article")

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/blog/articles/%d/comments", id), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCanDeleteForeignArticle(t *testing.T) {
	r, _ := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	registerUser(t, r, "root_admin", "pw123456")
	aliceToken, _ := loginUser(t, r, "alice", "pw123456")
	adminToken, _ := loginUser(t, r, "root_admin", "pw123456")

	id := createArticle(t, r, aliceToken, "Flagged", "content")

	// Admins may remove content but never edit it.
	w := doJSON(r, http.MethodPut, fmt.Sprintf("/api/blog/articles/%d", id), gin.H{"title": "edited"}, adminToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/blog/articles/%d", id), nil, adminToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestListArticles(t *testing.T) {
	r, _ := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	access, _ := loginUser(t, r, "alice", "pw123456")

	createArticle(t, r, access, "Go generics", "about type parameters")
	createArticle(t, r, access, "Gin routing", "about handlers")

	w := doJSON(r, http.MethodPost, "/api/blog/articles", gin.H{
		"title":     "Draft",
		"content":   "unfinished",
		"published": false,
	}, access)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/api/blog/articles", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data["items"], &items))
	assert.Len(t, items, 2, "drafts are not listed publicly")
	assert.NotContains(t, w.Body.String(), "Draft")

	w = doJSON(r, http.MethodGet, "/api/blog/articles?search=generics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data["items"], &items))
	assert.Len(t, items, 1)
	assert.Contains(t, w.Body.String(), "Go generics")
}

func TestListArticlesByCategory(t *testing.T) {
	r, _ := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	access, _ := loginUser(t, r, "alice", "pw123456")

	w := doJSON(r, http.MethodPost, "/api/blog/categories", gin.H{"name": "golang"}, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	env := decodeEnvelope(t, w)
	var category struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data["category"], &category))

	createArticle(t, r, access, "Tagged post", "content", category.ID)
	createArticle(t, r, access, "Untagged post", "content")

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/blog/articles?category=%d", category.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	env = decodeEnvelope(t, w)
	var items []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data["items"], &items))
	assert.Len(t, items, 1)
	assert.Contains(t, w.Body.String(), "Tagged post")
	assert.NotContains(t, w.Body.String(), "Untagged post")
}

func TestGetArticleDetail(t *testing.T) {
	r, _ := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	registerUser(t, r, "bob", "pw123456")
	aliceToken, _ := loginUser(t, r, "alice", "pw123456")
	bobToken, _ := loginUser(t, r, "bob", "pw123456")

	id := createArticle(t, r, aliceToken, "Detailed", "with comments")
	createComment(t, r, bobToken, id, "nice post")

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/blog/articles/%d", id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var article struct {
		Title    string `json:"title"`
		Comments []struct {
			Content string `json:"content"`
			Author  struct {
				Username string `json:"username"`
			} `json:"author"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(env.Data["article"], &article))
	assert.Equal(t, "Detailed", article.Title)
	require.Len(t, article.Comments, 1)
	assert.Equal(t, "nice post", article.Comments[0].Content)
	assert.Equal(t, "bob", article.Comments[0].Author.Username)

	w = doJSON(r, http.MethodGet, "/api/blog/articles/424242", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArticleContentSanitized(t *testing.T) {
	r, _ := setupTestAPI(t)
	registerUser(t, r, "alice", "pw123456")
	access, _ := loginUser(t, r, "alice", "pw123456")

	w := doJSON(r, http.MethodPost, "/api/blog/articles", gin.H{
		"title":   "XSS attempt",
		"content": `hello <script>alert("x")</script> world`,
	}, access)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "<script>")
}
