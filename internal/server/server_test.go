package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fundboard/internal/config"
	"fundboard/internal/models"
	"fundboard/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testAPI struct {
	t   *testing.T
	srv *Server
	app *fiber.App
	db  *gorm.DB
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret-for-server-tests-0123456789",
		TokenTTLHours:  10,
		Port:           "0",
		Env:            "test",
		AllowedOrigins: "http://localhost:3000",
		FeatureFlags:   "post_search=on,realtime_events=on",
	}
}

func newTestAPI(t *testing.T, mutate ...func(*config.Config)) *testAPI {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	db := testutil.NewSQLiteDB(t)
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	return &testAPI{t: t, srv: srv, app: srv.NewApp(), db: db}
}

// do sends a request and returns the status and raw body.
func (a *testAPI) do(method, path string, body any, token string) (int, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, out
}

func (a *testAPI) decode(raw []byte, dest any) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(raw, dest), string(raw))
}

type account struct {
	ID    uint
	Token string
}

func (a *testAPI) register(username string) account {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password1",
	}, "")
	require.Equal(a.t, http.StatusOK, status, string(body))
	var res struct {
		User  models.UserSummary `json:"user"`
		Token string             `json:"token"`
	}
	a.decode(body, &res)
	return account{ID: res.User.ID, Token: res.Token}
}

func (a *testAPI) createPost(owner account, title string) models.Post {
	a.t.Helper()
	status, body := a.do(http.MethodPost, "/api/posts", map[string]any{
		"title":           title,
		"description":     "Help with " + title,
		"due_date":        "2030-01-31",
		"required_amount": 1000,
	}, owner.Token)
	require.Equal(a.t, http.StatusCreated, status, string(body))
	var post models.Post
	a.decode(body, &post)
	return post
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &resp), string(raw))
	return resp.Code
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	assert.NotEmpty(t, alice.Token)

	var sessions int64
	api.db.Model(&models.Session{}).Count(&sessions)
	assert.EqualValues(t, 1, sessions)

	status, body := api.do(http.MethodGet, "/api/auth/user", nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	var me models.UserSummary
	api.decode(body, &me)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)

	status, _ = api.do(http.MethodPost, "/api/auth/logout", nil, alice.Token)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodGet, "/api/auth/user", nil, alice.Token)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(http.MethodPost, "/api/auth/login",
		map[string]string{"username": "alice", "password": "wrong-pass1"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Incorrect Credentials")

	tokens := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		status, body = api.do(http.MethodPost, "/api/auth/login",
			map[string]string{"username": "alice", "password": "password1"}, "")
		require.Equal(t, http.StatusOK, status, string(body))
		var res struct {
			Token string `json:"token"`
		}
		api.decode(body, &res)
		tokens = append(tokens, res.Token)
	}

	status, _ = api.do(http.MethodPost, "/api/auth/logoutall", nil, tokens[0])
	assert.Equal(t, http.StatusNoContent, status)
	for _, token := range tokens {
		status, _ = api.do(http.MethodGet, "/api/auth/user", nil, token)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice")

	status, body := api.do(http.MethodPost, "/api/auth/register",
		map[string]string{"username": "alice", "password": "password1"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, errorCode(t, body))
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"unknown scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := api.app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}

	alice := api.register("alice")
	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPostVisibilityAndToggle(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	bob := api.register("bob")

	post := api.createPost(alice, "Surgery")
	assert.Equal(t, alice.ID, post.OwnerID)
	assert.True(t, post.Active)
	assert.False(t, post.Verified)
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	status, _ := api.do(http.MethodPost, path+"/toggle", nil, bob.Token)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := api.do(http.MethodPost, path+"/toggle", nil, alice.Token)
	require.Equal(t, http.StatusAccepted, status, string(body))
	var toggled models.Post
	api.decode(body, &toggled)
	assert.False(t, toggled.Active)

	status, body = api.do(http.MethodGet, "/api/posts", nil, "")
	require.Equal(t, http.StatusOK, status)
	var listed []models.Post
	api.decode(body, &listed)
	assert.Empty(t, listed)

	status, _ = api.do(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = api.do(http.MethodGet, path, nil, bob.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = api.do(http.MethodGet, path, nil, alice.Token)
	assert.Equal(t, http.StatusOK, status)

	status, body = api.do(http.MethodGet, "/api/posts/disabled", nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	api.decode(body, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, post.ID, listed[0].ID)

	status, body = api.do(http.MethodGet, "/api/posts/active", nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	api.decode(body, &listed)
	assert.Empty(t, listed)

	status, body = api.do(http.MethodGet, "/api/posts/9999", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeNotFound, errorCode(t, body))
}

func TestPostUpdateAndDelete(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	bob := api.register("bob")
	post := api.createPost(alice, "Books")
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	status, _ := api.do(http.MethodPatch, path, map[string]any{"collected_amount": 250}, bob.Token)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := api.do(http.MethodPatch, path, map[string]any{"collected_amount": 250, "active": false}, alice.Token)
	require.Equal(t, http.StatusOK, status, string(body))
	var updated models.Post
	api.decode(body, &updated)
	assert.EqualValues(t, 250, updated.CollectedAmount)
	assert.Equal(t, "25.00", updated.Progress)
	assert.True(t, updated.Active, "active is only changed by toggle")
	assert.Equal(t, "Books", updated.Title)

	status, _ = api.do(http.MethodPut, path, map[string]any{"title": "Only a title"}, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodDelete, path, nil, bob.Token)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = api.do(http.MethodDelete, path, nil, alice.Token)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(http.MethodGet, path, nil, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPostList_OwnerHasNoContactDetails(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	post := api.createPost(alice, "Wheelchair")

	for _, path := range []string{"/api/posts", fmt.Sprintf("/api/posts/%d", post.ID)} {
		status, body := api.do(http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, status, path)
		assert.NotContains(t, string(body), "alice@example.com", path)
		assert.False(t, strings.Contains(string(body), `"email"`), path)
	}

	status, body := api.do(http.MethodGet, "/api/posts", nil, "")
	require.Equal(t, http.StatusOK, status)
	var listed []map[string]any
	api.decode(body, &listed)
	require.Len(t, listed, 1)
	owner, ok := listed[0]["owner_detail"].(map[string]any)
	require.True(t, ok, string(body))
	assert.Equal(t, "alice", owner["username"])
	assert.EqualValues(t, alice.ID, owner["id"])
	assert.Len(t, owner, 2)
}

func TestMarshalEvent_PostOwnerHasNoEmail(t *testing.T) {
	owner := &models.User{ID: 4, Username: "alice", Email: "alice@example.com"}
	post := &models.Post{ID: 9, OwnerID: owner.ID, Owner: owner, Title: "Rent"}
	require.NoError(t, post.AfterFind(nil))

	msg, ok := marshalEvent(context.Background(), "post_updated", post)
	require.True(t, ok)
	assert.NotContains(t, msg, "alice@example.com")
	assert.Contains(t, msg, `"owner_detail":{"id":4,"username":"alice"}`)
}

func TestReactionRoutes(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	bob := api.register("bob")
	post := api.createPost(alice, "Rent")
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	counts := func(raw []byte) models.ReactionCounts {
		var c models.ReactionCounts
		api.decode(raw, &c)
		return c
	}

	status, _ := api.do(http.MethodPost, path+"/like", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	for i := 0; i < 2; i++ {
		status, body := api.do(http.MethodPost, path+"/like", nil, bob.Token)
		require.Equal(t, http.StatusAccepted, status, string(body))
		assert.EqualValues(t, 1, counts(body).Likes)
	}

	status, body := api.do(http.MethodPost, path+"/dislike", nil, bob.Token)
	require.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, models.ReactionCounts{PostID: post.ID, Likes: 0, Dislikes: 1}, counts(body))

	status, body = api.do(http.MethodGet, path+"/userpostlike", nil, bob.Token)
	require.Equal(t, http.StatusOK, status)
	var state models.UserReaction
	api.decode(body, &state)
	assert.False(t, state.Liked)
	assert.True(t, state.Disliked)

	status, _ = api.do(http.MethodPost, path+"/removelike", nil, bob.Token)
	assert.Equal(t, http.StatusAccepted, status)
	status, body = api.do(http.MethodPost, path+"/removedislike", nil, bob.Token)
	require.Equal(t, http.StatusAccepted, status)
	assert.Zero(t, counts(body).Dislikes)

	status, body = api.do(http.MethodGet, path+"/likecount", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.ReactionCounts{PostID: post.ID}, counts(body))
}

func TestCommentRoutes(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	bob := api.register("bob")
	post := api.createPost(alice, "Tuition")
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	status, body := api.do(http.MethodPost, path+"/comment", map[string]string{"body": "Rooting for you"}, bob.Token)
	require.Equal(t, http.StatusCreated, status, string(body))
	var comment models.Comment
	api.decode(body, &comment)
	assert.Equal(t, "bob", comment.Username)

	status, _ = api.do(http.MethodPost, path+"/comment", map[string]string{"body": ""}, bob.Token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = api.do(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, status)
	var fetched models.Post
	api.decode(body, &fetched)
	assert.EqualValues(t, 1, fetched.CommentsCount)

	disable := map[string]uint{"comment_id": comment.ID}
	status, _ = api.do(http.MethodPost, path+"/disablecomment", disable, bob.Token)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(http.MethodPost, path+"/disablecomment", disable, alice.Token)
	require.Equal(t, http.StatusAccepted, status, string(body))
	api.decode(body, &comment)
	assert.True(t, comment.Disabled)

	status, body = api.do(http.MethodGet, path+"/comment", nil, "")
	require.Equal(t, http.StatusOK, status)
	var comments []models.Comment
	api.decode(body, &comments)
	assert.Empty(t, comments)
}

func TestProfileRoutes(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	bob := api.register("bob")

	status, body := api.do(http.MethodPost, "/api/profile", map[string]any{"city": "Pune", "gender": "F"}, alice.Token)
	require.Equal(t, http.StatusCreated, status, string(body))
	var profile models.Profile
	api.decode(body, &profile)

	status, _ = api.do(http.MethodPost, "/api/profile", map[string]any{"city": "Goa"}, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(http.MethodGet, "/api/profile/me", nil, alice.Token)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, "/api/profile/me", nil, bob.Token)
	assert.Equal(t, http.StatusBadRequest, status)

	path := fmt.Sprintf("/api/profile/%d", profile.ID)
	status, _ = api.do(http.MethodGet, path, nil, bob.Token)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = api.do(http.MethodPatch, path, map[string]any{"zipcode": "411001"}, alice.Token)
	require.Equal(t, http.StatusOK, status, string(body))
	api.decode(body, &profile)
	assert.Equal(t, "Pune", profile.City)
	assert.Equal(t, "411001", profile.Zipcode)

	status, body = api.do(http.MethodGet, "/api/profile", nil, alice.Token)
	require.Equal(t, http.StatusOK, status)
	var profiles []models.Profile
	api.decode(body, &profiles)
	assert.Len(t, profiles, 1)

	status, _ = api.do(http.MethodDelete, path, nil, alice.Token)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestSearchPosts(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")
	api.createPost(alice, "Laptop for school")
	api.createPost(alice, "Medical bills")

	status, body := api.do(http.MethodGet, "/api/posts/search?q=LAPTOP", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	var found []models.Post
	api.decode(body, &found)
	require.Len(t, found, 1)
	assert.Equal(t, "Laptop for school", found[0].Title)

	off := newTestAPI(t, func(cfg *config.Config) { cfg.FeatureFlags = "post_search=off" })
	status, _ = off.do(http.MethodGet, "/api/posts/search?q=laptop", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRequestParsing(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice")

	status, body := api.do(http.MethodGet, "/api/posts/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Invalid ID")

	req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+alice.Token)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndFeatures(t *testing.T) {
	api := newTestAPI(t)

	status, _ := api.do(http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, body := api.do(http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"redis":"disabled"`)

	status, body = api.do(http.MethodGet, "/api/features", nil, "")
	require.Equal(t, http.StatusOK, status)
	var flags map[string]bool
	api.decode(body, &flags)
	assert.True(t, flags["post_search"])
}

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"commentId", "comment ID"},
		{"postOwnerId", "post owner ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}
