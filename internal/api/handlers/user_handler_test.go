package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkravets/phonebook-be/internal/api"
	"github.com/mkravets/phonebook-be/internal/auth"
	"github.com/mkravets/phonebook-be/internal/database"
	"github.com/mkravets/phonebook-be/internal/services"
	"github.com/mkravets/phonebook-be/internal/storage"
)

type sentMail struct {
	To   string
	Code string
}

type fakeMailer struct {
	sent chan sentMail
}

func (f *fakeMailer) SendVerification(_ context.Context, to, _, code string) error {
	f.sent <- sentMail{To: to, Code: code}
	return nil
}

type fakeTransformer struct {
	err error
}

func (f *fakeTransformer) Transform(string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("resized-jpeg"), nil
}

type fakeUploader struct{}

func (f *fakeUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "http://store/phonebook/" + key, nil
}

type testApp struct {
	router      http.Handler
	mailer      *fakeMailer
	transformer *fakeTransformer
	userStore   storage.UserStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	userStore := storage.NewUserStore(db)
	contactStore := storage.NewContactStore(db)

	mailer := &fakeMailer{sent: make(chan sentMail, 8)}
	transformer := &fakeTransformer{}
	signer := auth.NewSigner("test-secret", 23*time.Hour)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	userService := services.NewUserService(userStore, hasher, signer, mailer)
	avatarService := services.NewAvatarService(userStore, transformer, &fakeUploader{})
	contactService := services.NewContactService(contactStore)

	router := api.NewRouter(signer, userStore, userService, avatarService, contactService, t.TempDir())

	return &testApp{router: router, mailer: mailer, transformer: transformer, userStore: userStore}
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) waitForMail(t *testing.T) sentMail {
	t.Helper()
	select {
	case m := <-a.mailer.sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("verification email was not dispatched")
		return sentMail{}
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// registerAndLogin walks a user through the happy path and returns their
// bearer token.
func registerAndLogin(t *testing.T, app *testApp, email, password string) string {
	t.Helper()
	rec := app.do(t, http.MethodPost, "/users/register", "",
		map[string]string{"name": "Alice", "email": email, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code)

	code := app.waitForMail(t).Code
	rec = app.do(t, http.MethodGet, "/users/verify/"+code, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/users/login", "",
		map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code)

	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestEndToEndScenario(t *testing.T) {
	app := newTestApp(t)

	// Register alice@example.com -> 201 with the public projection.
	rec := app.do(t, http.MethodPost, "/users/register", "",
		map[string]string{"name": "Alice", "email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Alice", user["name"])
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "starter", user["subscription"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")

	// Second registration with the same email -> 409.
	rec = app.do(t, http.MethodPost, "/users/register", "",
		map[string]string{"name": "Other", "email": "alice@example.com", "password": "different"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Login before verification -> 401.
	rec = app.do(t, http.MethodPost, "/users/login", "",
		map[string]string{"email": "alice@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Verify with the emailed code -> 200.
	code := app.waitForMail(t).Code
	rec = app.do(t, http.MethodGet, "/users/verify/"+code, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A second verify with the same code -> 404.
	rec = app.do(t, http.MethodGet, "/users/verify/"+code, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Login with the correct password -> 200 with a non-empty token.
	rec = app.do(t, http.MethodPost, "/users/login", "",
		map[string]string{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	loginUser, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", loginUser["email"])
	assert.Equal(t, "starter", loginUser["subscription"])
	assert.Contains(t, loginUser["avatarURL"], "gravatar.com")

	// Login with a wrong password -> 401 with the uniform message.
	rec = app.do(t, http.MethodPost, "/users/login", "",
		map[string]string{"email": "alice@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Email or password is wrong", decodeBody(t, rec)["message"])

	// The token authorizes the current-user endpoint.
	rec = app.do(t, http.MethodGet, "/users/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", decodeBody(t, rec)["email"])

	// Logout -> 204.
	rec = app.do(t, http.MethodPost, "/users/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The old token is rejected even though its signature is still valid.
	rec = app.do(t, http.MethodGet, "/users/current", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResendVerificationEndpoint(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/users/register", "",
		map[string]string{"name": "Alice", "email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	first := app.waitForMail(t)

	// Missing email -> 400.
	rec = app.do(t, http.MethodPost, "/users/verify", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown user -> 404.
	rec = app.do(t, http.MethodPost, "/users/verify", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Resend reuses the original code.
	rec = app.do(t, http.MethodPost, "/users/verify", "", map[string]string{"email": "alice@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.Code, app.waitForMail(t).Code)

	// Already verified -> 400.
	rec = app.do(t, http.MethodGet, "/users/verify/"+first.Code, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(t, http.MethodPost, "/users/verify", "", map[string]string{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateSubscriptionEndpoint(t *testing.T) {
	app := newTestApp(t)
	token := registerAndLogin(t, app, "alice@example.com", "password123")

	rec := app.do(t, http.MethodPatch, "/users/", token, map[string]string{"subscription": "business"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "business", decodeBody(t, rec)["subscription"])

	// Visible in a subsequent read.
	rec = app.do(t, http.MethodGet, "/users/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "business", decodeBody(t, rec)["subscription"])

	rec = app.do(t, http.MethodPatch, "/users/", token, map[string]string{"subscription": "platinum"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPatch, "/users/", "", map[string]string{"subscription": "pro"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func (a *testApp) doAvatarUpload(t *testing.T, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake-image-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPatch, "/users/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestUpdateAvatarEndpoint(t *testing.T) {
	app := newTestApp(t)
	token := registerAndLogin(t, app, "alice@example.com", "password123")

	rec := app.do(t, http.MethodGet, "/users/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before, _ := decodeBody(t, rec)["avatarURL"].(string)

	rec = app.doAvatarUpload(t, token)
	require.Equal(t, http.StatusOK, rec.Code)
	avatarURL, _ := decodeBody(t, rec)["avatarURL"].(string)
	assert.Contains(t, avatarURL, "avatars/")
	assert.NotEqual(t, before, avatarURL)

	// The new URL is visible on the profile.
	rec = app.do(t, http.MethodGet, "/users/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, avatarURL, decodeBody(t, rec)["avatarURL"])

	// A corrupt image yields a server fault and leaves the record unchanged.
	app.transformer.err = errors.New("decode image: invalid format")
	rec = app.doAvatarUpload(t, token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = app.do(t, http.MethodGet, "/users/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, avatarURL, decodeBody(t, rec)["avatarURL"])

	// Missing file -> 400.
	app.transformer.err = nil
	rec = app.do(t, http.MethodPatch, "/users/avatar", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
