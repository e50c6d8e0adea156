package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/auth"
	"github.com/bigspawn/alter/internal/config"
	"github.com/bigspawn/alter/internal/logger"
)

func testToken(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func connectApp(t *testing.T, apiURL, token string) (*App, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	log := logger.New(true)
	log.SetOutput(&out)

	return &App{
		config: config.Config{
			Anilist: config.AnilistConfig{APIURL: apiURL},
			Batch:   config.BatchConfig{ChunkSize: 50, DelayThreshold: 10, Delay: time.Second},
			HTTP:    config.HTTPConfig{Timeout: 5 * time.Second},
			Token:   token,
		},
		log:   log,
		store: auth.NewStore(filepath.Join(t.TempDir(), "token.json")),
		now:   time.Now,
	}, &out
}

func TestApp_Connect(t *testing.T) {
	t.Parallel()

	token := testToken(t, time.Now().Add(time.Hour))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"Viewer":{"id":7,"name":"tester","options":{"titleLanguage":"ENGLISH_STYLISED"},"mediaListOptions":{"scoreFormat":"POINT_5"}}}}`))
	}))
	t.Cleanup(srv.Close)

	app, out := connectApp(t, srv.URL, token)
	ctx := app.log.WithContext(t.Context())

	require.NoError(t, app.Connect(ctx))
	assert.Equal(t, 7, app.viewer.ID)
	assert.Equal(t, "ENGLISH", app.viewer.TitleLanguage)
	assert.Contains(t, out.String(), "[HTTP] POST "+srv.URL)
	assert.Contains(t, out.String(), "-> 200")
}

func TestApp_Connect_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Invalid token","status":401}],"data":null}`))
	}))
	t.Cleanup(srv.Close)

	app, _ := connectApp(t, srv.URL, testToken(t, time.Now().Add(time.Hour)))
	err := app.Connect(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alter login")

	kind, ok := anilist.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, anilist.KindUnauthorized, kind)
}

func TestApp_Connect_TokenProblems(t *testing.T) {
	t.Parallel()

	app, _ := connectApp(t, "http://127.0.0.1:0", "")
	assert.ErrorIs(t, app.Connect(t.Context()), auth.ErrNoToken)

	app, _ = connectApp(t, "http://127.0.0.1:0", testToken(t, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, app.Connect(t.Context()), auth.ErrTokenExpired)
}

func TestApp_TokenPrefersEnvironment(t *testing.T) {
	t.Parallel()

	app, _ := connectApp(t, "", "")
	require.NoError(t, app.store.Save("stored.token.value"))

	token, err := app.token()
	require.NoError(t, err)
	assert.Equal(t, "stored.token.value", token)

	app.config.Token = "env.token.value"
	token, err = app.token()
	require.NoError(t, err)
	assert.Equal(t, "env.token.value", token)
}
