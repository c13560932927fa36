package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atelier-jewels/atelier-api/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db), "Failed to migrate test database")
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// mockAuthMiddleware simulates an authenticated caller whose session id is sessionID
func mockAuthMiddleware(sessionID, accessToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", sessionID)
		c.Set("access_token", accessToken)
		c.Next()
	}
}

// asSession picks the caller per request from the X-Test-Session header
func asSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-Test-Session"); id != "" {
			c.Set("user_id", id)
		}
		c.Next()
	}
}

// staticRoles grants fixed roles to session ids
type staticRoles map[string]string

func (r staticRoles) HasAnyRole(_ context.Context, sessionID string, roles ...string) bool {
	for _, role := range roles {
		if r[sessionID] == role {
			return true
		}
	}
	return false
}

// doJSON sends body as JSON (nil for no body) on behalf of session
func doJSON(router http.Handler, method, path, session string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set("X-Test-Session", session)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// doUpload posts content as the "image" form file
func doUpload(t *testing.T, router http.Handler, path, session, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if session != "" {
		req.Header.Set("X-Test-Session", session)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Response should be valid JSON: %s", w.Body.String())
	return env
}

// decodeData unmarshals the envelope's data into out and returns the envelope
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) envelope {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, "expected success, got %s", w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
	return env
}
