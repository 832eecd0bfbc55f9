package web_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive/model"
	"github.com/taskhive/taskhive/principal"
	"github.com/taskhive/taskhive/web"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    pwd TEXT,
    pwd_salt TEXT NOT NULL,
    token_salt TEXT NOT NULL
);`
	sqliteCreateTask = `CREATE TABLE task (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL
);`
)

var (
	testPwdKey   = []byte("web-test-pwd-key")
	testTokenKey = []byte("web-test-token-key")
)

type testEnv struct {
	server *web.Server
	users  *model.UserStore
	tasks  *model.TaskStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateTask)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	mm := model.NewManager(bunDB)
	users := model.NewUserStore(mm, testPwdKey)
	tasks := model.NewTaskStore(mm)

	server := web.NewServer(web.Config{
		TokenKey:      testTokenKey,
		TokenDuration: 30 * time.Minute,
	}, users, tasks)

	return &testEnv{server: server, users: users, tasks: tasks}
}

func (e *testEnv) seedUser(t *testing.T, username, pwd string) int64 {
	t.Helper()

	id, err := e.users.Create(context.Background(), principal.Root(), model.UserForCreate{
		Username: username,
		PwdClear: pwd,
	})
	require.NoError(t, err)
	return id
}

// postJSON sends a JSON body, carrying the auth cookie when set.
func (e *testEnv) postJSON(t *testing.T, path, cookie string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: web.AuthTokenCookie, Value: cookie})
	}

	resp, err := e.server.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

// login runs the login flow and returns the issued token cookie value.
func (e *testEnv) login(t *testing.T, username, pwd string) string {
	t.Helper()

	resp := e.postJSON(t, "/api/login", "", map[string]string{
		"username": username,
		"pwd":      pwd,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := authCookie(resp)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	return cookie.Value
}

func authCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == web.AuthTokenCookie {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
