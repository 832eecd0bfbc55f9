package web_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginEnv(t *testing.T) (*testEnv, string) {
	t.Helper()

	env := newTestEnv(t)
	env.seedUser(t, "demo1", "welcome")
	token := env.login(t, "demo1", "welcome")
	return env, token
}

func rpcResult(t *testing.T, resp *http.Response) (any, any) {
	t.Helper()

	body := decodeBody(t, resp)
	return body["id"], body["result"]
}

func TestRpcRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/api/rpc", "", map[string]any{
		"id":     1,
		"method": "list_tasks",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	body := decodeBody(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NO_AUTH", errBody["message"])
}

func TestRpcRejectsTamperedToken(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token+"x", map[string]any{
		"id":     1,
		"method": "list_tasks",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A rejected token must not survive in the client.
	cookie := authCookie(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

func TestRpcRefreshesToken(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     1,
		"method": "list_tasks",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := authCookie(resp)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
}

func TestRpcCreateGetTask(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     1,
		"method": "create_task",
		"params": map[string]any{
			"data": map[string]any{"title": "write report"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	id, result := rpcResult(t, resp)
	assert.Equal(t, float64(1), id)

	task, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "write report", task["title"])
	require.NotZero(t, task["id"])

	resp = env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     2,
		"method": "get_task",
		"params": map[string]any{"id": task["id"]},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, result = rpcResult(t, resp)
	got, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "write report", got["title"])
}

func TestRpcListTasksFiltered(t *testing.T) {
	env, token := loginEnv(t)

	for _, title := range []string{"alpha", "beta", "alpha two"} {
		resp := env.postJSON(t, "/api/rpc", token, map[string]any{
			"id":     1,
			"method": "create_task",
			"params": map[string]any{
				"data": map[string]any{"title": title},
			},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     2,
		"method": "list_tasks",
		"params": map[string]any{
			"filters": map[string]any{
				"title": map[string]any{"$contains": "alpha"},
			},
			"list_options": map[string]any{
				"order_by": "!id",
			},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, result := rpcResult(t, resp)
	tasks, ok := result.([]any)
	require.True(t, ok)
	require.Len(t, tasks, 2)

	first, ok := tasks[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alpha two", first["title"])
}

func TestRpcListTasksNoParams(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     1,
		"method": "list_tasks",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, result := rpcResult(t, resp)
	tasks, ok := result.([]any)
	require.True(t, ok)
	assert.Empty(t, tasks)
}

func TestRpcUpdateTask(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     1,
		"method": "create_task",
		"params": map[string]any{
			"data": map[string]any{"title": "draft"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, created := rpcResult(t, resp)
	taskID := created.(map[string]any)["id"]

	resp = env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     2,
		"method": "update_task",
		"params": map[string]any{
			"id":   taskID,
			"data": map[string]any{"title": "final"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, result := rpcResult(t, resp)
	task, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "final", task["title"])
}

func TestRpcDeleteTaskReturnsEntity(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     1,
		"method": "create_task",
		"params": map[string]any{
			"data": map[string]any{"title": "ephemeral"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, created := rpcResult(t, resp)
	taskID := created.(map[string]any)["id"]

	resp = env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     2,
		"method": "delete_task",
		"params": map[string]any{"id": taskID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, result := rpcResult(t, resp)
	task, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ephemeral", task["title"])

	resp = env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     3,
		"method": "get_task",
		"params": map[string]any{"id": taskID},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ENTITY_NOT_FOUND", errBody["message"])
}

func TestRpcUnknownMethod(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     1,
		"method": "explode_task",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "METHOD_UNKNOWN", errBody["message"])
}

func TestRpcListTasksEmptyFilters(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     1,
		"method": "create_task",
		"params": map[string]any{
			"data": map[string]any{"title": "solo"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// an empty filters object means no predicate, not a bad request
	resp = env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     2,
		"method": "list_tasks",
		"params": map[string]any{
			"filters": map[string]any{},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, result := rpcResult(t, resp)
	tasks, ok := result.([]any)
	require.True(t, ok)
	assert.Len(t, tasks, 1)
}

func TestRpcMissingParams(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     1,
		"method": "create_task",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRpcBadParamsJSON(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     1,
		"method": "get_task",
		"params": map[string]any{"id": "not-a-number"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRpcListLimitOverMax(t *testing.T) {
	env, token := loginEnv(t)

	resp := env.postJSON(t, "/api/rpc", token, map[string]any{
		"id":     1,
		"method": "list_tasks",
		"params": map[string]any{
			"list_options": map[string]any{"limit": 5000},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
