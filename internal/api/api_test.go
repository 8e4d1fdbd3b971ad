package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/app"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/auth"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/config"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/llm"
)

const token = "MOCK-TOKEN"

type fakeLLM struct {
	mu    sync.Mutex
	reply string
	err   error
}

func (f *fakeLLM) set(reply string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply, f.err = reply, err
}

func (f *fakeLLM) Complete(context.Context, llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reply, f.err
}

func (f *fakeLLM) Close() error { return nil }

func setupRouter(t *testing.T) (*gin.Engine, *fakeLLM) {
	t.Helper()
	r, fake, _ := setupApp(t)
	return r, fake
}

func setupApp(t *testing.T) (*gin.Engine, *fakeLLM, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Env:         "development",
		DBType:      "sqlite",
		SQLitePath:  filepath.Join(t.TempDir(), "gut.db"),
		AuthMode:    "local",
		AuthToken:   token,
		LLMProvider: "openai",
		Timezone:    "UTC",
	}
	fake := &fakeLLM{}
	a, err := app.NewWithDeps(context.Background(), cfg, internal.NewNopLogger(), app.Deps{LLM: fake})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return NewRouter(a, auth.NewLocalAuthProvider(token, internal.NewNopLogger())), fake, a
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthzAndAuth(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/food-logs", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFoodLogs_CreateListDelete(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/food-logs", `{"food_name":"Oatmeal","description":"with berries"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["data"].(map[string]any)
	id := created["id"].(string)
	assert.Equal(t, "u1", created["user_id"])

	w = do(t, r, http.MethodPost, "/api/food-logs", `{"description":"no name"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodPost, "/api/food-logs", `{"food_name":"x","analysis_result":"text"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, r, http.MethodPost, "/api/food-logs", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/food-logs?days=7", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["meta"].(map[string]any)["count"])

	w = do(t, r, http.MethodGet, "/api/food-logs?days=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, "/api/food-logs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodDelete, "/api/food-logs/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodDelete, "/api/food-logs/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoolLogsAndAnalytics(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/stool-logs", `{"bristol_type":8}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/stool-logs", `{"bristol_type":4,"color":"Brown","consistency":"Normal"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/analytics/scores?days=7", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(100), data["today_score"])
	assert.Equal(t, "great", data["today_status"])
	assert.Len(t, data["series"], 1)
	assert.NotEmpty(t, data["suggestions"])

	w = do(t, r, http.MethodGet, "/api/analytics/scores?days=14", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	today := time.Now().UTC().Format("2006-01-02")
	w = do(t, r, http.MethodGet, "/api/analytics/day/"+today, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), decode(t, w)["data"].(map[string]any)["stool_score"])
	w = do(t, r, http.MethodGet, "/api/analytics/day/yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/analytics/calendar?month="+today[:7], "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, "/api/analytics/calendar?month=2024-13", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/stool-logs/streak", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["data"].(map[string]any)["days"])
}

func TestProfile(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPut, "/api/profile", `{"age":30,"medical_conditions":["IBS"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(30), decode(t, w)["data"].(map[string]any)["age"])

	w = do(t, r, http.MethodPut, "/api/profile", `{"age":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeEndpoints(t *testing.T) {
	r, fake := setupRouter(t)
	img := base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff, 0xe0, 0, 0, 0, 0})

	fake.set(`{"error": "This image does not appear to show stool. Please upload a clear image of stool for analysis."}`, nil)
	w := do(t, r, http.MethodPost, "/api/analyze/stool-image", `{"image":"`+img+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "does not appear to show stool")

	fake.set("```json\n{\"bristolType\":4,\"consistency\":\"Normal\",\"color\":\"Brown\",\"healthScore\":9}\n```", nil)
	w = do(t, r, http.MethodPost, "/api/analyze/stool-image", `{"image":"`+img+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(4), decode(t, w)["data"].(map[string]any)["bristolType"])

	fake.set("", errors.New("upstream down"))
	w = do(t, r, http.MethodPost, "/api/analyze/food-image", `{"image":"`+img+`"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "upstream down")

	w = do(t, r, http.MethodPost, "/api/analyze/food-image", `{"image":"***"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/analyze/test-results", `{"image":"`+img+`","file_type":"application/pdf"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "low", decode(t, w)["data"].(map[string]any)["concernLevel"])

	w = do(t, r, http.MethodPost, "/api/analyze/test-results", `{"image":"`+img+`","file_type":"text/csv"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoachChat(t *testing.T) {
	r, fake := setupRouter(t)

	fake.set("Eat more fiber.", nil)
	w := do(t, r, http.MethodPost, "/api/coach/chat", `{"message":"Any tips?","include_history":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Eat more fiber.", decode(t, w)["data"].(map[string]any)["response"])

	w = do(t, r, http.MethodPost, "/api/coach/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fake.set("", errors.New("rate limited"))
	w = do(t, r, http.MethodPost, "/api/coach/chat", `{"message":"hello"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "I apologize, but I encountered an error. Please try again.")
}

func TestRAGRelay(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/rag", `{"action":"drop_tables","data":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/rag", `{"action":"ingest_health_profile","data":{"profile_text":"Age: 30"}}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, r, http.MethodPost, "/api/rag", `{"type":"food","data":{"food_name":"Rice"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["data"].(map[string]any)["success"])
}

func TestScoresWS_PushAfterSave(t *testing.T) {
	r, _, a := setupApp(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?access_token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return a.Hub().Sessions("u1") == 1 }, 2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/stool-logs", strings.NewReader(`{"bristol_type":4,"color":"Brown","consistency":"Soft"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev struct {
		Kind  string         `json:"kind"`
		Score map[string]any `json:"score"`
	}
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "scores.updated", ev.Kind)
	assert.Equal(t, float64(100), ev.Score["stool_score"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return a.Hub().Sessions("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}
