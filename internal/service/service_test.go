package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/llm"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/rag"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/scoring"
	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal/storage"
)

var testUser = &internal.User{ID: "u1"}

type fakeLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

func (f *fakeLLM) Close() error { return nil }

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "gut.db"), internal.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func at(day time.Time, hour int) *time.Time {
	t := day.Add(time.Duration(hour) * time.Hour)
	return &t
}

func TestValidateFoodLogRequest(t *testing.T) {
	cases := []struct {
		name    string
		body    FoodLogRequest
		wantErr bool
	}{
		{"ok", FoodLogRequest{FoodName: "Oatmeal"}, false},
		{"with analysis", FoodLogRequest{FoodName: "Oatmeal", AnalysisResult: json.RawMessage(`{"calories":300}`)}, false},
		{"missing name", FoodLogRequest{}, true},
		{"analysis not an object", FoodLogRequest{FoodName: "x", AnalysisResult: json.RawMessage(`[1,2]`)}, true},
		{"bad url", FoodLogRequest{FoodName: "x", ImageURL: "not a url"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFoodLogRequest(&tc.body)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStoolLogRequest(t *testing.T) {
	assert.NoError(t, ValidateStoolLogRequest(&StoolLogRequest{}))
	assert.NoError(t, ValidateStoolLogRequest(&StoolLogRequest{BristolType: 7}))
	assert.Error(t, ValidateStoolLogRequest(&StoolLogRequest{BristolType: 8}))
}

func TestCreateLogs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	food, err := CreateFoodLog(ctx, store, testUser, &FoodLogRequest{FoodName: "Rice"})
	require.NoError(t, err)
	assert.NotEmpty(t, food.ID)
	assert.Equal(t, "u1", food.UserID)
	assert.WithinDuration(t, time.Now(), food.CreatedAt, 5*time.Second)

	backfill := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	stool, err := CreateStoolLog(ctx, store, testUser, &StoolLogRequest{BristolType: 4, CreatedAt: &backfill})
	require.NoError(t, err)
	assert.Equal(t, backfill, stool.CreatedAt)

	recent, err := ListStoolLogs(ctx, store, time.UTC, testUser, 7)
	require.NoError(t, err)
	assert.Empty(t, recent)
	all, err := ListStoolLogs(ctx, store, time.UTC, testUser, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 4, 0, 0, time.UTC)
	assert.True(t, WindowStart(now, time.UTC, 0).IsZero())
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), WindowStart(now, time.UTC, 1))
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), WindowStart(now, time.UTC, 7))
}

func seedExampleDay(t *testing.T, store storage.Store, day time.Time) {
	t.Helper()
	ctx := context.Background()
	for i, name := range []string{"Apple", "Yogurt", "Oatmeal"} {
		_, err := CreateFoodLog(ctx, store, testUser, &FoodLogRequest{FoodName: name, CreatedAt: at(day, 8+4*i)})
		require.NoError(t, err)
	}
	_, err := CreateStoolLog(ctx, store, testUser, &StoolLogRequest{BristolType: 4, Color: "Brown", Consistency: "Soft", CreatedAt: at(day, 9)})
	require.NoError(t, err)
}

func TestBuildDashboard(t *testing.T) {
	store := newTestStore(t)
	scorer := scoring.NewScorer(scoring.DefaultClassifier(), time.UTC)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	seedExampleDay(t, store, day)

	dash, err := BuildDashboard(context.Background(), store, scorer, testUser, 7, day.Add(21*time.Hour))
	require.NoError(t, err)
	require.Len(t, dash.Series, 1)
	assert.Equal(t, 77, dash.TodayScore)
	assert.Nil(t, dash.Trend)
	assert.Equal(t, 3, dash.Summary.MealCount)
	assert.NotEmpty(t, dash.Suggestions)

	_, err = BuildDashboard(context.Background(), store, scorer, testUser, 14, day)
	assert.ErrorIs(t, err, scoring.ErrInvalidWindow)
}

func TestScoreDayCalendarAndStreak(t *testing.T) {
	store := newTestStore(t)
	scorer := scoring.NewScorer(scoring.DefaultClassifier(), time.UTC)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	seedExampleDay(t, store, day)
	ctx := context.Background()

	ds, err := ScoreDay(ctx, store, scorer, testUser, "2024-01-10")
	require.NoError(t, err)
	require.NotNil(t, ds.OverallScore)
	assert.Equal(t, 77, *ds.OverallScore)

	_, err = ScoreDay(ctx, store, scorer, testUser, "10/01/2024")
	assert.Error(t, err)

	cal, err := Calendar(ctx, store, scorer, testUser, "2024-01")
	require.NoError(t, err)
	a, ok := cal.Lookup("2024-01-10")
	require.True(t, ok)
	assert.Equal(t, 3, a.FoodCount)
	assert.Equal(t, 1, a.StoolCount)

	streak, err := StoolStreak(ctx, store, scorer, testUser, day.Add(30*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, streak.Days)
}

func TestProfileText(t *testing.T) {
	store := newTestStore(t)
	body := &ProfileRequest{
		Age:                 34,
		ActivityLevel:       "moderate",
		DietaryRestrictions: []string{"lactose", "gluten"},
	}
	require.NoError(t, ValidateProfileRequest(body))
	p, err := SaveProfile(context.Background(), store, testUser, body)
	require.NoError(t, err)
	assert.Equal(t, "activity_level: moderate\nage: 34\ndietary_restrictions: lactose,gluten", ProfileText(p))

	assert.Error(t, ValidateProfileRequest(&ProfileRequest{ActivityLevel: "couch"}))
}

func TestTrackEvents(t *testing.T) {
	ts := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	ev := StoolTrackEvent(&internal.StoolLog{BristolType: 4, Color: "Brown", CreatedAt: ts, ImageURL: "https://x/y.jpg"})
	assert.Equal(t, "stool", ev.Type)
	assert.True(t, ev.IncludeImage)
	assert.Equal(t, "bristol_type: 4\ncolor: Brown\ncreated_at: 2024-01-10T09:00:00Z", ev.Text())

	ev = FoodTrackEvent(&internal.FoodLog{FoodName: "Rice", CreatedAt: ts})
	assert.False(t, ev.IncludeImage)
	assert.Equal(t, "created_at: 2024-01-10T09:00:00Z\nfood_name: Rice", ev.Text())
}

func TestDecodeImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	b64 := base64.StdEncoding.EncodeToString(png)

	img, err := DecodeImage(&ImageRequest{Image: b64})
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIME)
	assert.Equal(t, png, img.Data)

	img, err = DecodeImage(&ImageRequest{Image: "data:image/webp;base64," + b64})
	require.NoError(t, err)
	assert.Equal(t, "image/webp", img.MIME)

	img, err = DecodeImage(&ImageRequest{Image: b64, FileType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", img.MIME)

	_, err = DecodeImage(&ImageRequest{Image: "%%%"})
	assert.ErrorIs(t, err, ErrInvalidImage)
	_, err = DecodeImage(&ImageRequest{Image: "data:image/png," + b64})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestAnalyzer_Food(t *testing.T) {
	f := &fakeLLM{reply: "```json\n{\"foodItems\":[\"rice\"],\"calories\":200,\"gutHealthRating\":7}\n```"}
	a := NewAnalyzer(f, internal.NewNopLogger())

	raw, err := a.AnalyzeFoodImage(context.Background(), Image{Data: []byte{1}, MIME: "image/jpeg"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"foodItems":["rice"],"calories":200,"gutHealthRating":7}`, string(raw))
	require.Len(t, f.calls, 1)
	assert.Equal(t, 1000, f.calls[0].MaxTokens)
	assert.Equal(t, "image/jpeg", f.calls[0].ImageMIME)

	f.reply = "sorry, I can't help with that"
	_, err = a.AnalyzeFoodImage(context.Background(), Image{Data: []byte{1}, MIME: "image/jpeg"})
	assert.ErrorIs(t, err, llm.ErrNoJSON)
}

func TestAnalyzer_Stool(t *testing.T) {
	f := &fakeLLM{reply: `{"bristolType":4,"consistency":"Normal","color":"Brown","healthScore":9,"insights":["ok"],"recommendations":[]}`}
	a := NewAnalyzer(f, internal.NewNopLogger())
	img := Image{Data: []byte{1}, MIME: "image/jpeg"}

	res, err := a.AnalyzeStoolImage(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, 4, res.BristolType)
	assert.Contains(t, f.calls[0].System, "Bristol Stool Chart")

	f.reply = `{"error": "This image does not appear to show stool. Please upload a clear image of stool for analysis."}`
	_, err = a.AnalyzeStoolImage(context.Background(), img)
	assert.ErrorIs(t, err, ErrNotStool)
	var ns *NotStoolError
	require.True(t, errors.As(err, &ns))
	assert.Contains(t, ns.Message, "does not appear to show stool")

	f.reply = `{"bristolType":9,"consistency":"Normal","color":"Brown"}`
	_, err = a.AnalyzeStoolImage(context.Background(), img)
	assert.ErrorIs(t, err, ErrMalformedAnalysis)

	f.err = errors.New("upstream 500")
	_, err = a.AnalyzeStoolImage(context.Background(), img)
	assert.Error(t, err)
}

func TestAnalyzer_TestResult(t *testing.T) {
	f := &fakeLLM{reply: `{"testType":"Blood work","keyFindings":["High CRP"],"values":[{"parameter":"CRP","value":"12","unit":"mg/L","referenceRange":"<5","status":"high"}],"recommendations":[],"concernLevel":"moderate","summary":"Inflammation"}`}
	a := NewAnalyzer(f, internal.NewNopLogger())
	ctx := context.Background()

	res, err := a.AnalyzeTestResult(ctx, Image{Data: []byte("%PDF-1.4"), MIME: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "PDF Document (Unable to read)", res.TestType)
	assert.Empty(t, f.calls)

	_, err = a.AnalyzeTestResult(ctx, Image{Data: []byte("hello"), MIME: "text/plain"})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	res, err = a.AnalyzeTestResult(ctx, Image{Data: []byte{1}, MIME: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "moderate", res.ConcernLevel)
	require.Len(t, res.Values, 1)
	assert.Equal(t, "high", res.Values[0].Status)
	assert.Equal(t, 1500, f.calls[0].MaxTokens)
}

type fakeEnricher struct{}

func (fakeEnricher) EnrichQuery(_ context.Context, userID, query string) string {
	return query + "\n\nUser's Health Profile:\nprofile of " + userID
}

func TestCoach_Chat(t *testing.T) {
	store := newTestStore(t)
	scorer := scoring.NewScorer(scoring.DefaultClassifier(), time.UTC)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	seedExampleDay(t, store, day)

	f := &fakeLLM{reply: "  Drink more water.  "}
	c := NewCoach(f, fakeEnricher{}, store, scorer, internal.NewNopLogger())
	c.nowFunc = func() time.Time { return day.Add(20 * time.Hour) }

	body := &ChatRequest{Message: "Why am I bloated?", UserData: json.RawMessage(`{"water":"low"}`), IncludeHistory: true}
	require.NoError(t, ValidateChatRequest(body))
	resp, err := c.Chat(context.Background(), testUser, body)
	require.NoError(t, err)
	assert.Equal(t, "Drink more water.", resp.Response)

	req := f.calls[0]
	assert.Equal(t, coachSystemPrompt, req.System)
	assert.Equal(t, 500, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
	assert.Contains(t, req.Prompt, "Why am I bloated?\n\nUser's Health Profile:\nprofile of u1")
	assert.Contains(t, req.Prompt, `{"water":"low"}`)
	assert.Contains(t, req.Prompt, `"today_score":77`)

	f.err = errors.New("boom")
	_, err = c.Chat(context.Background(), testUser, &ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrCoachUnavailable)

	assert.Error(t, ValidateChatRequest(&ChatRequest{Message: "   "}))
	assert.Error(t, ValidateChatRequest(&ChatRequest{Message: "hi", UserData: json.RawMessage(`{`)}))
}

type fakeRelay struct {
	enabled bool
	mu      sync.Mutex
	got     []rag.Request
}

func (f *fakeRelay) Enabled() bool { return f.enabled }

func (f *fakeRelay) Do(_ context.Context, _ string, req rag.Request) (json.RawMessage, error) {
	time.Sleep(20 * time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, req)
	return nil, nil
}

func TestIngester(t *testing.T) {
	relay := &fakeRelay{enabled: true}
	ing := NewIngester(relay, time.Second, internal.NewNopLogger())
	ing.Submit("u1", rag.IngestHealthProfile{ProfileText: "age: 30"})
	ing.Submit("u1", rag.IngestTrackData{TrackText: "food_name: Rice"})
	ing.Close()
	assert.Len(t, relay.got, 2)

	ing.Submit("u1", rag.IngestTrackData{TrackText: "late"})
	ing.Close()
	assert.Len(t, relay.got, 2)

	off := &fakeRelay{}
	ing = NewIngester(off, time.Second, internal.NewNopLogger())
	ing.Submit("u1", rag.IngestTrackData{TrackText: "x"})
	ing.Close()
	assert.Empty(t, off.got)
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "h...", truncate("héllo", 2))
	assert.Equal(t, "hé...", truncate("héllo", 3))

	got := truncate("日本語のテキスト", 4)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "日...", got)
}
