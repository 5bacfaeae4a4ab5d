package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/factzy/errors"
	"github.com/ByLCY/factzy/pipeline"
	"github.com/ByLCY/factzy/store"
)

type fakeGenerator struct {
	dir   string
	err   error
	delay time.Duration

	mu       sync.Mutex
	topics   []string
	opts     []pipeline.WebOptions
	inflight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeGenerator) Web(_ context.Context, topic string, opts pipeline.WebOptions) ([]pipeline.Card, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		cur := f.maxSeen.Load()
		if n <= cur || f.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.topics = append(f.topics, topic)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return []pipeline.Card{
		{Index: 1, Path: filepath.Join(f.dir, "Physics_flashcard_1_Gravity.png"), Subject: "Physics"},
		{Index: 2, Path: filepath.Join(f.dir, "Physics_flashcard_2_Gravity.png"), Subject: "Physics", Truncated: true},
	}, nil
}

func (f *fakeGenerator) calls() ([]string, []pipeline.WebOptions) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.topics...), append([]pipeline.WebOptions(nil), f.opts...)
}

type fakeHistory struct {
	recs []store.Record
	err  error

	mu    sync.Mutex
	query store.Query
}

func (f *fakeHistory) List(_ context.Context, q store.Query) ([]store.Record, error) {
	f.mu.Lock()
	f.query = q
	f.mu.Unlock()
	return f.recs, f.err
}

func (f *fakeHistory) lastQuery() store.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

func newTestServer(t *testing.T, gen Generator, hist History) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	if fg, ok := gen.(*fakeGenerator); ok {
		fg.dir = dir
	}
	srv := New(Options{Generator: gen, History: hist, OutputDir: dir})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, dir
}

func postTopic(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/flashcards", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, &fakeGenerator{}, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGenerateReturnsCardURLs(t *testing.T) {
	gen := &fakeGenerator{}
	ts, _ := newTestServer(t, gen, nil)

	resp, out := postTopic(t, ts, `{"topic":"  Gravity  "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Physics", out["subject"])
	assert.Equal(t, "Gravity", out["topic"])

	cards, ok := out["cards"].([]any)
	require.True(t, ok)
	require.Len(t, cards, 2)
	first := cards[0].(map[string]any)
	assert.Equal(t, "/cards/Physics_flashcard_1_Gravity.png", first["url"])
	assert.Equal(t, float64(1), first["index"])
	assert.Equal(t, true, cards[1].(map[string]any)["truncated"])

	topics, opts := gen.calls()
	require.Len(t, opts, 1)
	assert.True(t, opts[0].PerSentence, "web UI renders one card per sentence")
	assert.Equal(t, []string{"Gravity"}, topics)
}

func TestGenerateErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{name: "empty topic", body: `{"topic":"  "}`, status: http.StatusBadRequest, code: "INVALID_INPUT"},
		{name: "bad json", body: `{"topic":`, status: http.StatusBadRequest, code: "INVALID_INPUT"},
		{name: "no content", body: `{"topic":"x"}`, err: errors.New(errors.ErrCodeNotFound, "no content"), status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "upstream", body: `{"topic":"x"}`, err: errors.New(errors.ErrCodeNetwork, "boom"), status: http.StatusBadGateway, code: "NETWORK_ERROR"},
		{name: "write", body: `{"topic":"x"}`, err: errors.New(errors.ErrCodeIO, "disk full"), status: http.StatusInternalServerError, code: "IO_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, &fakeGenerator{err: tt.err}, nil)
			resp, out := postTopic(t, ts, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, out["code"])
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestGenerateRunsAreSerialized(t *testing.T) {
	gen := &fakeGenerator{delay: 20 * time.Millisecond}
	ts, _ := newTestServer(t, gen, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/api/flashcards", "application/json", strings.NewReader(`{"topic":"Gravity"}`))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()
	topics, _ := gen.calls()
	assert.Len(t, topics, 4)
	assert.Equal(t, int32(1), gen.maxSeen.Load())
}

func TestServeCard(t *testing.T) {
	ts, dir := newTestServer(t, &fakeGenerator{}, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "card.png"), []byte("\x89PNG\r\n\x1a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dir), "secret.txt"), []byte("secret"), 0o644))

	resp, err := http.Get(ts.URL + "/cards/card.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, err = http.Get(ts.URL + "/cards/missing.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/cards/" + url.PathEscape("../secret.txt"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestValidCardName(t *testing.T) {
	for name, want := range map[string]bool{
		"Physics_flashcard_1_Gravity.png": true,
		"":                                false,
		".":                               false,
		"..":                              false,
		"../secret":                       false,
		`..\secret`:                       false,
		"a/b.png":                         false,
		"..png":                           false,
	} {
		assert.Equal(t, want, validCardName(name), name)
	}
}

func TestHistory(t *testing.T) {
	hist := &fakeHistory{recs: []store.Record{{Subject: "Physics", Index: 1, Kind: store.KindWeb}}}
	ts, _ := newTestServer(t, &fakeGenerator{}, hist)

	resp, err := http.Get(ts.URL + "/api/history?subject=physics&limit=5&kind=web")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recs []store.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "Physics", recs[0].Subject)
	assert.Equal(t, store.Query{Subject: "physics", Kind: store.KindWeb, Limit: 5}, hist.lastQuery())
}

func TestHistoryErrors(t *testing.T) {
	ts, _ := newTestServer(t, &fakeGenerator{}, &fakeHistory{})
	resp, err := http.Get(ts.URL + "/api/history?limit=-1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ts, _ = newTestServer(t, &fakeGenerator{}, nil)
	resp, err = http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestIndexPageForm(t *testing.T) {
	hist := &fakeHistory{recs: []store.Record{{Subject: "Biology", Source: "Cell", Index: 3, Path: "out/Biology_flashcard_3_Cell.png"}}}
	ts, _ := newTestServer(t, &fakeGenerator{}, hist)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<form method="post" action="/">`)
	assert.Contains(t, body, "/cards/Biology_flashcard_3_Cell.png")
	assert.Equal(t, store.KindWeb, hist.lastQuery().Kind)

	resp, err = http.PostForm(ts.URL+"/", url.Values{"topic": {"Gravity"}})
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/cards/Physics_flashcard_2_Gravity.png")
	assert.Contains(t, body, "text cut off")
}

func TestIndexPageShowsNoContent(t *testing.T) {
	ts, _ := newTestServer(t, &fakeGenerator{err: errors.New(errors.ErrCodeNotFound, "nothing")}, nil)
	resp, err := http.PostForm(ts.URL+"/", url.Values{"topic": {"Qwxz"}})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "No content found for this topic.")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
