package sheet_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/plumline/promoboard/internal/jobs"
	"github.com/plumline/promoboard/internal/obs"
	"github.com/plumline/promoboard/internal/resilience"
	"github.com/plumline/promoboard/internal/sheet"
)

func init() {
	obs.MustRegisterDomainMetrics("promoboard_test", nil)
}

type fakeSheet struct {
	headerCalls int64
	headers     []string
	rows        []sheet.Row
	updates     []map[string]any
}

func (f *fakeSheet) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sheets/sheet-1/headers", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.headerCalls, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": f.headers})
	})
	mux.HandleFunc("GET /api/sheets/sheet-1/rows", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": f.rows})
	})
	mux.HandleFunc("POST /api/sheets/sheet-1/rows/update", func(w http.ResponseWriter, r *http.Request) {
		var update map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		f.updates = append(f.updates, update)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newClient(t *testing.T, baseURL string, rdb *redis.Client) *sheet.Client {
	t.Helper()
	return &sheet.Client{
		BaseURL: baseURL,
		Token:   "sheet-token",
		SheetID: "sheet-1",
		HTTP: &resilience.HTTPClient{
			Client:      &http.Client{Timeout: 2 * time.Second},
			MaxAttempts: 1,
		},
		Redis:     rdb,
		HeaderTTL: time.Minute,
	}
}

func TestHeadersCached(t *testing.T) {
	fake := &fakeSheet{headers: []string{"url", "discount_code", "status"}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	client := newClient(t, srv.URL, rdb)

	headers, err := client.Headers(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"url", "discount_code", "status"}, headers)

	headers, err = client.Headers(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"url", "discount_code", "status"}, headers)
	require.EqualValues(t, 1, atomic.LoadInt64(&fake.headerCalls))
}

func TestFindColumn(t *testing.T) {
	fake := &fakeSheet{headers: []string{"URL", " Discount_Code ", "status"}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	client := newClient(t, srv.URL, nil)

	idx, err := client.FindColumn(context.Background(), "discount_code")
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	_, err = client.FindColumn(context.Background(), "missing")
	require.Error(t, err)
}

func TestServicePendingSkipsPostedRows(t *testing.T) {
	fake := &fakeSheet{rows: []sheet.Row{
		{RowNumber: 2, Values: map[string]string{"url": "https://a", "status": "posted"}},
		{RowNumber: 3, Values: map[string]string{"url": "https://b", "status": ""}},
		{RowNumber: 4, Values: map[string]string{"url": "https://c", "status": " POSTED "}},
		{RowNumber: 5, Values: map[string]string{"url": "https://d", "status": "claimed"}},
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	svc := &sheet.Service{Client: newClient(t, srv.URL, nil)}
	pending, err := svc.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, 3, pending[0].RowNumber)
	require.Equal(t, 5, pending[1].RowNumber)
}

func TestServiceMarkPosted(t *testing.T) {
	fake := &fakeSheet{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	fixed := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)
	svc := &sheet.Service{
		Client: newClient(t, srv.URL, nil),
		Now:    func() time.Time { return fixed },
	}
	require.NoError(t, svc.MarkPosted(context.Background(), 3, "https://cafe.example.com/articles/8821"))

	require.Len(t, fake.updates, 1)
	update := fake.updates[0]
	require.EqualValues(t, 3, update["rowNumber"])
	values := update["newValues"].(map[string]any)
	require.Equal(t, "posted", values["status"])
	require.Equal(t, "https://cafe.example.com/articles/8821", values["post_url"])
	require.Equal(t, "2025-04-01T09:30:00Z", values["posted_at"])
}

func TestPendingHandlerParsesPrices(t *testing.T) {
	fake := &fakeSheet{rows: []sheet.Row{
		{RowNumber: 2, Values: map[string]string{"url": "https://a", "price": "30,000원", "status": ""}},
		{RowNumber: 3, Values: map[string]string{"url": "https://b", "price": "$25.50", "status": ""}},
		{RowNumber: 4, Values: map[string]string{"url": "https://c", "status": ""}},
	}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	handler := sheet.Handler{Svc: &sheet.Service{Client: newClient(t, srv.URL, nil)}}
	req := httptest.NewRequest(http.MethodGet, "/sheet/rows", nil)
	rec := httptest.NewRecorder()
	handler.Pending(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			RowNumber int `json:"rowNumber"`
			Price     *struct {
				Minor     int64  `json:"minor"`
				Currency  string `json:"currency"`
				Formatted string `json:"formatted"`
			} `json:"price"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	require.NotNil(t, resp.Data[0].Price)
	require.EqualValues(t, 30000, resp.Data[0].Price.Minor)
	require.Equal(t, "KRW", resp.Data[0].Price.Currency)
	require.Equal(t, "30,000원", resp.Data[0].Price.Formatted)
	require.NotNil(t, resp.Data[1].Price)
	require.EqualValues(t, 2550, resp.Data[1].Price.Minor)
	require.Equal(t, "USD", resp.Data[1].Price.Currency)
	require.Nil(t, resp.Data[2].Price)
}

func TestWritebackWorker(t *testing.T) {
	fake := &fakeSheet{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	worker := &sheet.WritebackWorker{
		Service: &sheet.Service{Client: newClient(t, srv.URL, nil)},
		Logger:  zerolog.Nop(),
	}

	task, err := jobs.NewWritebackTask(7, "https://band.example.com/posts/991", 3)
	require.NoError(t, err)
	require.NoError(t, worker.ProcessTask(context.Background(), task))
	require.Len(t, fake.updates, 1)
}

func TestWritebackWorkerBadPayload(t *testing.T) {
	worker := &sheet.WritebackWorker{Logger: zerolog.Nop()}
	err := worker.ProcessTask(context.Background(), asynq.NewTask(jobs.TypeSheetWriteback, []byte("{")))
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
