package post_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/plumline/promoboard/internal/post"
)

func newRouter(svc *post.Service) http.Handler {
	h := post.Handler{Svc: svc}
	r := chi.NewRouter()
	r.Post("/posts/preview", h.Preview)
	r.Post("/posts", h.Publish)
	r.Get("/posts", h.List)
	r.Get("/posts/{id}", h.Get)
	return r
}

func TestPreviewEndpoint(t *testing.T) {
	router := newRouter(newService(newMemStore(), &memQueue{}))

	body := `{"target_url":"https://shop.example.com/items/42","destination":"cafe","currency":"KRW","base_price":30000,"coin_value":1000}`
	req := httptest.NewRequest(http.MethodPost, "/posts/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Subject string `json:"subject"`
			HTML    string `json:"html"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "샘플 상품", resp.Data.Subject)
	require.Contains(t, resp.Data.HTML, "29,000원")
}

func TestPreviewEndpointRejectsInvalidPayload(t *testing.T) {
	router := newRouter(newService(newMemStore(), &memQueue{}))

	req := httptest.NewRequest(http.MethodPost, "/posts/preview", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/posts/preview", strings.NewReader(`{"destination":"cafe"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestPublishEndpoint(t *testing.T) {
	store := newMemStore()
	queue := &memQueue{}
	router := newRouter(newService(store, queue))

	body := `{"target_url":"https://shop.example.com/items/42","destination":"band","currency":"USD","base_price":25.5}`
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	require.Equal(t, "pending", resp.Data.Status)
	require.Len(t, queue.tasks, 1)
}

func TestGetEndpointNotFound(t *testing.T) {
	router := newRouter(newService(newMemStore(), &memQueue{}))

	req := httptest.NewRequest(http.MethodGet, "/posts/00000000-0000-0000-0000-000000000000", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
