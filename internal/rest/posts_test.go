package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dfryer1193/goblog/api"
	"github.com/dfryer1193/goblog/blog/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePostService struct {
	posts   map[uint64]*domain.Post
	errs    map[uint64]error
	records []*domain.PostRecord
	listErr error

	gotID     domain.PostID
	gotLimit  int
	gotOffset int
}

func (f *fakePostService) LoadPostContent(_ context.Context, id domain.PostID) (*domain.Post, error) {
	f.gotID = id
	if err, ok := f.errs[id.Number]; ok {
		return nil, err
	}
	if post, ok := f.posts[id.Number]; ok {
		return post, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakePostService) ListPosts(_ context.Context, limit int, offset int) ([]*domain.PostRecord, error) {
	f.gotLimit = limit
	f.gotOffset = offset
	return f.records, f.listErr
}

type fakeStylesheet struct {
	err error
}

func (f fakeStylesheet) WriteCSS(w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, ".chroma { color: #000 }")
	return err
}

func newTestRouter(svc *fakePostService, css StylesheetWriter) *gin.Engine {
	router := gin.New()
	NewApi(router, NewHandler(svc, css, nil))
	return router
}

func serve(router *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestGetPost(t *testing.T) {
	svc := &fakePostService{
		posts: map[uint64]*domain.Post{
			7: {
				HTML: "<p>hi</p>",
				Metadata: domain.PostMetadata{
					Title:       "Hello",
					Author:      "Alice",
					Description: "First",
					Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				},
			},
		},
		errs: map[uint64]error{
			8: domain.ErrNoMetadata,
			9: domain.SyntaxHighlightError("no lexer"),
		},
	}
	router := newTestRouter(svc, fakeStylesheet{})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantKind   string
	}{
		{name: "found", target: "/posts/v1/7-hello", wantStatus: http.StatusOK},
		{name: "invalid id", target: "/posts/v1/abc", wantStatus: http.StatusBadRequest, wantKind: "invalid_id"},
		{name: "not found", target: "/posts/v1/42", wantStatus: http.StatusNotFound, wantKind: "not_found"},
		{name: "no metadata", target: "/posts/v1/8", wantStatus: http.StatusInternalServerError, wantKind: "no_metadata"},
		{name: "highlight failure", target: "/posts/v1/9-code", wantStatus: http.StatusInternalServerError, wantKind: "syntax_highlight_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.target)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantKind != "" {
				var body api.Error
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("failed to decode error body: %v", err)
				}
				if body.Error != tt.wantKind {
					t.Errorf("error kind = %q, want %q", body.Error, tt.wantKind)
				}
				if body.Message == "" {
					t.Error("error message should not be empty")
				}
				return
			}

			var body api.Post
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode post body: %v", err)
			}
			if body.HTML != "<p>hi</p>" {
				t.Errorf("html = %q", body.HTML)
			}
			if body.Metadata.Date != "2024-01-15" {
				t.Errorf("date = %q, want %q", body.Metadata.Date, "2024-01-15")
			}
			if svc.gotID != (domain.PostID{Number: 7, Slug: "hello"}) {
				t.Errorf("service got id %+v", svc.gotID)
			}
		})
	}
}

func TestGetPostUnknownErrorIsInternal(t *testing.T) {
	svc := &fakePostService{errs: map[uint64]error{3: errors.New("disk on fire")}}
	w := serve(newTestRouter(svc, fakeStylesheet{}), "/posts/v1/3")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(w.Body.String(), `"error":"unknown"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestGetPosts(t *testing.T) {
	svc := &fakePostService{
		records: []*domain.PostRecord{
			{Number: 2, Slug: "second", Title: "Second", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
			{Number: 1, Title: "First", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	router := newTestRouter(svc, fakeStylesheet{})

	w := serve(router, "/posts/v1/?limit=5&offset=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if svc.gotLimit != 5 || svc.gotOffset != 2 {
		t.Errorf("service got limit=%d offset=%d", svc.gotLimit, svc.gotOffset)
	}

	var body api.PostList
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Posts) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(body.Posts))
	}
	if body.Posts[0].ID != "2-second" || body.Posts[1].ID != "1" {
		t.Errorf("ids = %q, %q", body.Posts[0].ID, body.Posts[1].ID)
	}
	if body.Posts[0].Date != "2024-02-01" {
		t.Errorf("date = %q", body.Posts[0].Date)
	}
}

func TestGetPostsQueryValidation(t *testing.T) {
	router := newTestRouter(&fakePostService{}, fakeStylesheet{})

	for _, target := range []string{
		"/posts/v1/?limit=0",
		"/posts/v1/?limit=101",
		"/posts/v1/?limit=abc",
		"/posts/v1/?offset=-1",
	} {
		t.Run(target, func(t *testing.T) {
			if w := serve(router, target); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestGetPostsListFailure(t *testing.T) {
	svc := &fakePostService{listErr: errors.New("db closed")}
	if w := serve(newTestRouter(svc, fakeStylesheet{}), "/posts/v1/"); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestGetHighlightCSS(t *testing.T) {
	w := serve(newTestRouter(&fakePostService{}, fakeStylesheet{}), "/assets/highlight.css")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Content-Type"); got != "text/css; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.Contains(w.Body.String(), ".chroma") {
		t.Errorf("body = %q", w.Body.String())
	}

	w = serve(newTestRouter(&fakePostService{}, fakeStylesheet{err: errors.New("no style")}), "/assets/highlight.css")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestHealthLive(t *testing.T) {
	if w := serve(newTestRouter(&fakePostService{}, fakeStylesheet{}), "/health/live"); w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
