package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/halcyonvc/memoforge/internal/model"
)

func testChecker(t *testing.T) *LinkChecker {
	t.Helper()
	orig := checkSleepFunc
	checkSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { checkSleepFunc = orig })
	return NewLinkChecker(model.HTTPConfig{
		Timeout:   2 * time.Second,
		UserAgent: "memoforge-test/0.1",
	}, 4)
}

func TestCitedURLs(t *testing.T) {
	doc := "Intro with a bare prose link https://ignored.example.com here [^1].\n\n" +
		"### Citations\n\n" +
		"[^1]: Reuters, 2024-01-05, https://reuters.example.com/a\n\n" +
		"[^2]: Filing, https://sec.example.com/f?id=1, archived at\n" +
		"https://archive.example.com/f.\n\n" +
		"[^3]: Same source again, https://reuters.example.com/a\n"

	got := CitedURLs(doc)
	want := []string{
		"https://archive.example.com/f",
		"https://reuters.example.com/a",
		"https://sec.example.com/f?id=1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CitedURLs = %v, want %v", got, want)
	}
}

func TestCheckAll(t *testing.T) {
	old := time.Now().Add(-2 * 365 * 24 * time.Hour).UTC().Format(time.RFC1123)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/stale":
			w.Header().Set("Last-Modified", old)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := testChecker(t)
	urls := []string{server.URL + "/ok", server.URL + "/gone", server.URL + "/stale", server.URL + "/boom"}
	results := c.CheckAll(context.Background(), urls)
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	if !results[0].IsAccessible || results[0].StatusCode != 200 {
		t.Errorf("ok link: %+v", results[0])
	}
	if !results[1].IsDead {
		t.Errorf("404 link not marked dead: %+v", results[1])
	}
	if !results[2].IsStale || results[2].AgeDays == nil {
		t.Errorf("old link not marked stale: %+v", results[2])
	}
	if results[3].IsAccessible || results[3].StatusCode != 500 {
		t.Errorf("500 link: %+v", results[3])
	}
}

func TestCheckAll_RobotsDisallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testChecker(t)
	results := c.CheckAll(context.Background(), []string{server.URL + "/private/doc"})
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if !results[0].Skipped {
		t.Errorf("disallowed link not skipped: %+v", results[0])
	}
}

func TestCheckAll_RetriesTransient(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testChecker(t)
	results := c.CheckAll(context.Background(), []string{server.URL + "/flaky"})
	if !results[0].IsAccessible {
		t.Errorf("flaky link not recovered: %+v", results[0])
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestCheckAll_Empty(t *testing.T) {
	c := testChecker(t)
	if results := c.CheckAll(context.Background(), nil); len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}
