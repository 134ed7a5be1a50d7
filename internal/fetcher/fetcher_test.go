package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/depthcrawl/internal/model"
)

// TestHTTPFetcherFetch tests successful and failed fetches.
func TestHTTPFetcherFetch(t *testing.T) {
	t.Parallel()

	t.Run("fetches body, headers, status and protocol", func(t *testing.T) {
		t.Parallel()

		var gotUA, gotMethod string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotMethod = r.Method
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("X-Test", "yes")
			_, _ = w.Write([]byte("<html><body>hello</body></html>"))
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(Options{})
		if err != nil {
			t.Fatalf("NewHTTPFetcher failed: %v", err)
		}

		page, err := f.Fetch(context.Background(), server.URL+"/page")
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}

		if gotUA != "Mozilla/5.0" {
			t.Errorf("User-Agent = %q, want Mozilla/5.0", gotUA)
		}
		if gotMethod != http.MethodGet {
			t.Errorf("method = %q, want GET", gotMethod)
		}
		if page.URL != server.URL+"/page" {
			t.Errorf("URL = %q", page.URL)
		}
		if page.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d", page.StatusCode)
		}
		if page.Body != "<html><body>hello</body></html>" {
			t.Errorf("Body = %q", page.Body)
		}
		if page.Headers.Get("X-Test") != "yes" {
			t.Errorf("expected X-Test header, got %v", page.Headers)
		}
		if got := model.ProtocolLabel(page.ProtoMajor, page.ProtoMinor, page.Proto); got != model.ProtocolHTTP11 {
			t.Errorf("protocol = %q, want HTTP/1.1", got)
		}
	})

	t.Run("custom user agent", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
		}))
		defer server.Close()

		f, err := NewHTTPFetcher(Options{UserAgent: "TestAgent/1.0"})
		if err != nil {
			t.Fatalf("NewHTTPFetcher failed: %v", err)
		}
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if gotUA != "TestAgent/1.0" {
			t.Errorf("User-Agent = %q", gotUA)
		}
	})

	t.Run("HTTP/2 over TLS", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("h2"))
		}))
		server.EnableHTTP2 = true
		server.StartTLS()
		defer server.Close()

		f, err := NewHTTPFetcher(Options{Client: server.Client()})
		if err != nil {
			t.Fatalf("NewHTTPFetcher failed: %v", err)
		}

		page, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if got := model.ProtocolLabel(page.ProtoMajor, page.ProtoMinor, page.Proto); got != model.ProtocolHTTP20 {
			t.Errorf("protocol = %q, want HTTP/2.0", got)
		}
	})

	t.Run("redirect is followed and keyed by the requested URL", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("new"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		f, err := NewHTTPFetcher(Options{})
		if err != nil {
			t.Fatalf("NewHTTPFetcher failed: %v", err)
		}

		page, err := f.Fetch(context.Background(), server.URL+"/old")
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if page.URL != server.URL+"/old" {
			t.Errorf("URL = %q, want the requested URL", page.URL)
		}
		if page.Body != "new" {
			t.Errorf("Body = %q", page.Body)
		}
	})
}

// TestHTTPFetcherErrors tests FetchError classification.
func TestHTTPFetcherErrors(t *testing.T) {
	t.Parallel()

	t.Run("error statuses are fetch errors", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))

			f, err := NewHTTPFetcher(Options{})
			if err != nil {
				t.Fatalf("NewHTTPFetcher failed: %v", err)
			}

			_, err = f.Fetch(context.Background(), server.URL)
			server.Close()

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("status %d: expected *FetchError, got %T: %v", status, err, err)
			}
			if fetchErr.StatusCode != status {
				t.Errorf("StatusCode = %d, want %d", fetchErr.StatusCode, status)
			}
			if !errors.Is(err, ErrUnexpectedStatus) {
				t.Errorf("expected ErrUnexpectedStatus, got %v", err)
			}
			if fetchErr.Kind() != "status" {
				t.Errorf("Kind() = %q, want status", fetchErr.Kind())
			}
		}
	})

	t.Run("timeout is a fetch error", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		f, err := NewHTTPFetcher(Options{Timeout: 50 * time.Millisecond})
		if err != nil {
			t.Fatalf("NewHTTPFetcher failed: %v", err)
		}

		_, err = f.Fetch(context.Background(), server.URL)

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *FetchError, got %T: %v", err, err)
		}
		if !fetchErr.Timeout() {
			t.Errorf("expected a timeout, got %v", err)
		}
		if fetchErr.Kind() != "timeout" {
			t.Errorf("Kind() = %q, want timeout", fetchErr.Kind())
		}
	})

	t.Run("unsupported scheme is a fetch error", func(t *testing.T) {
		t.Parallel()

		f, err := NewHTTPFetcher(Options{})
		if err != nil {
			t.Fatalf("NewHTTPFetcher failed: %v", err)
		}

		_, err = f.Fetch(context.Background(), "mailto:someone@example.com")

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *FetchError, got %T: %v", err, err)
		}
		if fetchErr.Kind() != "network" {
			t.Errorf("Kind() = %q, want network", fetchErr.Kind())
		}
	})

	t.Run("connection refused is a fetch error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		f, err := NewHTTPFetcher(Options{})
		if err != nil {
			t.Fatalf("NewHTTPFetcher failed: %v", err)
		}

		_, err = f.Fetch(context.Background(), addr)

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *FetchError, got %T: %v", err, err)
		}
		if fetchErr.URL != addr {
			t.Errorf("URL = %q, want %q", fetchErr.URL, addr)
		}
	})
}

// TestNewHTTPFetcherProxy tests proxy address validation.
func TestNewHTTPFetcherProxy(t *testing.T) {
	t.Parallel()

	t.Run("valid address", func(t *testing.T) {
		t.Parallel()

		if _, err := NewHTTPFetcher(Options{ProxyAddress: "127.0.0.1:9050"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("invalid address", func(t *testing.T) {
		t.Parallel()

		_, err := NewHTTPFetcher(Options{ProxyAddress: "no-port"})
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})
}

// longASCIIHead pushes any non-ASCII byte past the 1024-byte sniffing window.
var longASCIIHead = strings.Repeat("<!-- padding comment -->", 60)

// TestDecodeBody tests charset handling.
func TestDecodeBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         []byte
		contentType string
		want        string
	}{
		{
			name:        "utf-8 declared",
			raw:         []byte("caf\xc3\xa9"),
			contentType: "text/html; charset=utf-8",
			want:        "café",
		},
		{
			name:        "latin-1 declared in header",
			raw:         []byte("caf\xe9"),
			contentType: "text/html; charset=iso-8859-1",
			want:        "café",
		},
		{
			name:        "utf-8 detected without declaration",
			raw:         []byte("caf\xc3\xa9"),
			contentType: "text/html",
			want:        "café",
		},
		{
			name:        "utf-8 after a long ascii head",
			raw:         []byte("<html><head>" + longASCIIHead + "</head><body>caf\xc3\xa9 \xe6\x97\xa5\xe6\x9c\xac</body></html>"),
			contentType: "text/html",
			want:        "<html><head>" + longASCIIHead + "</head><body>café 日本</body></html>",
		},
		{
			name:        "invalid utf-8 falls back to windows-1252",
			raw:         []byte("<html><head>" + longASCIIHead + "</head><body>caf\xe9 \x93quoted\x94</body></html>"),
			contentType: "text/html",
			want:        "<html><head>" + longASCIIHead + "</head><body>café \u201cquoted\u201d</body></html>",
		},
		{
			name:        "ascii without content type",
			raw:         []byte("<p>plain</p>"),
			contentType: "",
			want:        "<p>plain</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := decodeBody(tt.raw, tt.contentType); got != tt.want {
				t.Errorf("decodeBody() = %q, want %q", got, tt.want)
			}
		})
	}
}
