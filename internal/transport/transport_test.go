package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	if _, ok := New(time.Second, false).(*http.Transport); !ok {
		t.Error("expected *http.Transport without fingerprinting")
	}
	if _, ok := New(time.Second, true).(*chromeTransport); !ok {
		t.Error("expected chromeTransport with fingerprinting")
	}
}

func TestNewClientDoesNotFollowRedirects(t *testing.T) {
	for _, fingerprint := range []bool{false, true} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/target" {
				w.WriteHeader(http.StatusOK)
				return
			}
			http.Redirect(w, r, "/target", http.StatusTemporaryRedirect)
		}))

		client := NewClient(5*time.Second, fingerprint)
		resp, err := client.Get(server.URL + "/purl")
		if err != nil {
			server.Close()
			t.Fatalf("fingerprint=%v: Get() error: %v", fingerprint, err)
		}
		resp.Body.Close()
		server.Close()

		if resp.StatusCode != http.StatusTemporaryRedirect {
			t.Errorf("fingerprint=%v: status = %d, want 307", fingerprint, resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/target" {
			t.Errorf("fingerprint=%v: Location = %q", fingerprint, loc)
		}
	}
}

func TestNewLoaderFollowsRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cdn/1.jpg" {
			w.Write([]byte("JPEGDATA"))
			return
		}
		http.Redirect(w, r, "/cdn/1.jpg", http.StatusFound)
	}))
	defer server.Close()

	resp, err := NewLoader(5*time.Second, false).Get(server.URL + "/file/id/1/format/large")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Request.URL.Path != "/cdn/1.jpg" {
		t.Errorf("final path = %q, want /cdn/1.jpg", resp.Request.URL.Path)
	}
}
