package probe_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/argusmon/argus/internal/monitor"
)

func startHTTPServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	})
	mux.HandleFunc("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	mux.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	})
	mux.HandleFunc("/latin1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		w.Write([]byte("caf\xE9 is open"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProbe(t *testing.T) {
	t.Parallel()

	srv := startHTTPServer(t)

	AssertProbe(t, []ProbeTest{
		{
			Name:           "ok",
			Endpoint:       monitor.Endpoint{ID: "h1", Name: "h1", Kind: monitor.KindHTTP, URL: srv.URL + "/ok"},
			Status:         monitor.StatusUp,
			MessagePattern: "proto=HTTP/1\\.1 length=11 status=200_OK",
		},
		{
			Name:           "status-mismatch",
			Endpoint:       monitor.Endpoint{ID: "h2", Name: "h2", Kind: monitor.KindHTTP, URL: srv.URL + "/error"},
			Status:         monitor.StatusDown,
			MessagePattern: "status 500_Internal_Server_Error \\(expected 200\\)",
		},
		{
			Name:           "expected-status",
			Endpoint:       monitor.Endpoint{ID: "h3", Name: "h3", Kind: monitor.KindHTTP, URL: srv.URL + "/teapot", ExpectStatus: 418},
			Status:         monitor.StatusUp,
			MessagePattern: "proto=HTTP/1\\.1 length=0 status=418_I'm_a_teapot",
		},
		{
			Name:           "content-match",
			Endpoint:       monitor.Endpoint{ID: "h4", Name: "h4", Kind: monitor.KindHTTP, URL: srv.URL + "/ok", ExpectContent: "hello"},
			Status:         monitor.StatusUp,
			MessagePattern: "proto=HTTP/1\\.1 length=11 status=200_OK",
		},
		{
			Name:           "content-missing",
			Endpoint:       monitor.Endpoint{ID: "h5", Name: "h5", Kind: monitor.KindHTTP, URL: srv.URL + "/ok", ExpectContent: "goodbye"},
			Status:         monitor.StatusDown,
			MessagePattern: "response body does not contain expected content",
		},
		{
			Name:           "content-charset",
			Endpoint:       monitor.Endpoint{ID: "h6", Name: "h6", Kind: monitor.KindHTTP, URL: srv.URL + "/latin1", ExpectContent: "café"},
			Status:         monitor.StatusUp,
			MessagePattern: "proto=HTTP/1\\.1 length=12 status=200_OK",
		},
		{
			Name:           "refused",
			Endpoint:       monitor.Endpoint{ID: "h7", Name: "h7", Kind: monitor.KindHTTP, URL: "http://127.0.0.1:1"},
			Status:         monitor.StatusDown,
			MessagePattern: "127\\.0\\.0\\.1:1: connection refused",
		},
	}, 10)

	AssertTimeout(t, monitor.Endpoint{ID: "h-t", Name: "h-t", Kind: monitor.KindHTTP, URL: srv.URL + "/ok"})
}

func TestHTTPProbe_extra(t *testing.T) {
	t.Parallel()

	srv := startHTTPServer(t)

	ep := monitor.Endpoint{ID: "x", Name: "x", Kind: monitor.KindHTTP, URL: srv.URL + "/ok"}
	r := runProbe(t, ep, 10)

	if got, ok := r.Extra["status_code"]; !ok || got != 200 {
		t.Errorf("expected status_code 200 in extra but got %#v", got)
	}
	if _, ok := r.Extra["cert_not_after"]; ok {
		t.Error("plain http check should not carry certificate metadata")
	}
}
