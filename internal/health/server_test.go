package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func doRequest(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return w, resp
}

func TestServer_Health(t *testing.T) {
	s := New(0, WithVersion("v1.2.3"))

	w, resp := doRequest(t, s, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("expected status %q, got %q", StatusHealthy, resp.Status)
	}
	if resp.Version != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %q", resp.Version)
	}
}

func TestServer_Ready(t *testing.T) {
	tests := []struct {
		name         string
		checkers     map[string]HealthChecker
		degraded     map[string]DegradedChecker
		wantCode     int
		wantStatus   string
		wantDegraded int
	}{
		{
			name:       "no checkers",
			wantCode:   http.StatusOK,
			wantStatus: StatusReady,
		},
		{
			name: "bootstrapped and healthy",
			checkers: map[string]HealthChecker{
				"reconciler": func(context.Context) error { return nil },
				"provider":   func(context.Context) error { return nil },
			},
			degraded: map[string]DegradedChecker{
				"reconciler": func(context.Context) (bool, string) { return false, "" },
			},
			wantCode:   http.StatusOK,
			wantStatus: StatusReady,
		},
		{
			name: "not bootstrapped",
			checkers: map[string]HealthChecker{
				"reconciler": func(context.Context) error { return errors.New("record not loaded yet") },
				"provider":   func(context.Context) error { return nil },
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: StatusNotReady,
		},
		{
			name: "no reachable candidate",
			checkers: map[string]HealthChecker{
				"reconciler": func(context.Context) error { return nil },
			},
			degraded: map[string]DegradedChecker{
				"reconciler": func(context.Context) (bool, string) { return true, "no reachable candidate" },
			},
			wantCode:     http.StatusOK,
			wantStatus:   StatusDegraded,
			wantDegraded: 1,
		},
		{
			name: "unhealthy wins over degraded",
			checkers: map[string]HealthChecker{
				"provider": func(context.Context) error { return errors.New("unauthorized") },
			},
			degraded: map[string]DegradedChecker{
				"reconciler": func(context.Context) (bool, string) { return true, "write failed" },
			},
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   StatusNotReady,
			wantDegraded: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(0)
			for name, c := range tt.checkers {
				s.RegisterChecker(name, c)
			}
			for name, c := range tt.degraded {
				s.RegisterDegradedChecker(name, c)
			}

			w, resp := doRequest(t, s, "/ready")

			if w.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, w.Code)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, resp.Status)
			}
			if len(resp.Components) != len(tt.checkers) {
				t.Errorf("expected %d components, got %d", len(tt.checkers), len(resp.Components))
			}
			if len(resp.Degraded) != tt.wantDegraded {
				t.Errorf("expected %d degraded, got %d", tt.wantDegraded, len(resp.Degraded))
			}
		})
	}
}

func TestServer_Ready_ComponentsSorted(t *testing.T) {
	s := New(0)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		s.RegisterChecker(name, func(context.Context) error { return nil })
	}

	_, resp := doRequest(t, s, "/ready")

	var names []string
	for _, c := range resp.Components {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "alpha,mid,zeta" {
		t.Errorf("expected sorted components, got %v", names)
	}
}

func TestServer_Ready_Timeout(t *testing.T) {
	s := New(0, WithTimeout(50*time.Millisecond))

	s.RegisterChecker("provider", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	w, resp := doRequest(t, s, "/ready")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
	if resp.Status != StatusNotReady {
		t.Errorf("expected status %q, got %q", StatusNotReady, resp.Status)
	}
}

func TestServer_Metrics(t *testing.T) {
	s := New(0)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected default Go collectors in /metrics output")
	}
}

func TestServer_RegisterChecker(t *testing.T) {
	s := New(0)

	s.RegisterChecker("test", func(ctx context.Context) error { return nil })

	if len(s.checkers) != 1 {
		t.Errorf("expected 1 checker, got %d", len(s.checkers))
	}
	if _, ok := s.checkers["test"]; !ok {
		t.Error("expected checker 'test' to be registered")
	}
}

func TestServer_ListenPortInUse(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	s := New(busy.Addr().(*net.TCPAddr).Port)
	if _, err := s.Listen(); err == nil {
		t.Fatal("expected error binding a port in use")
	}
	if err := s.ListenAndServe(context.Background()); err == nil {
		t.Fatal("expected ListenAndServe to fail on a port in use")
	}
}

func TestServer_ServeUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), StatusHealthy) {
		t.Errorf("unexpected body %s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}
