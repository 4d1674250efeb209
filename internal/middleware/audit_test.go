package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		handlerStatus int
		header        http.Header
		wantEvent     string
		wantIP        string
	}{
		{
			name:          "unauthorized logs security event with forwarded IP",
			handlerStatus: http.StatusUnauthorized,
			header:        http.Header{"X-Forwarded-For": []string{"203.0.113.9, 10.0.0.1"}},
			wantEvent:     "security_event",
			wantIP:        "203.0.113.9",
		},
		{
			name:          "forbidden logs security event",
			handlerStatus: http.StatusForbidden,
			wantEvent:     "security_event",
		},
		{
			name:          "rate limited logs violation",
			handlerStatus: http.StatusTooManyRequests,
			wantEvent:     "rate_limit_violation",
		},
		{
			name:          "success logs nothing",
			handlerStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.WarnLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			middleware := Audit(zap.New(core))(handler)

			req := httptest.NewRequest("GET", "/test", nil)
			for key, values := range tt.header {
				for _, v := range values {
					req.Header.Add(key, v)
				}
			}
			w := httptest.NewRecorder()

			middleware.ServeHTTP(w, req)

			if tt.wantEvent == "" {
				if logs.Len() != 0 {
					t.Errorf("Expected no log entries, got %d", logs.Len())
				}
				return
			}

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 log entry, got %d", len(entries))
			}
			if entries[0].Message != tt.wantEvent {
				t.Errorf("Expected event '%s', got '%s'", tt.wantEvent, entries[0].Message)
			}

			if tt.wantIP != "" {
				fields := entries[0].ContextMap()
				if ip, ok := fields["ip"].(string); !ok || ip != tt.wantIP {
					t.Errorf("Expected ip '%s', got '%v'", tt.wantIP, fields["ip"])
				}
			}
		})
	}
}
