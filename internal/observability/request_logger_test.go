package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestRequestLogger_AssignsAndEchoesRequestID(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		if RequestID(c) == "" {
			t.Errorf("request id missing inside handler")
		}
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/things/1", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Fatalf("expected generated request id header")
	}
	if got := metrics.Snapshot().Requests["/things/:id|GET|200"]; got != 1 {
		t.Fatalf("expected request recorded under route pattern, got %d", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/things/2", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected caller request id to be kept, got %q", got)
	}
}
