package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/handlers"
	"github.com/GregMSThompson/bizledger/internal/response"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

type stubAnalytics struct {
	token string
}

func (s *stubAnalytics) GetBusinessAnalytics(_ context.Context, businessToken string) (dto.AnalyticsResponse, error) {
	s.token = businessToken
	return dto.AnalyticsResponse{BusinessToken: businessToken}, nil
}

type stubAI struct{}

func (stubAI) Query(context.Context, string, string, string) (dto.AIQueryResponse, error) {
	return dto.AIQueryResponse{Answer: "hi"}, nil
}

func testDeps() *handlers.Deps {
	log := logger.NewTest()
	return &handlers.Deps{
		Log:             log,
		ResponseHandler: response.New(log),
		AnalyticsSvc:    &stubAnalytics{},
	}
}

func TestHealthz(t *testing.T) {
	r := NewRouter(testDeps(), "DEMO")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestAnalyticsRouteIsBusinessScoped(t *testing.T) {
	deps := testDeps()
	analytics := deps.AnalyticsSvc.(*stubAnalytics)
	r := NewRouter(deps, "DEMO")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/analytics?businessToken=B7", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if analytics.token != "B7" {
		t.Fatalf("token = %q, want B7", analytics.token)
	}
	var body struct {
		Success bool                  `json:"success"`
		Data    dto.AnalyticsResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data.BusinessToken != "B7" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAssistantMountedOnlyWhenConfigured(t *testing.T) {
	deps := testDeps()
	rr := httptest.NewRecorder()
	NewRouter(deps, "DEMO").ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/assistant/query", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status without assistant = %d, want 404", rr.Code)
	}

	deps.AISvc = stubAI{}
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/assistant/query", strings.NewReader(`{"message":"hello"}`))
	NewRouter(deps, "DEMO").ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status with assistant = %d, body = %s", rr.Code, rr.Body.String())
	}
}
