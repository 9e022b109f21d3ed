package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendwise/backend/database/dbtest"
	"spendwise/backend/logging"
	"spendwise/backend/metrics"
	"spendwise/backend/middleware"
	"spendwise/backend/models"
	"spendwise/backend/security"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

type ServerSuite struct {
	suite.Suite
	srv *httptest.Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	issuer := security.NewTokenIssuer("api-test-secret-0123456789abcdef", "spendwise", time.Hour)
	server := NewServer(Options{
		DB:          dbtest.New(s.T()),
		Logger:      logging.Discard(),
		Metrics:     metrics.New(prometheus.NewRegistry()),
		Resolver:    middleware.TokenResolver{Issuer: issuer},
		Issuer:      issuer,
		AppURL:      "http://localhost:3000",
		CORSOrigins: []string{"http://localhost:3000"},
	})
	s.srv = httptest.NewServer(server.Handler())
	s.T().Cleanup(s.srv.Close)
}

func (s *ServerSuite) do(method, path, token, body string) (*http.Response, []byte) {
	req, err := http.NewRequest(method, s.srv.URL+path, strings.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.srv.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, data
}

func (s *ServerSuite) login(email string) string {
	resp, body := s.do(http.MethodPost, "/api/auth/register", "", `{"email":"`+email+`","password":"correct-horse"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"`+email+`","password":"correct-horse"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
	var out struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(body, &out))
	s.Require().NotEmpty(out.Token)
	return out.Token
}

func (s *ServerSuite) TestHealth() {
	resp, body := s.do(http.MethodGet, "/health", "", "")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.JSONEq(`{"status":"ok","database":"ok"}`, string(body))
}

func (s *ServerSuite) TestProtectedRoutesRequireSession() {
	for _, path := range []string{"/expenses", "/api/expenses", "/api/insights", "/api/user/subscription"} {
		resp, body := s.do(http.MethodGet, path, "", "")
		s.Equal(http.StatusUnauthorized, resp.StatusCode, path)
		s.JSONEq(`{"error":"Unauthorized"}`, string(body), path)
	}

	resp, _ := s.do(http.MethodGet, "/api/expenses", "not-a-token", "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *ServerSuite) TestRegisterSeedsCategoriesAndRecordsSpend() {
	token := s.login("flow@example.com")

	resp, body := s.do(http.MethodGet, "/api/categories", token, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var categories []models.Category
	s.Require().NoError(json.Unmarshal(body, &categories))
	s.Require().Len(categories, len(models.DefaultCategories))

	categoryID := categories[0].ID
	resp, body = s.do(http.MethodPost, "/api/expenses", token,
		`{"amount":42.5,"description":"Dinner","categoryId":"`+categoryID+`","date":"2024-03-10"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	resp, body = s.do(http.MethodGet, "/api/insights?month=3&year=2024", token, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
	var insights models.Insights
	s.Require().NoError(json.Unmarshal(body, &insights))
	s.Equal("42.5", insights.TotalSpent.String())
	s.True(insights.PercentUsed.IsZero())
}

func (s *ServerSuite) TestUsersAreIsolated() {
	alice := s.login("alice@example.com")
	bob := s.login("bob@example.com")

	_, body := s.do(http.MethodGet, "/api/categories", alice, "")
	var categories []models.Category
	s.Require().NoError(json.Unmarshal(body, &categories))

	resp, body := s.do(http.MethodPost, "/api/expenses", alice,
		`{"amount":5,"description":"Coffee","categoryId":"`+categories[0].ID+`"}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
	var expense models.Expense
	s.Require().NoError(json.Unmarshal(body, &expense))

	_, body = s.do(http.MethodGet, "/api/expenses", bob, "")
	s.JSONEq(`[]`, string(body))

	resp, _ = s.do(http.MethodDelete, "/api/expenses/"+expense.ID, bob, "")
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(http.MethodPost, "/api/expenses", bob,
		`{"amount":5,"description":"Coffee","categoryId":"`+categories[0].ID+`"}`)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.JSONEq(`{"error":"Invalid category"}`, string(body))
}

func (s *ServerSuite) TestBillingDisabledWithoutProvider() {
	token := s.login("billing@example.com")

	resp, body := s.do(http.MethodPost, "/api/stripe/checkout", token, "")
	s.Equal(http.StatusInternalServerError, resp.StatusCode)
	s.JSONEq(`{"error":"Something went wrong"}`, string(body))

	resp, _ = s.do(http.MethodPost, "/api/stripe/portal", token, "")
	s.Equal(http.StatusBadRequest, resp.StatusCode, "no customer is checked before the provider")

	resp, body = s.do(http.MethodPost, "/api/stripe/webhook", "", `{}`)
	s.Equal(http.StatusInternalServerError, resp.StatusCode)
	s.JSONEq(`{"error":"Something went wrong"}`, string(body))
}

func (s *ServerSuite) TestPreflight() {
	req, err := http.NewRequest(http.MethodOptions, s.srv.URL+"/api/expenses", nil)
	s.Require().NoError(err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := s.srv.Client().Do(req)
	s.Require().NoError(err)
	resp.Body.Close()

	s.Equal(http.StatusNoContent, resp.StatusCode)
	s.Equal("http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	s.Equal("true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func (s *ServerSuite) TestUnknownRoute() {
	resp, body := s.do(http.MethodGet, "/api/nothing-here", "", "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.JSONEq(`{"error":"Not found"}`, string(body))
}

func (s *ServerSuite) TestMetricsEndpoint() {
	s.do(http.MethodGet, "/health", "", "")

	resp, body := s.do(http.MethodGet, "/metrics", "", "")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), `spendwise_http_requests_total{code="200",method="GET",route="/health"} 1`)
}
