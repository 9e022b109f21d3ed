package api

import (
	"log/slog"
	"net/http"

	"spendwise/backend/billing"
	"spendwise/backend/handlers"
	"spendwise/backend/logging"
	"spendwise/backend/metrics"
	"spendwise/backend/middleware"
	"spendwise/backend/security"
	"spendwise/backend/services"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
)

// Options carries everything the API server is built from
type Options struct {
	DB       *sqlx.DB
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Resolver middleware.SessionResolver
	Issuer   *security.TokenIssuer
	Billing  billing.Provider // nil disables checkout, portal and webhooks

	AppURL      string
	CORSOrigins []string
	DevMode     bool
}

// Server represents the API server
type Server struct {
	opts    Options
	router  *mux.Router
	handler http.Handler

	users      *handlers.UserHandler
	expenses   *handlers.ExpenseHandler
	budgets    *handlers.BudgetHandler
	categories *handlers.CategoryHandler
	bills      *handlers.BillHandler
	savings    *handlers.SavingsHandler
	insights   *handlers.InsightsHandler
	billing    *handlers.BillingHandler
	health     *handlers.HealthHandler
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	logger := opts.Logger
	userService := services.NewUserService(opts.DB, opts.Metrics)

	s := &Server{
		opts:       opts,
		router:     mux.NewRouter(),
		users:      handlers.NewUserHandler(userService, opts.Issuer, logger, !opts.DevMode),
		expenses:   handlers.NewExpenseHandler(services.NewExpenseService(opts.DB, opts.Metrics), logger),
		budgets:    handlers.NewBudgetHandler(services.NewBudgetService(opts.DB), logger),
		categories: handlers.NewCategoryHandler(services.NewCategoryService(opts.DB), logger),
		bills:      handlers.NewBillHandler(services.NewBillService(opts.DB), logger),
		savings:    handlers.NewSavingsHandler(services.NewSavingsService(opts.DB), logger),
		insights:   handlers.NewInsightsHandler(services.NewInsightsService(opts.DB), logger),
		billing:    handlers.NewBillingHandler(userService, opts.Billing, opts.AppURL, logger),
		health:     handlers.NewHealthHandler(opts.DB, logger),
	}
	s.RegisterRoutes()

	// CORS, logging and recovery wrap the router itself so preflights and
	// unmatched routes get them too.
	var h http.Handler = s.router
	h = middleware.CORS(opts.CORSOrigins, opts.DevMode)(h)
	h = middleware.Recover(logger)(h)
	h = logging.RequestLogger(logger)(h)
	s.handler = h
	return s
}

// RegisterRoutes registers all API routes, both at the root and under /api
func (s *Server) RegisterRoutes() {
	s.router.Use(s.opts.Metrics.Middleware)
	s.router.NotFoundHandler = http.HandlerFunc(notFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	if s.opts.Metrics != nil {
		s.router.Handle("/metrics", s.opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	s.registerRoutes(s.router)
	s.registerRoutes(s.router.PathPrefix("/api").Subrouter())
}

func (s *Server) registerRoutes(r *mux.Router) {
	// Public routes (no auth required)
	r.HandleFunc("/health", s.health.Health).Methods(http.MethodGet)
	r.HandleFunc("/auth/register", s.users.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.users.Login).Methods(http.MethodPost)
	r.HandleFunc("/stripe/webhook", s.billing.HandleWebhook).Methods(http.MethodPost)

	// Create a subrouter for authenticated routes
	protected := r.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(s.opts.Resolver, s.opts.Logger))

	protected.HandleFunc("/expenses", s.expenses.GetExpenses).Methods(http.MethodGet)
	protected.HandleFunc("/expenses", s.expenses.AddExpense).Methods(http.MethodPost)
	protected.HandleFunc("/expenses/{id}", s.expenses.UpdateExpense).Methods(http.MethodPut)
	protected.HandleFunc("/expenses/{id}", s.expenses.DeleteExpense).Methods(http.MethodDelete)

	protected.HandleFunc("/budgets", s.budgets.GetBudgets).Methods(http.MethodGet)
	protected.HandleFunc("/budgets", s.budgets.SetBudget).Methods(http.MethodPost)
	protected.HandleFunc("/budgets/{id}", s.budgets.DeleteBudget).Methods(http.MethodDelete)

	protected.HandleFunc("/categories", s.categories.GetCategories).Methods(http.MethodGet)
	protected.HandleFunc("/categories", s.categories.AddCategory).Methods(http.MethodPost)
	protected.HandleFunc("/categories/{id}", s.categories.UpdateCategory).Methods(http.MethodPut)
	protected.HandleFunc("/categories/{id}", s.categories.DeleteCategory).Methods(http.MethodDelete)

	protected.HandleFunc("/bills", s.bills.GetBills).Methods(http.MethodGet)
	protected.HandleFunc("/bills", s.bills.AddBill).Methods(http.MethodPost)
	protected.HandleFunc("/bills/{id}", s.bills.UpdateBill).Methods(http.MethodPut)
	protected.HandleFunc("/bills/{id}", s.bills.DeleteBill).Methods(http.MethodDelete)

	protected.HandleFunc("/savings", s.savings.GetGoals).Methods(http.MethodGet)
	protected.HandleFunc("/savings", s.savings.AddGoal).Methods(http.MethodPost)
	protected.HandleFunc("/savings/{id}", s.savings.UpdateGoal).Methods(http.MethodPut)
	protected.HandleFunc("/savings/{id}", s.savings.DeleteGoal).Methods(http.MethodDelete)
	protected.HandleFunc("/savings/{id}/contributions", s.savings.AddContribution).Methods(http.MethodPost)

	protected.HandleFunc("/insights", s.insights.GetInsights).Methods(http.MethodGet)

	protected.HandleFunc("/user/subscription", s.billing.GetSubscription).Methods(http.MethodGet)
	protected.HandleFunc("/stripe/portal", s.billing.CreatePortalSession).Methods(http.MethodPost)
	protected.HandleFunc("/stripe/checkout", s.billing.CreateCheckoutSession).Methods(http.MethodPost)
}

// Handler returns the HTTP handler for the API server
func (s *Server) Handler() http.Handler {
	return s.handler
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not found"}` + "\n"))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"error":"Method not allowed"}` + "\n"))
}
