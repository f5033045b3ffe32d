package internal

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"asset-lifecycle-api/internal/auth"
	"asset-lifecycle-api/internal/config"
	"asset-lifecycle-api/internal/handlers"
	"asset-lifecycle-api/internal/timeline"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

type Server struct {
	DB         *sql.DB
	Pool       *pgxpool.Pool
	Router     *chi.Mux
	JWTManager *auth.JWTManager
	Metrics    *Metrics
	Timeline   *timeline.Builder
}

func NewServer(dsn string, cfg *config.Config) *Server {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database connection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database ping failed")
	}

	// Also create a pgxpool for the importer
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create pgxpool")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
	if err := jwtManager.ValidateConfig(); err != nil {
		log.Fatal().Err(err).Msg("JWT configuration validation failed")
	}

	s := &Server{
		DB:         db,
		Pool:       pool,
		Router:     chi.NewRouter(),
		JWTManager: jwtManager,
		Metrics:    NewMetrics(),
		Timeline:   timeline.NewDefaultBuilder(db),
	}

	s.Router.Use(RequestLogger)

	// chi requires all middleware before the first route
	metricsEnabled := os.Getenv("ENABLE_METRICS") == "true"
	if metricsEnabled {
		s.Router.Use(s.Metrics.Middleware())
	}

	// Public routes (no auth)
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Get("/dbping", func(w http.ResponseWriter, r *http.Request) {
		if err := s.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		if _, err := w.Write([]byte("db: ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	s.Router.Post("/auth/login", s.loginUser)

	if metricsEnabled {
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	s.Router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(s.JWTManager))
		s.mountProtectedRoutes(r)
	})

	return s
}

// Close properly shuts down the server and cleans up resources
func (s *Server) Close(ctx context.Context) error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// mountProtectedRoutes mounts all routes that require authentication.
// Reads are open to any authenticated user; lifecycle mutations need the
// technician or admin role; catalog and user administration need admin.
func (s *Server) mountProtectedRoutes(r chi.Router) {
	// Categories
	r.Get("/categories", s.listCategories)
	r.Get("/categories/{id}", s.getCategory)
	r.Post("/categories", auth.MustRole("admin")(http.HandlerFunc(s.createCategory)).(http.HandlerFunc))
	r.Put("/categories/{id}", auth.MustRole("admin")(http.HandlerFunc(s.updateCategory)).(http.HandlerFunc))
	r.Delete("/categories/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteCategory)).(http.HandlerFunc))

	// Products
	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
	r.Post("/products", auth.MustRole("admin")(http.HandlerFunc(s.createProduct)).(http.HandlerFunc))
	r.Put("/products/{id}", auth.MustRole("admin")(http.HandlerFunc(s.updateProduct)).(http.HandlerFunc))
	r.Delete("/products/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteProduct)).(http.HandlerFunc))

	// Stock (bulk products)
	r.Get("/stock/alerts", s.getStockAlerts)
	r.Get("/products/{id}/stock", s.getProductStock)
	r.Get("/products/{id}/stock-movements", s.listStockMovements)
	r.Post("/products/{id}/stock-movements", auth.MustRole("admin", "technician")(http.HandlerFunc(s.createStockMovement)).(http.HandlerFunc))

	// Inventory items (serialized units)
	r.Get("/items", s.listItems)
	r.Get("/items/{id}", s.getItem)
	r.Get("/items/{id}/history", s.getItemHistory)
	r.Post("/items", auth.MustRole("admin", "technician")(http.HandlerFunc(s.createItem)).(http.HandlerFunc))
	r.Put("/items/{id}", auth.MustRole("admin", "technician")(http.HandlerFunc(s.updateItem)).(http.HandlerFunc))
	r.Post("/items/{id}/decommission", auth.MustRole("admin")(http.HandlerFunc(s.decommissionItem)).(http.HandlerFunc))

	// Assignments
	r.Get("/assignments", s.listAssignments)
	r.Get("/assignments/{id}", s.getAssignment)
	r.Post("/assignments", auth.MustRole("admin", "technician")(http.HandlerFunc(s.createAssignment)).(http.HandlerFunc))
	r.Post("/assignments/{id}/return", auth.MustRole("admin", "technician")(http.HandlerFunc(s.returnAssignment)).(http.HandlerFunc))

	// Repairs
	r.Get("/repairs", s.listRepairs)
	r.Get("/repairs/{id}", s.getRepair)
	r.Post("/repairs", auth.MustRole("admin", "technician")(http.HandlerFunc(s.createRepair)).(http.HandlerFunc))
	r.Post("/repairs/{id}/return", auth.MustRole("admin", "technician")(http.HandlerFunc(s.returnRepair)).(http.HandlerFunc))

	// Assignment destinations
	r.Get("/employees", s.listEmployees)
	r.Get("/employees/{id}", s.getEmployee)
	r.Post("/employees", auth.MustRole("admin")(http.HandlerFunc(s.createEmployee)).(http.HandlerFunc))
	r.Delete("/employees/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteEmployee)).(http.HandlerFunc))

	r.Get("/sectors", s.listSectors)
	r.Post("/sectors", auth.MustRole("admin")(http.HandlerFunc(s.createSector)).(http.HandlerFunc))
	r.Delete("/sectors/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteSector)).(http.HandlerFunc))

	r.Get("/branches", s.listBranches)
	r.Post("/branches", auth.MustRole("admin")(http.HandlerFunc(s.createBranch)).(http.HandlerFunc))
	r.Delete("/branches/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteBranch)).(http.HandlerFunc))

	// Excel import
	importsHandler := handlers.NewImportsHandler(s.Pool)
	r.Post("/imports/excel", auth.MustRole("admin")(http.HandlerFunc(importsHandler.UploadExcel)).(http.HandlerFunc))

	// User management - admin only
	r.Post("/users", auth.MustRole("admin")(http.HandlerFunc(s.createUser)).(http.HandlerFunc))
	r.Get("/users", auth.MustRole("admin")(http.HandlerFunc(s.listUsers)).(http.HandlerFunc))
	r.Get("/users/{id}", auth.MustRole("admin")(http.HandlerFunc(s.getUser)).(http.HandlerFunc))
	r.Put("/users/{id}", auth.MustRole("admin")(http.HandlerFunc(s.updateUser)).(http.HandlerFunc))
	r.Delete("/users/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteUser)).(http.HandlerFunc))

	// Self-service routes
	r.Get("/auth/profile", s.getUserProfile)
	r.Put("/auth/profile", s.updateUserProfile)
	r.Put("/auth/change-password", s.changePassword)
}
