package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/todmy/keyphrase-extractor/internal/auth"
	"github.com/todmy/keyphrase-extractor/internal/document"
	"github.com/todmy/keyphrase-extractor/internal/logging"
	"github.com/todmy/keyphrase-extractor/internal/pipeline"
	"github.com/todmy/keyphrase-extractor/internal/storage"
)

// ServerConfig holds the dependencies of the HTTP server
type ServerConfig struct {
	Auth           auth.Service
	Models         storage.ModelStore
	History        storage.ModelRepository
	Training       storage.TrainingRepository
	Resources      pipeline.Resources
	DefaultVariant pipeline.Variant
	TopN           int
	Workers        int
	TextBuilder    *document.TextBuilder
	Logger         *logging.Logger
}

type Server struct {
	router    *chi.Mux
	config    ServerConfig
	logger    *logging.Logger
	pipelines map[pipeline.Variant]*pipeline.Pipeline
	models    *modelCache
	trainMu   map[pipeline.Variant]*sync.Mutex
}

func NewServer(config ServerConfig) *Server {
	if config.Logger == nil {
		config.Logger = logging.NewDiscardLogger()
	}
	if config.TextBuilder == nil {
		config.TextBuilder = document.NewTextBuilder()
	}
	if config.DefaultVariant == "" {
		config.DefaultVariant = pipeline.Kea
	}
	if config.TopN <= 0 {
		config.TopN = 10
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  config.Logger.StdLogger(),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:    r,
		config:    config,
		logger:    config.Logger,
		pipelines: make(map[pipeline.Variant]*pipeline.Pipeline),
		models:    newModelCache(config.Models),
		trainMu:   make(map[pipeline.Variant]*sync.Mutex),
	}
	for _, v := range pipeline.Variants() {
		p, _ := pipeline.NewForVariant(v, config.Resources)
		s.pipelines[v] = p
		s.trainMu[v] = &sync.Mutex{}
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API v1
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", auth.TokenHandler(s.config.Auth))
		r.Post("/extract", s.handleExtract)
		r.Get("/models/{variant}", s.handleGetModel)
		r.Get("/models/{variant}/history", s.handleModelHistory)
		r.Get("/models/{variant}/history/{id}", s.handleGetModelVersion)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.config.Auth))

			r.Post("/models/{variant}/train", s.handleTrain)
			r.Post("/models/{variant}/examples", s.handleAddExamples)
			r.Delete("/models/{variant}/examples", s.handleDeleteExamples)
		})
	})
}

// ServeHTTP makes Server an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

// Helper to send JSON responses
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
