package main

import (
	"context"
	"log"
	"net/http"
	"time"

	_ "cinerec/docs" // swagger docs

	"cinerec/internal/cache"
	"cinerec/internal/config"
	"cinerec/internal/db"
	"cinerec/internal/handler"
	"cinerec/internal/repository"
	"cinerec/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title CineRec Recommender API
// @version 1.0
// @description API de recomendación de películas (contenido, SVD, híbrido, embeddings)
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Mongo y Redis
	database, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("[api] mongo: %v", err)
	}
	redisCache, err := cache.New(ctx, cfg)
	if err != nil {
		// el cache es opcional: la API sirve igual, solo más lenta
		log.Printf("[api] redis no disponible, sigo sin cache: %v", err)
	}

	// repos
	userRepo := repository.NewUserRepository(database)
	movieRepo := repository.NewMovieRepository(database)
	ratingRepo := repository.NewRatingRepository(database)
	recRepo := repository.NewRecommendationRepository(database)
	artifactRepo := repository.NewArtifactRepository(database)

	// services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	ratingSvc := service.NewRatingService(ratingRepo, movieRepo)
	trainSvc := service.NewTrainService(movieRepo, ratingRepo, artifactRepo)
	recSvc := service.NewRecommendService(nil, ratingRepo, recRepo, redisCache)

	// cargar el último artefacto entrenado; si no hay, la API arranca
	// igual y /recommendations responde error hasta el primer retrain
	if set, ok, err := trainSvc.Load(ctx); err != nil {
		log.Printf("[api] no pude cargar el artefacto de modelos: %v", err)
	} else if ok {
		recSvc.Swap(set)
		log.Printf("[api] modelos cargados (entrenados %s)", set.TrainedAt.Format(time.RFC3339))
	} else {
		log.Printf("[api] sin modelos entrenados: corre cmd/trainer o POST /admin/retrain")
	}

	// handlers
	authH := handler.NewAuthHandler(authSvc)
	movieH := handler.NewMovieHandler(movieRepo, recSvc)
	ratingH := handler.NewRatingHandler(ratingSvc)
	recH := handler.NewRecommendHandler(recSvc)
	adminH := handler.NewAdminHandler(trainSvc, recSvc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// =============
	// Rutas públicas
	// =============
	r.Get("/health", handler.Health)

	r.Post("/auth/register", authH.Register)
	r.Post("/auth/login", authH.Login)

	// Películas (públicas)
	r.Get("/movies/search", movieH.Search)
	r.Get("/movies/top", movieH.Top)
	r.Get("/movies/{id}", movieH.GetMovie)
	r.Get("/movies/{id}/similar", movieH.Similar)

	// ===========================
	// Rutas protegidas con JWT
	// ===========================
	authMw := handler.JWTAuth(cfg.JWTSecret)

	r.Group(func(r chi.Router) {
		r.Use(authMw)

		// ---- Endpoints /me (USER normal) ----
		r.Route("/me", func(r chi.Router) {
			r.Get("/ratings", ratingH.GetMyRatings)
			r.Post("/ratings", ratingH.PostMyRating)
			r.Get("/recommendations", recH.GetMyRecommendations)
			r.Get("/recommendations/history", recH.GetMyHistory)
		})

		// ---- Endpoints solo ADMIN ----
		r.Group(func(r chi.Router) {
			r.Use(handler.AdminOnly())

			// ratings y recomendaciones de cualquier usuario
			r.Route("/users/{id}", func(r chi.Router) {
				r.Get("/ratings", ratingH.GetRatings)
				r.Post("/ratings", ratingH.PostRating)

				// HTTP normal
				r.Get("/recommendations", recH.GetRecommendations)
				r.Get("/recommendations/history", recH.GetHistory)

				// WebSocket
				r.Get("/ws/recommendations", recH.GetRecommendationsWS)
			})

			// entrenamiento y evaluación
			r.Post("/admin/retrain", adminH.Retrain)
			r.Post("/admin/evaluate", adminH.Evaluate)
		})
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	log.Printf("HTTP escuchando en :%s", cfg.HTTPPort)
	log.Fatal(http.ListenAndServe(":"+cfg.HTTPPort, r))
}
