package main

import (
	"context"
	"flag"
	"log"
	"time"

	"cinerec/internal/config"
	"cinerec/internal/db"
	"cinerec/internal/repository"
	"cinerec/internal/service"
)

// cmd/trainer entrena los cuatro modelos desde Mongo y guarda el
// artefacto serializado; la API lo levanta al arrancar. Se corre
// después de cmd/etl o cuando se acumulan ratings nuevos.
func main() {
	factors := flag.Int("factors", 0, "factores latentes del SVD (0 = default)")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	database, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("[trainer] mongo: %v", err)
	}

	trainSvc := service.NewTrainService(
		repository.NewMovieRepository(database),
		repository.NewRatingRepository(database),
		repository.NewArtifactRepository(database),
	)

	set, err := trainSvc.Train(ctx, *factors)
	if err != nil {
		log.Fatalf("[trainer] entrenando: %v", err)
	}
	if err := trainSvc.Persist(ctx, set); err != nil {
		log.Fatalf("[trainer] guardando artefacto: %v", err)
	}
	log.Printf("[trainer] artefacto guardado (movies=%d, entrenado %s)",
		len(set.Items), set.TrainedAt.Format(time.RFC3339))
}
