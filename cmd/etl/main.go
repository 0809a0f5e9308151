package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"cinerec/internal/config"
	"cinerec/internal/db"
	"cinerec/internal/ingest"
	"cinerec/internal/repository"
)

// cmd/etl carga un dataset estilo MovieLens (movies.csv, ratings.csv y
// opcionalmente tags.csv) a Mongo, con los agregados de rating ya
// precalculados por película. Borra y recarga las colecciones.
func main() {
	dir := flag.String("dir", "./data", "directorio con movies.csv, ratings.csv y tags.csv")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	database, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("[etl] mongo: %v", err)
	}

	start := time.Now()

	movies, err := ingest.LoadMovies(filepath.Join(*dir, "movies.csv"))
	if err != nil {
		log.Fatalf("[etl] movies.csv: %v", err)
	}
	ratings, err := ingest.LoadRatings(filepath.Join(*dir, "ratings.csv"))
	if err != nil {
		log.Fatalf("[etl] ratings.csv: %v", err)
	}
	// tags.csv es opcional, pero solo si no existe: un archivo presente
	// y malformado es un error del dataset, no algo que ignorar
	tags, err := ingest.LoadTags(filepath.Join(*dir, "tags.csv"))
	switch {
	case os.IsNotExist(err):
		log.Printf("[etl] sin tags.csv, sigo solo con géneros")
		tags = nil
	case err != nil:
		log.Fatalf("[etl] tags.csv: %v", err)
	}
	log.Printf("[etl] leídos movies=%d ratings=%d tags=%d", len(movies), len(ratings), len(tags))

	ratings = ingest.DedupRatings(ratings)
	movieDocs := ingest.BuildMovieDocs(movies, ratings, tags)
	ratingDocs := ingest.ToRatingDocs(ratings)

	movieRepo := repository.NewMovieRepository(database)
	ratingRepo := repository.NewRatingRepository(database)

	if err := movieRepo.DeleteAll(ctx); err != nil {
		log.Fatalf("[etl] limpiando movies: %v", err)
	}
	if err := ratingRepo.DeleteAll(ctx); err != nil {
		log.Fatalf("[etl] limpiando ratings: %v", err)
	}
	if err := movieRepo.InsertMany(ctx, movieDocs); err != nil {
		log.Fatalf("[etl] insertando movies: %v", err)
	}
	if err := ratingRepo.InsertMany(ctx, ratingDocs); err != nil {
		log.Fatalf("[etl] insertando ratings: %v", err)
	}

	log.Printf("[etl] listo: movies=%d ratings=%d tiempo=%s",
		len(movieDocs), len(ratingDocs), time.Since(start))
}
