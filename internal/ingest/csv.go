// Package ingest: ETL de los CSV de MovieLens hacia los documentos de
// Mongo. La validación de columnas es estricta: una columna requerida
// ausente es error duro acá, los modelos asumen entrada validada.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var yearRe = regexp.MustCompile(`\((\d{4})\)\s*$`)

// RawMovie es la fila de movies.csv tal cual.
type RawMovie struct {
	MovieID int
	Title   string
	Genres  []string // "Comedy|Romance" ya partido
}

type RawRating struct {
	UserID    int
	MovieID   int
	Rating    float64
	Timestamp int64
}

type RawTag struct {
	MovieID int
	Tag     string
}

// openCSV abre el archivo y valida que el header traiga exactamente las
// columnas requeridas (en cualquier orden). Devuelve el índice de cada una.
func openCSV(path string, required []string) (*csv.Reader, *os.File, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	rd := csv.NewReader(f)
	rd.FieldsPerRecord = -1

	header, err := rd.Read()
	if err != nil {
		f.Close()
		return nil, nil, nil, fmt.Errorf("%s: leyendo header: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, want := range required {
		if _, ok := cols[want]; !ok {
			f.Close()
			return nil, nil, nil, fmt.Errorf("%s: falta la columna requerida %q", path, want)
		}
	}
	return rd, f, cols, nil
}

// ParseTitleYear separa "Toy Story (1995)" en título y año.
func ParseTitleYear(raw string) (string, *int) {
	raw = strings.TrimSpace(raw)
	m := yearRe.FindStringSubmatch(raw)
	if len(m) == 2 {
		if y, err := strconv.Atoi(m[1]); err == nil {
			if idx := strings.LastIndex(raw, "("); idx > 0 {
				return strings.TrimSpace(raw[:idx]), &y
			}
			return raw, &y
		}
	}
	return raw, nil
}

// splitGenres parte la columna de géneros; "(no genres listed)" queda vacío.
func splitGenres(raw string) []string {
	if raw == "" || raw == "(no genres listed)" {
		return nil
	}
	return strings.Split(raw, "|")
}

// LoadMovies lee movies.csv: movieId,title,genres.
func LoadMovies(path string) ([]RawMovie, error) {
	rd, f, cols, err := openCSV(path, []string{"movieId", "title", "genres"})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []RawMovie
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		id, err := strconv.Atoi(rec[cols["movieId"]])
		if err != nil {
			continue // fila corrupta, se salta
		}
		out = append(out, RawMovie{
			MovieID: id,
			Title:   rec[cols["title"]],
			Genres:  splitGenres(rec[cols["genres"]]),
		})
	}
	return out, nil
}

// LoadRatings lee ratings.csv: userId,movieId,rating,timestamp.
// La columna timestamp es opcional (algunos dumps no la traen).
func LoadRatings(path string) ([]RawRating, error) {
	rd, f, cols, err := openCSV(path, []string{"userId", "movieId", "rating"})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tsCol, hasTS := cols["timestamp"]

	var out []RawRating
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		uid, err1 := strconv.Atoi(rec[cols["userId"]])
		mid, err2 := strconv.Atoi(rec[cols["movieId"]])
		rating, err3 := strconv.ParseFloat(rec[cols["rating"]], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		var ts int64
		if hasTS && tsCol < len(rec) {
			ts, _ = strconv.ParseInt(rec[tsCol], 10, 64)
		}
		out = append(out, RawRating{UserID: uid, MovieID: mid, Rating: rating, Timestamp: ts})
	}
	return out, nil
}

// LoadTags lee tags.csv: userId,movieId,tag,timestamp (solo usamos movieId+tag).
func LoadTags(path string) ([]RawTag, error) {
	rd, f, cols, err := openCSV(path, []string{"movieId", "tag"})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []RawTag
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		mid, err := strconv.Atoi(rec[cols["movieId"]])
		if err != nil {
			continue
		}
		tag := strings.TrimSpace(rec[cols["tag"]])
		if tag == "" {
			continue
		}
		out = append(out, RawTag{MovieID: mid, Tag: tag})
	}
	return out, nil
}
