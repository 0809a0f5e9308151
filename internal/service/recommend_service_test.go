package service

import (
	"strings"
	"testing"
	"time"

	"cinerec/internal/models"
)

func TestRecRequestNormalizeDefaults(t *testing.T) {
	req := RecRequest{UserID: 1}
	req.normalize()
	if req.K != DefaultK {
		t.Errorf("K = %d, esperaba %d", req.K, DefaultK)
	}
	if req.Model != ModelHybrid {
		t.Errorf("Model = %q, esperaba hybrid por defecto", req.Model)
	}
}

func TestRecRequestNormalizeCapsK(t *testing.T) {
	req := RecRequest{UserID: 1, K: 1000, Model: ModelContent}
	req.normalize()
	if req.K != MaxK {
		t.Errorf("K = %d, esperaba el tope %d", req.K, MaxK)
	}
}

func TestCacheKeyDistinguishesParams(t *testing.T) {
	base := RecRequest{UserID: 7, K: 10, Model: ModelHybrid, Alpha: 0.5}
	variants := []RecRequest{
		{UserID: 8, K: 10, Model: ModelHybrid, Alpha: 0.5},
		{UserID: 7, K: 20, Model: ModelHybrid, Alpha: 0.5},
		{UserID: 7, K: 10, Model: ModelContent, Alpha: 0.5},
		{UserID: 7, K: 10, Model: ModelHybrid, Alpha: 0.7},
		{UserID: 7, K: 10, Model: ModelHybrid, Alpha: 0.5, Context: true},
		{UserID: 7, K: 10, Model: ModelHybrid, Alpha: 0.5, TimeOfDay: "night"},
	}
	key := cacheKey(base)
	for i, v := range variants {
		if cacheKey(v) == key {
			t.Errorf("variante %d colisiona con la base: %q", i, key)
		}
	}
}

func TestResolveTimeOfDayPinsCacheKey(t *testing.T) {
	// con contexto y franja vacía, la clave debe quedar fijada a la
	// franja del momento de la request: a las 10 y a las 23 no puede
	// servirse la misma entrada de cache
	morning := RecRequest{UserID: 7, K: 10, Model: ModelHybrid, Context: true}
	morning.normalize()
	morning.resolveTimeOfDay(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	if morning.TimeOfDay != "morning" {
		t.Fatalf("TimeOfDay = %q, esperaba morning", morning.TimeOfDay)
	}

	night := RecRequest{UserID: 7, K: 10, Model: ModelHybrid, Context: true}
	night.normalize()
	night.resolveTimeOfDay(time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC))
	if cacheKey(morning) == cacheKey(night) {
		t.Errorf("misma clave para franjas distintas: %q", cacheKey(morning))
	}
}

func TestResolveTimeOfDayRespectsExplicitSlot(t *testing.T) {
	explicit := RecRequest{UserID: 7, K: 10, Model: ModelHybrid, Context: true, TimeOfDay: "evening"}
	explicit.resolveTimeOfDay(time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC))
	if explicit.TimeOfDay != "evening" {
		t.Errorf("la franja explícita no debe pisarse: %q", explicit.TimeOfDay)
	}

	plain := RecRequest{UserID: 7, K: 10, Model: ModelHybrid}
	plain.resolveTimeOfDay(time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC))
	if plain.TimeOfDay != "" {
		t.Errorf("sin contexto la franja debe quedar vacía, llegó %q", plain.TimeOfDay)
	}
}

func TestCacheKeyIgnoresRefresh(t *testing.T) {
	a := RecRequest{UserID: 7, K: 10, Model: ModelHybrid}
	b := a
	b.Refresh = true
	if cacheKey(a) != cacheKey(b) {
		t.Error("refresh no debe cambiar la clave de cache")
	}
}

func TestModelsWithoutSetErrors(t *testing.T) {
	s := NewRecommendService(nil, nil, nil, nil)
	_, err := s.models()
	if err == nil {
		t.Fatal("sin ModelSet cargado debería fallar")
	}
	if !strings.Contains(err.Error(), "trainer") {
		t.Errorf("el error debería apuntar al trainer: %v", err)
	}
}

func TestHoldoutSplitPerUser(t *testing.T) {
	var ratings []models.RatingDoc
	for u := 1; u <= 3; u++ {
		for m := 1; m <= 10; m++ {
			ratings = append(ratings, models.RatingDoc{UserID: u, MovieID: m * 10, Rating: 3.5})
		}
	}
	train, test := holdoutSplit(ratings, 0.2)

	if len(train)+len(test) != len(ratings) {
		t.Fatalf("se perdieron filas: %d + %d != %d", len(train), len(test), len(ratings))
	}
	// 20% de 10 ratings por usuario = 2 en test
	perUser := make(map[int]int)
	for _, r := range test {
		perUser[r.UserID]++
	}
	for u := 1; u <= 3; u++ {
		if perUser[u] != 2 {
			t.Errorf("usuario %d: %d filas en test, esperaba 2", u, perUser[u])
		}
	}
}

func TestHoldoutSplitSingleRatingStaysInTrain(t *testing.T) {
	ratings := []models.RatingDoc{{UserID: 1, MovieID: 10, Rating: 4.0}}
	train, test := holdoutSplit(ratings, 0.2)
	if len(train) != 1 || len(test) != 0 {
		t.Fatalf("un solo rating debe quedar en train: train=%d test=%d", len(train), len(test))
	}
}

func TestHoldoutSplitDeterministic(t *testing.T) {
	// holdoutSplit baraja in place, así que cada corrida recibe su copia
	build := func() []models.RatingDoc {
		var out []models.RatingDoc
		for m := 1; m <= 20; m++ {
			out = append(out, models.RatingDoc{UserID: 1, MovieID: m, Rating: 3.0})
		}
		return out
	}
	_, test1 := holdoutSplit(build(), 0.3)
	_, test2 := holdoutSplit(build(), 0.3)
	if len(test1) != len(test2) {
		t.Fatalf("largos distintos entre corridas: %d vs %d", len(test1), len(test2))
	}
	for i := range test1 {
		if test1[i].MovieID != test2[i].MovieID {
			t.Fatalf("el split con semilla fija debe ser reproducible")
		}
	}
}
