// Package engine generates synthetic convention registration statistics.
package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"slices"
	"strconv"
	"time"

	"nosecounter/internal/dataset"
	"nosecounter/internal/orderedmap"
	"nosecounter/internal/stats"
)

type GeneratorConfig struct {
	Scenario   string // "steady", "growth" or "decline"
	Convention string
	FromYear   int
	ToYear     int
	BaseCount  int
	Seed       uint64
}

type weight struct {
	key string
	w   float64
}

// Shares of TotalCount. Gender and special interests deliberately leave a remainder.
var (
	genders          = []weight{{"male", 0.67}, {"female", 0.26}}
	sponsors         = []weight{{"normal", 0.76}, {"sponsor", 0.18}, {"supersponsor", 0.06}}
	statuses         = []weight{{"new", 0.02}, {"approved", 0.05}, {"paid", 0.9}, {"checked in", 0.03}}
	shirts           = []weight{{"XS", 0.01}, {"S", 0.08}, {"M", 0.25}, {"L", 0.31}, {"XL", 0.22}, {"XXL", 0.1}}
	specialInterests = []weight{{"animator", 0.01}, {"artist", 0.16}, {"fursuiter", 0.27}, {"musician", 0.02}}
	countries        = []weight{
		{"DE", 0.48}, {"US", 0.08}, {"AT", 0.07}, {"CH", 0.06}, {"GB", 0.05}, {"NL", 0.04},
		{"FR", 0.04}, {"PL", 0.03}, {"BE", 0.03}, {"DK", 0.03}, {"SE", 0.02}, {"CZ", 0.02},
		{"IT", 0.02}, {"FI", 0.01}, {"NO", 0.01}, {"CA", 0.01},
	}
)

// RegistrationStart is when registration opens in a given year.
func RegistrationStart(year int) time.Time {
	return time.Date(year, 1, 14, 19, 0, 0, 0, time.UTC)
}

// Generate creates one dataset per year, oldest first. The same seed yields the same data.
func Generate(cfg GeneratorConfig) []*dataset.YearlyDataset {
	if cfg.Convention == "" {
		cfg.Convention = "Eurofurence"
	}
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5eed))

	var out []*dataset.YearlyDataset
	for i, year := 0, cfg.FromYear; year <= cfg.ToYear; i, year = i+1, year+1 {
		factor := 1 + (r.Float64()-0.5)*0.06
		switch cfg.Scenario {
		case "growth":
			factor *= math.Pow(1.08, float64(i))
		case "decline":
			factor *= math.Pow(0.95, float64(i))
		}
		total := int(math.Round(float64(cfg.BaseCount) * factor))

		out = append(out, &dataset.YearlyDataset{
			Year:            year,
			Convention:      cfg.Convention,
			TotalCount:      total,
			Age:             ages(r, total),
			Country:         split(r, total, countries),
			Gender:          split(r, total, genders),
			Sponsor:         split(r, total, sponsors),
			ShirtSize:       split(r, total, shirts),
			SpecialInterest: split(r, total, specialInterests),
			Status:          split(r, total, statuses),
			Created:         created(r, total, RegistrationStart(year)),
		})
	}
	return out
}

// split distributes total across the weighted categories with a little noise.
func split(r *rand.Rand, total int, weights []weight) *dataset.Breakdown {
	b := orderedmap.New[int]()
	for _, w := range weights {
		noise := 1 + (r.Float64()-0.5)*0.1
		if n := int(math.Round(float64(total) * w.w * noise)); n > 0 {
			b.Set(w.key, n)
		}
	}
	return b
}

// ages draws a right-skewed age distribution starting at 16; a few registrations
// carry no age.
func ages(r *rand.Rand, total int) *dataset.Breakdown {
	counts := make(map[int]int)
	for range total * 97 / 100 {
		counts[16+int(weibullSample(r, 1.6, 12))]++
	}
	years := make([]int, 0, len(counts))
	for age := range counts {
		years = append(years, age)
	}
	slices.Sort(years)

	b := orderedmap.New[int]()
	for _, age := range years {
		b.Set(strconv.Itoa(age), counts[age])
	}
	return b
}

// created spreads the registrations over the days after start, most of them in the
// first hours. Timestamps are minute-resolution.
func created(r *rand.Rand, total int, start time.Time) *orderedmap.Map[int] {
	counts := make(map[time.Time]int)
	for range total {
		hours := weibullSample(r, 0.5, 24)
		at := start.Add(time.Duration(hours * float64(time.Hour))).Truncate(time.Minute)
		counts[at]++
	}
	stamps := make([]time.Time, 0, len(counts))
	for t := range counts {
		stamps = append(stamps, t)
	}
	slices.SortFunc(stamps, func(a, b time.Time) int { return a.Compare(b) })

	m := orderedmap.New[int]()
	for _, t := range stamps {
		m.Set(t.Format(stats.TimestampLayout), counts[t])
	}
	return m
}

func weibullSample(r *rand.Rand, k, lambda float64) float64 {
	u := r.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes every dataset except skipYear to the archive directory.
func Save(outDir string, years []*dataset.YearlyDataset, skipYear int) ([]string, error) {
	var paths []string
	for _, d := range years {
		if d.Year == skipYear {
			continue
		}
		path, err := dataset.SaveArchive(outDir, d)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Handler serves the datasets the way the registration system's statistics endpoint does:
// GET ?token=<token>&year=<year>[&show-created=1].
func Handler(years []*dataset.YearlyDataset, token string) http.Handler {
	byYear := make(map[int]*dataset.YearlyDataset, len(years))
	for _, d := range years {
		byYear[d.Year] = d
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if token != "" && q.Get("token") != token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid year %q", q.Get("year")), http.StatusBadRequest)
			return
		}
		d, ok := byYear[year]
		if !ok {
			http.Error(w, "unknown year", http.StatusNotFound)
			return
		}

		body := *d
		if q.Get("show-created") != "1" {
			body.Created = nil
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&body)
	})
}
