package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"nosecounter/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "steady", "Scenario to generate: steady, growth, decline")
	from := flag.Int("from", time.Now().Year()-4, "First convention year")
	to := flag.Int("to", time.Now().Year(), "Last convention year")
	base := flag.Int("base", 2500, "Registrations of the first year")
	seed := flag.Uint64("seed", 1, "Random seed")
	outDir := flag.String("out", "./archive", "Archive directory for the generated years")
	serve := flag.String("serve", "", "Serve the last year as a fake registration API on this address, e.g. :8081")
	token := flag.String("token", "mock", "Token the fake registration API accepts")
	flag.Parse()

	if *to < *from {
		fmt.Printf("-to (%d) is before -from (%d)\n", *to, *from)
		os.Exit(2)
	}

	cfg := engine.GeneratorConfig{
		Scenario:  *scenario,
		FromYear:  *from,
		ToYear:    *to,
		BaseCount: *base,
		Seed:      *seed,
	}

	fmt.Printf("Generating scenario '%s' (%d-%d, base %d) to %s...\n", cfg.Scenario, cfg.FromYear, cfg.ToYear, cfg.BaseCount, *outDir)

	years := engine.Generate(cfg)

	// When serving, the last year is live only and stays out of the archive.
	skip := 0
	if *serve != "" {
		skip = cfg.ToYear
	}
	paths, err := engine.Save(*outDir, years, skip)
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println("  " + p)
	}

	if *serve == "" {
		fmt.Println("Done.")
		return
	}

	fmt.Printf("Serving %d on http://%s/?token=%s&year=%d\n", cfg.ToYear, *serve, *token, cfg.ToYear)
	srv := &http.Server{
		Addr:              *serve,
		Handler:           engine.Handler(years, *token),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		fmt.Printf("Server stopped: %v\n", err)
		os.Exit(1)
	}
}
