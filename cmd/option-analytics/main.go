package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/contactkeval/option-analytics/internal/chain"
	"github.com/contactkeval/option-analytics/internal/data"
	"github.com/contactkeval/option-analytics/internal/logger"
	"github.com/contactkeval/option-analytics/internal/payoff"
	"github.com/contactkeval/option-analytics/internal/report"
	"github.com/contactkeval/option-analytics/internal/strategy"
)

// Config is the top-level analysis configuration loaded from JSON.
type Config struct {
	strategy.Spec
	PricePoints int    `json:"price_points,omitempty"` // payoff curve resolution (default 120)
	ChainExpiry string `json:"chain_expiry,omitempty"` // YYYY-MM-DD; enables chain IV analytics
	ReportDir   string `json:"report_dir,omitempty"`   // report directory
	Verbosity   int    `json:"verbosity,omitempty"`    // 0=errors,1=info,2=debug,3=trace
}

func main() {
	configPath := flag.String("config", "strategies/straddle.json", "path to JSON config")
	rest := flag.Bool("rest", false, "run as REST server (accept analysis jobs)")
	port := flag.String("port", ":8080", "REST server listen address")
	flag.Parse()

	// .env is optional; missing file is fine
	_ = godotenv.Load()

	// choose provider
	var prov data.Provider
	apiKey := os.Getenv("MASSIVE_API_KEY")
	if apiKey != "" {
		prov = data.NewMassiveDataProvider(apiKey, data.NewSyntheticProvider()) // synthetic provider as secondary
		log.Printf("[info] massive provider enabled")
	} else {
		prov = data.NewSyntheticProvider()
		log.Printf("[info] synthetic provider enabled")
	}

	if *rest {
		mux := http.NewServeMux()
		mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
			log.Printf("[info] received /analyze request")
			var cfg Config
			if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			sum, err := analyze(&cfg, prov)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(sum)
		})
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		log.Printf("[info] starting REST server on %s", *port)
		log.Fatal(http.ListenAndServe(*port, mux))
		return
	}

	cfgData, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("reading config: %v", err)
	}
	var cfg Config
	if err := json.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	start := time.Now()
	sum, err := analyze(&cfg, prov)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ReportDir, 0755); err != nil {
		log.Printf("[warn] could not create output dir %s: %v", cfg.ReportDir, err)
	}
	_ = report.WriteJSON(sum, cfg.ReportDir)
	_ = report.WriteCSV(sum.Curve, cfg.ReportDir)
	log.Printf("[done] finished in %v, wrote %d curve points to %s", time.Since(start), len(sum.Curve), cfg.ReportDir)
}

// analyze resolves the strategy, evaluates the payoff curve and
// breakevens, and optionally runs chain analytics for one expiry.
func analyze(cfg *Config, prov data.Provider) (*report.Summary, error) {
	// fill defaults
	if cfg.ReportDir == "" {
		cfg.ReportDir = "./out"
	}
	if cfg.PricePoints == 0 {
		cfg.PricePoints = 120
	}
	logger.SetVerbosity(cfg.Verbosity)

	legs, err := strategy.Build(cfg.Spec, prov)
	if err != nil {
		return nil, fmt.Errorf("build strategy: %w", err)
	}

	prices := payoff.PriceRange(legs, cfg.Spot, cfg.PricePoints)
	sum := &report.Summary{
		Underlying: cfg.Underlying,
		Spot:       cfg.Spot,
		Legs:       legs,
		Curve:      payoff.Curve(legs, prices),
		Breakevens: payoff.Breakevens(legs, prices),
	}

	if cfg.ChainExpiry != "" {
		expiry, err := time.Parse("2006-01-02", cfg.ChainExpiry)
		if err != nil {
			return nil, fmt.Errorf("invalid chain_expiry: %w", err)
		}
		asOf := cfg.AsOf
		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}
		rate := cfg.Rate
		if rate == 0 {
			rate = 0.02
		}
		rows, err := chain.Analyze(prov, cfg.Underlying, cfg.Spot, rate, expiry, asOf)
		if err != nil {
			return nil, fmt.Errorf("chain analytics: %w", err)
		}
		sum.Chain = rows
	}

	return sum, nil
}
