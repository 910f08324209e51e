// Package report writes analysis results to disk: a JSON summary of the
// strategy and a CSV of the payoff curve for plotting.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/contactkeval/option-analytics/internal/chain"
	"github.com/contactkeval/option-analytics/internal/payoff"
)

// Summary is the full result of one analysis run.
type Summary struct {
	Underlying string           `json:"underlying"`
	Spot       float64          `json:"spot"`
	Legs       []payoff.Leg     `json:"legs"`
	Breakevens []float64        `json:"breakevens,omitempty"`
	Curve      []payoff.Point   `json:"curve,omitempty"`
	Chain      []chain.Analysis `json:"chain,omitempty"`
}

// WriteJSON writes the analysis summary to analysis.json in outdir.
func WriteJSON(sum *Summary, outdir string) error {
	b, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "analysis.json"), b, 0644)
}

// WriteCSV writes the payoff curve points to payoff_curve.csv in outdir.
func WriteCSV(points []payoff.Point, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "payoff_curve.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.MarshalFile(&points, f)
}
