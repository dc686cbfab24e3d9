package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/schema"
)

// dimensionDefinition describes how one dimension is scored under the active configuration.
type dimensionDefinition struct {
	Key     schema.DimensionKey `json:"key"`
	Purpose string              `json:"purpose"`
	Rule    string              `json:"rule"`
	Weight  float64             `json:"weight"`
}

// scoringRenderModel is the complete, output-agnostic view of the scoring configuration.
type scoringRenderModel struct {
	Description string                `json:"description"`
	Formula     string                `json:"formula"`
	Dimensions  []dimensionDefinition `json:"dimensions"`
	Labels      map[string]string     `json:"labels"`
}

func buildScoringRenderModel(sc schema.ScoringConfig) scoringRenderModel {
	linear := func(th schema.LinearThreshold, unit string) string {
		return fmt.Sprintf("100 at <= %g%s, 0 at >= %g%s, linear between", th.Optimal, unit, th.Poor, unit)
	}
	defs := []dimensionDefinition{
		{Key: schema.ReviewSpeed, Purpose: "How quickly a developer's PRs get a first review", Rule: linear(sc.ReviewSpeed, "h")},
		{Key: schema.CycleTime, Purpose: "How quickly a developer's PRs merge", Rule: linear(sc.CycleTime, "h")},
		{Key: schema.PRSize, Purpose: "How small a developer's PRs are on average", Rule: linear(sc.PRSize, " lines")},
		{Key: schema.ReviewCoverage, Purpose: "How many reviews a developer gives", Rule: fmt.Sprintf("min(100, reviews / %g * 100)", sc.ReviewTarget)},
		{Key: schema.CommitFrequency, Purpose: "How often a developer commits", Rule: fmt.Sprintf("min(100, commits / %g * 100)", sc.CommitTarget)},
	}

	parts := make([]string, 0, len(defs))
	for i := range defs {
		defs[i].Weight = sc.Weights[defs[i].Key]
		parts = append(parts, fmt.Sprintf("%.2f*%s", defs[i].Weight, defs[i].Key))
	}

	return scoringRenderModel{
		Description: "DXI is a weighted sum of five dimension scores, each normalized to [0, 100].",
		Formula:     strings.Join(parts, " + "),
		Dimensions:  defs,
		Labels: map[string]string{
			contract.ExcellentValue: ">= 80",
			contract.GoodValue:      ">= 60",
			contract.ModerateValue:  ">= 40",
			contract.AttentionValue: "< 40",
		},
	}
}

// WriteScoringDefinitions displays the thresholds and weights in effect.
// This is a static display that does not require any fetching.
func WriteScoringDefinitions(cfg *contract.Config) error {
	model := buildScoringRenderModel(cfg.Scoring)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoringCSV(w, model)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoringText(w, model)
		}, "Wrote text")
	}
}

func writeScoringCSV(w io.Writer, model scoringRenderModel) error {
	return writeCSVWithHeader(w, []string{"dimension", "weight", "rule", "purpose"}, func(cw *csv.Writer) error {
		for _, d := range model.Dimensions {
			if err := cw.Write([]string{string(d.Key), fmt.Sprintf("%.2f", d.Weight), d.Rule, d.Purpose}); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeScoringText(w io.Writer, model scoringRenderModel) error {
	var sb strings.Builder
	sb.WriteString("📊 DXI Scoring\n")
	sb.WriteString("==============\n\n")
	sb.WriteString(model.Description + "\n\n")
	for _, d := range model.Dimensions {
		fmt.Fprintf(&sb, "%s (weight %.2f): %s\n", d.Key, d.Weight, d.Purpose)
		fmt.Fprintf(&sb, "   Rule: %s\n\n", d.Rule)
	}
	fmt.Fprintf(&sb, "Formula: DXI = %s\n\n", model.Formula)
	sb.WriteString("Labels:\n")
	for _, name := range []string{contract.ExcellentValue, contract.GoodValue, contract.ModerateValue, contract.AttentionValue} {
		fmt.Fprintf(&sb, "   %-16s %s\n", name, model.Labels[name])
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
