package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// weightDescriptions explains each weight for display.
var weightDescriptions = map[schema.WeightKey]struct {
	description string
	unit        string
}{
	schema.WeightMessage:           {"Time per message posted", "seconds"},
	schema.WeightReaction:          {"Time per reaction added", "seconds"},
	schema.WeightDesktopDayMinutes: {"Time per day active on desktop", "minutes"},
	schema.WeightMobileDayMinutes:  {"Time per day active on Android or iOS", "minutes"},
}

// PrintWeights displays the active estimator weights and formula.
// This is a static display that does not call any upstream service.
func PrintWeights(cfg *contract.Config) error {
	renderModel := buildWeightsRenderModel(cfg.ComputedWeights)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, renderModel)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWeights(w, renderModel)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWeightsText(w, renderModel)
		}, "Wrote text")
	}
}

// buildWeightsRenderModel constructs the render model from the active weights.
// Missing keys fall back to the defaults.
func buildWeightsRenderModel(active map[schema.WeightKey]float64) *schema.WeightsRenderModel {
	defaults := schema.GetDefaultWeights()
	entries := make([]schema.WeightEntry, 0, len(schema.AllWeightKeys))
	values := make(map[schema.WeightKey]float64, len(schema.AllWeightKeys))

	for _, key := range schema.AllWeightKeys {
		value, ok := active[key]
		if !ok {
			value = defaults[key]
		}
		values[key] = value
		info := weightDescriptions[key]
		entries = append(entries, schema.WeightEntry{
			Key:         key,
			Description: info.description,
			Value:       value,
			Default:     defaults[key],
			Unit:        info.unit,
		})
	}

	return &schema.WeightsRenderModel{
		Title:       "Messaging Time Estimator",
		Description: "Estimated seconds = weighted sum of activity counters, floored",
		Formula:     formatFormula(values),
		Weights:     entries,
	}
}

// formatFormula renders the estimator with the given weights substituted.
func formatFormula(w map[schema.WeightKey]float64) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	parts := []string{
		fmt.Sprintf("messages*%s", f(w[schema.WeightMessage])),
		fmt.Sprintf("reactions*%s", f(w[schema.WeightReaction])),
		fmt.Sprintf("desktop_days*%d*%s", schema.SecondsPerMinute, f(w[schema.WeightDesktopDayMinutes])),
		fmt.Sprintf("(android_days+ios_days)*%d*%s", schema.SecondsPerMinute, f(w[schema.WeightMobileDayMinutes])),
	}
	return strings.Join(parts, " + ")
}

// writeWeightsText displays the weights in human-readable text format.
func writeWeightsText(w io.Writer, renderModel *schema.WeightsRenderModel) error {
	if _, err := fmt.Fprintf(w, "⏱️  %s\n%s\n\n", renderModel.Title, renderModel.Description); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Weight", "Description", "Value", "Default", "Unit"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, e := range renderModel.Weights {
		value := strconv.FormatFloat(e.Value, 'f', -1, 64)
		if e.Value != e.Default {
			value += " *"
		}
		data = append(data, []string{
			string(e.Key),
			e.Description,
			value,
			strconv.FormatFloat(e.Default, 'f', -1, 64),
			e.Unit,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Formula: seconds = %s\n", renderModel.Formula); err != nil {
		return err
	}
	return nil
}

// writeCSVWeights writes one row per weight.
func writeCSVWeights(w io.Writer, renderModel *schema.WeightsRenderModel) error {
	header := []string{"key", "description", "value", "default", "unit"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range renderModel.Weights {
			row := []string{
				string(e.Key),
				e.Description,
				strconv.FormatFloat(e.Value, 'f', -1, 64),
				strconv.FormatFloat(e.Default, 'f', -1, 64),
				e.Unit,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	})
}
