package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// GenerateConsoleReport formats a summary for terminal output
func GenerateConsoleReport(summary Summary) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Events: %d\n", len(summary.Evaluations)))
	builder.WriteString(fmt.Sprintf("Odds Calibration: %.3f  Odds Variance: %.3f  Form Variance: %.3f\n",
		summary.Params.OddsCalibration, summary.Params.OddsVariance, summary.Params.FormVariance))
	builder.WriteString(fmt.Sprintf("Mean MAE: %.2f\n", summary.MeanMAE))
	builder.WriteString(fmt.Sprintf("Mean RMSE: %.2f\n", summary.MeanRMSE))
	builder.WriteString(fmt.Sprintf("Mean Spearman: %.3f\n", summary.MeanSpearman))
	builder.WriteString(fmt.Sprintf("Realized / Oracle: %.0f / %.0f (%.1f%%)\n",
		summary.RealizedTotal, summary.OracleTotal, summary.Efficiency*100))
	builder.WriteString(fmt.Sprintf("Cost Saved By Cheapest Roster: %d\n", summary.CostSaved))

	for _, e := range summary.Evaluations {
		builder.WriteString(fmt.Sprintf("\n%s (%s)\n", e.EventID, e.EventClass))
		builder.WriteString(fmt.Sprintf("  MAE %.2f  RMSE %.2f  Pearson %.3f  Spearman %.3f\n",
			e.Accuracy.MAE, e.Accuracy.RMSE, e.Accuracy.Pearson, e.Accuracy.Spearman))
		builder.WriteString(formatOutcome("Chosen", e.Chosen))
		builder.WriteString(formatOutcome("Oracle", e.Oracle))
		if e.Cheapest != nil {
			builder.WriteString(formatOutcome(fmt.Sprintf("Cheapest >= %.0f", e.Target), *e.Cheapest))
		}
	}
	return builder.String()
}

func formatOutcome(label string, o RosterOutcome) string {
	if o.Keys == nil {
		return fmt.Sprintf("  %s: %s (%s)\n", label, o.Status, o.Reason)
	}
	return fmt.Sprintf("  %s: cost %d, expected %.1f, realized %.0f [%s]\n",
		label, o.Cost, o.ExpectedScore, o.RealizedScore, strings.Join(o.Keys, ", "))
}

// GenerateCSVExport writes one row per evaluated event
func GenerateCSVExport(summary Summary, outputPath string) error {
	header := []string{
		"event_id", "event_class", "n", "mae", "rmse", "bias", "pearson", "spearman",
		"chosen_cost", "chosen_realized", "oracle_cost", "oracle_realized",
		"target", "cheapest_status", "cheapest_cost",
	}
	rows := make([][]string, 0, len(summary.Evaluations))
	for _, e := range summary.Evaluations {
		cheapestStatus, cheapestCost := "", ""
		if e.Cheapest != nil {
			cheapestStatus = e.Cheapest.Status
			cheapestCost = strconv.Itoa(e.Cheapest.Cost)
		}
		rows = append(rows, []string{
			e.EventID,
			e.EventClass,
			strconv.Itoa(e.Accuracy.N),
			formatFloat(e.Accuracy.MAE),
			formatFloat(e.Accuracy.RMSE),
			formatFloat(e.Accuracy.Bias),
			formatFloat(e.Accuracy.Pearson),
			formatFloat(e.Accuracy.Spearman),
			strconv.Itoa(e.Chosen.Cost),
			formatFloat(e.Chosen.RealizedScore),
			strconv.Itoa(e.Oracle.Cost),
			formatFloat(e.Oracle.RealizedScore),
			formatFloat(e.Target),
			cheapestStatus,
			cheapestCost,
		})
	}
	return writeCSV(outputPath, header, rows)
}

// GenerateCalibrationCSV writes the ranked calibration grid
func GenerateCalibrationCSV(results []CalibrationResult, outputPath string) error {
	header := []string{"rank", "odds_calibration", "odds_variance", "form_variance", "mean_mae", "mean_rmse", "mean_spearman"}
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatFloat(r.Params.OddsCalibration),
			formatFloat(r.Params.OddsVariance),
			formatFloat(r.Params.FormVariance),
			formatFloat(r.MeanMAE),
			formatFloat(r.MeanRMSE),
			formatFloat(r.MeanSpearman),
		})
	}
	return writeCSV(outputPath, header, rows)
}

func writeCSV(outputPath string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
