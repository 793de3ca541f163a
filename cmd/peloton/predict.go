package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/peloton/internal/datasource"
	"github.com/yourusername/peloton/internal/models"
	"github.com/yourusername/peloton/internal/service"
)

var (
	eventID    string
	eventClass string
	poolFile   string
	outputJSON bool
	topN       int
)

func addEventFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&eventID, "event", "e", "", "Event id to fetch from the data source")
	cmd.Flags().StringVar(&eventClass, "class", "", "Event class (defaults to the pool file, then scoring.default_class)")
	cmd.Flags().StringVarP(&poolFile, "pool", "p", "", "Read the pool from a JSON file instead of the data source")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output JSON")
}

func init() {
	addEventFlags(predictCmd)
	predictCmd.Flags().IntVarP(&topN, "top", "n", 0, "Only show the top N competitors")
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict expected fantasy points for an event",
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := predictEvent(cmd.Context())
		if err != nil {
			return err
		}
		if outputJSON {
			return writeJSON(run)
		}
		printPredictions(run)
		return nil
	},
}

func loadEvent(ctx context.Context) (service.Event, error) {
	var (
		pool *datasource.EventPool
		err  error
	)
	switch {
	case poolFile != "":
		f, openErr := os.Open(poolFile)
		if openErr != nil {
			return service.Event{}, fmt.Errorf("failed to open pool file: %w", openErr)
		}
		defer f.Close()
		pool, err = datasource.DecodePool(f)
	case eventID != "":
		pool, err = source.FetchPool(ctx, eventID)
	default:
		return service.Event{}, fmt.Errorf("either --event or --pool is required")
	}
	if err != nil {
		return service.Event{}, err
	}

	raw := eventClass
	if raw == "" {
		raw = pool.EventClass
	}
	class, err := resolveClass(raw)
	if err != nil {
		return service.Event{}, err
	}
	return service.Event{ID: pool.EventID, Class: class, Pool: pool.Competitors}, nil
}

func predictEvent(ctx context.Context) (*models.PredictionRun, error) {
	ev, err := loadEvent(ctx)
	if err != nil {
		return nil, err
	}
	return services.Prediction.Predict(ctx, ev)
}

func printPredictions(run *models.PredictionRun) {
	fmt.Printf("Event: %s (%s)  run %s  trials %d\n\n", run.EventID, run.EventClass, run.ID, run.Trials)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tTEAM\tCOST\tCAT\tEXPECTED\tFINISH\tASSIST\tBONUS\tWIN%\tPODIUM%")
	for i, p := range run.Predictions {
		if topN > 0 && i >= topN {
			break
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n",
			p.Key, p.Name, p.Team, p.Cost, p.Category,
			p.ExpectedTotal, p.ExpectedFinish, p.ExpectedAssist, p.ExpectedBonus,
			p.WinProbability*100, p.PodiumProbability*100)
	}
	w.Flush()
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
