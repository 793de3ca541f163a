package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/peloton/internal/models"
	"github.com/yourusername/peloton/internal/optimizer"
)

var targetScore float64

func init() {
	addEventFlags(optimizeCmd)
	addEventFlags(cheapestCmd)
	cheapestCmd.Flags().Float64VarP(&targetScore, "target", "t", 0, "Expected score the roster must reach")
	_ = cheapestCmd.MarkFlagRequired("target")
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Select the roster with the highest expected score within budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := predictEvent(cmd.Context())
		if err != nil {
			return err
		}
		res, err := services.Roster.SelectRoster(cmd.Context(), run)
		if err != nil {
			return err
		}
		return printResult(run, res)
	},
}

var cheapestCmd = &cobra.Command{
	Use:   "cheapest",
	Short: "Select the cheapest roster whose expected score reaches a target",
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := predictEvent(cmd.Context())
		if err != nil {
			return err
		}
		res, err := services.Roster.CheapestBeating(cmd.Context(), run, targetScore)
		if err != nil {
			return err
		}
		return printResult(run, res)
	},
}

func printResult(run *models.PredictionRun, res *optimizer.Result) error {
	if outputJSON {
		return writeJSON(struct {
			RunID  string            `json:"run_id"`
			Result *optimizer.Result `json:"result"`
		}{run.ID.String(), res})
	}

	fmt.Printf("Event: %s  objective %s  status %s  nodes %d\n", run.EventID, res.Objective, res.Status(), res.Nodes)
	if !res.Feasible() {
		fmt.Printf("No roster: %s\n", res.Infeasible.Reason)
		return nil
	}

	byKey := run.ByKey()
	for _, key := range res.Selection.Keys {
		p := byKey[key]
		fmt.Printf("  %-24s %-10s cost %3d  expected %6.1f\n", p.Name, p.Category, p.Cost, p.ExpectedTotal)
	}
	fmt.Printf("Total cost %d  expected score %.1f\n", res.Selection.TotalCost, res.Selection.TotalScore)
	return nil
}
