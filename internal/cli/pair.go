package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"insider-graph/internal/graph"
)

func newPairCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair INSIDER_A INSIDER_B",
		Short: "Explain the similarity score of one insider pair",
		Long: `Score a single pair of insiders within one company and show how the
score was reached: trade counts, activity floor, the buy and sell
co-occurrence sums and the final similarity.`,
		Example: `  insidergraph pair --company ACME "doe john" "roe jane"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			company, _ := cmd.Flags().GetString("company")
			if company == "" {
				return fmt.Errorf("--company is required")
			}

			cfg, err := applyFlags(cmd, app.Config)
			if err != nil {
				return err
			}

			idx, _, err := loadIndex(cmd.Context(), app.Logger, cfg)
			if err != nil {
				return err
			}

			res := graph.NewBuilder(cfg.Builder(), app.Logger).Pair(idx, company, args[0], args[1])
			if output.IsJSON() {
				return output.JSON(res)
			}
			printPair(output, res, cfg.Builder())
			return nil
		},
	}

	addInputFlags(cmd)
	addGraphFlags(cmd)
	cmd.Flags().StringP("company", "c", "", "company symbol")

	return cmd
}

func printPair(output *Output, res graph.PairResult, gcfg graph.Config) {
	output.Bold("%s: %s / %s", res.Company, res.InsiderA, res.InsiderB)

	table := NewTable(output, "", res.InsiderA, res.InsiderB)
	table.AddRow("trades", strconv.Itoa(res.TradesA), strconv.Itoa(res.TradesB))
	table.Render()
	output.Println()

	output.Printf("  Activity floor (h_z %d):   %s\n", gcfg.MinTrades, output.YesNo(res.Eligible))
	output.Printf("  Buy co-occurrence (bb):    %s\n", FormatSimilarity(res.Score.BB))
	output.Printf("  Sell co-occurrence (ss):   %s\n", FormatSimilarity(res.Score.SS))
	output.Printf("  bb² + ss²:                 %s\n", FormatSimilarity(res.Score.Numerator))
	output.Printf("  Pair count:                %s\n", FormatThreshold(res.Score.Denominator))
	output.Printf("  Similarity:                %s\n", FormatSimilarity(res.Score.Similarity))
	output.Printf("  Edge (h_m %s):            %s\n", FormatThreshold(gcfg.Threshold), output.YesNo(res.Edge))
}
