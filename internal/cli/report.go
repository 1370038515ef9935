package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/faultline/internal/analytics"
	"github.com/vietddude/faultline/internal/core/config"
	"github.com/vietddude/faultline/internal/infra/storage/postgres"
)

var reportTopN int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize stored error patterns",
	Run:   runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportTopN, "top", 5, "number of top patterns to show")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("Report requires database.url in the config")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	patterns, err := postgres.NewPatternRepo(db).List(ctx)
	if err != nil {
		slog.Error("Failed to list error patterns", "error", err)
		os.Exit(1)
	}

	rep := analytics.BuildReport(patterns, reportTopN, time.Now())

	fmt.Printf("Total failures: %d across %d distinct types\n\n", rep.TotalFailures, rep.DistinctTypes)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "KIND\tCODE\tCOUNT\tSEVERITY\tSUBJECTS\tLAST SEEN")
	for _, s := range rep.Top {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
			s.Kind, s.Code, s.Count, s.HighestSeverity, s.DistinctSubjects,
			s.LastSeen.Format(time.RFC3339))
	}
	_ = w.Flush()

	if len(rep.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, r := range rep.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
}
