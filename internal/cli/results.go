package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"admission-quiz-service/internal/app"
	"admission-quiz-service/internal/config"
	redisledger "admission-quiz-service/internal/infra/redis"
	sqliteledger "admission-quiz-service/internal/infra/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewResultsCmd prints the attempt ledger, best score first. This is the
// admin read side; the ledger itself is never mutated here.
func NewResultsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "List recorded quiz attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResults(cmd.Context(), *configPath)
		},
	}
}

func printResults(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ledger, closeLedger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	records, err := ledger.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no attempts recorded")
		return nil
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].PercentScore != records[j].PercentScore {
			return records[i].PercentScore > records[j].PercentScore
		}
		if records[i].TimeTakenSeconds != records[j].TimeTakenSeconds {
			return records[i].TimeTakenSeconds < records[j].TimeTakenSeconds
		}
		return records[i].StudentName < records[j].StudentName
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STUDENT ID\tNAME\tSCORE\tPERCENT\tTIME\tCOMPLETED")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d%%\t%ds\t%s\n",
			rec.StudentID, rec.StudentName, rec.CorrectCount, rec.TotalQuestions,
			rec.PercentScore, rec.TimeTakenSeconds, rec.CompletedAtDisplay)
	}
	return w.Flush()
}

func openLedger(cfg config.Config) (app.Ledger, func(), error) {
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisledger.NewLedger(client), func() { _ = client.Close() }, nil
	}
	if cfg.SQLite.Path != "" {
		ledger, err := sqliteledger.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return ledger, func() { _ = ledger.Close() }, nil
	}
	return nil, nil, fmt.Errorf("no ledger store configured (set redis.addr or sqlite.path)")
}
