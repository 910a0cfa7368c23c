package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shumlab/papertrade/internal/desk"
	"github.com/shumlab/papertrade/internal/logger"
	"github.com/shumlab/papertrade/internal/marketdata"
	"github.com/shumlab/papertrade/internal/store"
	"github.com/shumlab/papertrade/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// intentsFile is the yaml shape of a candidate batch.
type intentsFile struct {
	Intents []types.OrderIntent `yaml:"intents"`
}

func loadIntents(path string) ([]types.OrderIntent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read intents file: %w", err)
	}

	var file intentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse intents file: %w", err)
	}

	return file.Intents, nil
}

// runAction executes one trading day: risk evaluation, fill simulation, and
// Parquet export of the day's records.
func runAction(ctx context.Context, cmd *cli.Command) error {
	zapLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer zapLogger.Sync()

	config, err := desk.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if folder := cmd.String("results"); folder != "" {
		config.ResultsFolder = folder
	}

	intents, err := loadIntents(cmd.String("intents"))
	if err != nil {
		return err
	}

	provider, err := marketdata.LoadStaticProvider(cmd.String("data"))
	if err != nil {
		return err
	}

	records, err := store.NewStore("", zapLogger)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer records.Close()

	if err := records.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}

	tradingDesk, err := desk.NewDesk(config, provider, records, zapLogger)
	if err != nil {
		return err
	}

	date := cmd.Timestamp("date")

	bar := progressbar.Default(int64(len(intents)))
	bar.Describe(fmt.Sprintf("Evaluating %d candidates for %s", len(intents), date.Format("2006-01-02")))

	report, err := tradingDesk.RunDay(date, intents, func(done, total int) {
		_ = bar.Set(done)
	})
	if err != nil {
		return err
	}

	_ = bar.Finish()

	if err := records.Write(config.ResultsFolder); err != nil {
		return err
	}

	approved := 0
	for _, decision := range report.Decisions {
		if decision.Approved() {
			approved++
		}
	}

	zapLogger.Info("Run complete",
		zap.Time("date", report.Date),
		zap.Int("candidates", len(report.Decisions)),
		zap.Int("approved", approved),
		zap.Int("executed", report.Metrics.TradeCount),
		zap.Int("open_positions", len(report.Open)),
		zap.Float64("pnl", report.Metrics.PnL),
		zap.Float64("r_multiple", report.Metrics.RMultiple),
		zap.Float64("settled_cash", report.SettledCash),
		zap.Float64("unsettled_cash", report.UnsettledCash),
		zap.Float64("total_cash", report.TotalCash),
		zap.String("results_folder", config.ResultsFolder),
	)

	return nil
}

// schemaAction prints the JSON schema for the desk config, for editor
// integration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := &desk.Config{}

	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate config schema: %w", err)
	}

	fmt.Println(schemaJSON)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "desk",
		Usage: "Run a paper-trading desk pass over a batch of order intents",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Evaluate one trading day of intents and export results",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the desk config yaml",
						Value:   "config/desk.yaml",
					},
					&cli.StringFlag{
						Name:     "intents",
						Aliases:  []string{"i"},
						Usage:    "Path to the order intents yaml",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the market data fixtures yaml",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:   "date",
						Usage:  "Trading date in `YYYY-MM-DD` format",
						Value:  time.Now().UTC(),
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02"},
						},
					},
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Results directory, overrides the config value",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema for the desk config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
