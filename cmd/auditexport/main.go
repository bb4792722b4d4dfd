// auditexport dumps the detection-event audit log to a Parquet file for
// offline analysis.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/audit"
	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/internal/logger"
	"github.com/dataveil/dataveil/internal/scan"
)

// exportRecord is the flattened Parquet projection of a detection event
type exportRecord struct {
	Identity     string `parquet:"identity"`
	TimestampMS  int64  `parquet:"timestamp_ms"`
	Action       string `parquet:"action"`
	Severity     string `parquet:"severity"`
	PatternNames string `parquet:"pattern_names"`
	FileNames    string `parquet:"file_names"`
}

func main() {
	var (
		configPath = flag.String("config", "configs/default.yaml", "Configuration file path")
		outputFile = flag.String("output", "", "Output Parquet file path")
	)
	flag.Parse()

	if *outputFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --output events.parquet\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config configs/prod.yaml --output events.parquet\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if !cfg.Audit.Enabled {
		log.Fatal("Audit store is disabled in the configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling export...")
		cancel()
	}()

	store, err := audit.NewStore(cfg.Audit, log.WithComponent("audit").Logger)
	if err != nil {
		log.Fatal("Failed to open audit store", zap.Error(err))
	}
	defer store.Close()

	start := time.Now()
	count, err := export(ctx, store, *outputFile)
	if err != nil {
		log.Fatal("Export failed", zap.Error(err))
	}

	log.Info("Export completed",
		zap.String("output", *outputFile),
		zap.Int("events", count),
		zap.Duration("duration", time.Since(start)))
}

// export streams every stored event into a Parquet file
func export(ctx context.Context, store *audit.Store, path string) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[exportRecord](file)

	count := 0
	err = store.Walk(ctx, func(event scan.Event) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		record := exportRecord{
			Identity:     event.Identity,
			TimestampMS:  event.Timestamp.UnixMilli(),
			Action:       string(event.Action),
			Severity:     string(event.Severity),
			PatternNames: strings.Join(event.Matches.Names(), ","),
			FileNames:    event.FileNames,
		}
		if _, err := writer.Write([]exportRecord{record}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		count++
		return nil
	})
	if err != nil {
		writer.Close()
		return count, err
	}

	if err := writer.Close(); err != nil {
		return count, fmt.Errorf("failed to finalize Parquet file: %w", err)
	}
	return count, nil
}
