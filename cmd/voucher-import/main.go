// Command voucher-import creates vouchers from gzipped CSV files.
//
// Usage:
//
//	voucher-import [-concurrency N] summer.csv.gz autumn.csv.gz
//
// Files are read from S3 (S3_BUCKET, S3_PREFIX) when S3_ENABLED is set, with
// the local file system as fallback. Existing codes are skipped.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"order-desk/internal/config"
	"order-desk/internal/database"
	"order-desk/internal/importer"
	"order-desk/internal/repository"
	"order-desk/internal/service"
)

func main() {
	concurrency := flag.Int("concurrency", 4, "number of files imported in parallel")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: voucher-import [-concurrency N] FILE...")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, flag.Args(), *concurrency); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, files []string, concurrency int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	var remote importer.Source
	if cfg.S3.Enabled {
		s3Source, err := importer.NewS3Source(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 source, falling back to local file system only")
		} else {
			remote = s3Source
		}
	}
	source := importer.NewFallbackSource(remote, importer.NewFileSource(logger), cfg.S3.Prefix, logger)

	vouchers := service.NewVoucherService(repository.NewVoucherRepository(pool, logger), nil, logger)

	summary, err := importer.New(source, vouchers, concurrency, logger).Run(ctx, files)
	if err != nil {
		return err
	}

	fmt.Printf("files=%d rows=%d created=%d skipped=%d failed=%d\n",
		summary.Files, summary.Rows, summary.Created, summary.Skipped, summary.Failed)
	return nil
}
