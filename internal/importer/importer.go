// Package importer bulk-loads voucher definitions from gzipped CSV files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"order-desk/internal/model"
	"order-desk/internal/service"

	pgzip "github.com/klauspost/pgzip"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// importPrincipal is the admin identity recorded for imported vouchers.
var importPrincipal = model.Principal{UserID: "voucher-import", Role: model.RoleAdmin}

// Summary counts the outcome of an import run.
type Summary struct {
	Files   int `json:"files"`
	Rows    int `json:"rows"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (s *Summary) add(o Summary) {
	s.Files += o.Files
	s.Rows += o.Rows
	s.Created += o.Created
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// Importer creates vouchers from import files through the voucher catalog.
type Importer struct {
	source      Source
	vouchers    service.VoucherService
	concurrency int
	logger      zerolog.Logger
}

// New creates an importer. Concurrency bounds how many files are processed
// at once; values below 1 mean one at a time.
func New(source Source, vouchers service.VoucherService, concurrency int, logger zerolog.Logger) *Importer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Importer{
		source:      source,
		vouchers:    vouchers,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "voucher-importer").Logger(),
	}
}

// Run imports every named file. Existing codes are skipped and invalid rows
// are counted as failed; any other error stops the run. The returned summary
// includes rows handled before the error.
func (im *Importer) Run(ctx context.Context, names []string) (Summary, error) {
	results := make([]Summary, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for i, name := range names {
		g.Go(func() error {
			sum, err := im.importFile(ctx, name)
			results[i] = sum
			if err != nil {
				return fmt.Errorf("import %s: %w", name, err)
			}
			return nil
		})
	}

	var total Summary
	err := g.Wait()
	for _, r := range results {
		total.add(r)
	}
	if err != nil {
		return total, err
	}

	im.logger.Info().
		Int("files", total.Files).
		Int("rows", total.Rows).
		Int("created", total.Created).
		Int("skipped", total.Skipped).
		Int("failed", total.Failed).
		Msg("voucher import completed")

	return total, nil
}

func (im *Importer) importFile(ctx context.Context, name string) (Summary, error) {
	sum := Summary{Files: 1}
	log := im.logger.With().Str("file", name).Logger()

	rc, err := im.source.Open(ctx, name)
	if err != nil {
		return sum, err
	}
	defer rc.Close()

	gz, err := pgzip.NewReader(rc)
	if err != nil {
		return sum, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	rows, err := NewReader(gz)
	if err != nil {
		return sum, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		req, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			sum.Rows++
			sum.Failed++
			log.Warn().Err(rowErr.Err).Int("line", rowErr.Line).Msg("skipping malformed row")
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("failed to read import file: %w", err)
		}

		sum.Rows++
		_, err = im.vouchers.Create(ctx, importPrincipal, req)
		switch {
		case err == nil:
			sum.Created++
		case errors.Is(err, model.ErrVoucherCodeExists):
			sum.Skipped++
			log.Debug().Str("code", req.Code).Msg("voucher code already exists")
		case errors.Is(err, model.InvalidInput("")):
			sum.Failed++
			log.Warn().Err(err).Str("code", req.Code).Msg("voucher rejected")
		default:
			return sum, err
		}
	}

	log.Info().
		Int("rows", sum.Rows).
		Int("created", sum.Created).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Msg("import file processed")

	return sum, nil
}
