package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/brojonat/ledgerdump/service/ledger"
	"github.com/brojonat/ledgerdump/service/metrics"
)

// Format selects how rows are written.
type Format string

const (
	// FormatPipe writes the header line followed by pipe-delimited rows.
	FormatPipe Format = "pipe"
	// FormatJSON writes one JSON object per row and no header.
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPipe, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want pipe or json)", s)
	}
}

// Fetcher walks a range of ledger transactions in order.
// *ledger.Client satisfies it.
type Fetcher interface {
	FetchRange(ctx context.Context, start, length uint64, fn func(ledger.Entry) error) error
}

// Sink receives every emitted row in addition to the output writer.
type Sink interface {
	PublishRow(ctx context.Context, row Row) error
}

// Options configures an Exporter. The zero value writes pipe rows with no
// filter and no sink.
type Options struct {
	Format Format
	Filter *Filter
	Sink   Sink
}

// Summary counts what happened during an export.
type Summary struct {
	Fetched       int // raw records consumed, including rejected ones
	Emitted       int // rows written
	Rejected      int // records that failed normalization
	Filtered      int // rows dropped by the filter
	PublishErrors int // rows the sink failed to accept
}

// Exporter drives fetch, normalization and formatting for one report.
type Exporter struct {
	fetcher Fetcher
	out     io.Writer
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewExporter creates an exporter writing to out.
// If metrics is nil, no metrics will be recorded.
func NewExporter(fetcher Fetcher, out io.Writer, opts Options, m *metrics.Metrics, logger *slog.Logger) *Exporter {
	if opts.Format == "" {
		opts.Format = FormatPipe
	}
	return &Exporter{
		fetcher: fetcher,
		out:     out,
		opts:    opts,
		metrics: m,
		logger:  logger,
	}
}

// Export writes the transactions in [start, start+length).
//
// Records that fail normalization are reported through the logger and
// skipped; they still consume a sequence index. Fetch and write failures abort
// the export and are returned together with the partial summary.
func (e *Exporter) Export(ctx context.Context, start, length uint64) (Summary, error) {
	var summary Summary

	if e.opts.Format == FormatPipe {
		if _, err := fmt.Fprintln(e.out, Header); err != nil {
			return summary, fmt.Errorf("failed to write header: %w", err)
		}
	}

	enc := json.NewEncoder(e.out)

	err := e.fetcher.FetchRange(ctx, start, length, func(entry ledger.Entry) error {
		summary.Fetched++

		tx, err := ledger.Normalize(entry.Raw)
		if err != nil {
			summary.Rejected++
			e.metrics.RecordNormalized(entry.Raw.Kind, rejectReason(err))
			e.logger.WarnContext(ctx, "skipping malformed transaction",
				"index", entry.Index,
				"kind", entry.Raw.Kind,
				"error", err,
			)
			return nil
		}
		e.metrics.RecordNormalized(entry.Raw.Kind, "success")

		row := NewRow(entry.Index, tx)

		ok, err := e.opts.Filter.Match(row)
		if err != nil {
			e.logger.WarnContext(ctx, "jq filter failed, dropping row",
				"index", entry.Index,
				"error", err,
			)
		}
		if !ok {
			summary.Filtered++
			e.metrics.RecordRowFiltered()
			return nil
		}

		switch e.opts.Format {
		case FormatJSON:
			err = enc.Encode(row)
		default:
			_, err = fmt.Fprintln(e.out, row.String())
		}
		if err != nil {
			return fmt.Errorf("failed to write row %d: %w", entry.Index, err)
		}
		summary.Emitted++
		e.metrics.RecordRowEmitted(string(e.opts.Format))

		if e.opts.Sink != nil {
			if err := e.opts.Sink.PublishRow(ctx, row); err != nil {
				summary.PublishErrors++
				e.logger.ErrorContext(ctx, "failed to publish row",
					"index", entry.Index,
					"error", err,
				)
			}
		}
		return nil
	})

	e.logger.InfoContext(ctx, "export finished",
		"start", start,
		"length", length,
		"fetched", summary.Fetched,
		"emitted", summary.Emitted,
		"rejected", summary.Rejected,
		"filtered", summary.Filtered,
		"publish_errors", summary.PublishErrors,
	)

	return summary, err
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrUnknownKind):
		return "unknown_kind"
	case errors.Is(err, ledger.ErrMissingPayload):
		return "missing_payload"
	default:
		return "error"
	}
}
