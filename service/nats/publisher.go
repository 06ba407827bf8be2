package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/brojonat/ledgerdump/service/metrics"
	"github.com/brojonat/ledgerdump/service/report"
)

// Publisher defines the interface for publishing report rows to NATS.
type Publisher interface {
	// PublishRow publishes a single row to JetStream.
	// The event is published to the subject "ledger.txns.{ledger_id}".
	PublishRow(ctx context.Context, row report.Row) error

	// Close closes the connection to NATS.
	Close() error
}

// JetStreamPublisher publishes report rows to NATS JetStream.
type JetStreamPublisher struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	ledgerID string
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

const (
	// StreamName is the name of the JetStream stream for ledger rows.
	StreamName = "LEDGER_TXNS"

	// SubjectPrefix precedes the ledger id in every subject.
	SubjectPrefix = "ledger.txns."

	// StreamSubjects is the subject pattern for the stream.
	StreamSubjects = SubjectPrefix + "*"

	// StreamRetention is how long messages are retained (30 days by default).
	StreamRetention = 30 * 24 * time.Hour
)

// NewPublisher creates a new JetStream publisher for rows of ledgerID.
// It connects to NATS and ensures the stream exists.
func NewPublisher(natsURL, ledgerID string, m *metrics.Metrics, logger *slog.Logger) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("ledgerdump"),
		nats.Timeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := &JetStreamPublisher{
		nc:       nc,
		js:       js,
		ledgerID: ledgerID,
		metrics:  m,
		logger:   logger,
	}

	if err := publisher.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.Info("NATS publisher initialized",
		"url", natsURL,
		"stream", StreamName,
		"subject", Subject(ledgerID),
	)

	return publisher, nil
}

// ensureStream creates the JetStream stream if it doesn't exist.
func (p *JetStreamPublisher) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		info, err := stream.Info(ctx)
		if err == nil {
			p.logger.Debug("JetStream stream already exists",
				"stream", StreamName,
				"messages", info.State.Msgs,
			)
		}
		return nil
	}

	p.logger.Info("creating JetStream stream", "stream", StreamName)

	streamConfig := jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Ledger transaction report rows",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}

	_, err = p.js.CreateStream(ctx, streamConfig)
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	p.logger.Info("JetStream stream created successfully", "stream", StreamName)
	return nil
}

// PublishRow publishes a single row.
func (p *JetStreamPublisher) PublishRow(ctx context.Context, row report.Row) error {
	subject := Subject(p.ledgerID)

	data, err := json.Marshal(FromRow(p.ledgerID, row))
	if err != nil {
		return fmt.Errorf("failed to marshal row event: %w", err)
	}

	start := time.Now()
	_, err = p.js.Publish(ctx, subject, data)
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordNATSPublish(subject, status, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to publish row %d: %w", row.Index, err)
	}

	p.logger.Debug("published row event",
		"subject", subject,
		"index", row.Index,
	)

	return nil
}

// Close drains and closes the connection to NATS.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.nc.Close()
			return fmt.Errorf("failed to drain NATS connection: %w", err)
		}
		p.logger.Info("NATS publisher closed")
	}
	return nil
}
