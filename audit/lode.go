package audit

import (
	"context"
	"time"

	"github.com/justapithecus/lode/lode"
)

// hiveKeys are the dataset partition keys, outermost first. Every record
// carries all of them.
var hiveKeys = []string{"client", "day", "thread_id", "event_type"}

// DeriveDay computes the day partition value, YYYY-MM-DD in UTC.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Config holds the dataset coordinates for a lode-backed sink.
type Config struct {
	// Dataset is the dataset ID.
	Dataset string
	// ClientID is the partition key identifying this client install.
	ClientID string
	// Day is the day partition, YYYY-MM-DD UTC. Use DeriveDay.
	Day string
}

// LodeSink writes audit events to a Hive-partitioned JSONL dataset.
type LodeSink struct {
	dataset lode.Dataset
	config  Config
}

// NewLodeSink creates a sink with filesystem storage rooted at root.
func NewLodeSink(cfg Config, root string) (*LodeSink, error) {
	return NewLodeSinkWithFactory(cfg, lode.NewFSFactory(root))
}

// NewLodeSinkWithFactory creates a sink with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewLodeSinkWithFactory(cfg Config, factory lode.StoreFactory) (*LodeSink, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(cfg.Dataset),
		factory,
		lode.WithHiveLayout(hiveKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, err
	}
	return &LodeSink{dataset: ds, config: cfg}, nil
}

// WriteEvents implements Sink. Each event becomes one record carrying
// its partition keys.
func (s *LodeSink) WriteEvents(ctx context.Context, events []*Event) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]any, 0, len(events))
	for _, e := range events {
		records = append(records, s.toRecord(e))
	}
	_, err := s.dataset.Write(ctx, records, lode.Metadata{})
	return err
}

// toRecord flattens an event into a partitionable record map.
func (s *LodeSink) toRecord(e *Event) map[string]any {
	record := map[string]any{
		"client":     s.config.ClientID,
		"day":        s.config.Day,
		"thread_id":  e.ThreadID,
		"event_type": string(e.Type),
		"time":       e.Time.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range e.Fields {
		// Event fields never override partition keys.
		if _, reserved := record[k]; reserved {
			continue
		}
		record[k] = v
	}
	return record
}

// Close implements Sink.
func (s *LodeSink) Close() error {
	return nil
}
