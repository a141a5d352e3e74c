package dictionary

import (
	"context"

	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
)

const (
	EventRecordFailed   = "record.failed"
	EventPhaseCompleted = "phase.completed"

	eventSource = "conceptsync"
)

// EventSink receives per-record failures and phase summaries as they happen.
type EventSink interface {
	RecordFailed(ctx context.Context, f Failure)
	PhaseCompleted(ctx context.Context, phase string, stats Stats)
}

type nopSink struct{}

func (nopSink) RecordFailed(context.Context, Failure)         {}
func (nopSink) PhaseCompleted(context.Context, string, Stats) {}

// NopSink discards events.
func NopSink() EventSink { return nopSink{} }

type multiSink []EventSink

func (m multiSink) RecordFailed(ctx context.Context, f Failure) {
	for _, s := range m {
		s.RecordFailed(ctx, f)
	}
}

func (m multiSink) PhaseCompleted(ctx context.Context, phase string, stats Stats) {
	for _, s := range m {
		s.PhaseCompleted(ctx, phase, stats)
	}
}

// MultiSink fans events out to every non-nil sink.
func MultiSink(sinks ...EventSink) EventSink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Publisher is satisfied by the kafka producer.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type runIDKey struct{}

// WithRunID tags ctx with the id of the import run it belongs to.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// PublisherSink forwards events to a message bus. Publish errors are logged
// and never fail the import.
type PublisherSink struct {
	pub Publisher
}

func NewPublisherSink(pub Publisher) *PublisherSink {
	return &PublisherSink{pub: pub}
}

func (p *PublisherSink) RecordFailed(ctx context.Context, f Failure) {
	p.publish(ctx, EventRecordFailed, map[string]interface{}{
		"run_id":     RunID(ctx),
		"phase":      f.Phase,
		"foreign_id": f.ForeignID,
		"line":       f.Line,
		"kind":       string(f.Kind),
		"message":    f.Message,
	})
}

func (p *PublisherSink) PhaseCompleted(ctx context.Context, phase string, stats Stats) {
	summary := stats
	summary.Failures = nil
	p.publish(ctx, EventPhaseCompleted, map[string]interface{}{
		"run_id": RunID(ctx),
		"phase":  phase,
		"failed": stats.Failed(),
		"stats":  summary,
	})
}

func (p *PublisherSink) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := p.pub.PublishEvent(ctx, eventType, eventSource, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("failed to publish sync event")
	}
}
