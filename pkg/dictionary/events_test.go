package dictionary

import (
	"context"
	"errors"
	"testing"
)

type capturedEvent struct {
	eventType string
	source    string
	data      map[string]interface{}
}

type fakePublisher struct {
	events []capturedEvent
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, eventType, source string, data map[string]interface{}) error {
	f.events = append(f.events, capturedEvent{eventType: eventType, source: source, data: data})
	return f.err
}

func TestPublisherSinkTagsRunID(t *testing.T) {
	pub := &fakePublisher{}
	sink := MultiSink(NewPublisherSink(pub), nil, NopSink())
	ctx := WithRunID(context.Background(), "run-1")

	sink.RecordFailed(ctx, Failure{Phase: PhaseMappings, ForeignID: 101, Kind: KindMissingCorrespondence, Message: "missing"})
	sink.PhaseCompleted(ctx, PhaseMappings, Stats{Processed: 4, Failures: []Failure{{Kind: KindStore}}, Errors: map[ErrorKind]int{KindStore: 1}})

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	failed := pub.events[0]
	if failed.eventType != EventRecordFailed || failed.source != "conceptsync" {
		t.Fatalf("unexpected event %+v", failed)
	}
	if failed.data["run_id"] != "run-1" || failed.data["foreign_id"] != 101 || failed.data["kind"] != string(KindMissingCorrespondence) {
		t.Fatalf("unexpected payload %+v", failed.data)
	}
	done := pub.events[1]
	if done.eventType != EventPhaseCompleted || done.data["failed"] != 1 {
		t.Fatalf("unexpected summary %+v", done)
	}
	if summary, ok := done.data["stats"].(Stats); !ok || summary.Failures != nil || summary.Processed != 4 {
		t.Fatalf("summary should carry stats without failures, got %+v", done.data["stats"])
	}
}

func TestPublisherErrorsDoNotFailImport(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, Options{}, NewPublisherSink(pub))

	_, stats, err := svc.ImportConcepts(context.Background(), conceptLines(feverLine, `{"id":`), ImportOptions{})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.ConceptsCreated != 1 || stats.Failed() != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected failure and summary events, got %d", len(pub.events))
	}
}
