package tagging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"brandguard/internal/model"
	"brandguard/internal/pgmq"
	"brandguard/internal/service"

	"github.com/rs/zerolog"
)

type fakeQueue struct {
	mu      sync.Mutex
	sent    map[string][][]byte
	deleted []int64
}

func (q *fakeQueue) ReadWithPoll(ctx context.Context, queue string, visibilitySeconds, pollSeconds, maxMessages int) ([]*pgmq.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *fakeQueue) Send(ctx context.Context, queue string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.sent == nil {
		q.sent = map[string][][]byte{}
	}
	q.sent[queue] = append(q.sent[queue], payload)
	return nil
}

func (q *fakeQueue) Delete(ctx context.Context, queue string, msgID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, msgID)
	return nil
}

type fakeAssets struct {
	service.AssetService
	errs   []error
	calls  int
	failed []string
}

func (f *fakeAssets) TagAsset(ctx context.Context, assetID string) (*model.Asset, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &model.Asset{ID: assetID, TaggingStatus: model.TaggingDone}, nil
}

func (f *fakeAssets) MarkTaggingFailed(ctx context.Context, assetID string) error {
	f.failed = append(f.failed, assetID)
	return nil
}

type fakeDLQ struct {
	records []*model.DeadLetterMessage
}

func (f *fakeDLQ) Create(ctx context.Context, message *model.DeadLetterMessage) error {
	f.records = append(f.records, message)
	return nil
}

func newTestWorker(assets *fakeAssets) (*Worker, *fakeQueue, *fakeDLQ) {
	q := &fakeQueue{}
	dlq := &fakeDLQ{}
	w := NewWorker(q, assets, dlq, Options{
		QueueName:       "tagging",
		DeadLetterQueue: "tagging_dlq",
		MaxRetries:      3,
		BackoffInitial:  time.Millisecond,
		BackoffMax:      2 * time.Millisecond,
	}, zerolog.Nop())
	return w, q, dlq
}

func TestProcessSuccessAfterRetry(t *testing.T) {
	assets := &fakeAssets{errs: []error{&service.Error{Kind: service.KindUpstream, Message: "asset tagging failed"}}}
	w, q, dlq := newTestWorker(assets)

	w.Process(context.Background(), &pgmq.Message{ID: 7, Data: []byte(`{"asset_id":"a1"}`)})

	if assets.calls != 2 {
		t.Errorf("TagAsset calls = %d, want 2", assets.calls)
	}
	if len(q.deleted) != 1 || q.deleted[0] != 7 {
		t.Errorf("deleted = %v, want [7]", q.deleted)
	}
	if len(dlq.records) != 0 || len(assets.failed) != 0 {
		t.Errorf("unexpected dead letter: %v, failed %v", dlq.records, assets.failed)
	}
}

func TestProcessExhaustsRetries(t *testing.T) {
	boom := errors.New("storage unavailable")
	assets := &fakeAssets{errs: []error{boom, boom, boom}}
	w, q, dlq := newTestWorker(assets)

	w.Process(context.Background(), &pgmq.Message{ID: 9, Data: []byte(`{"asset_id":"a2"}`)})

	if assets.calls != 3 {
		t.Errorf("TagAsset calls = %d, want 3", assets.calls)
	}
	if len(assets.failed) != 1 || assets.failed[0] != "a2" {
		t.Errorf("failed = %v, want [a2]", assets.failed)
	}
	if len(q.sent["tagging_dlq"]) != 1 {
		t.Errorf("dlq sends = %d, want 1", len(q.sent["tagging_dlq"]))
	}
	if len(dlq.records) != 1 {
		t.Fatalf("dead letters = %d, want 1", len(dlq.records))
	}
	rec := dlq.records[0]
	if rec.MessageID != 9 || rec.Attempts != 3 || rec.LastError != boom.Error() {
		t.Errorf("dead letter = %+v", rec)
	}
	if len(q.deleted) != 1 || q.deleted[0] != 9 {
		t.Errorf("deleted = %v, want [9]", q.deleted)
	}
}

func TestProcessNotFoundIsNotRetried(t *testing.T) {
	assets := &fakeAssets{errs: []error{&service.Error{Kind: service.KindNotFound, Message: "asset a3 not found"}}}
	w, _, dlq := newTestWorker(assets)

	w.Process(context.Background(), &pgmq.Message{ID: 3, Data: []byte(`{"asset_id":"a3"}`)})

	if assets.calls != 1 {
		t.Errorf("TagAsset calls = %d, want 1", assets.calls)
	}
	if len(dlq.records) != 1 || dlq.records[0].Attempts != 1 {
		t.Errorf("dead letters = %+v", dlq.records)
	}
}

func TestProcessMalformedPayload(t *testing.T) {
	assets := &fakeAssets{}
	w, q, dlq := newTestWorker(assets)

	w.Process(context.Background(), &pgmq.Message{ID: 4, Data: []byte(`not json`)})

	if assets.calls != 0 {
		t.Errorf("TagAsset calls = %d, want 0", assets.calls)
	}
	if len(dlq.records) != 1 {
		t.Fatalf("dead letters = %d, want 1", len(dlq.records))
	}
	if dlq.records[0].Payload != `"not json"` {
		t.Errorf("payload = %q, want quoted JSON string", dlq.records[0].Payload)
	}
	if len(q.deleted) != 1 {
		t.Errorf("deleted = %v", q.deleted)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w, _, _ := newTestWorker(&fakeAssets{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
