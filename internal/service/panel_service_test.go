package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"brandguard/internal/model"
)

func TestPanelIsStateless(t *testing.T) {
	store := newMemStore()
	store.addAccount("owner", model.RoleMember, model.PlanFree)
	store.addProject("p", "owner", testFingerprint())
	gateway := &fakeGateway{}
	svc := NewPanelService(store, gateway, time.Second, nopLogger)
	ctx := context.Background()

	score, err := svc.Score(ctx, "p", testImage(), "Social Media Post")
	if err != nil || score.Score != 80 {
		t.Fatalf("Score = %+v, %v", score, err)
	}
	fixes, err := svc.SuggestFixes(ctx, "p", testImage(), "Social Media Post")
	if err != nil || len(fixes) != 1 {
		t.Fatalf("SuggestFixes = %+v, %v", fixes, err)
	}
	if _, err := svc.ApplyFixes(ctx, "p", testImage(), fixes); err != nil {
		t.Fatalf("ApplyFixes: %v", err)
	}

	acc := store.account("owner")
	if store.designCount() != 0 || acc.MonthlyAnalysisCount != 0 || len(acc.Achievements) != 0 {
		t.Error("panel calls must not persist anything")
	}
}

func TestPanelGuards(t *testing.T) {
	store := newMemStore()
	store.addProject("empty", "owner", model.BrandFingerprint{})
	svc := NewPanelService(store, &fakeGateway{}, time.Second, nopLogger)
	ctx := context.Background()

	if _, err := svc.Score(ctx, "missing", testImage(), "Poster"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want not_found", err)
	}
	if _, err := svc.Score(ctx, "empty", testImage(), "Poster"); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want validation_error", err)
	}
	if _, err := svc.ApplyFixes(ctx, "empty", testImage(), nil); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want validation_error", err)
	}
}

func TestPanelAskUsesProjectFingerprint(t *testing.T) {
	store := newMemStore()
	store.addProject("p", "owner", testFingerprint())
	var got AssistantQuery
	gateway := &fakeGateway{assistant: func(q AssistantQuery) (string, error) {
		got = q
		return "Keep the logo top left.", nil
	}}
	svc := NewPanelService(store, gateway, time.Second, nopLogger)
	ctx := context.Background()

	empty := model.Image{}
	answer, err := svc.Ask(ctx, "p", "  Where does the logo go?  ", &empty)
	if err != nil || answer != "Keep the logo top left." {
		t.Fatalf("Ask = %q, %v", answer, err)
	}
	if got.Question != "Where does the logo go?" || got.Design != nil || got.Fingerprint.IsZero() {
		t.Errorf("unexpected assistant query %+v", got)
	}
	if _, err := svc.Ask(ctx, "p", "   ", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want validation_error", err)
	}
	if gateway.count("assistant") != 1 {
		t.Errorf("assistant calls = %d, want 1", gateway.count("assistant"))
	}
}
