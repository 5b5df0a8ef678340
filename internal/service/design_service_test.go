package service

import (
	"context"
	"errors"
	"testing"

	"brandguard/internal/model"
)

type recordingReviewObserver struct {
	reviewed []string
}

func (o *recordingReviewObserver) DesignReviewed(_ context.Context, d *model.Design, _ string) error {
	o.reviewed = append(o.reviewed, d.ID+":"+string(d.Status))
	return nil
}

func newDesignFixture(t *testing.T) (*memStore, DesignService, *recordingReviewObserver) {
	t.Helper()
	store := newMemStore()
	store.addAccount("owner", model.RoleMember, model.PlanFree)
	store.addAccount("stranger", model.RoleMember, model.PlanFree)
	store.addAccount("mgr", model.RoleBrandManager, model.PlanPro)
	store.addAccount("adm", model.RoleAdmin, model.PlanEnterprise)
	store.addProject("p", "owner", testFingerprint())
	store.designs["d"] = &model.Design{
		ID:               "d",
		ProjectID:        "p",
		AccountID:        "owner",
		OriginalImageKey: "projects/p/designs/d/original.png",
		Status:           model.DesignPending,
		Tags:             []string{},
	}
	obs := &recordingReviewObserver{}
	return store, NewDesignService(store, store, store, newMemImages(), nopLogger, obs), obs
}

func TestReviewApproveThenRejectIsInvalidState(t *testing.T) {
	store, svc, obs := newDesignFixture(t)
	ctx := context.Background()

	if _, err := svc.Review(ctx, ReviewInput{DesignID: "d", ReviewerID: "mgr", Status: model.DesignApproved}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err := svc.Review(ctx, ReviewInput{DesignID: "d", ReviewerID: "adm", Status: model.DesignRejected, ManagerFeedback: "off brand"})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want invalid_state", err)
	}
	if got := store.design("d").Status; got != model.DesignApproved {
		t.Errorf("status = %s, want approved", got)
	}
	if len(obs.reviewed) != 1 || obs.reviewed[0] != "d:approved" {
		t.Errorf("observer saw %v", obs.reviewed)
	}
}

func TestReviewGuards(t *testing.T) {
	cases := []struct {
		name string
		in   ReviewInput
		want error
	}{
		{"unauthenticated", ReviewInput{DesignID: "d", Status: model.DesignApproved}, ErrUnauthenticated},
		{"reject without feedback", ReviewInput{DesignID: "d", ReviewerID: "mgr", Status: model.DesignRejected}, ErrValidation},
		{"reject with blank feedback", ReviewInput{DesignID: "d", ReviewerID: "mgr", Status: model.DesignRejected, ManagerFeedback: "   "}, ErrValidation},
		{"back to pending", ReviewInput{DesignID: "d", ReviewerID: "mgr", Status: model.DesignPending}, ErrValidation},
		{"member reviewer", ReviewInput{DesignID: "d", ReviewerID: "owner", Status: model.DesignApproved}, ErrForbidden},
		{"unknown design", ReviewInput{DesignID: "nope", ReviewerID: "mgr", Status: model.DesignApproved}, ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, svc, _ := newDesignFixture(t)
			_, err := svc.Review(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if got := store.design("d").Status; got != model.DesignPending {
				t.Errorf("status = %s, want pending", got)
			}
		})
	}
}

func TestReviewRejectStoresFeedback(t *testing.T) {
	_, svc, _ := newDesignFixture(t)
	d, err := svc.Review(context.Background(), ReviewInput{
		DesignID: "d", ReviewerID: "mgr", Status: model.DesignRejected, ManagerFeedback: "  Logo too small  ",
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if d.Status != model.DesignRejected || d.ManagerFeedback != "Logo too small" {
		t.Errorf("got status=%s feedback=%q", d.Status, d.ManagerFeedback)
	}
}

func TestAnnotateDesign(t *testing.T) {
	store, svc, _ := newDesignFixture(t)
	ctx := context.Background()
	notes := "try a darker blue"
	peer := true

	if _, err := svc.AnnotateDesign(ctx, "d", "mgr", model.DesignAnnotations{Notes: &notes}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("manager annotate err = %v, want forbidden", err)
	}
	if _, err := svc.AnnotateDesign(ctx, "d", "owner", model.DesignAnnotations{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty annotate err = %v, want validation_error", err)
	}

	// Annotations are independent of the review status.
	if _, err := svc.Review(ctx, ReviewInput{DesignID: "d", ReviewerID: "mgr", Status: model.DesignApproved}); err != nil {
		t.Fatalf("Review: %v", err)
	}
	d, err := svc.AnnotateDesign(ctx, "d", "owner", model.DesignAnnotations{Notes: &notes, PeerFeedbackRequested: &peer})
	if err != nil {
		t.Fatalf("AnnotateDesign: %v", err)
	}
	if d.Notes != notes || !d.PeerFeedbackRequested || d.Status != model.DesignApproved {
		t.Errorf("unexpected design %+v", d)
	}
	if store.design("d").Notes != notes {
		t.Error("annotation not stored")
	}
}

func TestGetDesignVisibility(t *testing.T) {
	_, svc, _ := newDesignFixture(t)
	ctx := context.Background()

	for _, id := range []string{"owner", "mgr", "adm"} {
		v, err := svc.GetDesign(ctx, "d", id)
		if err != nil {
			t.Fatalf("GetDesign as %s: %v", id, err)
		}
		if v.OriginalImageURL == "" {
			t.Errorf("missing image url for %s", id)
		}
	}
	if _, err := svc.GetDesign(ctx, "d", "stranger"); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger err = %v, want forbidden", err)
	}
}

func TestListDesigns(t *testing.T) {
	store, svc, _ := newDesignFixture(t)
	store.designs["m"] = &model.Design{ID: "m", ProjectID: "p", AccountID: "mgr", Status: model.DesignPending}
	ctx := context.Background()

	all, err := svc.ListDesigns(ctx, "p", "owner", false)
	if err != nil || len(all) != 2 {
		t.Fatalf("all = %d, %v", len(all), err)
	}
	mine, err := svc.ListDesigns(ctx, "p", "mgr", true)
	if err != nil || len(mine) != 1 || mine[0].ID != "m" {
		t.Fatalf("mine = %+v, %v", mine, err)
	}
	if _, err := svc.ListDesigns(ctx, "p", "stranger", false); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger err = %v, want forbidden", err)
	}
}
