package model

import "testing"

func TestDesignStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to DesignStatus
		want     bool
	}{
		{DesignPending, DesignApproved, true},
		{DesignPending, DesignRejected, true},
		{DesignPending, DesignPending, false},
		{DesignApproved, DesignRejected, false},
		{DesignApproved, DesignPending, false},
		{DesignRejected, DesignApproved, false},
		{DesignRejected, DesignPending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestDesignAnnotationsApply(t *testing.T) {
	d := &Design{Notes: "old", Tags: []string{"a"}}
	notes := "new"
	peer := true
	DesignAnnotations{Notes: &notes, PeerFeedbackRequested: &peer}.Apply(d)
	if d.Notes != "new" || !d.PeerFeedbackRequested {
		t.Fatalf("annotations not applied: %+v", d)
	}
	if len(d.Tags) != 1 || d.Tags[0] != "a" {
		t.Fatalf("tags must be untouched, got %v", d.Tags)
	}
	if !(DesignAnnotations{}).IsEmpty() {
		t.Fatal("zero annotations must be empty")
	}
}

func TestStrictnessFor(t *testing.T) {
	if StrictnessFor("Business Presentation") != StrictnessStrict {
		t.Error("business presentations are scored strictly")
	}
	if StrictnessFor("Social Media Post") != StrictnessLenient {
		t.Error("social posts are scored leniently")
	}
	if StrictnessFor("Billboard") != StrictnessStandard {
		t.Error("unknown contexts fall back to standard")
	}
}

func TestFingerprintIsZero(t *testing.T) {
	var nilFP *BrandFingerprint
	if !nilFP.IsZero() {
		t.Error("nil fingerprint must be zero")
	}
	if !(&BrandFingerprint{TypographyStyle: "  "}).IsZero() {
		t.Error("whitespace-only fingerprint must be zero")
	}
	if (&BrandFingerprint{PrimaryColors: []string{"#000000"}}).IsZero() {
		t.Error("fingerprint with colors must not be zero")
	}
}
