package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"brandguard/internal/model"
)

func newToolboxFixture(t *testing.T) (*memStore, *fakeGateway, ToolboxService) {
	t.Helper()
	store := newMemStore()
	store.addAccount("owner", model.RoleMember, model.PlanFree)
	store.addAccount("stranger", model.RoleMember, model.PlanFree)
	store.addAccount("mgr", model.RoleBrandManager, model.PlanPro)
	store.addProject("p", "owner", testFingerprint())
	store.addProject("blank", "owner", model.BrandFingerprint{})
	gateway := &fakeGateway{}
	return store, gateway, NewToolboxService(store, store, gateway, time.Second, nopLogger)
}

func TestToolboxAccess(t *testing.T) {
	_, gateway, svc := newToolboxFixture(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		accountID string
		projectID string
		want      error
	}{
		{"anonymous", "", "p", ErrUnauthenticated},
		{"unregistered", "ghost", "p", ErrUnauthenticated},
		{"stranger", "stranger", "p", ErrForbidden},
		{"missing project", "owner", "nope", ErrNotFound},
		{"no fingerprint", "owner", "blank", ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ExtractColors(ctx, tc.accountID, tc.projectID, testImage()); !errors.Is(err, tc.want) {
				t.Errorf("ExtractColors err = %v, want %v", err, tc.want)
			}
			if _, err := svc.PromptToDesign(ctx, tc.accountID, tc.projectID, "A summer sale banner"); !errors.Is(err, tc.want) {
				t.Errorf("PromptToDesign err = %v, want %v", err, tc.want)
			}
			if _, err := svc.Ask(ctx, tc.accountID, tc.projectID, "Which font?", nil); !errors.Is(err, tc.want) {
				t.Errorf("Ask err = %v, want %v", err, tc.want)
			}
		})
	}
	if n := gateway.count("colors") + gateway.count("prompt") + gateway.count("assistant"); n != 0 {
		t.Errorf("gateway called %d times for rejected requests", n)
	}
}

func TestToolboxOwnerAndManagerCanUseIt(t *testing.T) {
	_, _, svc := newToolboxFixture(t)
	ctx := context.Background()

	for _, who := range []string{"owner", "mgr"} {
		colors, err := svc.ExtractColors(ctx, who, "p", testImage())
		if err != nil || len(colors.Colors) == 0 || colors.Feedback == "" {
			t.Fatalf("%s: ExtractColors = %+v, %v", who, colors, err)
		}
		img, err := svc.GenerateLayout(ctx, who, "p", LayoutRequest{Headline: "Summer sale"})
		if err != nil || img.IsEmpty() {
			t.Fatalf("%s: GenerateLayout = %v", who, err)
		}
		answer, err := svc.Ask(ctx, who, "p", "Which font for headings?", nil)
		if err != nil || answer == "" {
			t.Fatalf("%s: Ask = %q, %v", who, answer, err)
		}
	}
}

func TestToolboxInputValidation(t *testing.T) {
	_, gateway, svc := newToolboxFixture(t)
	ctx := context.Background()

	if _, err := svc.ExtractColors(ctx, "owner", "p", model.Image{}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty image: err = %v", err)
	}
	if _, err := svc.GenerateLayout(ctx, "owner", "p", LayoutRequest{Headline: "  ", BodyText: "\n"}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty layout: err = %v", err)
	}
	if _, err := svc.PromptToDesign(ctx, "owner", "p", " "); !errors.Is(err, ErrValidation) {
		t.Errorf("empty prompt: err = %v", err)
	}
	if _, err := svc.PromptToDesign(ctx, "owner", "p", strings.Repeat("é", maxPromptRunes+1)); !errors.Is(err, ErrValidation) {
		t.Errorf("long prompt: err = %v", err)
	}
	if _, err := svc.Ask(ctx, "owner", "p", strings.Repeat("?", maxQuestionRunes+1), nil); !errors.Is(err, ErrValidation) {
		t.Errorf("long question: err = %v", err)
	}
	if gateway.count("colors")+gateway.count("layout")+gateway.count("prompt")+gateway.count("assistant") != 0 {
		t.Error("gateway called for invalid input")
	}
}

func TestToolboxGenerateTemplates(t *testing.T) {
	_, gateway, svc := newToolboxFixture(t)
	ctx := context.Background()

	if _, err := svc.GenerateTemplates(ctx, "owner", "p"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner without manager role: err = %v, want forbidden", err)
	}

	templates, err := svc.GenerateTemplates(ctx, "mgr", "p")
	if err != nil {
		t.Fatalf("GenerateTemplates: %v", err)
	}
	if len(templates) != len(model.TemplateKinds) {
		t.Fatalf("got %d templates, want %d", len(templates), len(model.TemplateKinds))
	}
	for i, tpl := range templates {
		if tpl.Kind != model.TemplateKinds[i] || tpl.Image.IsEmpty() {
			t.Errorf("template %d = %s (%d bytes)", i, tpl.Kind, len(tpl.Image.Data))
		}
	}
	if gateway.count("template") != len(model.TemplateKinds) {
		t.Errorf("template calls = %d", gateway.count("template"))
	}
}

func TestToolboxGenerateTemplatesFailsAsAWhole(t *testing.T) {
	_, gateway, svc := newToolboxFixture(t)
	var calls atomic.Int32
	gateway.templates = func(kind model.TemplateKind) (model.Image, error) {
		calls.Add(1)
		if kind == model.TemplatePresentationSlide {
			return model.Image{}, errBoom
		}
		return testImage(), nil
	}

	templates, err := svc.GenerateTemplates(context.Background(), "mgr", "p")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want upstream_error", err)
	}
	if templates != nil {
		t.Errorf("partial templates returned: %v", templates)
	}
	if calls.Load() == 0 {
		t.Error("gateway never called")
	}
}

func TestToolboxUpstreamFailure(t *testing.T) {
	_, gateway, svc := newToolboxFixture(t)
	gateway.imageErr = errBoom
	gateway.assistant = func(AssistantQuery) (string, error) { return "", ErrEmptyModelResponse }
	ctx := context.Background()

	if _, err := svc.ExtractColors(ctx, "owner", "p", testImage()); !errors.Is(err, ErrUpstream) {
		t.Errorf("ExtractColors err = %v", err)
	}
	if _, err := svc.PromptToDesign(ctx, "owner", "p", "A poster"); !errors.Is(err, ErrUpstream) {
		t.Errorf("PromptToDesign err = %v", err)
	}
	_, err := svc.Ask(ctx, "owner", "p", "Which font?", nil)
	if !errors.Is(err, ErrUpstream) || !errors.Is(err, ErrEmptyModelResponse) {
		t.Errorf("Ask err = %v", err)
	}
}
