package service

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"brandguard/internal/model"
	"brandguard/internal/repository"

	"github.com/rs/zerolog"
)

var pixelPNG, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func testImage() model.Image {
	return model.Image{MIMEType: "image/png", Data: pixelPNG}
}

func testFingerprint() model.BrandFingerprint {
	return model.BrandFingerprint{
		PrimaryColors:          []string{"#0055ff"},
		SecondaryColors:        []string{"#ffffff"},
		TypographyStyle:        "Geometric sans serif",
		OverallDesignAesthetic: "Clean and minimal",
	}
}

var nopLogger = zerolog.New(io.Discard)

// memStore implements every repository interface the services use.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	projects map[string]*model.Project
	designs  map[string]*model.Design
	assets   map[string]*model.Asset
	events   []string

	createDesignErr error
	commitErr       error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*model.Account{},
		projects: map[string]*model.Project{},
		designs:  map[string]*model.Design{},
		assets:   map[string]*model.Asset{},
	}
}

func (m *memStore) addAccount(id string, role model.Role, plan model.Plan) *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := model.NewAccount(id, id+"@example.com", strings.ToUpper(id))
	a.Role = role
	a.SetPlan(plan)
	m.accounts[id] = a
	return a
}

func (m *memStore) addProject(id, ownerID string, fp model.BrandFingerprint) *model.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &model.Project{ID: id, OwnerID: ownerID, Name: "Project " + id, Fingerprint: fp}
	m.projects[id] = p
	return p
}

func (m *memStore) account(id string) model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := *m.accounts[id]
	a.Achievements = slices.Clone(a.Achievements)
	return a
}

func (m *memStore) design(id string) model.Design {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.designs[id]
}

func (m *memStore) designCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.designs)
}

// AccountRepository

func (m *memStore) EnsureAccount(_ context.Context, a *model.Account) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.accounts[a.ID]; ok {
		c := *existing
		return &c, nil
	}
	c := *a
	m.accounts[a.ID] = &c
	out := c
	return &out, nil
}

func (m *memStore) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *a
	c.Achievements = slices.Clone(a.Achievements)
	return &c, nil
}

func (m *memStore) ListAccounts(_ context.Context, limit, offset int) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Account
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	slices.SortFunc(out, func(a, b model.Account) int { return strings.Compare(a.ID, b.ID) })
	if offset >= len(out) {
		return []model.Account{}, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (m *memStore) UpdateProfile(_ context.Context, id, name string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a.Name = name
	c := *a
	return &c, nil
}

func (m *memStore) UpdateRoleAndPlan(_ context.Context, id string, role model.Role, plan model.Plan) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a.Role = role
	a.SetPlan(plan)
	c := *a
	return &c, nil
}

func (m *memStore) UpdateAchievements(_ context.Context, id string, fn func(*model.AchievementState) error) (*model.AchievementState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	state := model.AchievementState{Achievements: slices.Clone(a.Achievements), HighScoreStreak: a.HighScoreStreak}
	if err := fn(&state); err != nil {
		return nil, err
	}
	a.Achievements = state.Achievements
	a.HighScoreStreak = state.HighScoreStreak
	return &state, nil
}

func (m *memStore) GrantAchievement(_ context.Context, id, achievement string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || slices.Contains(a.Achievements, achievement) {
		return false, nil
	}
	a.Achievements = append(a.Achievements, achievement)
	return true, nil
}

// UsageRepository

func (m *memStore) ReserveAnalysis(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	if a.AnalysisLimit != model.UnlimitedAnalyses && a.MonthlyAnalysisCount+a.AnalysisReserved >= a.AnalysisLimit {
		return repository.ErrAnalysisLimitReached
	}
	a.AnalysisReserved++
	return nil
}

func (m *memStore) CommitAnalysis(_ context.Context, accountID, designID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.commitErr != nil {
		return m.commitErr
	}
	a, ok := m.accounts[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	a.MonthlyAnalysisCount++
	a.AnalysisReserved = max(a.AnalysisReserved-1, 0)
	m.events = append(m.events, designID)
	return nil
}

func (m *memStore) ReleaseAnalysis(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[accountID]; ok {
		a.AnalysisReserved = max(a.AnalysisReserved-1, 0)
	}
	return nil
}

func (m *memStore) CountAnalysesInTimeRange(_ context.Context, _ string, _, _ time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events), nil
}

func (m *memStore) ResetMonthlyUsage(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		a.MonthlyAnalysisCount = 0
		a.AnalysisReserved = 0
	}
	return int64(len(m.accounts)), nil
}

func (m *memStore) SyncAnalysisLimits(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, a := range m.accounts {
		if a.AnalysisLimit != a.Plan.AnalysisLimit() {
			a.AnalysisLimit = a.Plan.AnalysisLimit()
			n++
		}
	}
	return n, nil
}

// ProjectRepository

func (m *memStore) CreateProject(_ context.Context, p *model.Project) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	c.CreatedAt = time.Now()
	m.projects[p.ID] = &c
	out := c
	return &out, nil
}

func (m *memStore) GetProjectByID(_ context.Context, id string) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *memStore) ListProjectsByOwner(_ context.Context, ownerID string) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Project{}
	for _, p := range m.projects {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) ListAllProjects(_ context.Context) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Project{}
	for _, p := range m.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) UpdateProject(_ context.Context, p *model.Project) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.projects[p.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	existing.Name = p.Name
	existing.BrandDescription = p.BrandDescription
	existing.Fingerprint = p.Fingerprint
	c := *existing
	return &c, nil
}

func (m *memStore) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.projects, id)
	for k, d := range m.designs {
		if d.ProjectID == id {
			delete(m.designs, k)
		}
	}
	for k, a := range m.assets {
		if a.ProjectID == id {
			delete(m.assets, k)
		}
	}
	return nil
}

// DesignRepository

func (m *memStore) CreateDesign(_ context.Context, d *model.Design) (*model.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createDesignErr != nil {
		return nil, m.createDesignErr
	}
	c := *d
	c.CreatedAt = time.Now()
	m.designs[d.ID] = &c
	out := c
	return &out, nil
}

func (m *memStore) GetDesignByID(_ context.Context, id string) (*model.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.designs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (m *memStore) ListDesignsByProject(_ context.Context, projectID string) ([]model.Design, error) {
	return m.filterDesigns(func(d *model.Design) bool { return d.ProjectID == projectID }), nil
}

func (m *memStore) ListDesignsByAccountInProject(_ context.Context, projectID, accountID string) ([]model.Design, error) {
	return m.filterDesigns(func(d *model.Design) bool {
		return d.ProjectID == projectID && d.AccountID == accountID
	}), nil
}

func (m *memStore) filterDesigns(keep func(*model.Design) bool) []model.Design {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Design{}
	for _, d := range m.designs {
		if keep(d) {
			out = append(out, *d)
		}
	}
	return out
}

func (m *memStore) CountDesignsByAccount(_ context.Context, accountID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.designs {
		if d.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) UpdateDesignStatus(_ context.Context, id string, status model.DesignStatus, managerFeedback string) (*model.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.designs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if d.Status != model.DesignPending {
		return nil, repository.ErrDesignNotPending
	}
	d.Status = status
	if managerFeedback != "" {
		d.ManagerFeedback = managerFeedback
	}
	c := *d
	return &c, nil
}

func (m *memStore) UpdateAnnotations(_ context.Context, d *model.Design) (*model.Design, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.designs[d.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	existing.Notes = d.Notes
	existing.Tags = d.Tags
	existing.PeerFeedbackRequested = d.PeerFeedbackRequested
	c := *existing
	return &c, nil
}

// AssetRepository

func (m *memStore) CreateAsset(_ context.Context, a *model.Asset) (*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *a
	c.TaggingStatus = model.TaggingPending
	m.assets[a.ID] = &c
	out := c
	return &out, nil
}

func (m *memStore) GetAssetByID(_ context.Context, id string) (*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (m *memStore) ListAssetsByProject(_ context.Context, projectID string) ([]model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Asset{}
	for _, a := range m.assets {
		if a.ProjectID == projectID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) CompleteTagging(_ context.Context, id string, assetType model.AssetType, tags []string, summary string) (*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok || a.TaggingStatus != model.TaggingPending {
		return nil, repository.ErrNotFound
	}
	a.Type, a.Tags, a.AISummary, a.TaggingStatus = assetType, tags, summary, model.TaggingDone
	c := *a
	return &c, nil
}

func (m *memStore) MarkTaggingFailed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.assets[id]; ok && a.TaggingStatus == model.TaggingPending {
		a.TaggingStatus = model.TaggingFailed
	}
	return nil
}

// fakeGateway returns canned results. Nil funcs fall back to defaults.
type fakeGateway struct {
	mu    sync.Mutex
	calls map[string]int

	score     func(DesignRequest) (*ScoreResult, error)
	fixes     func(DesignRequest) ([]model.Fix, error)
	applyErr  error
	conflicts []model.Conflict
	tags      *AssetTags
	tagErr    error
	imageErr  error
	templates func(model.TemplateKind) (model.Image, error)
	assistant func(AssistantQuery) (string, error)
}

func (g *fakeGateway) record(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = map[string]int{}
	}
	g.calls[op]++
}

func (g *fakeGateway) count(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *fakeGateway) Score(ctx context.Context, req DesignRequest) (*ScoreResult, error) {
	g.record("score")
	if g.score != nil {
		return g.score(req)
	}
	return &ScoreResult{Score: 80, Feedback: "Mostly on brand."}, nil
}

func (g *fakeGateway) SuggestFixes(ctx context.Context, req DesignRequest) ([]model.Fix, error) {
	g.record("fixes")
	if g.fixes != nil {
		return g.fixes(req)
	}
	return []model.Fix{sampleFix()}, nil
}

func (g *fakeGateway) ApplyFixes(ctx context.Context, img model.Image, fp model.BrandFingerprint, fixes []model.Fix) (model.Image, error) {
	g.record("apply")
	if g.applyErr != nil {
		return model.Image{}, g.applyErr
	}
	return img, nil
}

func (g *fakeGateway) HighlightDifferences(ctx context.Context, original, corrected model.Image) (model.Image, error) {
	g.record("diff")
	return corrected, nil
}

func (g *fakeGateway) AnalyzeBrand(ctx context.Context, logo model.Image, description string) (*model.BrandFingerprint, error) {
	g.record("brand")
	fp := testFingerprint()
	return &fp, nil
}

func (g *fakeGateway) DetectConflicts(ctx context.Context, fp model.BrandFingerprint) ([]model.Conflict, error) {
	g.record("conflicts")
	return g.conflicts, nil
}

func (g *fakeGateway) TagAsset(ctx context.Context, img model.Image, name string) (*AssetTags, error) {
	g.record("tag")
	if g.tagErr != nil {
		return nil, g.tagErr
	}
	if g.tags != nil {
		return g.tags, nil
	}
	return &AssetTags{Type: model.AssetLogo, Tags: []string{"primary"}, Summary: "Main logo"}, nil
}

func (g *fakeGateway) ExtractColors(ctx context.Context, img model.Image, fp model.BrandFingerprint) (*ColorExtraction, error) {
	g.record("colors")
	if g.imageErr != nil {
		return nil, g.imageErr
	}
	return &ColorExtraction{Colors: []string{"#0055FF", "#FFFFFF"}, Feedback: "Matches the primary palette."}, nil
}

func (g *fakeGateway) GenerateTemplate(ctx context.Context, fp model.BrandFingerprint, kind model.TemplateKind) (model.Image, error) {
	g.record("template")
	if g.templates != nil {
		return g.templates(kind)
	}
	return testImage(), nil
}

func (g *fakeGateway) GenerateLayout(ctx context.Context, fp model.BrandFingerprint, req LayoutRequest) (model.Image, error) {
	g.record("layout")
	if g.imageErr != nil {
		return model.Image{}, g.imageErr
	}
	return testImage(), nil
}

func (g *fakeGateway) PromptToDesign(ctx context.Context, fp model.BrandFingerprint, prompt string) (model.Image, error) {
	g.record("prompt")
	if g.imageErr != nil {
		return model.Image{}, g.imageErr
	}
	return testImage(), nil
}

func (g *fakeGateway) AskAssistant(ctx context.Context, q AssistantQuery) (string, error) {
	g.record("assistant")
	if g.assistant != nil {
		return g.assistant(q)
	}
	return "Use the primary blue.", nil
}

func sampleFix() model.Fix {
	return model.Fix{
		Description: "Use the primary blue for the headline",
		Category:    model.FixColor,
		Details: model.FixAction{
			Action:        "recolor",
			TargetElement: "headline",
			Property:      "color",
			NewValue:      "#0055ff",
		},
	}
}

type memImages struct {
	mu      sync.Mutex
	objects map[string]model.Image
}

func newMemImages() *memImages {
	return &memImages{objects: map[string]model.Image{}}
}

func (s *memImages) Put(_ context.Context, key string, img model.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = img
	return nil
}

func (s *memImages) Get(_ context.Context, key string) (model.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.objects[key]
	if !ok {
		return model.Image{}, errImageMissing
	}
	return img, nil
}

func (s *memImages) PresignGet(_ context.Context, key string) (string, error) {
	return "https://storage.example.com/" + key, nil
}

func (s *memImages) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memImages) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			delete(s.objects, k)
		}
	}
	return nil
}

func (s *memImages) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type memQueue struct {
	mu   sync.Mutex
	sent [][]byte
	err  error
}

func (q *memQueue) Send(_ context.Context, _ string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, payload)
	return nil
}

var errBoom = errors.New("boom")
