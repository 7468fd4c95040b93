package styling

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glamlens/stylist/internal/cache"
	apperrors "github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/imagegen"
	"github.com/glamlens/stylist/internal/services/recommend"
	"github.com/glamlens/stylist/internal/services/storage"
	"github.com/glamlens/stylist/internal/services/vision"
	"github.com/glamlens/stylist/internal/store"
	"github.com/glamlens/stylist/internal/validation"
)

type stubClassifier struct {
	name   string
	result *vision.Classification
	err    error
	calls  atomic.Int32
	delay  time.Duration
}

func (c *stubClassifier) Name() string { return c.name }

func (c *stubClassifier) ClassifyImage(_ context.Context, _ vision.Image) (*vision.Classification, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.result, c.err
}

type stubRecommender struct {
	name    string
	set     func(req recommend.Request) *models.RecommendationSet
	err     error
	calls   atomic.Int32
	lastReq recommend.Request
}

func (g *stubRecommender) Name() string { return g.name }

func (g *stubRecommender) GenerateRecommendations(_ context.Context, req recommend.Request) (*models.RecommendationSet, error) {
	g.calls.Add(1)
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.set(req), nil
}

type stubImager struct {
	name  string
	urls  []string
	err   error
	calls atomic.Int32
}

func (g *stubImager) Name() string              { return g.name }
func (g *stubImager) Supports(imagegen.Kind) bool { return true }

func (g *stubImager) GenerateImage(_ context.Context, spec imagegen.PromptSpec) ([]string, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, g.err
	}
	return g.urls, nil
}

type fakeUploads struct {
	calls int
}

func (f *fakeUploads) UploadImageWithHash(_ context.Context, data []byte, contentType string) (*storage.StoredImage, error) {
	f.calls++
	key := storage.ObjectKey(data, contentType)
	return &storage.StoredImage{Key: key, URL: "https://cdn.example/" + key}, nil
}

// failingUsageStore rejects usage updates and nothing else.
type failingUsageStore struct {
	*store.MemoryStore
}

func (failingUsageStore) IncrementUsage(context.Context, string, time.Time) error {
	return errors.New("write conflict")
}

var errVendor = apperrors.NewProviderUnreachableError("vendor down", "VENDOR_UNREACHABLE", errors.New("503"))

type harness struct {
	svc     *Service
	gateway *cache.MemoryGateway
	store   *store.MemoryStore
	clock   time.Time
	mu      sync.Mutex
}

func (h *harness) now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clock
}

func (h *harness) advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clock = h.clock.Add(d)
}

func newHarness(t *testing.T, deps Deps, coordOpts ...cache.Option) *harness {
	t.Helper()
	h := &harness{
		gateway: cache.NewMemoryGateway(),
		store:   store.NewMemoryStore(),
		clock:   time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	h.gateway.Now = h.now
	deps.Cache = cache.NewCoordinator(h.gateway, coordOpts...)
	if deps.Store == nil {
		deps.Store = h.store
	}
	h.svc = NewService(deps, Options{
		AnalysisTTL:       time.Hour,
		RecommendationTTL: 30 * time.Minute,
		Now:               h.now,
	})
	return h
}

func confidence(f float64) *float64 { return &f }

func goodClassification() *vision.Classification {
	return &vision.Classification{
		ColorPalette: models.ColorPalette{
			Primary:   []string{"#112233", "#445566"},
			Secondary: []string{"#778899"},
			Accent:    []string{"#aabbcc"},
		},
		StyleClassification: "formal",
		Neckline:            "v-neck",
		Fabric:              "silk",
		Aesthetic:           "classic",
		SkinTone:            "warm",
		Occasion:            "wedding",
		Confidence:          confidence(92),
	}
}

func fullSet(recommend.Request) *models.RecommendationSet {
	return &models.RecommendationSet{
		Jewelry: &models.JewelryRecommendation{Necklace: models.Necklace{Name: "Pearl Strand"}},
		Makeup:  &models.MakeupRecommendation{Lips: models.Lips{Color: "berry"}},
		Hair:    &models.HairRecommendation{Styles: []models.HairStyle{{Name: "Low Bun"}}},
		Nails:   &models.NailRecommendation{Colors: []string{"#990000"}, ArtStyle: "glossy"},
		Henna:   &models.HennaRecommendation{Style: "arabic"},
	}
}

func preparedImage(data string) *validation.PreparedImage {
	return &validation.PreparedImage{
		Original:       []byte(data),
		MIMEType:       "image/jpeg",
		Vision:         []byte(data),
		VisionMIMEType: "image/jpeg",
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := range 16 {
		for y := range 16 {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 10), B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func seedSession(t *testing.T, h *harness, userID string, recs *models.RecommendationSet) *models.StyleSession {
	t.Helper()
	now := h.now()
	session := &models.StyleSession{
		SessionID:       "session-" + userID,
		UserID:          userID,
		Analysis:        NormalizeAnalysis(goodClassification()),
		Recommendations: recs,
		UserInteraction: models.UserInteraction{Viewed: now},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.store.CreateSession(context.Background(), session); err != nil {
		t.Fatal(err)
	}
	return session
}

func seedUser(t *testing.T, h *harness, id string, plan models.Tier) {
	t.Helper()
	u := store.NewUser(id, h.now())
	u.Subscription.Plan = plan
	if err := h.store.SaveUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
}

func assertErrorType(t *testing.T, err error, want apperrors.ErrorType) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("expected AppError of type %s, got %v", want, err)
	}
	if appErr.Type != want {
		t.Fatalf("expected error type %s, got %s (%v)", want, appErr.Type, err)
	}
}

func TestAnalyze_CacheHitWithinTTL(t *testing.T) {
	classifier := &stubClassifier{name: "openai", result: goodClassification()}
	h := newHarness(t, Deps{Vision: []vision.Classifier{classifier}})
	ctx := context.Background()
	img := preparedImage("outfit-bytes")

	first, source, err := h.svc.Analyze(ctx, img)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if source != models.SourceProvider {
		t.Errorf("first source = %s, want provider", source)
	}
	stored, ok := h.gateway.Get(ctx, AnalysisKey(img.Original))
	if !ok {
		t.Fatal("expected analysis to be cached")
	}

	h.advance(59 * time.Minute)
	second, source, err := h.svc.Analyze(ctx, img)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if source != models.SourceCache {
		t.Errorf("second source = %s, want cache", source)
	}
	if classifier.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", classifier.calls.Load())
	}

	secondBytes, _ := json.Marshal(second)
	if !bytes.Equal(secondBytes, stored) {
		t.Errorf("cache hit not byte-identical:\n%s\n%s", secondBytes, stored)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestAnalyze_TTLExpiryReinvokesProvider(t *testing.T) {
	classifier := &stubClassifier{name: "openai", result: goodClassification()}
	h := newHarness(t, Deps{Vision: []vision.Classifier{classifier}})
	img := preparedImage("outfit-bytes")

	if _, _, err := h.svc.Analyze(context.Background(), img); err != nil {
		t.Fatal(err)
	}
	h.advance(time.Hour + time.Second)
	_, source, err := h.svc.Analyze(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}

	if source != models.SourceProvider {
		t.Errorf("source = %s, want provider", source)
	}
	if classifier.calls.Load() != 2 {
		t.Errorf("provider calls = %d, want 2", classifier.calls.Load())
	}
}

func TestAnalyze_AllProvidersFail(t *testing.T) {
	first := &stubClassifier{name: "openai", err: errVendor}
	second := &stubClassifier{name: "gemini", err: apperrors.NewProviderResponseError("no json", "ANALYSIS_NO_JSON", nil)}
	h := newHarness(t, Deps{Vision: []vision.Classifier{first, second}})

	result, source, err := h.svc.Analyze(context.Background(), preparedImage("x"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if first.calls.Load() != 1 || second.calls.Load() != 1 {
		t.Errorf("calls = %d/%d, want exactly one each", first.calls.Load(), second.calls.Load())
	}
	if source != models.SourceDefault {
		t.Errorf("source = %s, want default", source)
	}
	if !reflect.DeepEqual(result, FallbackAnalysis()) {
		t.Errorf("expected fallback analysis, got %+v", result)
	}
	if h.gateway.Len() != 0 {
		t.Errorf("fallback was cached: %d entries", h.gateway.Len())
	}
}

func TestAnalyze_SecondProviderAnswers(t *testing.T) {
	first := &stubClassifier{name: "openai", err: errVendor}
	second := &stubClassifier{name: "gemini", result: &vision.Classification{StyleClassification: "boho"}}
	h := newHarness(t, Deps{Vision: []vision.Classifier{first, second}})

	result, source, err := h.svc.Analyze(context.Background(), preparedImage("x"))
	if err != nil {
		t.Fatal(err)
	}
	if source != models.SourceProvider || result.StyleClassification != "boho" {
		t.Errorf("unexpected result %s %+v", source, result)
	}
	// Missing fields take defaults.
	if result.Confidence != 75 || result.Neckline != "unknown" || result.ColorPalette.Primary[0] != "#000000" {
		t.Errorf("defaults not applied: %+v", result)
	}
}

func TestNormalizeAnalysis_Confidence(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want int
	}{
		{"Above range", confidence(150), 100},
		{"Below range", confidence(-5), 0},
		{"Missing", nil, 75},
		{"Rounded", confidence(87.6), 88},
		{"Edge", confidence(100), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAnalysis(&vision.Classification{Confidence: tt.in}).Confidence
			if got != tt.want {
				t.Errorf("confidence = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAnalyze_ConfidenceClampedFromProvider(t *testing.T) {
	c := goodClassification()
	c.Confidence = confidence(150)
	h := newHarness(t, Deps{Vision: []vision.Classifier{&stubClassifier{name: "openai", result: c}}})

	result, _, err := h.svc.Analyze(context.Background(), preparedImage("x"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", result.Confidence)
	}
}

func TestAnalyze_LockedCollapsesConcurrentMisses(t *testing.T) {
	classifier := &stubClassifier{name: "openai", result: goodClassification(), delay: 20 * time.Millisecond}
	h := newHarness(t, Deps{Vision: []vision.Classifier{classifier}})
	h.svc.cache = cache.NewCoordinator(h.gateway, cache.WithLocking(h.gateway, time.Minute))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := h.svc.Analyze(context.Background(), preparedImage("same")); err != nil {
				t.Errorf("Analyze: %v", err)
			}
		}()
	}
	wg.Wait()

	if classifier.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", classifier.calls.Load())
	}
}

func TestAnalyzeOutfit(t *testing.T) {
	uploads := &fakeUploads{}
	h := newHarness(t, Deps{
		Vision:  []vision.Classifier{&stubClassifier{name: "openai", result: goodClassification()}},
		Uploads: uploads,
	})
	h.svc.opts.NewID = func() string { return "fixed-session" }
	data := testPNG(t)

	result, err := h.svc.AnalyzeOutfit(context.Background(), "user-1", data)
	if err != nil {
		t.Fatalf("AnalyzeOutfit: %v", err)
	}

	if result.Session.SessionID != "fixed-session" || result.Source != models.SourceProvider {
		t.Errorf("unexpected result %+v", result)
	}
	img := result.Session.OriginalImage
	if img == nil || img.Metadata.Width != 16 || img.Metadata.Format != "png" || !strings.HasPrefix(img.Key, "outfits/") {
		t.Errorf("unexpected original image %+v", img)
	}
	if uploads.calls != 1 {
		t.Errorf("uploads = %d, want 1", uploads.calls)
	}

	if _, err := h.store.GetSession(context.Background(), "fixed-session", "user-1"); err != nil {
		t.Errorf("session not persisted: %v", err)
	}
	u, err := h.store.GetUser(context.Background(), "user-1")
	if err != nil || u.Usage.AnalysesThisMonth != 1 {
		t.Errorf("usage not incremented: %+v %v", u, err)
	}
}

func TestAnalyzeOutfit_UsageFailureTolerated(t *testing.T) {
	mem := store.NewMemoryStore()
	h := newHarness(t, Deps{
		Vision: []vision.Classifier{&stubClassifier{name: "openai", result: goodClassification()}},
		Store:  failingUsageStore{mem},
	})

	result, err := h.svc.AnalyzeOutfit(context.Background(), "user-1", testPNG(t))
	if err != nil {
		t.Fatalf("expected usage failure to be tolerated, got %v", err)
	}
	if _, err := mem.GetSession(context.Background(), result.Session.SessionID, ""); err != nil {
		t.Errorf("session not persisted: %v", err)
	}
}

func TestAnalyzeOutfit_RejectsInvalidUpload(t *testing.T) {
	classifier := &stubClassifier{name: "openai", result: goodClassification()}
	h := newHarness(t, Deps{Vision: []vision.Classifier{classifier}})

	_, err := h.svc.AnalyzeOutfit(context.Background(), "user-1", []byte("not an image at all"))
	assertErrorType(t, err, apperrors.ErrorTypeValidation)
	if classifier.calls.Load() != 0 {
		t.Error("provider called for invalid upload")
	}
}

func TestGenerateRecommendations_CachedByAnalysisAndPreferences(t *testing.T) {
	gen := &stubRecommender{name: "anthropic", set: fullSet}
	h := newHarness(t, Deps{Recommenders: []recommend.Generator{gen}})
	seedSession(t, h, "u1", nil)
	ctx := context.Background()

	first, err := h.svc.GenerateRecommendations(ctx, "u1", "session-u1", GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateRecommendations: %v", err)
	}
	second, err := h.svc.GenerateRecommendations(ctx, "u1", "session-u1", GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if first.Source != models.SourceProvider || second.Source != models.SourceCache {
		t.Errorf("sources = %s, %s", first.Source, second.Source)
	}
	if gen.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", gen.calls.Load())
	}

	_, err = h.svc.GenerateRecommendations(ctx, "u1", "session-u1", GenerateOptions{
		Preferences: models.Preferences{BudgetRange: "luxury"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if gen.calls.Load() != 2 {
		t.Errorf("different preferences should miss the cache, calls = %d", gen.calls.Load())
	}
}

func TestGenerateRecommendations_AllProvidersFail(t *testing.T) {
	first := &stubRecommender{name: "anthropic", err: errVendor}
	second := &stubRecommender{name: "openai", err: errVendor}
	h := newHarness(t, Deps{Recommenders: []recommend.Generator{first, second}})
	session := seedSession(t, h, "u1", nil)

	result, err := h.svc.GenerateRecommendations(context.Background(), "u1", "session-u1", GenerateOptions{})
	if err != nil {
		t.Fatalf("GenerateRecommendations: %v", err)
	}

	if first.calls.Load() != 1 || second.calls.Load() != 1 {
		t.Errorf("calls = %d/%d, want one each", first.calls.Load(), second.calls.Load())
	}
	if result.Source != models.SourceDefault {
		t.Errorf("source = %s, want default", result.Source)
	}
	if !reflect.DeepEqual(result.Recommendations.Nails.Colors, session.Analysis.ColorPalette.Primary) {
		t.Errorf("nails colors = %v, want %v", result.Recommendations.Nails.Colors, session.Analysis.ColorPalette.Primary)
	}
	if result.Recommendations.Jewelry.Necklace.Name != "Simple Chain Necklace" {
		t.Errorf("expected fallback jewelry, got %+v", result.Recommendations.Jewelry)
	}
	if h.gateway.Len() != 0 {
		t.Errorf("fallback was cached: %d entries", h.gateway.Len())
	}

	stored, _ := h.store.GetSession(context.Background(), "session-u1", "u1")
	if stored.Recommendations == nil || stored.Recommendations.Henna == nil {
		t.Error("fallback recommendations not persisted on session")
	}
}

func TestGenerateRecommendations_FillsMissingCategories(t *testing.T) {
	gen := &stubRecommender{name: "anthropic", set: func(recommend.Request) *models.RecommendationSet {
		return &models.RecommendationSet{
			Jewelry: &models.JewelryRecommendation{Necklace: models.Necklace{Name: "Choker"}},
			Nails:   &models.NailRecommendation{ArtStyle: "ombre"},
		}
	}}
	h := newHarness(t, Deps{Recommenders: []recommend.Generator{gen}})
	session := seedSession(t, h, "u1", nil)

	result, err := h.svc.GenerateRecommendations(context.Background(), "u1", "session-u1", GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	recs := result.Recommendations
	if recs.Jewelry.Necklace.Name != "Choker" {
		t.Errorf("provider jewelry replaced: %+v", recs.Jewelry)
	}
	if recs.Makeup == nil || recs.Hair == nil || recs.Henna == nil {
		t.Errorf("missing categories not filled: %+v", recs)
	}
	if !reflect.DeepEqual(recs.Nails.Colors, session.Analysis.ColorPalette.Primary) {
		t.Errorf("empty nail colors should take primary palette, got %v", recs.Nails.Colors)
	}
	if result.Source != models.SourceProvider {
		t.Errorf("source = %s", result.Source)
	}
}

func TestGenerateRecommendations_FillsMissingFields(t *testing.T) {
	gen := &stubRecommender{name: "anthropic", set: func(recommend.Request) *models.RecommendationSet {
		set := fullSet(recommend.Request{})
		set.Nails = &models.NailRecommendation{Colors: []string{"#990000"}}
		return set
	}}
	h := newHarness(t, Deps{Recommenders: []recommend.Generator{gen}})
	seedSession(t, h, "u1", nil)

	result, err := h.svc.GenerateRecommendations(context.Background(), "u1", "session-u1", GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	nails := result.Recommendations.Nails
	if !reflect.DeepEqual(nails.Colors, []string{"#990000"}) {
		t.Errorf("provider colors replaced: %v", nails.Colors)
	}
	if nails.Shape != "oval" || nails.Length != "medium" || nails.ArtStyle != "minimalist" {
		t.Errorf("empty nail fields not defaulted: %+v", nails)
	}
	if len(nails.Designs) == 0 {
		t.Error("empty nail designs not defaulted")
	}

	jewelry := result.Recommendations.Jewelry
	if jewelry.Necklace.Name != "Pearl Strand" {
		t.Errorf("provider necklace name replaced: %q", jewelry.Necklace.Name)
	}
	if jewelry.Necklace.Metal == "" || jewelry.Earrings.Name == "" {
		t.Errorf("empty jewelry fields not defaulted: %+v", jewelry)
	}

	// The cached copy is the normalized one.
	cached, ok := h.gateway.Get(context.Background(), RecommendationKey(NormalizeAnalysis(goodClassification()), models.Preferences{}, ""))
	if !ok {
		t.Fatal("recommendations not cached")
	}
	var stored models.RecommendationSet
	if err := json.Unmarshal(cached, &stored); err != nil {
		t.Fatal(err)
	}
	if stored.Nails.Shape != "oval" {
		t.Errorf("cached nails shape = %q, want default", stored.Nails.Shape)
	}
}

func TestNormalizeRecommendations_CategoryScope(t *testing.T) {
	analysis := NormalizeAnalysis(goodClassification())
	set := &models.RecommendationSet{
		Nails:   &models.NailRecommendation{Shape: "square"},
		Jewelry: &models.JewelryRecommendation{},
	}

	out := NormalizeRecommendations(set, analysis, models.CategoryNails)

	if out.Nails.Shape != "square" || out.Nails.Length != "medium" {
		t.Errorf("nails = %+v", out.Nails)
	}
	if out.Jewelry.Necklace.Name != "" {
		t.Errorf("out-of-scope category was filled: %+v", out.Jewelry)
	}
	if out.Makeup != nil {
		t.Error("out-of-scope missing category was filled")
	}
}

func TestGenerateRecommendations_FreeTierNailArtDenied(t *testing.T) {
	gen := &stubRecommender{name: "anthropic", set: fullSet}
	imager := &stubImager{name: "dalle", urls: []string{"https://img/1.png"}}
	h := newHarness(t, Deps{
		Recommenders: []recommend.Generator{gen},
		Images:       []imagegen.Generator{imager},
	})
	seedSession(t, h, "u1", nil)
	seedUser(t, h, "u1", models.TierFree)

	_, err := h.svc.GenerateRecommendations(context.Background(), "u1", "session-u1", GenerateOptions{IncludeNailArt: true})
	assertErrorType(t, err, apperrors.ErrorTypeEntitlementDenied)

	if imager.calls.Load() != 0 {
		t.Errorf("image provider called %d times", imager.calls.Load())
	}
	if gen.calls.Load() != 0 {
		t.Errorf("recommendation provider called %d times", gen.calls.Load())
	}
}

func TestGenerateRecommendations_UnknownUserIsFreeTier(t *testing.T) {
	imager := &stubImager{name: "dalle"}
	h := newHarness(t, Deps{Images: []imagegen.Generator{imager}})
	seedSession(t, h, "ghost", nil)

	_, err := h.svc.GenerateRecommendations(context.Background(), "ghost", "session-ghost", GenerateOptions{IncludeHenna: true})
	assertErrorType(t, err, apperrors.ErrorTypeEntitlementDenied)
}

func TestGenerateRecommendations_MoodboardRequiresProfessional(t *testing.T) {
	imager := &stubImager{name: "dalle", urls: []string{"https://img/board.png"}}
	h := newHarness(t, Deps{
		Recommenders: []recommend.Generator{&stubRecommender{name: "anthropic", set: fullSet}},
		Images:       []imagegen.Generator{imager},
	})
	seedSession(t, h, "u1", nil)
	seedUser(t, h, "u1", models.TierPremium)

	_, err := h.svc.GenerateRecommendations(context.Background(), "u1", "session-u1", GenerateOptions{GenerateMoodboard: true})
	assertErrorType(t, err, apperrors.ErrorTypeEntitlementDenied)
	if imager.calls.Load() != 0 {
		t.Errorf("image provider called %d times", imager.calls.Load())
	}

	seedUser(t, h, "u1", models.TierProfessional)
	result, err := h.svc.GenerateRecommendations(context.Background(), "u1", "session-u1", GenerateOptions{GenerateMoodboard: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.MoodboardURL != "https://img/board.png" {
		t.Errorf("moodboard = %q", result.MoodboardURL)
	}
	stored, _ := h.store.GetSession(context.Background(), "session-u1", "u1")
	if stored.MoodboardURL != result.MoodboardURL {
		t.Error("moodboard not persisted")
	}
}

func TestGenerateRecommendations_PremiumImagesAndProducts(t *testing.T) {
	failing := &stubImager{name: "dalle", err: errVendor}
	working := &stubImager{name: "replicate", urls: []string{"https://img/nails.png"}}
	h := newHarness(t, Deps{
		Recommenders: []recommend.Generator{&stubRecommender{name: "anthropic", set: fullSet}},
		Images:       []imagegen.Generator{failing, working},
	})
	seedSession(t, h, "u1", nil)
	seedUser(t, h, "u1", models.TierPremium)

	result, err := h.svc.GenerateRecommendations(context.Background(), "u1", "session-u1", GenerateOptions{
		IncludeNailArt:  true,
		IncludeHenna:    true,
		IncludeProducts: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := result.Recommendations.Nails.GeneratedImages; len(got) != 1 || got[0] != "https://img/nails.png" {
		t.Errorf("nail images = %v", got)
	}
	if len(result.Recommendations.Henna.GeneratedImages) != 1 {
		t.Errorf("henna images = %v", result.Recommendations.Henna.GeneratedImages)
	}
	if len(result.ProductMatches) != 3 {
		t.Errorf("product matches = %d, want jewelry, makeup and nails", len(result.ProductMatches))
	}

	// Images are attached after caching; a later plain request gets none.
	plain, err := h.svc.GenerateRecommendations(context.Background(), "u1", "session-u1", GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(plain.Recommendations.Nails.GeneratedImages) != 0 {
		t.Errorf("generated images leaked into cache: %v", plain.Recommendations.Nails.GeneratedImages)
	}
}

func TestGenerateRecommendations_SessionNotFound(t *testing.T) {
	h := newHarness(t, Deps{})
	seedSession(t, h, "owner", nil)

	_, err := h.svc.GenerateRecommendations(context.Background(), "intruder", "session-owner", GenerateOptions{})
	assertErrorType(t, err, apperrors.ErrorTypeNotFound)
}

func TestGenerateRecommendations_MergesStoredPreferences(t *testing.T) {
	gen := &stubRecommender{name: "anthropic", set: fullSet}
	h := newHarness(t, Deps{Recommenders: []recommend.Generator{gen}})
	seedSession(t, h, "u1", nil)
	u := store.NewUser("u1", h.now())
	u.Profile.Preferences = models.Preferences{BudgetRange: "budget", CulturalBackground: "south-asian"}
	_ = h.store.SaveUser(context.Background(), u)

	_, err := h.svc.GenerateRecommendations(context.Background(), "u1", "session-u1", GenerateOptions{
		Preferences: models.Preferences{BudgetRange: "luxury"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got := gen.lastReq.Preferences
	if got.BudgetRange != "luxury" || got.CulturalBackground != "south-asian" {
		t.Errorf("merged preferences = %+v", got)
	}
}

func TestRegenerateCategory_LeavesOtherCategoriesUntouched(t *testing.T) {
	gen := &stubRecommender{name: "anthropic", set: func(req recommend.Request) *models.RecommendationSet {
		if req.Category != models.CategoryNails {
			t.Errorf("category = %q, want nails", req.Category)
		}
		return &models.RecommendationSet{Nails: &models.NailRecommendation{Colors: []string{"#00ff00"}, Shape: "almond"}}
	}}
	h := newHarness(t, Deps{Recommenders: []recommend.Generator{gen}})

	before := fullSet(recommend.Request{})
	before.Henna.GeneratedImages = []string{"https://img/henna.png"}
	seedSession(t, h, "u1", before)

	result, err := h.svc.RegenerateCategory(context.Background(), "u1", "session-u1", models.CategoryNails, RegenerateOptions{})
	if err != nil {
		t.Fatalf("RegenerateCategory: %v", err)
	}

	nails, ok := result.Recommendations.(*models.NailRecommendation)
	if !ok || nails.Shape != "almond" {
		t.Fatalf("unexpected regenerated record %#v", result.Recommendations)
	}

	after, _ := h.store.GetSession(context.Background(), "session-u1", "u1")
	if !reflect.DeepEqual(after.Recommendations.Jewelry, before.Jewelry) {
		t.Errorf("jewelry changed: %+v", after.Recommendations.Jewelry)
	}
	if !reflect.DeepEqual(after.Recommendations.Makeup, before.Makeup) {
		t.Errorf("makeup changed: %+v", after.Recommendations.Makeup)
	}
	if !reflect.DeepEqual(after.Recommendations.Henna, before.Henna) {
		t.Errorf("henna changed: %+v", after.Recommendations.Henna)
	}
	if after.Recommendations.Nails.Shape != "almond" {
		t.Errorf("nails not replaced: %+v", after.Recommendations.Nails)
	}
}

func TestRegenerateCategory_CategoryScopedCache(t *testing.T) {
	gen := &stubRecommender{name: "anthropic", set: fullSet}
	h := newHarness(t, Deps{Recommenders: []recommend.Generator{gen}})
	session := seedSession(t, h, "u1", nil)
	ctx := context.Background()

	for range 2 {
		if _, err := h.svc.RegenerateCategory(ctx, "u1", "session-u1", models.CategoryHair, RegenerateOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	if gen.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", gen.calls.Load())
	}

	key := RecommendationKey(session.Analysis, models.Preferences{}, models.CategoryHair)
	raw, ok := h.gateway.Get(ctx, key)
	if !ok {
		t.Fatal("category result not cached under its scoped key")
	}
	var cached models.RecommendationSet
	_ = json.Unmarshal(raw, &cached)
	if cached.Hair == nil || cached.Jewelry != nil {
		t.Errorf("scoped cache entry should hold only hair: %+v", cached)
	}
}

func TestRegenerateCategory_ImagesGated(t *testing.T) {
	imager := &stubImager{name: "replicate", urls: []string{"https://img/h.png"}}
	h := newHarness(t, Deps{
		Recommenders: []recommend.Generator{&stubRecommender{name: "anthropic", set: fullSet}},
		Images:       []imagegen.Generator{imager},
	})
	seedSession(t, h, "u1", nil)

	_, err := h.svc.RegenerateCategory(context.Background(), "u1", "session-u1", models.CategoryHenna, RegenerateOptions{IncludeImages: true})
	assertErrorType(t, err, apperrors.ErrorTypeEntitlementDenied)

	// Images are ignored for categories without image support.
	if _, err := h.svc.RegenerateCategory(context.Background(), "u1", "session-u1", models.CategoryMakeup, RegenerateOptions{IncludeImages: true}); err != nil {
		t.Errorf("makeup regeneration should not need entitlement: %v", err)
	}

	seedUser(t, h, "u1", models.TierPremium)
	result, err := h.svc.RegenerateCategory(context.Background(), "u1", "session-u1", models.CategoryHenna, RegenerateOptions{IncludeImages: true})
	if err != nil {
		t.Fatal(err)
	}
	if henna := result.Recommendations.(*models.HennaRecommendation); len(henna.GeneratedImages) != 1 {
		t.Errorf("henna images = %v", henna.GeneratedImages)
	}
}

func TestRegenerateCategory_InvalidCategory(t *testing.T) {
	h := newHarness(t, Deps{})
	_, err := h.svc.RegenerateCategory(context.Background(), "u1", "s", models.Category("shoes"), RegenerateOptions{})
	assertErrorType(t, err, apperrors.ErrorTypeValidation)
}

func TestRecommendationKey(t *testing.T) {
	a := NormalizeAnalysis(goodClassification())
	full := RecommendationKey(a, models.Preferences{}, "")
	if !strings.HasPrefix(full, "recommendations:all:") || len(full) != len("recommendations:all:")+64 {
		t.Errorf("unexpected key %s", full)
	}
	if full != RecommendationKey(a, models.Preferences{}, "") {
		t.Error("key not deterministic")
	}
	if !strings.HasPrefix(RecommendationKey(a, models.Preferences{}, models.CategoryNails), "recommendations:nails:") {
		t.Error("category scope missing from key")
	}
	if full == RecommendationKey(a, models.Preferences{Occasions: []string{"gala"}}, "") {
		t.Error("preferences do not affect key")
	}
	if !strings.HasPrefix(AnalysisKey([]byte("img")), "analysis:") {
		t.Error("analysis key prefix missing")
	}
}

func TestListHistoryAndSaved(t *testing.T) {
	h := newHarness(t, Deps{})
	ctx := context.Background()
	for i := range 5 {
		s := &models.StyleSession{
			SessionID:       "s" + string(rune('a'+i)),
			UserID:          "u1",
			OriginalImage:   &models.OriginalImage{URL: "https://x"},
			Recommendations: &models.RecommendationSet{Nails: &models.NailRecommendation{}},
			CreatedAt:       h.now().Add(time.Duration(i) * time.Minute),
		}
		_ = h.store.CreateSession(ctx, s)
	}

	page, err := h.svc.ListHistory(ctx, "u1", validation.Pagination{Page: 2, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := PageInfo{Current: 2, Total: 3, HasNext: true, HasPrev: true}
	if page.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, want)
	}
	if len(page.Sessions) != 2 || page.Sessions[0].OriginalImage != nil {
		t.Errorf("unexpected page %+v", page.Sessions)
	}

	if err := h.svc.SetSaved(ctx, "u1", "sa", true); err != nil {
		t.Fatal(err)
	}
	saved, err := h.svc.ListSaved(ctx, "u1", models.CategoryNails, validation.Pagination{Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Sessions) != 1 || saved.Sessions[0].SessionID != "sa" {
		t.Errorf("saved = %+v", saved.Sessions)
	}
	if saved.Pagination.HasNext || saved.Pagination.HasPrev || saved.Pagination.Total != 1 {
		t.Errorf("saved pagination = %+v", saved.Pagination)
	}

	err = h.svc.SetSaved(ctx, "u2", "sa", false)
	assertErrorType(t, err, apperrors.ErrorTypeNotFound)
}

func TestGetSession_RecordsView(t *testing.T) {
	h := newHarness(t, Deps{})
	seedSession(t, h, "u1", nil)
	h.advance(time.Hour)

	got, err := h.svc.GetSession(context.Background(), "u1", "session-u1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.UserInteraction.Viewed.Equal(h.now()) {
		t.Errorf("viewed = %v, want %v", got.UserInteraction.Viewed, h.now())
	}
}

func TestSubmitFeedback(t *testing.T) {
	h := newHarness(t, Deps{})
	seedSession(t, h, "u1", nil)
	liked := true

	interaction, err := h.svc.SubmitFeedback(context.Background(), "u1", "session-u1", models.Feedback{Rating: 4, Helpful: true}, &liked)
	if err != nil {
		t.Fatal(err)
	}
	if !interaction.Liked || interaction.Feedback.Rating != 4 {
		t.Errorf("unexpected interaction %+v", interaction)
	}

	_, err = h.svc.SubmitFeedback(context.Background(), "u1", "session-u1", models.Feedback{Rating: 9}, nil)
	assertErrorType(t, err, apperrors.ErrorTypeValidation)
}

func TestProfileAndUsage(t *testing.T) {
	h := newHarness(t, Deps{})
	ctx := context.Background()

	u, err := h.svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{
		Name:        "Ada",
		Preferences: &models.Preferences{FavoriteColors: []string{"emerald"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if u.Profile.Name != "Ada" || u.Subscription.Plan != models.TierFree {
		t.Errorf("unexpected user %+v", u)
	}

	u, err = h.svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{SkinTone: "warm"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Profile.Name != "Ada" || u.Profile.SkinTone != "warm" || u.Profile.Preferences.FavoriteColors[0] != "emerald" {
		t.Errorf("partial update lost fields: %+v", u.Profile)
	}

	for range 12 {
		_ = h.store.IncrementUsage(ctx, "u1", h.now())
	}
	usage, err := h.svc.Usage(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if usage.AnalysesLimit != 10 || usage.AnalysesThisMonth != 12 || usage.AnalysesRemaining != 0 {
		t.Errorf("unexpected usage %+v", usage)
	}

	_, err = h.svc.UpdateProfile(ctx, "u1", models.ProfileUpdate{SkinTone: "green"})
	assertErrorType(t, err, apperrors.ErrorTypeValidation)
}

func TestGenerateOptions_AcceptsMoodboardImageField(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{`{"generateMoodboard": true}`, true},
		{`{"generateMoodboardImage": true}`, true},
		{`{"generateMoodboardImage": false}`, false},
		{`{"includeNailArt": true}`, false},
	}

	for _, tt := range tests {
		var opts GenerateOptions
		if err := json.Unmarshal([]byte(tt.body), &opts); err != nil {
			t.Fatalf("%s: %v", tt.body, err)
		}
		if opts.GenerateMoodboard != tt.want {
			t.Errorf("%s: GenerateMoodboard = %v, want %v", tt.body, opts.GenerateMoodboard, tt.want)
		}
	}

	var opts GenerateOptions
	if err := json.Unmarshal([]byte(`{"includeHenna": true, "preferences": {"budgetRange": "mid"}}`), &opts); err != nil {
		t.Fatal(err)
	}
	if !opts.IncludeHenna || opts.Preferences.BudgetRange != "mid" {
		t.Errorf("other fields not decoded: %+v", opts)
	}
}
