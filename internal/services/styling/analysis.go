package styling

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	apperrors "github.com/glamlens/stylist/internal/errors"
	"github.com/glamlens/stylist/internal/metrics"
	"github.com/glamlens/stylist/internal/models"
	"github.com/glamlens/stylist/internal/services/fallback"
	"github.com/glamlens/stylist/internal/services/vision"
	"github.com/glamlens/stylist/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AnalyzeResult is a newly created session and where its analysis came from.
type AnalyzeResult struct {
	Session *models.StyleSession `json:"session"`
	Source  models.Source        `json:"source"`
}

// Analyze classifies a prepared image. Results are cached by the content
// hash of the original bytes; the static fallback is returned, uncached,
// when every provider fails.
func (s *Service) Analyze(ctx context.Context, img *validation.PreparedImage) (models.AnalysisResult, models.Source, error) {
	ctx, span := tracer.Start(ctx, "styling.Analyze")
	defer span.End()
	start := time.Now()

	input := vision.Image{Data: img.Vision, MIMEType: img.VisionMIMEType}
	key := AnalysisKey(img.Original)

	outcome, err := s.cache.Load(ctx, key, s.opts.AnalysisTTL, func(ctx context.Context) ([]byte, bool, error) {
		classification, report := fallback.Resolve(ctx, capabilityVision, s.vision,
			func(ctx context.Context, c vision.Classifier) (*vision.Classification, error) {
				return c.ClassifyImage(ctx, input)
			},
			func() *vision.Classification { return nil },
		)

		result := FallbackAnalysis()
		if !report.UsedDefault {
			result = NormalizeAnalysis(classification)
		}
		data, err := json.Marshal(result)
		return data, !report.UsedDefault, err
	})
	if err != nil {
		span.RecordError(err)
		return models.AnalysisResult{}, "", apperrors.NewInternalError("Failed to analyze image", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(outcome.Value, &result); err != nil {
		span.RecordError(err)
		return models.AnalysisResult{}, "", apperrors.NewInternalError("Cached analysis is unreadable", err)
	}

	source := sourceOf(outcome)
	attrs := metric.WithAttributes(
		attribute.String("pipeline", capabilityVision),
		attribute.String("source", string(source)),
	)
	metrics.AnalysisRequestsTotal.Add(ctx, 1, attrs)
	metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	span.SetAttributes(attribute.String("styling.source", string(source)))

	return result, source, nil
}

// AnalyzeOutfit validates an upload, analyzes it and records a new session
// for userID. The original photo is stored when uploads are configured.
// A failed usage update never fails the analysis.
func (s *Service) AnalyzeOutfit(ctx context.Context, userID string, upload []byte) (*AnalyzeResult, error) {
	prepared, err := validation.PrepareImage(upload, s.opts.Upload)
	if err != nil {
		return nil, err
	}

	analysis, source, err := s.Analyze(ctx, prepared)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &models.StyleSession{
		SessionID:       s.opts.NewID(),
		UserID:          userID,
		OriginalImage:   &models.OriginalImage{Metadata: prepared.Metadata},
		Analysis:        analysis,
		UserInteraction: models.UserInteraction{Viewed: now},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if s.uploads != nil {
		stored, err := s.uploads.UploadImageWithHash(ctx, prepared.Original, prepared.MIMEType)
		if err != nil {
			slog.WarnContext(ctx, "Failed to store original image", "session_id", session.SessionID, "error", err)
		} else {
			session.OriginalImage.Key = stored.Key
			session.OriginalImage.URL = stored.URL
		}
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, storeError(err, "session")
	}

	if userID != "" {
		if err := s.store.IncrementUsage(ctx, userID, now); err != nil {
			slog.WarnContext(ctx, "Failed to update usage", "user_id", userID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Analysis completed",
		"session_id", session.SessionID,
		"user_id", userID,
		"source", source,
		"confidence", analysis.Confidence,
	)

	return &AnalyzeResult{Session: session, Source: source}, nil
}
