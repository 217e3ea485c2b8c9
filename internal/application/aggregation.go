package application

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/realizewhoitis/training-tracker-sub001/internal/domain"
	"github.com/realizewhoitis/training-tracker-sub001/internal/ports"
)

// Metric names recorded by the engine services.
const (
	metricResponsesScored  = "responses_scored_total"
	metricResponsesSkipped = "responses_skipped_total"
	metricFlagsRaised      = "flags_raised_total"
	metricScanMean         = "risk_scan_pooled_mean"
)

// TrendPoint is one element of a trainee's performance trend: the mean
// of all accepted ratings on a single response. ResponseID links the
// point back to its source record for UI drill-down.
type TrendPoint struct {
	Date       time.Time         `json:"date"`
	Average    float64           `json:"average"`
	ResponseID domain.ResponseID `json:"response_id"`
}

// CategoryScore is one pooled category average across a trainee's whole
// eligible history. ScaleMax is the rating ceiling for chart axes.
type CategoryScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	ScaleMax int     `json:"scale_max"`
}

// Aggregator computes the read-side trend and category views for one
// trainee. It never mutates store state, holds no cross-call state, and
// recomputes fresh on every call; it is safe for concurrent use.
type Aggregator struct {
	cfg       EngineConfig
	templates ports.TemplateStore
	responses ports.ResponseStore
	resolver  CategoryResolver
	metrics   ports.MetricsCollector
	logger    *slog.Logger
	tracer    trace.Tracer
}

// AggregatorOption applies a configuration option to the Aggregator.
type AggregatorOption func(*Aggregator)

// WithCategoryResolver replaces the default exact-title category join.
func WithCategoryResolver(r CategoryResolver) AggregatorOption {
	return func(a *Aggregator) {
		if r != nil {
			a.resolver = r
		}
	}
}

// WithAggregatorMetrics sets the metrics collector.
func WithAggregatorMetrics(m ports.MetricsCollector) AggregatorOption {
	return func(a *Aggregator) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithAggregatorLogger sets a custom logger.
func WithAggregatorLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an Aggregator over the given stores.
// Returns an error if the configuration is invalid.
func NewAggregator(cfg EngineConfig, templates ports.TemplateStore, responses ports.ResponseStore, opts ...AggregatorOption) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Aggregator{
		cfg:       cfg,
		templates: templates,
		responses: responses,
		resolver:  TitleResolver{},
		metrics:   ports.NopMetrics{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("aggregator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// GetTrend returns the trainee's time-ordered performance trend: one
// point per SUBMITTED or REVIEWED response, ascending by submission
// date. Each point's average is the arithmetic mean over exactly the
// accepted ratings on that response; a response with zero accepted
// ratings still appears, with average 0.
//
// An unauthenticated caller gets an empty sequence, not an error.
// Responses with malformed answer payloads or missing templates are
// skipped and the remainder processed.
func (a *Aggregator) GetTrend(ctx context.Context, caller Caller, trainee domain.PersonID) ([]TrendPoint, error) {
	ctx, span := a.tracer.Start(ctx, "Aggregator.GetTrend",
		trace.WithAttributes(attribute.Int64("trainee.id", int64(trainee))),
	)
	defer span.End()

	start := time.Now()

	if !caller.Authenticated() {
		return []TrendPoint{}, nil
	}

	responses, err := a.responses.ListByTrainee(ctx, trainee, domain.StatusSubmitted, domain.StatusReviewed)
	if err != nil {
		err = domain.NewStoreError("list_responses", err)
		span.RecordError(err)
		return nil, err
	}

	points := make([]TrendPoint, 0, len(responses))
	for _, resp := range responses {
		tpl, sheet, ok, err := a.resolveResponse(ctx, resp)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if !ok {
			continue
		}

		var total float64
		var count int
		for _, f := range tpl.RatingFields() {
			if outcome := domain.NormalizeAnswer(sheet, f.ID); outcome.Accepted() {
				total += float64(outcome.Value)
				count++
			}
		}

		// A response where every answer was blank or a sentinel still
		// produces a data point; the weak default is 0, not omission.
		avg := 0.0
		if count > 0 {
			avg = round2(total / float64(count))
		}
		points = append(points, TrendPoint{
			Date:       resp.SubmittedAt,
			Average:    avg,
			ResponseID: resp.ID,
		})
	}

	a.metrics.RecordCounter(metricResponsesScored, float64(len(points)), map[string]string{"operation": "trend"})
	a.metrics.RecordLatency("get_trend", time.Since(start), nil)
	span.SetAttributes(attribute.Int("trend.points", len(points)))
	return points, nil
}

// GetCategoryAverages returns the trainee's pooled per-category averages
// across all eligible history. Ratings accumulate into buckets keyed by
// resolved section title, so the same title recurring across different
// templates or responses pools into one bucket. Buckets appear in
// first-seen order; a bucket whose section appeared but collected no
// accepted ratings is still emitted with score 0.
//
// An unauthenticated caller gets an empty sequence, not an error.
func (a *Aggregator) GetCategoryAverages(ctx context.Context, caller Caller, trainee domain.PersonID) ([]CategoryScore, error) {
	ctx, span := a.tracer.Start(ctx, "Aggregator.GetCategoryAverages",
		trace.WithAttributes(attribute.Int64("trainee.id", int64(trainee))),
	)
	defer span.End()

	start := time.Now()

	if !caller.Authenticated() {
		return []CategoryScore{}, nil
	}

	responses, err := a.responses.ListByTrainee(ctx, trainee, domain.StatusSubmitted, domain.StatusReviewed)
	if err != nil {
		err = domain.NewStoreError("list_responses", err)
		span.RecordError(err)
		return nil, err
	}

	type bucket struct {
		total float64
		count int
	}
	buckets := make(map[string]*bucket)
	var order []string

	for _, resp := range responses {
		tpl, sheet, ok, err := a.resolveResponse(ctx, resp)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if !ok {
			continue
		}

		for _, sec := range tpl.Sections {
			key := a.resolver.Resolve(sec.Title)
			b, seen := buckets[key]
			if !seen {
				b = &bucket{}
				buckets[key] = b
				order = append(order, key)
			}
			for _, f := range sec.Fields {
				if !f.Type.Scored() {
					continue
				}
				if outcome := domain.NormalizeAnswer(sheet, f.ID); outcome.Accepted() {
					b.total += float64(outcome.Value)
					b.count++
				}
			}
		}
	}

	scores := make([]CategoryScore, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		score := 0.0
		if b.count > 0 {
			score = round2(b.total / float64(b.count))
		}
		scores = append(scores, CategoryScore{
			Category: key,
			Score:    score,
			ScaleMax: a.cfg.ScaleMax,
		})
	}

	a.metrics.RecordLatency("get_category_averages", time.Since(start), nil)
	span.SetAttributes(attribute.Int("categories.count", len(scores)))
	return scores, nil
}

// resolveResponse decodes a response's answer payload and loads its
// template. ok=false means the record was skipped (malformed payload or
// vanished template) after logging and counting; a non-nil error is a
// store failure and aborts the current call.
func (a *Aggregator) resolveResponse(ctx context.Context, resp domain.Response) (*domain.Template, domain.AnswerSheet, bool, error) {
	sheet, err := resp.DecodeAnswers()
	if err != nil {
		a.logger.WarnContext(ctx, "skipping response with malformed answers",
			"response_id", resp.ID, "error", err)
		a.metrics.RecordCounter(metricResponsesSkipped, 1, map[string]string{"reason": "malformed_answers"})
		return nil, nil, false, nil
	}

	tpl, err := a.templates.GetTemplate(ctx, resp.TemplateID)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		a.logger.WarnContext(ctx, "skipping response with missing template",
			"response_id", resp.ID, "template_id", resp.TemplateID)
		a.metrics.RecordCounter(metricResponsesSkipped, 1, map[string]string{"reason": "template_missing"})
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, domain.NewStoreError("get_template", err)
	}
	return tpl, sheet, true, nil
}

// round2 rounds to two decimal places, the precision the trend and
// category views report.
func round2(v float64) float64 { return math.Round(v*100) / 100 }
