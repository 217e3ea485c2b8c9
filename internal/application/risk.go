package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/realizewhoitis/training-tracker-sub001/internal/domain"
	"github.com/realizewhoitis/training-tracker-sub001/internal/ports"
)

// RiskEvaluator scans a trainee's recent reviewed responses for
// sustained low performance and raises severity-tagged flags. Each scan
// is an independent read-then-create with no compare-and-set; a person
// who already has an open flag gets another one if they still qualify.
// Any stronger guarantee belongs to the flag store.
type RiskEvaluator struct {
	cfg       EngineConfig
	templates ports.TemplateStore
	responses ports.ResponseStore
	flags     ports.FlagStore
	metrics   ports.MetricsCollector
	logger    *slog.Logger
	tracer    trace.Tracer
	limiter   *rate.Limiter
	now       func() time.Time
}

// RiskOption applies a configuration option to the RiskEvaluator.
type RiskOption func(*RiskEvaluator)

// WithRiskMetrics sets the metrics collector.
func WithRiskMetrics(m ports.MetricsCollector) RiskOption {
	return func(e *RiskEvaluator) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithRiskLogger sets a custom logger.
func WithRiskLogger(l *slog.Logger) RiskOption {
	return func(e *RiskEvaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the evaluation-time source. The trailing window is
// anchored at this clock's now; tests pin it to exercise the window
// boundaries deterministically.
func WithClock(now func() time.Time) RiskOption {
	return func(e *RiskEvaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewRiskEvaluator creates a RiskEvaluator over the given stores.
// Returns an error if the configuration is invalid.
func NewRiskEvaluator(cfg EngineConfig, templates ports.TemplateStore, responses ports.ResponseStore, flags ports.FlagStore, opts ...RiskOption) (*RiskEvaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &RiskEvaluator{
		cfg:       cfg,
		templates: templates,
		responses: responses,
		flags:     flags,
		metrics:   ports.NopMetrics{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("risk-evaluator"),
		now:       time.Now,
	}
	if cfg.StoreRateLimit > 0 {
		// Burst of one keeps sweep reads evenly paced.
		e.limiter = rate.NewLimiter(rate.Limit(cfg.StoreRateLimit), 1)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ScanForRisk pools every accepted rating across all fields of all
// sections of the trainee's REVIEWED responses submitted within the
// trailing window (inclusive lower bound, evaluation-time upper bound)
// and raises a flag when the grand mean sits below a threshold:
// strictly below HighBelow raises HIGH, otherwise strictly below
// MediumBelow raises MEDIUM. A mean exactly on MediumBelow, or an empty
// pool, raises nothing and returns (nil, nil).
//
// The raised flag is persisted OPEN before being returned; its
// description carries the pooled mean to one decimal place.
func (e *RiskEvaluator) ScanForRisk(ctx context.Context, trainee domain.PersonID) (*domain.Flag, error) {
	ctx, span := e.tracer.Start(ctx, "RiskEvaluator.ScanForRisk",
		trace.WithAttributes(
			attribute.Int64("trainee.id", int64(trainee)),
			attribute.Int("config.window_days", e.cfg.WindowDays),
		),
	)
	defer span.End()

	start := time.Now()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	evalTime := e.now()
	since := evalTime.AddDate(0, 0, -e.cfg.WindowDays)

	responses, err := e.responses.ListReviewedSince(ctx, trainee, since)
	if err != nil {
		err = domain.NewStoreError("list_reviewed", err)
		span.RecordError(err)
		return nil, err
	}

	var total float64
	var count int
	for _, resp := range responses {
		tpl, sheet, ok, err := e.resolveResponse(ctx, resp)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if !ok {
			continue
		}
		for _, f := range tpl.RatingFields() {
			if outcome := domain.NormalizeAnswer(sheet, f.ID); outcome.Accepted() {
				total += float64(outcome.Value)
				count++
			}
		}
	}

	span.SetAttributes(attribute.Int("scan.pooled_count", count))
	e.metrics.RecordLatency("scan_for_risk", time.Since(start), nil)

	if count == 0 {
		return nil, nil
	}

	mean := total / float64(count)
	e.metrics.RecordHistogram(metricScanMean, mean, nil)
	span.SetAttributes(attribute.Float64("scan.pooled_mean", mean))

	var severity domain.Severity
	switch {
	case mean < e.cfg.HighBelow:
		severity = domain.SeverityHigh
	case mean < e.cfg.MediumBelow:
		severity = domain.SeverityMedium
	default:
		return nil, nil
	}

	description := fmt.Sprintf("Average evaluation rating of %.1f over the last %d days",
		mean, e.cfg.WindowDays)
	flag := domain.NewPerformanceFlag(trainee, severity, description, evalTime)

	if err := e.flags.CreateFlag(ctx, flag); err != nil {
		err = domain.NewStoreError("create_flag", err)
		span.RecordError(err)
		return nil, err
	}

	e.metrics.RecordCounter(metricFlagsRaised, 1, map[string]string{"severity": string(severity)})
	e.logger.InfoContext(ctx, "raised performance flag",
		"trainee_id", trainee,
		"severity", severity,
		"pooled_mean", mean,
		"pooled_count", count,
	)
	return flag, nil
}

// ScanPopulation runs ScanForRisk for every given trainee with bounded
// concurrency and returns the flags that were raised. Per-person
// failures are logged and counted but never abort the sweep; only
// context cancellation stops it early. Persons are independent, so scans
// share no mutable state.
func (e *RiskEvaluator) ScanPopulation(ctx context.Context, trainees []domain.PersonID) ([]*domain.Flag, error) {
	ctx, span := e.tracer.Start(ctx, "RiskEvaluator.ScanPopulation",
		trace.WithAttributes(attribute.Int("scan.population", len(trainees))),
	)
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ScanConcurrency)

	var mu sync.Mutex
	var flags []*domain.Flag

	for _, trainee := range trainees {
		trainee := trainee
		g.Go(func() error {
			flag, err := e.ScanForRisk(gctx, trainee)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				e.logger.ErrorContext(gctx, "risk scan failed",
					"trainee_id", trainee, "error", err)
				e.metrics.RecordCounter("risk_scans_failed_total", 1, nil)
				return nil
			}
			if flag != nil {
				mu.Lock()
				flags = append(flags, flag)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return flags, err
	}
	span.SetAttributes(attribute.Int("scan.flags_raised", len(flags)))
	return flags, nil
}

// resolveResponse mirrors Aggregator.resolveResponse for the scan path:
// skip malformed records, propagate store failures.
func (e *RiskEvaluator) resolveResponse(ctx context.Context, resp domain.Response) (*domain.Template, domain.AnswerSheet, bool, error) {
	sheet, err := resp.DecodeAnswers()
	if err != nil {
		e.logger.WarnContext(ctx, "skipping response with malformed answers",
			"response_id", resp.ID, "error", err)
		e.metrics.RecordCounter(metricResponsesSkipped, 1, map[string]string{"reason": "malformed_answers"})
		return nil, nil, false, nil
	}

	tpl, err := e.templates.GetTemplate(ctx, resp.TemplateID)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		e.logger.WarnContext(ctx, "skipping response with missing template",
			"response_id", resp.ID, "template_id", resp.TemplateID)
		e.metrics.RecordCounter(metricResponsesSkipped, 1, map[string]string{"reason": "template_missing"})
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, domain.NewStoreError("get_template", err)
	}
	return tpl, sheet, true, nil
}
