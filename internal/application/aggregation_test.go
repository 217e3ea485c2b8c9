package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realizewhoitis/training-tracker-sub001/infrastructure/memstore"
	"github.com/realizewhoitis/training-tracker-sub001/internal/domain"
)

// Fixture helpers shared by the aggregation and risk tests.

func ratingSection(id domain.SectionID, title string, fieldIDs ...domain.FieldID) domain.Section {
	sec := domain.Section{ID: id, Title: title, Position: int(id)}
	for i, fid := range fieldIDs {
		sec.Fields = append(sec.Fields, domain.Field{
			ID:       fid,
			Label:    "Rating",
			Type:     domain.FieldRating,
			Position: i,
		})
	}
	return sec
}

func answersJSON(t *testing.T, m map[domain.FieldID]string) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return data
}

func testResponse(id domain.ResponseID, trainee domain.PersonID, tplID domain.TemplateID,
	status domain.ResponseStatus, at time.Time, answers json.RawMessage,
) domain.Response {
	return domain.Response{
		ID:          id,
		TraineeID:   trainee,
		TrainerID:   900,
		TemplateID:  tplID,
		SubmittedAt: at,
		Status:      status,
		Answers:     answers,
	}
}

var baseDate = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestAggregator(t *testing.T, store *memstore.Store, opts ...AggregatorOption) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(DefaultEngineConfig(), store, store, opts...)
	require.NoError(t, err)
	return agg
}

func TestAggregatorGetTrend(t *testing.T) {
	ctx := context.Background()
	const trainee = domain.PersonID(7)

	store := memstore.New()
	store.PutTemplate(domain.Template{
		ID:       1,
		Title:    "Daily Observation Report",
		Sections: []domain.Section{ratingSection(1, "Performance", "10", "11")},
	})

	// Inserted newest-first; the trend must come back date ascending.
	store.AddResponse(testResponse(3, trainee, 1, domain.StatusReviewed, baseDate.AddDate(0, 0, 2),
		answersJSON(t, map[domain.FieldID]string{"10": "2"})))
	store.AddResponse(testResponse(1, trainee, 1, domain.StatusSubmitted, baseDate,
		answersJSON(t, map[domain.FieldID]string{"10": "3", "11": "5"})))
	store.AddResponse(testResponse(2, trainee, 1, domain.StatusReviewed, baseDate.AddDate(0, 0, 1),
		answersJSON(t, map[domain.FieldID]string{"10": "N.O.", "11": "  "})))
	// Drafts never feed the trend.
	store.AddResponse(testResponse(4, trainee, 1, domain.StatusDraft, baseDate.AddDate(0, 0, 3),
		answersJSON(t, map[domain.FieldID]string{"10": "1"})))

	agg := newTestAggregator(t, store)

	points, err := agg.GetTrend(ctx, SystemCaller(), trainee)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, domain.ResponseID(1), points[0].ResponseID)
	assert.Equal(t, 4.0, points[0].Average)

	// All answers blank or sentinel: the point survives with average 0.
	assert.Equal(t, domain.ResponseID(2), points[1].ResponseID)
	assert.Equal(t, 0.0, points[1].Average)

	assert.Equal(t, domain.ResponseID(3), points[2].ResponseID)
	assert.Equal(t, 2.0, points[2].Average)

	assert.True(t, points[0].Date.Before(points[1].Date))
	assert.True(t, points[1].Date.Before(points[2].Date))
}

func TestAggregatorGetTrendRounding(t *testing.T) {
	ctx := context.Background()
	const trainee = domain.PersonID(7)

	store := memstore.New()
	store.PutTemplate(domain.Template{
		ID:       1,
		Sections: []domain.Section{ratingSection(1, "Performance", "10", "11", "12")},
	})
	store.AddResponse(testResponse(1, trainee, 1, domain.StatusReviewed, baseDate,
		answersJSON(t, map[domain.FieldID]string{"10": "1", "11": "1", "12": "2"})))

	agg := newTestAggregator(t, store)

	points, err := agg.GetTrend(ctx, SystemCaller(), trainee)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 1.33, points[0].Average) // 4/3 rounded to two decimals
}

func TestAggregatorGetTrendIdempotent(t *testing.T) {
	ctx := context.Background()
	const trainee = domain.PersonID(7)

	store := memstore.New()
	store.PutTemplate(domain.Template{
		ID:       1,
		Sections: []domain.Section{ratingSection(1, "Performance", "10")},
	})
	store.AddResponse(testResponse(1, trainee, 1, domain.StatusReviewed, baseDate,
		answersJSON(t, map[domain.FieldID]string{"10": "4"})))

	agg := newTestAggregator(t, store)

	first, err := agg.GetTrend(ctx, SystemCaller(), trainee)
	require.NoError(t, err)
	second, err := agg.GetTrend(ctx, SystemCaller(), trainee)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregatorGetTrendUnauthenticated(t *testing.T) {
	store := memstore.New()
	agg := newTestAggregator(t, store)

	points, err := agg.GetTrend(context.Background(), Caller{}, 7)
	require.NoError(t, err)
	assert.Empty(t, points)
	assert.NotNil(t, points)
}

func TestAggregatorGetTrendSkipsMalformed(t *testing.T) {
	ctx := context.Background()
	const trainee = domain.PersonID(7)

	store := memstore.New()
	store.PutTemplate(domain.Template{
		ID:       1,
		Sections: []domain.Section{ratingSection(1, "Performance", "10")},
	})
	store.AddResponse(testResponse(1, trainee, 1, domain.StatusReviewed, baseDate,
		answersJSON(t, map[domain.FieldID]string{"10": "4"})))
	store.AddResponse(testResponse(2, trainee, 1, domain.StatusReviewed, baseDate.AddDate(0, 0, 1),
		json.RawMessage(`{"10":`)))
	store.AddResponse(testResponse(3, trainee, 1, domain.StatusReviewed, baseDate.AddDate(0, 0, 2),
		answersJSON(t, map[domain.FieldID]string{"10": "6"})))

	agg := newTestAggregator(t, store)

	points, err := agg.GetTrend(ctx, SystemCaller(), trainee)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, domain.ResponseID(1), points[0].ResponseID)
	assert.Equal(t, domain.ResponseID(3), points[1].ResponseID)
}

func TestAggregatorGetTrendSkipsMissingTemplate(t *testing.T) {
	ctx := context.Background()
	const trainee = domain.PersonID(7)

	store := memstore.New()
	store.PutTemplate(domain.Template{
		ID:       1,
		Sections: []domain.Section{ratingSection(1, "Performance", "10")},
	})
	store.AddResponse(testResponse(1, trainee, 99, domain.StatusReviewed, baseDate,
		answersJSON(t, map[domain.FieldID]string{"10": "4"})))
	store.AddResponse(testResponse(2, trainee, 1, domain.StatusReviewed, baseDate.AddDate(0, 0, 1),
		answersJSON(t, map[domain.FieldID]string{"10": "5"})))

	agg := newTestAggregator(t, store)

	points, err := agg.GetTrend(ctx, SystemCaller(), trainee)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, domain.ResponseID(2), points[0].ResponseID)
}

func TestAggregatorGetCategoryAverages(t *testing.T) {
	ctx := context.Background()
	const trainee = domain.PersonID(7)

	// Two different templates sharing a section title: ratings pool by
	// title equality, not template identity.
	store := memstore.New()
	store.PutTemplate(domain.Template{
		ID: 1,
		Sections: []domain.Section{
			ratingSection(1, "Performance", "10", "11"),
			ratingSection(2, "Radio Procedures", "12"),
		},
	})
	store.PutTemplate(domain.Template{
		ID: 2,
		Sections: []domain.Section{
			ratingSection(3, "Performance", "20"),
		},
	})

	store.AddResponse(testResponse(1, trainee, 1, domain.StatusSubmitted, baseDate,
		answersJSON(t, map[domain.FieldID]string{"10": "4", "11": "6", "12": "N.O."})))
	store.AddResponse(testResponse(2, trainee, 2, domain.StatusReviewed, baseDate.AddDate(0, 0, 1),
		answersJSON(t, map[domain.FieldID]string{"20": "2"})))

	agg := newTestAggregator(t, store)

	scores, err := agg.GetCategoryAverages(ctx, SystemCaller(), trainee)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Equal(t, "Performance", scores[0].Category)
	assert.Equal(t, 4.0, scores[0].Score) // (4+6+2)/3
	assert.Equal(t, 7, scores[0].ScaleMax)

	// The section appeared but collected no accepted ratings: the bucket
	// is still emitted with score 0.
	assert.Equal(t, "Radio Procedures", scores[1].Category)
	assert.Equal(t, 0.0, scores[1].Score)
	assert.Equal(t, 7, scores[1].ScaleMax)
}

func TestAggregatorGetCategoryAveragesUnauthenticated(t *testing.T) {
	store := memstore.New()
	agg := newTestAggregator(t, store)

	scores, err := agg.GetCategoryAverages(context.Background(), Caller{}, 7)
	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.NotNil(t, scores)
}

func TestAggregatorGetCategoryAveragesWithFuzzyResolver(t *testing.T) {
	ctx := context.Background()
	const trainee = domain.PersonID(7)

	store := memstore.New()
	store.PutTemplate(domain.Template{
		ID:       1,
		Sections: []domain.Section{ratingSection(1, "Radio Procedures", "10")},
	})
	store.PutTemplate(domain.Template{
		ID:       2,
		Sections: []domain.Section{ratingSection(2, "Radio Proceedures", "20")},
	})
	store.AddResponse(testResponse(1, trainee, 1, domain.StatusReviewed, baseDate,
		answersJSON(t, map[domain.FieldID]string{"10": "4"})))
	store.AddResponse(testResponse(2, trainee, 2, domain.StatusReviewed, baseDate.AddDate(0, 0, 1),
		answersJSON(t, map[domain.FieldID]string{"20": "6"})))

	resolver, err := NewFuzzyTitleResolver([]string{"Radio Procedures"}, 0.8)
	require.NoError(t, err)

	agg := newTestAggregator(t, store, WithCategoryResolver(resolver))

	scores, err := agg.GetCategoryAverages(ctx, SystemCaller(), trainee)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "Radio Procedures", scores[0].Category)
	assert.Equal(t, 5.0, scores[0].Score)
}

func TestNewAggregatorRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.WindowDays = 0

	_, err := NewAggregator(cfg, memstore.New(), memstore.New())
	assert.Error(t, err)
}
