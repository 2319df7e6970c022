package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCosineSimilarity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity(v, []float32{-0.3, 1.2, -4.5}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)

	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestSearchKeywordOnlyWhenEmbedFails(t *testing.T) {
	nodes := []Node{{
		ID: "n1", SourceType: DocResume, Category: CategoryExperience,
		TextContent: "Designed distributed systems",
		Tags:        []string{"distributed systems", "scale"},
		EndDate:     "2010-01",
	}}
	failing := func(context.Context, string) ([]float32, error) { return nil, errors.New("provider down") }

	got := Search(context.Background(), "distributed systems", nodes, failing, SearchOptions{
		Threshold: ptr(0.15),
		Now:       fixedNow,
	})
	require.Len(t, got, 1)
	assert.InDelta(t, 0.20, got[0].Score, 1e-9)

	got = Search(context.Background(), "distributed systems", nodes, failing, SearchOptions{Now: fixedNow})
	assert.Empty(t, got, "0.2 alone must not pass the default threshold")
}

func TestSearchScoringTerms(t *testing.T) {
	q := []float32{1, 0}
	embed := func(context.Context, string) ([]float32, error) { return q, nil }
	nodes := []Node{
		{ID: "sim", SourceType: DocResume, Embedding: []float32{1, 0}, EndDate: "2010-01"},
		{ID: "all", SourceType: DocResume, Embedding: []float32{1, 0}, Tags: []string{"kafka streams"},
			DurationMonths: 24, TextContent: "Ran Kafka in production"},
		{ID: "jd", SourceType: DocJobDescription, Embedding: []float32{1, 0}, Tags: []string{"kafka"},
			TextContent: "Kafka experience", EndDate: "2010-01"},
	}
	got := Search(context.Background(), "kafka", nodes, embed, SearchOptions{
		JDRequiredSkills: []string{"Kafka"},
		Threshold:        ptr(0.0),
		Now:              fixedNow,
	})
	require.Len(t, got, 3)
	assert.Equal(t, "all", got[0].ID)
	assert.InDelta(t, 0.60+0.20+0.10+0.10+0.15, got[0].Score, 1e-9)
	assert.Equal(t, "jd", got[1].ID, "jd nodes get keyword credit but no skill boost")
	assert.InDelta(t, 0.80, got[1].Score, 1e-9)
	assert.Equal(t, "sim", got[2].ID)
	assert.InDelta(t, 0.60, got[2].Score, 1e-9)
}

func TestSearchRecency(t *testing.T) {
	nodes := []Node{
		{ID: "ongoing", EndDate: ""},
		{ID: "recent", EndDate: "2022-06"},
		{ID: "same-year", EndDate: "2022-01"},
		{ID: "old", EndDate: "2021-12"},
	}
	got := Search(context.Background(), "", nodes, nil, SearchOptions{Threshold: ptr(0.05), Now: fixedNow})
	var ids []string
	for _, n := range got {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"ongoing", "recent", "same-year"}, ids, "recency counts calendar years")
}

func TestSearchSourceTypeFilter(t *testing.T) {
	nodes := []Node{
		{ID: "r", SourceType: DocResume, Tags: []string{"golang"}},
		{ID: "j", SourceType: DocJobDescription, Tags: []string{"golang"}},
	}
	got := Search(context.Background(), "golang", nodes, nil, SearchOptions{
		SourceTypes: []DocType{DocJobDescription},
		Threshold:   ptr(0.0),
		Now:         fixedNow,
	})
	require.Len(t, got, 1)
	assert.Equal(t, "j", got[0].ID)
}

func TestSearchBoundsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	randVec := func() []float32 {
		v := make([]float32, 8)
		for i := range v {
			v[i] = rng.Float32()*2 - 1
		}
		return v
	}
	nodes := make([]Node, 40)
	for i := range nodes {
		nodes[i] = Node{
			ID:             fmt.Sprint(i),
			SourceType:     DocResume,
			Embedding:      randVec(),
			DurationMonths: rng.Intn(48),
			Tags:           []string{"go", "distributed systems", "redis"}[:rng.Intn(3)+1],
		}
	}
	embed := func(context.Context, string) ([]float32, error) { return randVec(), nil }

	for _, tc := range []struct {
		max       int
		threshold float64
	}{{1, 0}, {4, 0.55}, {10, 0.3}, {100, -1}, {3, 2}} {
		got := Search(context.Background(), "redis", nodes, embed, SearchOptions{
			MaxNodes: tc.max, Threshold: ptr(tc.threshold), Now: fixedNow,
		})
		assert.LessOrEqual(t, len(got), tc.max)
		prev := math.Inf(1)
		for _, n := range got {
			assert.Greater(t, n.Score, tc.threshold)
			assert.LessOrEqual(t, n.Score, prev)
			prev = n.Score
		}
	}
}

func TestSearchDefaultsCapAtFour(t *testing.T) {
	nodes := make([]Node, 10)
	for i := range nodes {
		nodes[i] = Node{ID: fmt.Sprint(i), SourceType: DocResume, Tags: []string{"redis"}, DurationMonths: 36}
	}
	// keyword 0.2 + duration 0.1 + recency 0.1 + skill 0.15 = 0.55, not strictly above.
	got := Search(context.Background(), "redis", nodes, nil, SearchOptions{JDRequiredSkills: []string{"redis"}, Now: fixedNow})
	assert.Empty(t, got)

	sc := DefaultScoring()
	sc.Threshold = 0.5
	got = Search(context.Background(), "redis", nodes, nil, SearchOptions{JDRequiredSkills: []string{"redis"}, Scoring: &sc, Now: fixedNow})
	assert.Len(t, got, 4)
	assert.Equal(t, "0", got[0].ID, "ties keep input order")
}
