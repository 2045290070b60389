package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine 测试用引擎，载荷与真实引擎一样走 JSON 往返
type fakeEngine struct {
	kind      EngineType
	results   []Result
	failAbove int // >0 时 num 超过该值返回错误
	alwaysErr error
	calls     int
}

func (f *fakeEngine) Type() EngineType { return f.kind }

func (f *fakeEngine) Search(ctx context.Context, query string, num int, opts Options) ([]byte, error) {
	f.calls++
	if f.alwaysErr != nil {
		return nil, f.alwaysErr
	}
	if f.failAbove > 0 && num > f.failAbove {
		return nil, errors.New("quota exceeded")
	}
	return json.Marshal(f.results)
}

func (f *fakeEngine) Extract(raw []byte) []Result {
	var results []Result
	if err := json.Unmarshal(raw, &results); err != nil {
		return []Result{}
	}
	return results
}

func (f *fakeEngine) Display(results []Result, query string) {}

func TestRegisterFirstBecomesCurrent(t *testing.T) {
	m := NewManager()
	assert.Nil(t, m.Current())
	assert.Equal(t, EngineType(""), m.CurrentType())

	m.Register(&fakeEngine{kind: EngineGoogle})
	m.Register(&fakeEngine{kind: EngineDuckDuckGo})

	assert.Equal(t, EngineGoogle, m.CurrentType())
	assert.Equal(t, []EngineType{EngineGoogle, EngineDuckDuckGo}, m.Available())
}

func TestRegisterReplacesSameType(t *testing.T) {
	m := NewManager()
	first := &fakeEngine{kind: EngineGoogle}
	second := &fakeEngine{kind: EngineGoogle, results: []Result{{Link: "https://a.example"}}}

	m.Register(first)
	m.Register(second)

	require.Len(t, m.Available(), 1)
	got, ok := m.Get(EngineGoogle)
	require.True(t, ok)
	assert.Same(t, second, got.(*fakeEngine))
}

func TestSetEngineNotRegistered(t *testing.T) {
	m := NewManager()
	m.Register(&fakeEngine{kind: EngineGoogle})

	err := m.SetEngine(EngineDuckDuckGo)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotRegistered)

	// 失败的切换不影响当前引擎
	assert.Equal(t, EngineGoogle, m.CurrentType())
}

func TestAutoSelectPriority(t *testing.T) {
	m := NewManager()
	m.Register(&fakeEngine{kind: EngineBrowserGoogle})
	m.Register(&fakeEngine{kind: EngineDuckDuckGo})

	assert.Equal(t, EngineDuckDuckGo, m.AutoSelect())
	assert.Equal(t, EngineDuckDuckGo, m.CurrentType())

	m.Register(&fakeEngine{kind: EngineSerperGoogle})
	assert.Equal(t, EngineSerperGoogle, m.AutoSelect())
}

func TestAutoSelectFallsBackToFirstRegistered(t *testing.T) {
	m := NewManager()
	m.Register(&fakeEngine{kind: EngineType("custom")})

	assert.Equal(t, EngineType("custom"), m.AutoSelect())
}

func TestSearchRetriesWithReducedParams(t *testing.T) {
	e := &fakeEngine{
		kind:      EngineGoogle,
		failAbove: 5,
		results:   []Result{{Title: "hit", Link: "https://a.example"}},
	}
	m := NewManager()
	m.Register(e)

	results := m.Search(context.Background(), "query", 20, Options{"region": "us"})
	require.Len(t, results, 1)
	assert.Equal(t, "hit", results[0].Title)
	assert.Equal(t, 2, e.calls)
}

func TestSearchNeverReturnsNil(t *testing.T) {
	m := NewManager()
	assert.NotNil(t, m.Search(context.Background(), "query", 5, nil))

	m.Register(&fakeEngine{kind: EngineGoogle, alwaysErr: errors.New("down")})
	results := m.Search(context.Background(), "query", 5, nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchAllIsolatesFailures(t *testing.T) {
	m := NewManager()
	m.Register(&fakeEngine{kind: EngineGoogle, results: []Result{{Link: "https://a.example/1"}}})
	m.Register(&fakeEngine{kind: EngineDuckDuckGo, alwaysErr: errors.New("down")})

	byEngine := m.SearchAll(context.Background(), "query", 5)
	require.Len(t, byEngine, 2)
	assert.Len(t, byEngine[EngineGoogle], 1)
	assert.Empty(t, byEngine[EngineDuckDuckGo])
}

func TestCompareOverlap(t *testing.T) {
	shared := Result{Link: "https://a.example/shared"}
	m := NewManager()
	m.Register(&fakeEngine{kind: EngineGoogle, results: []Result{shared, {Link: "https://a.example/g"}}})
	m.Register(&fakeEngine{kind: EngineDuckDuckGo, results: []Result{shared}})

	cmp := m.Compare(context.Background(), "query", 5)
	assert.Equal(t, 2, cmp.TotalUniqueURLs)
	assert.ElementsMatch(t, []EngineType{EngineGoogle, EngineDuckDuckGo}, cmp.EnginesTested)

	for _, pct := range cmp.OverlapPercentage {
		assert.GreaterOrEqual(t, pct, 0.0)
		assert.LessOrEqual(t, pct, 1.0)
	}
	assert.InDelta(t, 1.0, cmp.OverlapPercentage[EngineGoogle], 1e-9)
	assert.InDelta(t, 0.5, cmp.OverlapPercentage[EngineDuckDuckGo], 1e-9)
}

func TestCompareEmptyResults(t *testing.T) {
	m := NewManager()
	m.Register(&fakeEngine{kind: EngineGoogle})

	cmp := m.Compare(context.Background(), "query", 5)
	assert.Equal(t, 0, cmp.TotalUniqueURLs)
	assert.Equal(t, 0.0, cmp.OverlapPercentage[EngineGoogle])
}

func TestSearchWithUnregistered(t *testing.T) {
	m := NewManager()
	_, err := m.SearchWith(context.Background(), EngineGoogle, "query", 5, nil)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestCapabilityDispatch(t *testing.T) {
	m := NewManager()
	m.Register(&fakeEngine{kind: EngineGoogle})

	assert.False(t, m.SupportsImages())
	_, err := m.SearchImages(context.Background(), "query", 5, nil)
	assert.Error(t, err)
	_, err = m.TrendingSearches(context.Background(), "US")
	assert.Error(t, err)
}
