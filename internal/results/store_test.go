package results

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeResults(n int) []SearchResult {
	out := make([]SearchResult, n)
	for i := range out {
		out[i] = SearchResult{
			Identifier: fmt.Sprintf("id-%d", i),
			Title:      fmt.Sprintf("Result %d", i),
			Confidence: 1 - float64(i)/10,
		}
	}
	return out
}

func success(n int) Outcome {
	return Outcome{Kind: Success, Results: makeResults(n)}
}

func TestStore_ApplySuccess(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Loaded())

	require.True(t, s.Apply(1, 1, success(3)))
	assert.True(t, s.Loaded())
	assert.Equal(t, 3, s.Len())

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "id-0", sel.Identifier)
}

func TestStore_ApplyResetsSelectionAndScroll(t *testing.T) {
	s := NewStore()
	s.SetViewportHeight(2)
	s.Apply(1, 1, success(5))
	s.End()
	require.Equal(t, 4, s.Selection())
	require.Equal(t, 3, s.Scroll())

	s.Apply(2, 2, success(5))
	assert.Equal(t, 0, s.Selection())
	assert.Equal(t, 0, s.Scroll())
}

func TestStore_StaleOutcomeDiscarded(t *testing.T) {
	s := NewStore()
	require.True(t, s.Apply(2, 2, success(2)))

	// an older query's outcome arrives after a newer token was issued
	assert.False(t, s.Apply(1, 2, success(5)))
	assert.Equal(t, 2, s.Len())

	assert.False(t, s.Apply(2, 3, Outcome{Kind: Failed, Err: errors.New("boom")}))
	assert.NoError(t, s.Err())
	assert.Equal(t, 2, s.Len())
}

func TestStore_FailureRetainsDisplay(t *testing.T) {
	for _, kind := range []OutcomeKind{Failed, TimedOut} {
		t.Run(kind.String(), func(t *testing.T) {
			s := NewStore()
			s.SetViewportHeight(2)
			s.Apply(1, 1, success(4))
			s.MoveDown()
			s.MoveDown()
			before := s.Results()

			cause := errors.New("query failed")
			require.True(t, s.Apply(2, 2, Outcome{Kind: kind, Err: cause}))

			assert.Equal(t, before, s.Results())
			assert.Equal(t, 2, s.Selection())
			assert.Equal(t, 1, s.Scroll())
			assert.Equal(t, cause, s.Err())

			// the next success clears the indicator
			s.Apply(3, 3, success(1))
			assert.NoError(t, s.Err())
		})
	}
}

func TestStore_MoveWraps(t *testing.T) {
	s := NewStore()
	s.Apply(1, 1, success(3))

	s.MoveUp()
	assert.Equal(t, 2, s.Selection())
	s.MoveDown()
	assert.Equal(t, 0, s.Selection())
	s.MoveDown()
	assert.Equal(t, 1, s.Selection())
}

func TestStore_NavigationOnEmpty(t *testing.T) {
	s := NewStore()
	s.MoveUp()
	s.MoveDown()
	s.PageDown()
	s.End()
	assert.Equal(t, 0, s.Selection())
	_, ok := s.Selected()
	assert.False(t, ok)

	s.Apply(1, 1, success(0))
	s.MoveDown()
	assert.Equal(t, 0, s.Selection())
	_, ok = s.Selected()
	assert.False(t, ok)
}

func TestStore_PagingClamps(t *testing.T) {
	s := NewStore()
	s.SetViewportHeight(3)
	s.Apply(1, 1, success(10))

	s.PageDown()
	assert.Equal(t, 3, s.Selection())
	assert.Equal(t, 1, s.Scroll())

	s.PageDown()
	s.PageDown()
	s.PageDown()
	assert.Equal(t, 9, s.Selection())
	assert.Equal(t, 7, s.Scroll())

	s.PageUp()
	assert.Equal(t, 6, s.Selection())
	assert.Equal(t, 6, s.Scroll())

	s.Home()
	assert.Equal(t, 0, s.Selection())
	assert.Equal(t, 0, s.Scroll())
}

func TestStore_ScrollFollowsSelection(t *testing.T) {
	s := NewStore()
	s.SetViewportHeight(2)
	s.Apply(1, 1, success(4))

	s.MoveDown()
	assert.Equal(t, 0, s.Scroll())
	s.MoveDown()
	assert.Equal(t, 1, s.Scroll())
	s.MoveDown()
	assert.Equal(t, 2, s.Scroll())

	// wrapping to the top scrolls back
	s.MoveDown()
	assert.Equal(t, 0, s.Selection())
	assert.Equal(t, 0, s.Scroll())
}

func TestStore_SetViewportHeight(t *testing.T) {
	s := NewStore()
	s.Apply(1, 1, success(10))
	s.End()
	assert.Equal(t, 0, s.Scroll())

	s.SetViewportHeight(4)
	assert.Equal(t, 6, s.Scroll())
	assert.Equal(t, 4, s.ViewportHeight())

	s.SetViewportHeight(20)
	assert.Equal(t, 0, s.Scroll())

	s.SetViewportHeight(-1)
	assert.Equal(t, 0, s.ViewportHeight())
}
