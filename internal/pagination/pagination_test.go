package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func letters(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i))
	}
	return out
}

func TestPaginateFullAndPartialPages(t *testing.T) {
	items := letters(12)

	w := Paginate(items, 0, 5)
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, w.Items)
	require.Equal(t, 3, w.Pages)
	require.False(t, w.HasPrev())
	require.True(t, w.HasNext())

	w = Paginate(items, 2, 5)
	require.Equal(t, []string{"k", "l"}, w.Items)
	require.True(t, w.HasPrev())
	require.False(t, w.HasNext())
}

func TestPaginateClampsOutOfRangePage(t *testing.T) {
	items := letters(7)

	w := Paginate(items, 99, 5)
	require.Equal(t, 1, w.Page)
	require.Equal(t, []string{"f", "g"}, w.Items)

	w = Paginate(items, -3, 5)
	require.Equal(t, 0, w.Page)
}

func TestPaginateEmptyList(t *testing.T) {
	w := Paginate([]string(nil), 4, 5)
	require.Empty(t, w.Items)
	require.Equal(t, 0, w.Page)
	require.Equal(t, 0, w.Pages)
	require.False(t, w.HasPrev())
	require.False(t, w.HasNext())
}

func TestNextPrevClamp(t *testing.T) {
	require.Equal(t, 1, Next(0, 3))
	require.Equal(t, 2, Next(2, 3))
	require.Equal(t, 1, Prev(2, 3))
	require.Equal(t, 0, Prev(0, 3))
}

func TestPageCount(t *testing.T) {
	require.Equal(t, 0, PageCount(0, 5))
	require.Equal(t, 1, PageCount(1, 5))
	require.Equal(t, 1, PageCount(5, 5))
	require.Equal(t, 2, PageCount(6, 5))
	require.Equal(t, 3, PageCount(11, 5))
}

func TestClampEmptyList(t *testing.T) {
	require.Equal(t, 0, Clamp(3, 0))
	require.Equal(t, 0, Clamp(-1, 0))
	require.Equal(t, 0, Next(0, 0))
	require.Equal(t, 0, Prev(0, 0))
}
