package diagonal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLength(t *testing.T) {
	tests := []struct {
		n, depth, want int
	}{
		{0, 3, 0},
		{1, 3, 1},
		{3, 3, 6},
		{5, 3, 12},
		{10, 1, 10},
		{4, 65535, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Length(tt.n, tt.depth), "Length(%d, %d)", tt.n, tt.depth)
	}
}

func TestArray(t *testing.T) {
	t.Run("every cell has its own slot", func(t *testing.T) {
		arr, err := New[int](10, 4)
		require.NoError(t, err)

		seen := map[int]bool{}
		for n := 0; n < 10; n++ {
			for k := 0; k <= min(n, 3); k++ {
				arr.Set(n, k, n*100+k)
				off := arr.offset(n, k)
				assert.False(t, seen[off], "offset %d reused at [%d, %d]", off, n, k)
				seen[off] = true
			}
		}
		assert.Equal(t, arr.Size(), len(seen))

		for n := 0; n < 10; n++ {
			for k := 0; k <= min(n, 3); k++ {
				assert.Equal(t, n*100+k, arr.Get(n, k))
				assert.Equal(t, n*100+k, arr.At(n, k))
			}
		}
	})

	t.Run("memory grows linearly in length", func(t *testing.T) {
		arr, err := New[byte](1000, 5)
		require.NoError(t, err)
		assert.Equal(t, 15+995*5, arr.Size())
	})

	t.Run("row view", func(t *testing.T) {
		arr, err := New[int](5, 2)
		require.NoError(t, err)
		arr.Set(3, 0, 7)
		arr.Set(3, 1, 8)
		assert.Equal(t, []int{7, 8}, arr.Row(3))
		assert.Len(t, arr.Row(0), 1)
	})

	t.Run("pointer updates", func(t *testing.T) {
		arr, err := New[int](3, 3)
		require.NoError(t, err)
		*arr.Ptr(2, 2) += 5
		assert.Equal(t, 5, arr.Get(2, 2))
	})

	t.Run("row width", func(t *testing.T) {
		// a width of d+1 gives rows k = 0..min(n, d)
		const d = 3
		arr, err := New[int](8, d+1)
		require.NoError(t, err)
		assert.Equal(t, Length(8, d+1), arr.Size())
		for n := 0; n < 8; n++ {
			assert.True(t, arr.Valid(n, min(n, d)), "[%d, %d]", n, min(n, d))
			assert.False(t, arr.Valid(n, min(n, d)+1), "[%d, %d]", n, min(n, d)+1)
		}

		narrow, err := New[int](8, d)
		require.NoError(t, err)
		assert.True(t, narrow.Valid(7, d-1))
		assert.False(t, narrow.Valid(7, d))
	})

	t.Run("zero length", func(t *testing.T) {
		arr, err := New[int](0, 3)
		require.NoError(t, err)
		assert.Equal(t, 0, arr.Size())
		assert.False(t, arr.Valid(0, 0))
	})
}

func TestArrayInvalid(t *testing.T) {
	t.Run("depth zero", func(t *testing.T) {
		_, err := New[int](4, 0)
		require.ErrorIs(t, err, ErrInvalidDepth)
	})

	t.Run("negative length", func(t *testing.T) {
		_, err := New[int](-1, 2)
		require.Error(t, err)
	})

	arr, err := New[int](4, 2)
	require.NoError(t, err)

	for _, idx := range [][2]int{{4, 0}, {1, 2}, {3, 2}, {-1, 0}, {2, -1}} {
		assert.Panics(t, func() { arr.Get(idx[0], idx[1]) }, "Get(%d, %d)", idx[0], idx[1])
		assert.Panics(t, func() { arr.Set(idx[0], idx[1], 1) }, "Set(%d, %d)", idx[0], idx[1])
	}
}
