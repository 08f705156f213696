// AngelaMos | 2026
// dto_test.go

package artwork

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParamsNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListParams
		want ListParams
	}{
		{
			name: "defaults",
			in:   ListParams{},
			want: ListParams{Page: 1, PerPage: 12, Sort: SortNewest},
		},
		{
			name: "caps per page",
			in:   ListParams{Page: 2, PerPage: 500, Sort: SortNameAsc},
			want: ListParams{Page: 2, PerPage: 50, Sort: SortNameAsc},
		},
		{
			name: "negative values",
			in:   ListParams{Page: -4, PerPage: -1, Sort: "random"},
			want: ListParams{Page: 1, PerPage: 12, Sort: SortNewest},
		},
		{
			name: "trims filters",
			in:   ListParams{Page: 1, PerPage: 6, Category: " Digital ", Style: "\tAbstract"},
			want: ListParams{Page: 1, PerPage: 6, Category: "Digital", Style: "Abstract", Sort: SortNewest},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Normalize(12, 50)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListParamsOffset(t *testing.T) {
	p := ListParams{Page: 3, PerPage: 12}
	assert.Equal(t, 24, p.Offset())
}

func TestListParamsHugePageKeepsOffsetPositive(t *testing.T) {
	p := ListParams{Page: math.MaxInt, PerPage: 500}
	p.Normalize(12, 50)

	assert.Equal(t, MaxPage, p.Page)
	assert.Positive(t, p.Offset())
	assert.Equal(t, (MaxPage-1)*50, p.Offset())
}

func TestArtworkPath(t *testing.T) {
	hi := "artwork/high_res/a.jpg"
	a := Artwork{ImageURL: "artwork/a.jpg", HighResURL: &hi}

	p, ok := a.Path(false)
	assert.True(t, ok)
	assert.Equal(t, "artwork/a.jpg", p)

	p, ok = a.Path(true)
	assert.True(t, ok)
	assert.Equal(t, hi, p)

	empty := ""
	a.HighResURL = &empty
	_, ok = a.Path(true)
	assert.False(t, ok)

	a.HighResURL = nil
	_, ok = a.Path(true)
	assert.False(t, ok)
}
