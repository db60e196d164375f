package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTickets(t *testing.T) {
	tests := []struct {
		message string
		want    []int
	}{
		{"T-12 T-34 fix bug T-56", []int{12, 34}},
		{"T-5 add feature", []int{5}},
		{"unrelated T-5", nil},
		{"", nil},
		{"T-1\nT-2\tbody", []int{1, 2}},
		{"  T-9   spaced", []int{9}},
		{"T-12abc T-3", []int{12, 3}},
		{"T-12: fix bug", []int{12}},
		{"T-12, T-13 x", []int{12, 13}},
		{"(T-12) wrapped", nil},
		{"xT-12 prefixed", nil},
		{"t-12 lowercase", nil},
		{"T- empty", nil},
		{"T-007", []int{7}},
		{"[T-1] bracketed", nil},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTickets(tt.message))
		})
	}
}

func TestCollectTickets(t *testing.T) {
	got := CollectTickets([]string{"T-5 add feature", "unrelated", "T-5 T-7 more"})
	assert.Equal(t, []int{5, 7}, got)
}

func TestCollectTickets_None(t *testing.T) {
	assert.Empty(t, CollectTickets([]string{"merge branch", "wip"}))
}
