package bridge

import (
	"testing"

	"github.com/chxlky/trello-pr-bridge/internal/config"
	"github.com/stretchr/testify/assert"
)

var testBoard = config.BoardConfig{
	BoardID:    "board",
	ColumnOpen: "open",
	ColumnDev:  "dev",
	ColumnCan:  "can",
	ColumnRel:  "rel",
}

func TestIsProtectedBranch(t *testing.T) {
	for _, name := range []string{"develop", "candidate", "release", "master"} {
		assert.True(t, IsProtectedBranch(name), name)
	}
	for _, name := range []string{"feature-x", "main", "Develop", "release-1.2", ""} {
		assert.False(t, IsProtectedBranch(name), name)
	}
}

func TestMergeTargets(t *testing.T) {
	tests := []struct {
		name       string
		base, head string
		want       []string
	}{
		{"feature into develop", "develop", "feature-x", []string{"dev"}},
		{"candidate back into develop", "develop", "candidate", nil},
		{"release back into develop", "develop", "release", nil},
		{"master back into develop", "develop", "master", nil},
		{"develop into candidate", "candidate", "develop", []string{"can"}},
		{"hotfix into candidate", "candidate", "hotfix-1", []string{"can"}},
		{"release back into candidate", "candidate", "release", nil},
		{"master back into candidate", "candidate", "master", nil},
		{"candidate into release", "release", "candidate", []string{"rel"}},
		{"anything into master", "master", "feature-x", []string{"rel"}},
		{"unknown base", "feature-y", "feature-x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeTargets(tt.base, tt.head, testBoard))
		})
	}
}
