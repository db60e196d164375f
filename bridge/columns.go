package bridge

import "github.com/chxlky/trello-pr-bridge/internal/config"

const (
	BranchDevelop   = "develop"
	BranchCandidate = "candidate"
	BranchRelease   = "release"
	BranchMaster    = "master"
)

// IsProtectedBranch reports whether name is one of the trunk branches that
// never get PR-open automation.
func IsProtectedBranch(name string) bool {
	switch name {
	case BranchDevelop, BranchCandidate, BranchRelease, BranchMaster:
		return true
	}
	return false
}

// MergeTargets returns the columns cards move to when a PR from head is
// merged into base. Each rule is checked on its own.
func MergeTargets(base, head string, board config.BoardConfig) []string {
	var columns []string

	if base == BranchDevelop && head != BranchCandidate && head != BranchRelease && head != BranchMaster {
		columns = append(columns, board.ColumnDev)
	}
	if base == BranchCandidate && head != BranchRelease && head != BranchMaster {
		columns = append(columns, board.ColumnCan)
	}
	if base == BranchRelease || base == BranchMaster {
		columns = append(columns, board.ColumnRel)
	}

	return columns
}
