package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chxlky/trello-pr-bridge/internal/config"
	"github.com/chxlky/trello-pr-bridge/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	ActionOpened      = "opened"
	ActionReopened    = "reopened"
	ActionSynchronize = "synchronize"
	ActionClosed      = "closed"
)

const (
	OperationAttach = "attach"
	OperationMove   = "move"
)

type Status string

const (
	StatusAttached Status = "attached"
	StatusMoved    Status = "moved"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

type CommitLister interface {
	ListCommits(ctx context.Context, commitsURL string) ([]models.Commit, error)
}

type Board interface {
	ListBoardCards(ctx context.Context, boardID string) ([]models.TrelloCard, error)
	ListAttachments(ctx context.Context, shortLink string) ([]models.TrelloAttachment, error)
	AddAttachment(ctx context.Context, shortLink, name, link string) error
	MoveCard(ctx context.Context, shortLink, listID string) error
}

// CardResult is the outcome of one operation on one card.
type CardResult struct {
	ShortLink string
	Operation string
	Column    string
	Status    Status
	Err       error
}

// Outcome aggregates every card operation triggered by one event.
type Outcome struct {
	Action     string
	ShortLinks []string
	Results    []CardResult
}

func (o *Outcome) Failed() []CardResult {
	var failed []CardResult
	for _, r := range o.Results {
		if r.Status == StatusFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err joins the errors of all failed card operations, or returns nil.
func (o *Outcome) Err() error {
	var errs []error
	for _, r := range o.Failed() {
		errs = append(errs, fmt.Errorf("%s card %s: %w", r.Operation, r.ShortLink, r.Err))
	}
	return errors.Join(errs...)
}

func IsOpenAction(action string) bool {
	return action == ActionOpened || action == ActionReopened || action == ActionSynchronize
}

// IgnoreReason reports why an event needs no work, or "" when it does.
func IgnoreReason(action string, pr *models.PullRequest) string {
	switch {
	case pr == nil:
		return "not a pull request"
	case strings.Contains(strings.ToLower(pr.Title), "yank"):
		return "title opts out with yank"
	case IsOpenAction(action) && IsProtectedBranch(pr.Head.Ref):
		return "head branch is protected"
	case IsOpenAction(action):
		return ""
	case action == ActionClosed && pr.Merged:
		return ""
	case action == ActionClosed:
		return "closed without merge"
	default:
		return fmt.Sprintf("action %q is not handled", action)
	}
}

type Syncer struct {
	GitHub  CommitLister
	Trello  Board
	Workers int
}

func NewSyncer(github CommitLister, trello Board, workers int) *Syncer {
	return &Syncer{GitHub: github, Trello: trello, Workers: workers}
}

// ResolveShortLinks returns the short links of the board cards referenced by
// the pull request's commits, without duplicates and in board order.
func (s *Syncer) ResolveShortLinks(ctx context.Context, commitsURL, boardID string) ([]string, error) {
	commits, err := s.GitHub.ListCommits(ctx, commitsURL)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}

	messages := make([]string, len(commits))
	for i, c := range commits {
		messages[i] = c.Commit.Message
	}
	tickets := CollectTickets(messages)
	if len(tickets) == 0 {
		return nil, nil
	}

	wanted := make(map[int]struct{}, len(tickets))
	for _, id := range tickets {
		wanted[id] = struct{}{}
	}

	cards, err := s.Trello.ListBoardCards(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("listing board cards: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
	for _, card := range cards {
		if _, ok := wanted[card.IDShort]; !ok {
			continue
		}
		if _, ok := seen[card.ShortLink]; ok {
			continue
		}
		seen[card.ShortLink] = struct{}{}
		links = append(links, card.ShortLink)
	}
	return links, nil
}

// Sync applies the card side effects for a pull request event. It returns an
// error only when the cards could not be resolved; failures of individual
// card operations are reported in the Outcome.
func (s *Syncer) Sync(ctx context.Context, action string, pr *models.PullRequest, board config.BoardConfig) (*Outcome, error) {
	outcome := &Outcome{Action: action}
	if IgnoreReason(action, pr) != "" {
		return outcome, nil
	}

	links, err := s.ResolveShortLinks(ctx, pr.CommitsURL, board.BoardID)
	if err != nil {
		return outcome, err
	}
	outcome.ShortLinks = links
	if len(links) == 0 {
		return outcome, nil
	}

	if IsOpenAction(action) {
		outcome.Results = s.forEachCard(ctx, links, func(ctx context.Context, shortLink string) []CardResult {
			return s.linkPullRequest(ctx, shortLink, pr, board.ColumnOpen)
		})
		return outcome, nil
	}

	columns := MergeTargets(pr.Base.Ref, pr.Head.Ref, board)
	if len(columns) == 0 {
		return outcome, nil
	}
	outcome.Results = s.forEachCard(ctx, links, func(ctx context.Context, shortLink string) []CardResult {
		results := make([]CardResult, 0, len(columns))
		for _, column := range columns {
			results = append(results, s.move(ctx, shortLink, column))
		}
		return results
	})
	return outcome, nil
}

// linkPullRequest attaches the PR to the card unless it is already attached,
// then moves the card to the open column.
func (s *Syncer) linkPullRequest(ctx context.Context, shortLink string, pr *models.PullRequest, openColumn string) []CardResult {
	attach := CardResult{ShortLink: shortLink, Operation: OperationAttach}

	attachments, err := s.Trello.ListAttachments(ctx, shortLink)
	if err != nil {
		attach.Status, attach.Err = StatusFailed, fmt.Errorf("listing attachments: %w", err)
		return []CardResult{attach}
	}
	for _, a := range attachments {
		if a.URL == pr.HTMLURL {
			attach.Status = StatusSkipped
			return []CardResult{attach}
		}
	}

	zap.L().Info("Updating Trello card", zap.String("shortLink", shortLink), zap.String("pr", pr.HTMLURL))
	if err := s.Trello.AddAttachment(ctx, shortLink, pr.Title, pr.HTMLURL); err != nil {
		attach.Status, attach.Err = StatusFailed, err
		return []CardResult{attach}
	}
	attach.Status = StatusAttached

	return []CardResult{attach, s.move(ctx, shortLink, openColumn)}
}

func (s *Syncer) move(ctx context.Context, shortLink, column string) CardResult {
	result := CardResult{ShortLink: shortLink, Operation: OperationMove, Column: column, Status: StatusMoved}

	zap.L().Info("Moving Trello card", zap.String("shortLink", shortLink), zap.String("column", column))
	if err := s.Trello.MoveCard(ctx, shortLink, column); err != nil {
		result.Status, result.Err = StatusFailed, err
	}
	return result
}

// forEachCard runs fn for every card concurrently, bounded by Workers, and
// returns all results grouped in card order once every task has finished.
func (s *Syncer) forEachCard(ctx context.Context, links []string, fn func(context.Context, string) []CardResult) []CardResult {
	perCard := make([][]CardResult, len(links))

	var g errgroup.Group
	if s.Workers > 0 {
		g.SetLimit(s.Workers)
	}
	for i, shortLink := range links {
		i, shortLink := i, shortLink
		g.Go(func() error {
			perCard[i] = fn(ctx, shortLink)
			return nil
		})
	}
	// tasks report failures through their results and never return an error
	_ = g.Wait()

	var results []CardResult
	for _, r := range perCard {
		results = append(results, r...)
	}
	return results
}
