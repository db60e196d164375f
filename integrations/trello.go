package integrations

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chxlky/trello-pr-bridge/internal/models"
	"go.uber.org/zap"
)

type TrelloClient struct {
	Client   *http.Client
	BaseURL  string
	APIKey   string
	APIToken string
}

func NewTrelloClient(baseURL, key, token string, timeout time.Duration) *TrelloClient {
	return &TrelloClient{
		Client:   &http.Client{Timeout: timeout},
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIKey:   key,
		APIToken: token,
	}
}

// ListBoardCards returns every visible card on the board.
func (tc *TrelloClient) ListBoardCards(ctx context.Context, boardID string) ([]models.TrelloCard, error) {
	req, err := newRequest(ctx, http.MethodGet, tc.endpoint("boards", boardID, "cards", "visible"), nil)
	if err != nil {
		return nil, err
	}

	var cards []models.TrelloCard
	if err := do(tc.Client, "trello", req, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (tc *TrelloClient) ListAttachments(ctx context.Context, shortLink string) ([]models.TrelloAttachment, error) {
	req, err := newRequest(ctx, http.MethodGet, tc.endpoint("cards", shortLink, "attachments"), nil)
	if err != nil {
		return nil, err
	}

	var attachments []models.TrelloAttachment
	if err := do(tc.Client, "trello", req, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// AddAttachment attaches a link to the card.
func (tc *TrelloClient) AddAttachment(ctx context.Context, shortLink, name, link string) error {
	formData := url.Values{}
	formData.Set("name", name)
	formData.Set("url", link)

	req, err := newRequest(ctx, http.MethodPost, tc.endpoint("cards", shortLink, "attachments"), strings.NewReader(formData.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := do(tc.Client, "trello", req, nil); err != nil {
		return err
	}

	zap.L().Debug("Attached link to Trello card", zap.String("shortLink", shortLink), zap.String("url", link))
	return nil
}

// MoveCard moves the card to the list with the given id.
func (tc *TrelloClient) MoveCard(ctx context.Context, shortLink, listID string) error {
	formData := url.Values{}
	formData.Set("value", listID)

	req, err := newRequest(ctx, http.MethodPut, tc.endpoint("cards", shortLink, "idList"), strings.NewReader(formData.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if err := do(tc.Client, "trello", req, nil); err != nil {
		return err
	}

	zap.L().Debug("Moved Trello card", zap.String("shortLink", shortLink), zap.String("listID", listID))
	return nil
}

// endpoint builds an API URL under /1 with the key and token query params.
func (tc *TrelloClient) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	query := url.Values{}
	query.Set("key", tc.APIKey)
	query.Set("token", tc.APIToken)

	return fmt.Sprintf("%s/1/%s?%s", tc.BaseURL, strings.Join(escaped, "/"), query.Encode())
}
