package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ErrInvalid wraps every validation failure returned by Load.
var ErrInvalid = errors.New("invalid configuration")

// BoardConfig holds the Trello board and workflow columns for one repository.
type BoardConfig struct {
	BoardID    string `json:"TRELLO_BOARD_ID"`
	ColumnOpen string `json:"TRELLO_COLUMN_OPEN"`
	ColumnDev  string `json:"TRELLO_COLUMN_DEV"`
	ColumnCan  string `json:"TRELLO_COLUMN_CAN"`
	ColumnRel  string `json:"TRELLO_COLUMN_REL"`
}

type Config struct {
	WebhookSecret string
	GitHubToken   string
	UserAgent     string

	TrelloKey    string
	TrelloToken  string
	TrelloAPIURL string

	// Boards is keyed by GitHub repository id.
	Boards map[int64]BoardConfig

	Port         string
	LogLevel     string
	DatabasePath string
	HTTPTimeout  time.Duration
	CardWorkers  int
}

// Load reads configuration from an optional .env file, an optional
// config.toml in the working directory and the environment, in increasing
// order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("No .env file loaded", zap.Error(err))
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("port", "2224")
	v.SetDefault("log_level", "debug")
	v.SetDefault("database_path", "bridge.db")
	v.SetDefault("trello_api_url", "https://api.trello.com")
	v.SetDefault("github_user_agent", "trellobot")
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("card_workers", 10)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		WebhookSecret: v.GetString("github_webhook_secret"),
		GitHubToken:   v.GetString("github_token"),
		UserAgent:     v.GetString("github_user_agent"),
		TrelloKey:     v.GetString("trello_key"),
		TrelloToken:   v.GetString("trello_token"),
		TrelloAPIURL:  strings.TrimRight(v.GetString("trello_api_url"), "/"),
		Port:          v.GetString("port"),
		LogLevel:      strings.ToLower(v.GetString("log_level")),
		DatabasePath:  v.GetString("database_path"),
		HTTPTimeout:   v.GetDuration("http_timeout"),
		CardWorkers:   v.GetInt("card_workers"),
	}

	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: GITHUB_WEBHOOK_SECRET is required", ErrInvalid)
	}
	if cfg.CardWorkers <= 0 {
		return nil, fmt.Errorf("%w: CARD_WORKERS must be positive, got %d", ErrInvalid, cfg.CardWorkers)
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("%w: HTTP_TIMEOUT must be positive", ErrInvalid)
	}

	boards, err := ParseBoards(v.Get("trello_ids"))
	if err != nil {
		return nil, err
	}
	cfg.Boards = boards

	return cfg, nil
}

// ParseBoards decodes the TRELLO_IDS mapping. The raw value is either a JSON
// string (from the environment) or a table decoded from the config file.
func ParseBoards(raw any) (map[int64]BoardConfig, error) {
	var data []byte
	switch val := raw.(type) {
	case nil:
		return nil, fmt.Errorf("%w: TRELLO_IDS is required", ErrInvalid)
	case string:
		data = []byte(val)
	case []byte:
		data = val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("%w: TRELLO_IDS: %v", ErrInvalid, err)
		}
		data = b
	}

	var byKey map[string]BoardConfig
	if err := json.Unmarshal(data, &byKey); err != nil {
		return nil, fmt.Errorf("%w: TRELLO_IDS is not a JSON object of boards: %v", ErrInvalid, err)
	}
	if len(byKey) == 0 {
		return nil, fmt.Errorf("%w: TRELLO_IDS has no repositories", ErrInvalid)
	}

	boards := make(map[int64]BoardConfig, len(byKey))
	for key, board := range byKey {
		repoID, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: TRELLO_IDS key %q is not a repository id", ErrInvalid, key)
		}
		if err := board.validate(); err != nil {
			return nil, fmt.Errorf("%w: TRELLO_IDS[%s]: %v", ErrInvalid, key, err)
		}
		boards[repoID] = board
	}
	return boards, nil
}

func (b BoardConfig) validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"TRELLO_BOARD_ID", b.BoardID},
		{"TRELLO_COLUMN_OPEN", b.ColumnOpen},
		{"TRELLO_COLUMN_DEV", b.ColumnDev},
		{"TRELLO_COLUMN_CAN", b.ColumnCan},
		{"TRELLO_COLUMN_REL", b.ColumnRel},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is empty", f.name)
		}
	}
	return nil
}
