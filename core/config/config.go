package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"autodraft.app/assistant/core/db"
)

type Config struct {
	OTel     OTelConfig
	Google   GoogleConfig
	Oracle   LLMConfig
	Matching MatchingConfig
	Drive    DriveConfig
	Sheets   SheetsConfig
	Draft    DraftConfig
	Slack    SlackConfig
	RunLock  RunLockConfig
	Env      string
	HTTPPort string
	Polling  time.Duration
	PageSize int64
	DB       db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type GoogleConfig struct {
	CredentialsPath string
	TokenPath       string
}

type LLMConfig struct {
	Provider  string // "anthropic" or "openai"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
}

// MatchingConfig controls which notes messages are picked up and how people
// in them are recognised.
type MatchingConfig struct {
	NotesSender       string
	ProductionSubject string
	SubjectRulesPath  string // Optional YAML file overriding the built-in subject rules
	HostName          string
	SystemTokens      []string
	InternalSenders   []string
	ProcessedLabel    string
}

type DriveConfig struct {
	BasePath       string // "<shared drive>/<folder>/<folder>"
	BaseFolderID   string // Optional: skips the path walk below the shared drive
	EditFolderName string
	OutlineDocName string
}

type SheetsConfig struct {
	SpreadsheetID string
	GID           int64
}

type DraftConfig struct {
	ReferencesLink     string
	TechGuidelinesLink string
	ReplySubject       string
	NewSubject         string
}

type SlackConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

type RunLockConfig struct {
	RedisURL string
	Key      string
	TTL      time.Duration
}

// Load loads configuration from environment variables.
// In development, values from a local .env file are loaded first.
func Load() (Config, error) {
	loadDotEnv()

	cfg := Config{
		Env:      getEnv("AUTODRAFT_ENV", "development"),
		HTTPPort: getEnv("HTTP_PORT", ""),
		Polling:  time.Duration(getEnvInt("POLLING_INTERVAL_SECONDS", 300)) * time.Second,
		PageSize: int64(getEnvInt("PAGE_SIZE", 10)),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 4),
			MinConns: getEnvInt32("DB_MIN_CONNS", 1),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "autodraft"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Google: loadGoogle(),
		Oracle: LLMConfig{
			Provider:  getEnv("ORACLE_LLM_PROVIDER", "anthropic"),
			APIKey:    getEnv("ORACLE_LLM_API_KEY", getEnv("ANTHROPIC_API_KEY", "")),
			BaseURL:   getEnv("ORACLE_LLM_BASE_URL", ""),
			Model:     getEnv("ORACLE_LLM_MODEL", "claude-sonnet-4-20250514"),
			MaxTokens: getEnvInt("ORACLE_LLM_MAX_TOKENS", 1024),
		},
		Matching: MatchingConfig{
			NotesSender:       getEnv("GEMINI_SENDER", "gemini-notes@google.com"),
			ProductionSubject: getEnv("PRODUCTION_SUBJECT", "21 Draw Course Production"),
			SubjectRulesPath:  getEnv("SUBJECT_RULES_PATH", ""),
			HostName:          getEnv("HOST_NAME", "Marian Merour"),
			SystemTokens:      getEnvList("SYSTEM_ADDRESS_TOKENS", []string{"google.com", "noreply"}),
			InternalSenders:   getEnvList("INTERNAL_SENDERS", []string{"gerardo@21-draw.com", "chris@21-draw.com"}),
			ProcessedLabel:    getEnv("PROCESSED_LABEL", "AutoDraft/Processed"),
		},
		Drive: DriveConfig{
			BasePath:       getEnv("DRIVE_BASE_FOLDER", "Ext - 21 Draw/_online_courses"),
			BaseFolderID:   getEnv("DRIVE_BASE_FOLDER_ID", ""),
			EditFolderName: getEnv("DRIVE_EDIT_FOLDER", "_artist_edit"),
			OutlineDocName: getEnv("DRIVE_OUTLINE_DOC", "Course Outline"),
		},
		Sheets: SheetsConfig{
			SpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),
			GID:           int64(getEnvInt("SHEETS_GID", 0)),
		},
		Draft: DraftConfig{
			ReferencesLink:     getEnv("REFERENCES_LINK", "https://drive.google.com/open?id=1AWlDLh-6TPDGcFWE5uDoTQHB0fN0Cauu&usp=drive_fs"),
			TechGuidelinesLink: getEnv("TECH_GUIDELINES_LINK", "https://docs.google.com/document/d/1-mEJzqgESWEyxjRzKMbh4mP-pxX-AqPgmPyvI0HMqTU/edit?usp=sharing"),
			ReplySubject:       getEnv("DRAFT_REPLY_SUBJECT", "Re: 21 Draw Course Production"),
			NewSubject:         getEnv("DRAFT_NEW_SUBJECT", "21 Draw Course Production - Follow Up"),
		},
		Slack: SlackConfig{
			WebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
			Timeout:    10 * time.Second,
		},
		RunLock: RunLockConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			Key:      getEnv("RUN_LOCK_KEY", "autodraft:run"),
			TTL:      time.Duration(getEnvInt("RUN_LOCK_TTL_SECONDS", 600)) * time.Second,
		},
	}

	if cfg.Oracle.APIKey == "" {
		return Config{}, fmt.Errorf("ORACLE_LLM_API_KEY (or ANTHROPIC_API_KEY) is required")
	}
	if cfg.PageSize <= 0 {
		return Config{}, fmt.Errorf("PAGE_SIZE must be positive")
	}

	return cfg, nil
}

// LoadGoogle reads only the OAuth file locations, for commands that do not
// talk to the oracle.
func LoadGoogle() GoogleConfig {
	loadDotEnv()
	return loadGoogle()
}

func loadGoogle() GoogleConfig {
	return GoogleConfig{
		CredentialsPath: getEnv("GMAIL_CREDENTIALS_PATH", "credentials/gmail_credentials.json"),
		TokenPath:       getEnv("GMAIL_TOKEN_PATH", "credentials/token.json"),
	}
}

func loadDotEnv() {
	if getEnv("AUTODRAFT_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c SheetsConfig) Enabled() bool {
	return c.SpreadsheetID != ""
}

func (c SlackConfig) Enabled() bool {
	return c.WebhookURL != ""
}

func (c RunLockConfig) Enabled() bool {
	return c.RedisURL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvList reads a comma-separated list, dropping blank entries.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
