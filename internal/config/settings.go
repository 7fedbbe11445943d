package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProviderMeta    = "meta"
	ProviderInfobip = "infobip"

	StoreFile  = "file"
	StoreMongo = "mongo"
)

type MetaConfig struct {
	GraphAPIURL   string
	Version       string
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
}

type InfobipConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Sender       string
}

// Config holds every runtime setting of the bot.
type Config struct {
	Port     string
	LogLevel string
	LogJSON  bool

	Provider string
	Meta     MetaConfig
	Infobip  InfobipConfig

	StoreBackend  string
	DBFile        string
	MongoURI      string
	MongoDatabase string

	CSVFile       string
	RemoteSinkURL string
	SQLitePath    string
	SinkTimeout   time.Duration

	ScriptFile string

	DebounceDelay  time.Duration
	AnalysisDelay  time.Duration
	TypingMinDelay time.Duration
	TypingMaxDelay time.Duration
}

// Load builds a Config from the environment and validates all of it. Provider
// credentials are checked here so that a misconfigured deployment fails at
// start-up instead of on the first outbound message.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read builds a Config from the environment without validating it. Offline
// commands use it with ValidateStore.
func Read() (*Config, error) {
	cfg := &Config{
		Port:     GetEnvOrDefault("PORT", "3000"),
		LogLevel: GetEnvOrDefault("LOG_LEVEL", "info"),
		LogJSON:  GetBool("LOG_JSON", true),

		Provider: strings.ToLower(GetEnvOrDefault("CHANNEL_PROVIDER", ProviderMeta)),
		Meta: MetaConfig{
			GraphAPIURL:   GetEnvOrDefault("GRAPH_API_URL", "https://graph.facebook.com"),
			Version:       GetEnvOrDefault("GRAPH_API_VERSION", "v21.0"),
			AccessToken:   GetEnvOrDefault("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: GetEnvOrDefault("WHATSAPP_PHONE_NUMBER_ID", ""),
			VerifyToken:   GetEnvOrDefault("API_KEY", ""),
		},
		Infobip: InfobipConfig{
			BaseURL:      GetEnvOrDefault("INFOBIP_URL", ""),
			ClientID:     GetEnvOrDefault("INFOBIP_CLIENT_ID", ""),
			ClientSecret: GetEnvOrDefault("INFOBIP_CLIENT_SECRET", ""),
			Sender:       GetEnvOrDefault("WHATSAPP_PHONE_NUMBER", ""),
		},

		StoreBackend:  strings.ToLower(GetEnvOrDefault("STORE_BACKEND", StoreFile)),
		DBFile:        GetEnvOrDefault("DB_FILE", "db.json"),
		MongoURI:      GetEnvOrDefault("MONGODB_URI", ""),
		MongoDatabase: GetEnvOrDefault("MONGODB_DATABASE", "SurveyBot"),

		CSVFile:       GetEnvOrDefault("CSV_FILE", "respostas.csv"),
		RemoteSinkURL: GetEnvOrDefault("REMOTE_SINK_URL", ""),
		SQLitePath:    GetEnvOrDefault("SQLITE_PATH", ""),

		ScriptFile: GetEnvOrDefault("SCRIPT_FILE", ""),
	}

	durations := []struct {
		key      string
		target   *time.Duration
		fallback time.Duration
	}{
		{"DEBOUNCE_DELAY", &cfg.DebounceDelay, 2 * time.Second},
		{"ANALYSIS_DELAY", &cfg.AnalysisDelay, 10 * time.Second},
		{"TYPING_MIN_DELAY", &cfg.TypingMinDelay, 2 * time.Second},
		{"TYPING_MAX_DELAY", &cfg.TypingMaxDelay, 5 * time.Second},
		{"SINK_TIMEOUT", &cfg.SinkTimeout, 15 * time.Second},
	}
	for _, d := range durations {
		value, err := GetDuration(d.key, d.fallback)
		if err != nil {
			return nil, err
		}
		*d.target = value
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TypingMaxDelay < c.TypingMinDelay {
		return fmt.Errorf("TYPING_MAX_DELAY (%s) must not be lower than TYPING_MIN_DELAY (%s)", c.TypingMaxDelay, c.TypingMinDelay)
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}
	return c.validateProvider()
}

// ValidateStore checks only the contact store settings.
func (c *Config) ValidateStore() error {
	switch c.StoreBackend {
	case StoreFile:
		if c.DBFile == "" {
			return fmt.Errorf("DB_FILE is not set")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is not set")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func (c *Config) validateProvider() error {
	var required []struct{ name, value string }
	switch c.Provider {
	case ProviderMeta:
		required = []struct{ name, value string }{
			{"WHATSAPP_ACCESS_TOKEN", c.Meta.AccessToken},
			{"WHATSAPP_PHONE_NUMBER_ID", c.Meta.PhoneNumberID},
			{"API_KEY", c.Meta.VerifyToken},
		}
	case ProviderInfobip:
		required = []struct{ name, value string }{
			{"INFOBIP_URL", c.Infobip.BaseURL},
			{"INFOBIP_CLIENT_ID", c.Infobip.ClientID},
			{"INFOBIP_CLIENT_SECRET", c.Infobip.ClientSecret},
			{"WHATSAPP_PHONE_NUMBER", c.Infobip.Sender},
		}
	default:
		return fmt.Errorf("unknown CHANNEL_PROVIDER %q", c.Provider)
	}

	for _, item := range required {
		if item.value == "" {
			return fmt.Errorf("%s is not set", item.name)
		}
	}
	return nil
}
