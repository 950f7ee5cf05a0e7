package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. CAMPAIGNSHOT_CREDENTIALS_PASSWORD.
const EnvPrefix = "CAMPAIGNSHOT"

// Authentication modes
const (
	AuthModeLogin     = "login"
	AuthModeProvision = "provision"
	AuthModeAuto      = "auto"
)

// Navigation entry points into the campaign form
const (
	EntryDirect = "direct"
	EntryList   = "list"
)

// Page readiness gates accepted by target.ready_state
const (
	ReadyStateLoad        = "load"
	ReadyStateNetworkIdle = "networkidle"
)

// Config represents the run configuration
type Config struct {
	Browser     BrowserConfig     `mapstructure:"browser"`
	Target      TargetConfig      `mapstructure:"target"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Navigation  NavigationConfig  `mapstructure:"navigation"`
	Campaign    CampaignConfig    `mapstructure:"campaign"`
	Screenshots ScreenshotsConfig `mapstructure:"screenshots"`
	Timeouts    TimeoutsConfig    `mapstructure:"timeouts"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type BrowserConfig struct {
	Headless       bool          `mapstructure:"headless"`
	Args           []string      `mapstructure:"args"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	Install        bool          `mapstructure:"install"`
	ExecutablePath string        `mapstructure:"executable_path"`
}

type TargetConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	LoginPath       string `mapstructure:"login_path"`
	CampaignsPath   string `mapstructure:"campaigns_path"`
	NewCampaignPath string `mapstructure:"new_campaign_path"`
	AdminURLPattern string `mapstructure:"admin_url_pattern"`
	LoginURLPattern string `mapstructure:"login_url_pattern"`
	ReadyState      string `mapstructure:"ready_state"`
}

type AuthConfig struct {
	Mode string `mapstructure:"mode"`
}

type CredentialsConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Email    string `mapstructure:"email"`
}

type NavigationConfig struct {
	Entry string `mapstructure:"entry"`
}

// FieldConfig binds a semantic form field to the strategies used to find it.
// Strategies are tried in order: test id, exact label, then position among
// the discovered text inputs.
type FieldConfig struct {
	Name     string `mapstructure:"name"`
	Value    string `mapstructure:"value"`
	TestID   string `mapstructure:"test_id"`
	Label    string `mapstructure:"label"`
	Position int    `mapstructure:"position"`
}

type CampaignConfig struct {
	Title           string        `mapstructure:"title"`
	Subtitle        string        `mapstructure:"subtitle"`
	ContentHTML     string        `mapstructure:"content_html"`
	ContentMarkdown string        `mapstructure:"content_markdown"`
	EditorMarker    string        `mapstructure:"editor_marker"`
	Fields          []FieldConfig `mapstructure:"fields"`
}

type ScreenshotsConfig struct {
	Dir     string `mapstructure:"dir"`
	Editor  string `mapstructure:"editor"`
	Preview string `mapstructure:"preview"`
	Debug   string `mapstructure:"debug"`
}

type TimeoutsConfig struct {
	LoginRedirect  time.Duration `mapstructure:"login_redirect"`
	Preview        time.Duration `mapstructure:"preview"`
	Selection      time.Duration `mapstructure:"selection"`
	Transition     time.Duration `mapstructure:"transition"`
	Ready          time.Duration `mapstructure:"ready"`
	Settle         time.Duration `mapstructure:"settle"`
	SettleFallback time.Duration `mapstructure:"settle_fallback"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const defaultContentHTML = `<h1>Welcome to Dark Mode!</h1><p>This email showcases the new dark mode feature with Material Design Icons from Fontello.</p><ul><li>Sun icon for light mode</li><li>Moon icon for dark mode</li></ul>`

func setDefaults(v *viper.Viper) {
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.args", []string{"--no-sandbox", "--disable-setuid-sandbox"})
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.default_timeout", 30*time.Second)
	v.SetDefault("browser.install", false)
	v.SetDefault("browser.executable_path", "")

	v.SetDefault("target.base_url", "http://localhost:9000")
	v.SetDefault("target.login_path", "/admin/login")
	v.SetDefault("target.campaigns_path", "/admin/campaigns")
	v.SetDefault("target.new_campaign_path", "/admin/campaigns/new")
	v.SetDefault("target.admin_url_pattern", "**/admin**")
	v.SetDefault("target.login_url_pattern", "**/login**")
	v.SetDefault("target.ready_state", ReadyStateLoad)

	v.SetDefault("auth.mode", AuthModeLogin)

	v.SetDefault("credentials.username", "admin")
	v.SetDefault("credentials.password", "adminpass123")
	v.SetDefault("credentials.email", "admin@example.com")

	v.SetDefault("navigation.entry", EntryDirect)

	v.SetDefault("campaign.title", "Dark Mode Test Campaign")
	v.SetDefault("campaign.subtitle", "Testing Dark Mode Feature")
	v.SetDefault("campaign.content_html", defaultContentHTML)
	v.SetDefault("campaign.editor_marker", `.tox-tinymce, iframe, .editor`)

	v.SetDefault("screenshots.dir", "screenshots")
	v.SetDefault("screenshots.editor", "campaign-content-editor.png")
	v.SetDefault("screenshots.preview", "campaign-preview.png")
	v.SetDefault("screenshots.debug", "debug-screenshot.png")

	v.SetDefault("timeouts.login_redirect", 10*time.Second)
	v.SetDefault("timeouts.preview", 5*time.Second)
	v.SetDefault("timeouts.selection", 5*time.Second)
	v.SetDefault("timeouts.transition", 10*time.Second)
	v.SetDefault("timeouts.ready", 5*time.Second)
	v.SetDefault("timeouts.settle", 3*time.Second)
	v.SetDefault("timeouts.settle_fallback", time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Default returns the built-in configuration with no file or environment applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults alone always decode.
	_ = v.Unmarshal(cfg)
	cfg.applyFieldDefaults()
	return cfg
}

// Load builds the configuration from defaults, an optional .env file, an
// optional YAML config file and CAMPAIGNSHOT_* environment variables.
// An empty configFile searches for campaignshot.yaml in . and ./config.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("campaignshot")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			// It's OK if no config file exists
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyFieldDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFieldDefaults declares the title/subtitle bindings when none are
// configured and fills empty binding values from the campaign texts.
func (c *Config) applyFieldDefaults() {
	if len(c.Campaign.Fields) == 0 {
		c.Campaign.Fields = []FieldConfig{
			{Name: "title", Position: 0},
			{Name: "subtitle", Position: 1},
		}
	}
	for i := range c.Campaign.Fields {
		f := &c.Campaign.Fields[i]
		if f.Value != "" {
			continue
		}
		switch f.Name {
		case "title":
			f.Value = c.Campaign.Title
		case "subtitle":
			f.Value = c.Campaign.Subtitle
		}
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Target.BaseURL == "" {
		problems = append(problems, "target.base_url is required")
	}
	switch c.Target.ReadyState {
	case ReadyStateLoad, ReadyStateNetworkIdle:
	default:
		problems = append(problems, fmt.Sprintf("target.ready_state %q must be %q or %q", c.Target.ReadyState, ReadyStateLoad, ReadyStateNetworkIdle))
	}
	switch c.Auth.Mode {
	case AuthModeLogin, AuthModeProvision, AuthModeAuto:
	default:
		problems = append(problems, fmt.Sprintf("auth.mode %q must be one of login, provision, auto", c.Auth.Mode))
	}
	switch c.Navigation.Entry {
	case EntryDirect, EntryList:
	default:
		problems = append(problems, fmt.Sprintf("navigation.entry %q must be direct or list", c.Navigation.Entry))
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		problems = append(problems, "browser viewport must be positive")
	}
	if len(c.Campaign.Fields) < 2 {
		problems = append(problems, "campaign.fields needs at least two bindings")
	}

	timeouts := map[string]time.Duration{
		"timeouts.login_redirect":  c.Timeouts.LoginRedirect,
		"timeouts.preview":         c.Timeouts.Preview,
		"timeouts.selection":       c.Timeouts.Selection,
		"timeouts.transition":      c.Timeouts.Transition,
		"timeouts.ready":           c.Timeouts.Ready,
		"timeouts.settle":          c.Timeouts.Settle,
		"timeouts.settle_fallback": c.Timeouts.SettleFallback,
		"browser.default_timeout":  c.Browser.DefaultTimeout,
	}
	for _, name := range sortedKeys(timeouts) {
		if timeouts[name] <= 0 {
			problems = append(problems, name+" must be positive")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}

// URL joins the target base URL with a path.
func (c *TargetConfig) URL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

// LoginURL returns the admin login/signup address
func (c *TargetConfig) LoginURL() string { return c.URL(c.LoginPath) }

// CampaignsURL returns the campaign list address
func (c *TargetConfig) CampaignsURL() string { return c.URL(c.CampaignsPath) }

// NewCampaignURL returns the campaign-creation address
func (c *TargetConfig) NewCampaignURL() string { return c.URL(c.NewCampaignPath) }

func sortedKeys(m map[string]time.Duration) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
