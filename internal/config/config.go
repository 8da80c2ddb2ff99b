package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "dirmirror"

	// DefaultDestination is the local root the remote tree is mirrored under.
	DefaultDestination = "files/"

	// DefaultChunkSize is the number of bytes copied per write while streaming
	// a file to disk. It bounds peak memory regardless of file size.
	DefaultChunkSize = 10000

	// DefaultTimeout of zero means requests rely on network-level timeouts only.
	DefaultTimeout time.Duration = 0

	// DefaultCrawlDelay is the pause between listing fetches. Zero disables it.
	DefaultCrawlDelay time.Duration = 0

	// DefaultUserAgent identifies dirmirror in server access logs.
	DefaultUserAgent = "dirmirror/1.0 (+https://github.com/nao1215/dirmirror)"

	// DefaultMaxListingSize caps how much of a listing page is read.
	DefaultMaxListingSize = 10 * 1024 * 1024 // 10MB
)

// Config holds all options for one mirror run. It is populated from the
// configuration file, the environment and CLI flags, in that order, and then
// passed explicitly to every component.
type Config struct {
	// BaseURL is the root listing URL. Use NormalizeBaseURL before deriving
	// any child URL from it.
	BaseURL string

	// Username and Password are sent as HTTP Basic authentication with
	// every request.
	Username string
	Password string

	// Destination is the local directory the remote hierarchy is mirrored under.
	Destination string

	// ChunkSize is the copy buffer size used while streaming downloads.
	ChunkSize int

	// Timeout is the overall timeout for each HTTP request. Zero means none.
	Timeout time.Duration

	// CrawlDelay is the pause between listing fetches.
	CrawlDelay time.Duration

	// RateLimit caps download bandwidth in bytes per second. Zero means unlimited.
	RateLimit int64

	// MaxListingSize limits the bytes read from a single listing page.
	MaxListingSize int64

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// IgnorePatterns are glob patterns matched against relative paths.
	// Matching files are not downloaded and matching folders are not expanded.
	IgnorePatterns []string

	// SOCKSProxy routes every request through a SOCKS5 proxy ("host:port").
	SOCKSProxy string

	// ConfigFilePath is the configuration file given with --config.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool

	// DryRun lists the remote inventory without downloading.
	DryRun bool

	// JSONReport and MarkdownReport select the run report format.
	// The plain text summary is used when neither is set.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the run report to a file instead of stdout.
	ReportFile string

	// SaveToDB records the run in the history database under DBDir.
	SaveToDB bool
	DBDir    string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Destination:    DefaultDestination,
		ChunkSize:      DefaultChunkSize,
		Timeout:        DefaultTimeout,
		CrawlDelay:     DefaultCrawlDelay,
		UserAgent:      DefaultUserAgent,
		MaxListingSize: DefaultMaxListingSize,
		SaveToDB:       true,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for dirmirror.
// On Linux: ~/.local/share/dirmirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for dirmirror.
// On Linux: ~/.config/dirmirror
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// NormalizeBaseURL guarantees exactly one trailing slash on the base URL so
// that relative paths can be appended to it directly.
func NormalizeBaseURL(baseURL string) string {
	if strings.HasSuffix(baseURL, "/") {
		return baseURL
	}
	return baseURL + "/"
}

// Validate checks the configuration and returns the first problem found.
// It is called once before any network activity.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrMissingBaseURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if u.User != nil {
		return ErrBaseURLUserinfo
	}

	if c.Username == "" {
		return ErrMissingUsername
	}

	if c.Password == "" {
		return ErrMissingPassword
	}

	if strings.TrimSpace(c.Destination) == "" {
		return ErrMissingDestination
	}

	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.MaxListingSize <= 0 {
		return ErrInvalidMaxListingSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
