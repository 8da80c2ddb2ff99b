package config

import "time"

// File represents the structure of the dirmirror YAML configuration file.
//
//	url:
//	  base_url: https://files.example.com/pub/
//	credentials:
//	  username: alice
//	  password: secret
//	mirror:
//	  destination: files/
type File struct {
	URL         URLSection         `yaml:"url"`
	Credentials CredentialsSection `yaml:"credentials"`
	Mirror      MirrorSection      `yaml:"mirror,omitempty"`
}

// URLSection holds the remote root listing.
type URLSection struct {
	BaseURL string `yaml:"base_url"`
}

// CredentialsSection holds the Basic authentication pair.
type CredentialsSection struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MirrorSection holds optional tuning for the crawl and the downloads.
// Zero values leave the defaults untouched.
type MirrorSection struct {
	Destination    string        `yaml:"destination,omitempty"`
	UserAgent      string        `yaml:"user_agent,omitempty"`
	Delay          time.Duration `yaml:"delay,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	RateLimit      int64         `yaml:"rate_limit,omitempty"`
	IgnorePatterns []string      `yaml:"ignore_patterns,omitempty"`
	SOCKSProxy     string        `yaml:"socks_proxy,omitempty"`
}

// Apply copies every value set in the file onto cfg.
func (f *File) Apply(cfg *Config) {
	if f.URL.BaseURL != "" {
		cfg.BaseURL = f.URL.BaseURL
	}
	if f.Credentials.Username != "" {
		cfg.Username = f.Credentials.Username
	}
	if f.Credentials.Password != "" {
		cfg.Password = f.Credentials.Password
	}

	m := f.Mirror
	if m.Destination != "" {
		cfg.Destination = m.Destination
	}
	if m.UserAgent != "" {
		cfg.UserAgent = m.UserAgent
	}
	if m.Delay != 0 {
		cfg.CrawlDelay = m.Delay
	}
	if m.Timeout != 0 {
		cfg.Timeout = m.Timeout
	}
	if m.RateLimit != 0 {
		cfg.RateLimit = m.RateLimit
	}
	if len(m.IgnorePatterns) > 0 {
		cfg.IgnorePatterns = m.IgnorePatterns
	}
	if m.SOCKSProxy != "" {
		cfg.SOCKSProxy = m.SOCKSProxy
	}
}
