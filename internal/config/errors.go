package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is the class of every configuration error. All errors
// returned by Config.Validate wrap it, so callers can tell a configuration
// problem apart from a network or filesystem failure with errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// Configuration validation errors.
var (
	// ErrMissingBaseURL is returned when url.base_url is empty.
	ErrMissingBaseURL = fmt.Errorf("%w: url.base_url is required", ErrInvalidConfig)

	// ErrInvalidBaseURL is returned when the base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = fmt.Errorf("%w: url.base_url must be an absolute http or https URL", ErrInvalidConfig)

	// ErrBaseURLUserinfo is returned when the base URL embeds user:password.
	ErrBaseURLUserinfo = fmt.Errorf("%w: url.base_url must not contain credentials", ErrInvalidConfig)

	// ErrMissingUsername is returned when credentials.username is empty.
	ErrMissingUsername = fmt.Errorf("%w: credentials.username is required", ErrInvalidConfig)

	// ErrMissingPassword is returned when credentials.password is empty.
	ErrMissingPassword = fmt.Errorf("%w: credentials.password is required", ErrInvalidConfig)

	// ErrMissingDestination is returned when the local destination root is empty.
	ErrMissingDestination = fmt.Errorf("%w: destination directory is required", ErrInvalidConfig)

	// ErrInvalidChunkSize is returned when the download chunk size is not positive.
	ErrInvalidChunkSize = fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)

	// ErrInvalidTimeout is returned when the request timeout is negative.
	// Zero disables the timeout.
	ErrInvalidTimeout = fmt.Errorf("%w: timeout must be non-negative", ErrInvalidConfig)

	// ErrInvalidCrawlDelay is returned when the delay between listing fetches is negative.
	ErrInvalidCrawlDelay = fmt.Errorf("%w: delay must be non-negative", ErrInvalidConfig)

	// ErrInvalidRateLimit is returned when the bandwidth limit is negative.
	ErrInvalidRateLimit = fmt.Errorf("%w: rate limit must be non-negative", ErrInvalidConfig)

	// ErrInvalidMaxListingSize is returned when the listing size cap is not positive.
	ErrInvalidMaxListingSize = fmt.Errorf("%w: max listing size must be positive", ErrInvalidConfig)

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = fmt.Errorf("%w: --json and --markdown cannot be used together", ErrInvalidConfig)
)
