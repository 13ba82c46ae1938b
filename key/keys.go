// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 13

// Provider Source Identifiers - these keys manage the selection of source drivers.
const (
	DefaultSources = "sources.default"
)

// Resolution Pipeline - these keys govern how the runner filters and fans out work.
const (
	ScrapeTarget       = "scrape.target"
	ScrapeConsistentIP = "scrape.consistent_ip"
	ScrapeConcurrency  = "scrape.concurrency"
)

// Network Transport - these keys configure the fetch capability shared by every driver.
const (
	NetworkTimeout        = "network.timeout"
	NetworkUserAgent      = "network.user_agent"
	NetworkTLSFingerprint = "network.tls_fingerprint"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
