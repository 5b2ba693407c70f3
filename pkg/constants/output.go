package constants

// CLI Output Formatting
//
// These constants control the visual formatting of CLI output.
const (
	// SeparatorWidth is the character width of console separators/dividers.
	// Used for visual section breaks in import results and status output.
	SeparatorWidth = 60
	// ProgressEvery controls how often (in changes) replay progress is reported.
	ProgressEvery = 25
)
