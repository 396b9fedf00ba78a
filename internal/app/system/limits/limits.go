// internal/app/system/limits/limits.go
package limits

// Request body size limits. Uploads have their own ceiling in the
// documents workflow.
const (
	// MaxJSONBody caps JSON API request bodies.
	MaxJSONBody = 1 << 20 // 1 MiB

	// MaxFormOverhead is what a multipart upload may carry beyond the
	// file itself: boundaries, part headers and small text fields.
	MaxFormOverhead = 64 << 10 // 64 KiB
)
