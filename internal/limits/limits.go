package limits

// Memory safety limits to prevent unbounded growth and OOM

const (
	// MaxScanRows is the most rows Store buffers by default. Larger sets
	// should be streamed with Use.
	MaxScanRows = 100000

	// MaxRawQuerySize is the maximum size in bytes of one statement or
	// template. Set to 10MB to allow legitimate bulk inserts.
	MaxRawQuerySize = 10 * 1024 * 1024 // 10MB

	// MaxTemplateParams is one more than the largest ordinal a marker can
	// spell with three digits.
	MaxTemplateParams = 1000

	// MaxCachedTemplates bounds the parsed-template cache.
	MaxCachedTemplates = 256
)
