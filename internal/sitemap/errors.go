package sitemap

import "errors"

// Format/integrity errors (spec §7, kind 1). These are never retried
// internally and are surfaced to the caller verbatim.
var (
	ErrInvalidMagic       = errors.New("sitemap: invalid magic")
	ErrUnsupportedVersion = errors.New("sitemap: unsupported version")
	ErrChecksumMismatch   = errors.New("sitemap: checksum mismatch")
	ErrTruncated          = errors.New("sitemap: truncated data")
)
