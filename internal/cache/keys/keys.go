// Package keys derives filesystem- and cache-key-safe names from site
// domains, so the Map Cache (C5) and the Registry (C6) never hand a raw,
// attacker-influenced domain string straight to os.Open or a map key.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// DomainFile returns the on-disk filename for domain's cached SiteMap,
// e.g. "example.com" -> "example.com.ctx". Dots are kept (they read
// naturally in a directory listing); anything that isn't safe on a
// filesystem is replaced with '-' and a short hash suffix is appended so
// two different domains can never collide onto the same sanitized name.
func DomainFile(domain string) string {
	safe := sanitize(domain)
	if safe == domain {
		return safe + ".ctx"
	}
	sum := xxhash.Sum64String(domain)
	return fmt.Sprintf("%s-%016x.ctx", safe, sum)
}

// RegistryDir returns the on-disk directory name for domain's registry
// data, mirroring the reference implementation's "."-to-"_" domain
// encoding (so "example.com" becomes "example_com").
func RegistryDir(domain string) string {
	return strings.ReplaceAll(sanitize(domain), ".", "_")
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		var out rune
		switch {
		case isAlphaNum(r) || r == '.' || r == '-':
			out = r
		default:
			out = '-'
		}
		if out == '-' && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return strings.Trim(b.String(), "-")
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
