package delta

import (
	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// StripPrivateData zeroes every privacy-sensitive feature dimension in m
// before it leaves the process that built it: the session band
// (112-127), the two privacy-sensitive dims outside that band
// (cookie-consent-blocking, popup-count), and the entire feature row of
// any AUTH_REQUIRED node. It mutates m in place and is meant to run on a
// copy, never on the process's working SiteMap.
func StripPrivateData(m *sitemap.SiteMap) {
	for i := range m.Features {
		m.Features[i][feature.CookieConsentBlocking] = 0
		m.Features[i][feature.PopupCount] = 0
		for d := feature.SessionDimStart; d < feature.Dim; d++ {
			m.Features[i][d] = 0
		}
	}
	for i, n := range m.Nodes {
		if n.Flags.Has(feature.AuthRequired) {
			m.Features[i] = [feature.Dim]float32{}
		}
	}
}
