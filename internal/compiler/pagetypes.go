package compiler

import "github.com/webcortex/sitemap-engine/internal/feature"

// minGroupConfidence is the confidence floor (§4.9 step 1) below which a
// node's page type guess is too unreliable to contribute to a model.
const minGroupConfidence = 0.3

// minInstances is the minimum instance count (§4.9 step 2) a non-singleton
// type needs to survive into the compiled schema.
const minInstances = 2

// schemaOrgType maps a node's PageType tag onto the closed Schema.org type
// table this compiler recognizes. It's a partial function: PageTypeTags
// with no well-defined Schema.org analogue return ("", false) and are
// dropped, exactly as the spec's step 1 describes for "unknown page
// types". The destination strings are always one of the twenty types
// named in the spec's closed table.
func schemaOrgType(p feature.PageTypeTag) (string, bool) {
	switch p {
	case feature.Home:
		return "WebSite", true
	case feature.SearchResults:
		return "SearchResultsPage", true
	case feature.ProductListing:
		return "ProductListing", true
	case feature.ProductDetail:
		return "Product", true
	case feature.Article:
		return "Article", true
	case feature.Documentation:
		return "TechArticle", true
	case feature.Login:
		return "LoginPage", true
	case feature.Checkout:
		return "CheckoutPage", true
	case feature.Cart:
		return "Cart", true
	case feature.Account:
		return "Account", true
	case feature.MediaPage:
		return "MediaObject", true
	case feature.SocialFeed:
		return "SocialMediaPosting", true
	case feature.Forum:
		return "DiscussionForumPosting", true
	case feature.Calendar:
		return "Event", true
	case feature.PricingPage:
		return "Offer", true
	case feature.AboutPage:
		return "Organization", true
	case feature.ContactPage:
		return "ContactPoint", true
	case feature.FAQ:
		return "FAQPage", true
	case feature.Dashboard:
		return "Dashboard", true
	default:
		return "", false
	}
}

// pageTypeForModel is the reverse of schemaOrgType: the closed table the
// WQL executor (§4.14) uses to translate a FROM clause's model name back
// to the PageTypeTag it scans for.
var pageTypeForModel = func() map[string]feature.PageTypeTag {
	m := make(map[string]feature.PageTypeTag)
	for _, p := range []feature.PageTypeTag{
		feature.Home, feature.SearchResults, feature.ProductListing, feature.ProductDetail,
		feature.Article, feature.Documentation, feature.Login, feature.Checkout, feature.Cart,
		feature.Account, feature.MediaPage, feature.SocialFeed, feature.Forum, feature.Calendar,
		feature.PricingPage, feature.AboutPage, feature.ContactPage, feature.FAQ, feature.Dashboard,
	} {
		if schemaType, ok := schemaOrgType(p); ok {
			m[schemaType] = p
		}
	}
	return m
}()

// PageTypeForModel resolves a Schema.org type name (e.g. "Product") to
// the PageTypeTag whose instances the schema compiler groups into it.
func PageTypeForModel(modelName string) (feature.PageTypeTag, bool) {
	p, ok := pageTypeForModel[modelName]
	return p, ok
}

// singletonTypes names the Schema.org types §4.9 step 2 exempts from the
// minimum-instance-count rule: a site only ever has one cart, one
// checkout, one login form, and so on.
var singletonTypes = map[string]bool{
	"Cart":              true,
	"CheckoutPage":       true,
	"Account":            true,
	"LoginPage":          true,
	"WebSite":            true,
	"SearchResultsPage":  true,
	"Dashboard":          true,
}

// simplifiedName applies the §4.9 step 7 model-naming simplification
// table to a Schema.org type, giving the human-facing DataModel.Name.
// Types without a simpler alias keep their Schema.org spelling.
func simplifiedName(schemaType string) string {
	switch schemaType {
	case "FAQPage":
		return "FAQ"
	case "TechArticle":
		return "Article"
	case "ProductListing":
		return "Category"
	case "WebSite":
		return "Site"
	case "CheckoutPage":
		return "Checkout"
	case "LoginPage":
		return "Login"
	case "SearchResultsPage":
		return "SearchResults"
	default:
		return schemaType
	}
}
