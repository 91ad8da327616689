package compiler

import "github.com/webcortex/sitemap-engine/internal/feature"

// action bytes within each opcode category (§6, closed table).
const (
	actNavNavigate uint8 = 0x00

	actFormSubmit uint8 = 0x00

	actCartAdd      uint8 = 0x00
	actCartRemove   uint8 = 0x01
	actCartUpdate   uint8 = 0x02
	actCartCoupon   uint8 = 0x03
	actCartCheckout uint8 = 0x04
	actCartWishlist uint8 = 0x05

	actAuthLogin    uint8 = 0x00
	actAuthLogout   uint8 = 0x01
	actAuthRegister uint8 = 0x02

	actMediaPlay     uint8 = 0x00
	actMediaPause    uint8 = 0x01
	actMediaDownload uint8 = 0x02

	actSocialLike    uint8 = 0x00
	actSocialShare   uint8 = 0x01
	actSocialComment uint8 = 0x02
	actSocialFollow  uint8 = 0x03

	actDataExport uint8 = 0x00
	actDataImport uint8 = 0x01
)

// actionDef is the closed-table description of one (category, action)
// opcode pair: its stable name, whether it applies to a specific instance
// or the site as a whole, and the HTTP routing used to invoke it.
type actionDef struct {
	Name             string
	Model            string // fixed model name, or "" to resolve to the node's own model
	IsInstanceMethod bool
	HTTPMethod       string
	Endpoint         string
	Params           []ActionParam
}

var actionTable = map[feature.OpCode]actionDef{
	{Category: feature.OpcodeNav, Action: actNavNavigate}: {
		Name: "navigate", Model: "", IsInstanceMethod: true,
		HTTPMethod: "GET", Endpoint: "/navigate/{node_id}",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: true}},
	},
	{Category: feature.OpcodeForm, Action: actFormSubmit}: {
		Name: "submit_form", Model: "", IsInstanceMethod: true,
		HTTPMethod: "POST", Endpoint: "/form/submit",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: true}},
	},
	{Category: feature.OpcodeCart, Action: actCartAdd}: {
		Name: "add_to_cart", Model: "Cart", IsInstanceMethod: false,
		HTTPMethod: "POST", Endpoint: "/cart/add",
		Params: []ActionParam{
			{Name: "node_id", Type: "int", Required: true},
			{Name: "quantity", Type: "int", Required: false, Default: "1"},
		},
	},
	{Category: feature.OpcodeCart, Action: actCartRemove}: {
		Name: "remove_from_cart", Model: "Cart", IsInstanceMethod: false,
		HTTPMethod: "POST", Endpoint: "/cart/remove",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: true}},
	},
	{Category: feature.OpcodeCart, Action: actCartUpdate}: {
		Name: "update_cart", Model: "Cart", IsInstanceMethod: false,
		HTTPMethod: "POST", Endpoint: "/cart/update",
		Params: []ActionParam{
			{Name: "node_id", Type: "int", Required: true},
			{Name: "quantity", Type: "int", Required: true},
		},
	},
	{Category: feature.OpcodeCart, Action: actCartCoupon}: {
		Name: "apply_coupon", Model: "Cart", IsInstanceMethod: false,
		HTTPMethod: "POST", Endpoint: "/cart/coupon",
		Params: []ActionParam{{Name: "code", Type: "string", Required: true}},
	},
	{Category: feature.OpcodeCart, Action: actCartCheckout}: {
		Name: "checkout", Model: "Checkout", IsInstanceMethod: false,
		HTTPMethod: "POST", Endpoint: "/checkout",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: false}},
	},
	{Category: feature.OpcodeCart, Action: actCartWishlist}: {
		Name: "add_to_wishlist", Model: "Cart", IsInstanceMethod: false,
		HTTPMethod: "POST", Endpoint: "/wishlist/add",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: true}},
	},
	{Category: feature.OpcodeAuth, Action: actAuthLogin}: {
		Name: "login", Model: "Login", IsInstanceMethod: false,
		HTTPMethod: "POST", Endpoint: "/auth/login",
		Params: []ActionParam{
			{Name: "username", Type: "string", Required: true},
			{Name: "password", Type: "string", Required: true},
		},
	},
	{Category: feature.OpcodeAuth, Action: actAuthLogout}: {
		Name: "logout", Model: "Account", IsInstanceMethod: false,
		HTTPMethod: "POST", Endpoint: "/auth/logout",
	},
	{Category: feature.OpcodeAuth, Action: actAuthRegister}: {
		Name: "register", Model: "Login", IsInstanceMethod: false,
		HTTPMethod: "POST", Endpoint: "/auth/register",
		Params: []ActionParam{
			{Name: "username", Type: "string", Required: true},
			{Name: "password", Type: "string", Required: true},
			{Name: "email", Type: "string", Required: false},
		},
	},
	{Category: feature.OpcodeMedia, Action: actMediaPlay}: {
		Name: "play_media", Model: "MediaObject", IsInstanceMethod: true,
		HTTPMethod: "POST", Endpoint: "/media/play",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: true}},
	},
	{Category: feature.OpcodeMedia, Action: actMediaPause}: {
		Name: "pause_media", Model: "MediaObject", IsInstanceMethod: true,
		HTTPMethod: "POST", Endpoint: "/media/pause",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: true}},
	},
	{Category: feature.OpcodeMedia, Action: actMediaDownload}: {
		Name: "download", Model: "MediaObject", IsInstanceMethod: true,
		HTTPMethod: "GET", Endpoint: "/download/{node_id}",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: true}},
	},
	{Category: feature.OpcodeSocial, Action: actSocialLike}: {
		Name: "like", Model: "", IsInstanceMethod: true,
		HTTPMethod: "POST", Endpoint: "/social/like",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: true}},
	},
	{Category: feature.OpcodeSocial, Action: actSocialShare}: {
		Name: "share", Model: "", IsInstanceMethod: true,
		HTTPMethod: "POST", Endpoint: "/social/share",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: true}},
	},
	{Category: feature.OpcodeSocial, Action: actSocialComment}: {
		Name: "comment", Model: "", IsInstanceMethod: true,
		HTTPMethod: "POST", Endpoint: "/social/comment",
		Params: []ActionParam{
			{Name: "node_id", Type: "int", Required: true},
			{Name: "text", Type: "string", Required: true},
		},
	},
	{Category: feature.OpcodeSocial, Action: actSocialFollow}: {
		Name: "follow", Model: "", IsInstanceMethod: true,
		HTTPMethod: "POST", Endpoint: "/social/follow",
		Params: []ActionParam{{Name: "node_id", Type: "int", Required: true}},
	},
	{Category: feature.OpcodeData, Action: actDataExport}: {
		Name: "export_data", Model: "Dashboard", IsInstanceMethod: false,
		HTTPMethod: "GET", Endpoint: "/data/export",
	},
	{Category: feature.OpcodeData, Action: actDataImport}: {
		Name: "import_data", Model: "Dashboard", IsInstanceMethod: false,
		HTTPMethod: "POST", Endpoint: "/data/import",
	},
}

// siteSearchAction is synthesized (§4.9 step 10) when a map has
// SearchResultsPage nodes but the action walk never discovered an
// explicit search action.
var siteSearchAction = actionDef{
	Name: "search", Model: "SearchResults", IsInstanceMethod: false,
	HTTPMethod: "GET", Endpoint: "/search",
	Params: []ActionParam{{Name: "query", Type: "string", Required: true}},
}

// siteCartViewAction is synthesized (§4.9 step 10) when a map has Cart
// nodes but no explicit view action was discovered.
var siteCartViewAction = actionDef{
	Name: "view_cart", Model: "Cart", IsInstanceMethod: false,
	HTTPMethod: "GET", Endpoint: "/cart",
}
