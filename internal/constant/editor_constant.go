package constant

// Action vocabulary used across analysis, mutation and the wire protocol.
const (
	ActionInsert = "INSERT"
	ActionDelete = "DELETE"
	ActionEdit   = "EDIT"

	PositionBefore = "BEFORE"
	PositionAfter  = "AFTER"
)

// Outbound websocket message types.
const (
	MessageTypeStatus   = "status"
	MessageTypeToolCall = "tool_call"
	MessageTypeResult   = "result"
)

// Inbound websocket message types.
const (
	MessageTypeRequest      = "request"
	MessageTypeToolResponse = "tool_response"
)

// AllowedTags is the whitelist for generated fragments. Everything visible
// must additionally be wrapped in <span> inside block elements.
var AllowedTags = []string{
	"p", "span", "u", "ol", "ul", "li",
	"table", "tr", "td", "th", "tbody",
	"h1", "h2", "h3", "h4", "h5", "h6",
}

// ForbiddenTags are stripped requests: a fragment containing any of these
// fails structural validation outright.
var ForbiddenTags = []string{
	"script", "iframe", "style", "link", "meta",
	"head", "body", "html", "div", "em", "br", "i", "b",
}
