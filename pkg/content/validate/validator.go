package validate

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Result is the outcome of a deterministic structural check. Violations are
// concrete and feed straight back into the retry context as deficiencies.
type Result struct {
	Valid      bool
	Violations []string
}

// Validator enforces the generation-rules contract on a fragment without any
// model involvement.
type Validator struct {
	allowed   map[string]bool
	forbidden map[string]bool
	blockTags map[string]bool
	rootTags  map[string]bool

	// Forbidden tags are matched on the raw source. The HTML5 parser silently
	// drops head/body/html tokens and normalizes tables, so a tree walk alone
	// would miss them.
	forbiddenRe *regexp.Regexp
}

func NewValidator(allowedTags, forbiddenTags []string) *Validator {
	v := &Validator{
		allowed:   make(map[string]bool, len(allowedTags)),
		forbidden: make(map[string]bool, len(forbiddenTags)),
		blockTags: map[string]bool{
			"p": true, "h1": true, "h2": true, "h3": true,
			"h4": true, "h5": true, "h6": true,
			"li": true, "td": true, "th": true,
		},
		rootTags: map[string]bool{
			"p": true, "h1": true, "h2": true, "h3": true,
			"h4": true, "h5": true, "h6": true,
			"table": true, "ul": true, "ol": true,
		},
	}
	for _, t := range allowedTags {
		v.allowed[t] = true
	}
	for _, t := range forbiddenTags {
		v.forbidden[t] = true
	}
	v.forbiddenRe = regexp.MustCompile(
		`(?i)<\s*/?\s*(` + strings.Join(forbiddenTags, "|") + `)[\s>/]`)
	return v
}

var (
	leadingFence  = regexp.MustCompile("^\\s*```[a-zA-Z]*\\s*")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// CleanFragment strips common LLM artifacts (markdown code fences and
// surrounding whitespace) before validation.
func CleanFragment(raw string) string {
	cleaned := leadingFence.ReplaceAllString(raw, "")
	cleaned = trailingFence.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// Validate runs every structural check and collects all violations rather
// than stopping at the first.
func (v *Validator) Validate(fragment string) Result {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return Result{Violations: []string{"fragment is empty"}}
	}

	var violations []string

	seen := map[string]bool{}
	for _, m := range v.forbiddenRe.FindAllStringSubmatch(fragment, -1) {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			violations = append(violations, fmt.Sprintf("<%s> is forbidden", tag))
		}
	}

	lower := strings.ToLower(fragment)
	if strings.Count(lower, "<table") > strings.Count(lower, "<tbody") {
		violations = append(violations, "<table> must contain a <tbody>")
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		violations = append(violations, fmt.Sprintf("fragment does not parse: %v", err))
		return Result{Violations: violations}
	}

	sawElement := false
	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				violations = append(violations, "top-level text must be inside a block element")
			}
		case html.ElementNode:
			sawElement = true
			if !v.rootTags[n.Data] && !v.forbidden[n.Data] {
				violations = append(violations, fmt.Sprintf("<%s> is not a valid root element", n.Data))
			}
			violations = v.walk(n, violations)
		}
	}
	if !sawElement {
		violations = append(violations, "fragment contains no elements")
	}

	return Result{Valid: len(violations) == 0, Violations: violations}
}

func (v *Validator) walk(n *html.Node, violations []string) []string {
	if !v.allowed[n.Data] && !v.forbidden[n.Data] {
		violations = append(violations, fmt.Sprintf("<%s> is not an allowed tag", n.Data))
	}

	if v.blockTags[n.Data] {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
				violations = append(violations,
					fmt.Sprintf("text inside <%s> must be wrapped in <span>", n.Data))
				break
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			violations = v.walk(c, violations)
		}
	}
	return violations
}
