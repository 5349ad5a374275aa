package validate

import (
	"strings"
	"testing"
)

func newTestValidator() *Validator {
	allowed := []string{
		"p", "span", "u", "ol", "ul", "li",
		"table", "tr", "td", "th", "tbody",
		"h1", "h2", "h3", "h4", "h5", "h6",
	}
	forbidden := []string{
		"script", "iframe", "style", "link", "meta",
		"head", "body", "html", "div", "em", "br", "i", "b",
	}
	return NewValidator(allowed, forbidden)
}

func TestValidateAcceptsWellFormedFragments(t *testing.T) {
	v := newTestValidator()

	valid := []struct {
		name     string
		fragment string
	}{
		{"paragraph", `<p><span>Hello world</span></p>`},
		{"heading with style", `<h2><span style="color: #333333">Quarterly Report</span></h2>`},
		{"list", `<ul><li><span>first</span></li><li><span>second</span></li></ul>`},
		{"table with tbody", `<table><tbody><tr><th><span>Name</span></th></tr><tr><td><span>Ada</span></td></tr></tbody></table>`},
		{"multiple roots", `<h1><span>Title</span></h1><p><span>Body</span></p>`},
		{"underline inside span", `<p><span><u>important</u></span></p>`},
	}

	for _, tc := range valid {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(tc.fragment)
			if !res.Valid {
				t.Errorf("expected valid, got violations: %v", res.Violations)
			}
		})
	}
}

func TestValidateRejectsBrokenFragments(t *testing.T) {
	v := newTestValidator()

	invalid := []struct {
		name     string
		fragment string
		want     string
	}{
		{"empty", "", "fragment is empty"},
		{"bare text", "just some text", "top-level text"},
		{"forbidden div", `<div><span>boxed</span></div>`, "<div> is forbidden"},
		{"forbidden script", `<p><span>hi</span><script>alert(1)</script></p>`, "<script> is forbidden"},
		{"unwrapped text in p", `<p>naked text</p>`, "wrapped in <span>"},
		{"unwrapped text in li", `<ul><li>item</li></ul>`, "wrapped in <span>"},
		{"table without tbody", `<table><tr><td><span>x</span></td></tr></table>`, "<tbody>"},
		{"span as root", `<span>floating</span>`, "not a valid root element"},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(tc.fragment)
			if res.Valid {
				t.Fatalf("expected invalid fragment to fail")
			}
			found := false
			for _, viol := range res.Violations {
				if strings.Contains(viol, tc.want) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("violations %v do not mention %q", res.Violations, tc.want)
			}
		})
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	v := newTestValidator()

	res := v.Validate(`<div>one</div><p>two</p>`)
	if res.Valid {
		t.Fatal("expected invalid")
	}
	if len(res.Violations) < 2 {
		t.Errorf("expected multiple violations, got %v", res.Violations)
	}
}

func TestCleanFragment(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `<p><span>plain</span></p>`, `<p><span>plain</span></p>`},
		{"html fence", "```html\n<p><span>fenced</span></p>\n```", `<p><span>fenced</span></p>`},
		{"bare fence", "```\n<p><span>x</span></p>\n```", `<p><span>x</span></p>`},
		{"surrounding whitespace", "  \n<p><span>x</span></p>\n  ", `<p><span>x</span></p>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanFragment(tc.in); got != tc.want {
				t.Errorf("CleanFragment(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
