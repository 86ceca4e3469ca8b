package panel

import (
	"html"
	"sort"
	"strings"
)

// Element is a minimal DOM node: a tag, class list, attributes, and either
// child elements or raw inner markup set through SetHTML.
type Element struct {
	tag      string
	classes  []string
	attrs    map[string]string
	parent   *Element
	children []*Element
	markup   string
	root     bool
}

// NewElement builds a detached element.
func NewElement(tag string, classes ...string) *Element {
	if tag == "" {
		tag = "div"
	}
	return &Element{tag: tag, classes: splitClasses(classes)}
}

// Tag returns the element tag name.
func (e *Element) Tag() string { return e.tag }

// Parent returns the parent element or nil when detached.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	return append([]*Element(nil), e.children...)
}

// HasClass reports whether the element carries class.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.classes {
		if c == class {
			return true
		}
	}
	return false
}

// SetAttr sets an attribute rendered on the opening tag.
func (e *Element) SetAttr(name, value string) *Element {
	if e.attrs == nil {
		e.attrs = map[string]string{}
	}
	e.attrs[name] = value
	return e
}

// Attr returns an attribute value.
func (e *Element) Attr(name string) string {
	return e.attrs[name]
}

// Prepend inserts child as the first child, detaching it from any previous parent.
func (e *Element) Prepend(child *Element) {
	child.Remove()
	e.markup = ""
	child.parent = e
	e.children = append([]*Element{child}, e.children...)
}

// Append inserts child as the last child.
func (e *Element) Append(child *Element) {
	child.Remove()
	e.markup = ""
	child.parent = e
	e.children = append(e.children, child)
}

// Remove detaches the element from its parent. Removing a detached element is a no-op.
func (e *Element) Remove() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// SetHTML replaces the element contents with markup, stored verbatim.
func (e *Element) SetHTML(markup string) {
	for _, c := range e.children {
		c.parent = nil
	}
	e.children = nil
	e.markup = markup
}

// InnerHTML returns the element contents.
func (e *Element) InnerHTML() string {
	if len(e.children) == 0 {
		return e.markup
	}
	var b strings.Builder
	for _, c := range e.children {
		b.WriteString(c.OuterHTML())
	}
	return b.String()
}

// OuterHTML renders the element including its own tag.
func (e *Element) OuterHTML() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(e.tag)
	if len(e.classes) > 0 {
		b.WriteString(` class="`)
		b.WriteString(html.EscapeString(strings.Join(e.classes, " ")))
		b.WriteString(`"`)
	}
	names := make([]string, 0, len(e.attrs))
	for name := range e.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(" ")
		b.WriteString(name)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(e.attrs[name]))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(e.InnerHTML())
	b.WriteString("</")
	b.WriteString(e.tag)
	b.WriteString(">")
	return b.String()
}

// Find returns every descendant carrying class, in document order.
func (e *Element) Find(class string) []*Element {
	var found []*Element
	var walk func(*Element)
	walk = func(n *Element) {
		for _, c := range n.children {
			if c.HasClass(class) {
				found = append(found, c)
			}
			walk(c)
		}
	}
	walk(e)
	return found
}

// First returns the first descendant carrying class, or nil.
func (e *Element) First(class string) *Element {
	if found := e.Find(class); len(found) > 0 {
		return found[0]
	}
	return nil
}

// Attached reports whether the element is reachable from a page root.
func (e *Element) Attached() bool {
	for n := e; n != nil; n = n.parent {
		if n.root {
			return true
		}
	}
	return false
}

func splitClasses(classes []string) []string {
	var out []string
	for _, c := range classes {
		out = append(out, strings.Fields(c)...)
	}
	return out
}
