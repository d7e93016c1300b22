package tei

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// element is a parsed XML element. Text holds the character data before the
// first child; Tail holds the character data between this element's end tag
// and the next sibling, which is how TEI interleaves prose with inline markup.
type element struct {
	Name     string
	Attrs    []xml.Attr
	Text     string
	Tail     string
	Children []*element
}

// parse builds an element tree from a TEI-XML stream. Namespaces are
// discarded; lookups use local names only.
func parse(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)

	var root *element
	var stack []*element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{Name: t.Name.Local, Attrs: t.Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			cur := stack[len(stack)-1]
			if len(cur.Children) == 0 {
				cur.Text += string(t)
			} else {
				last := cur.Children[len(cur.Children)-1]
				last.Tail += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("empty document")
	}
	return root, nil
}

// attr returns the value of the named attribute, ignoring namespace prefixes.
func (e *element) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// child returns the first direct child with the given local name.
func (e *element) child(name string) *element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// childrenNamed returns all direct children with the given local name.
func (e *element) childrenNamed(name string) []*element {
	var out []*element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// find walks a path of local names from this element, taking the first match
// at each step. Returns nil if any step is missing.
func (e *element) find(path ...string) *element {
	cur := e
	for _, name := range path {
		cur = cur.child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// descendants returns all elements with the given local name, in document
// order, at any depth below this element.
func (e *element) descendants(name string) []*element {
	var out []*element
	var walk func(el *element)
	walk = func(el *element) {
		for _, c := range el.Children {
			if c.Name == name {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// text recursively concatenates character data in document order: the
// element's own leading text, then for each child the child's full text
// followed by that child's tail.
func (e *element) text() string {
	var b strings.Builder
	e.writeText(&b)
	return b.String()
}

func (e *element) writeText(b *strings.Builder) {
	b.WriteString(e.Text)
	for _, c := range e.Children {
		c.writeText(b)
		b.WriteString(c.Tail)
	}
}
