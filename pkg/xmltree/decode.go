package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sentinel errors for decode failures.
var (
	ErrEmptyDocument = errors.New("document has no root element")
	ErrTrailingData  = errors.New("content after root element")
)

// ParseFile reads and parses the XML document at the given path.
func ParseFile(path string) (root *Node, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	return Parse(f, path)
}

// Parse decodes an XML document from r into a Node tree. Inter-element
// whitespace is discarded; all other character data becomes the enclosing
// element's Text.
func Parse(r io.Reader, filename string) (*Node, error) {
	dec := xml.NewDecoder(r)

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filename, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local, Attrs: make([]Attr, 0, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			switch {
			case len(stack) > 0:
				stack[len(stack)-1].Append(n)
			case root != nil:
				return nil, fmt.Errorf("parsing %s: %w", filename, ErrTrailingData)
			default:
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string(t)
			if strings.TrimSpace(text) == "" {
				continue
			}
			stack[len(stack)-1].Text += text
		default:
			// Comments, directives, and processing instructions carry no
			// configuration data and are not round-tripped.
		}
	}

	if root == nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, ErrEmptyDocument)
	}
	return root, nil
}

// ParseString decodes an XML document from a string.
func ParseString(content string) (*Node, error) {
	return Parse(strings.NewReader(content), "<string>")
}
