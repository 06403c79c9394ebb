package xmltree

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

const _header = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

const _indent = "  "

// Write serializes the tree rooted at root to w as an indented UTF-8 XML
// document with a declaration header.
func Write(w io.Writer, root *Node) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(_header); err != nil {
		return fmt.Errorf("writing declaration: %w", err)
	}
	if err := writeNode(bw, root, 0); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}
	return nil
}

// WriteFile serializes the tree to path, creating or truncating the file.
func WriteFile(path string, root *Node) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	return Write(f, root)
}

func writeNode(bw *bufio.Writer, n *Node, depth int) error {
	indent := strings.Repeat(_indent, depth)

	if err := writeStartTag(bw, n, indent); err != nil {
		return err
	}
	if len(n.Children) == 0 && n.Text == "" {
		return nil
	}

	if n.Text != "" {
		if err := xml.EscapeText(bw, []byte(n.Text)); err != nil {
			return fmt.Errorf("escaping text of <%s>: %w", n.Tag, err)
		}
	}

	if len(n.Children) > 0 {
		for _, c := range n.Children {
			if err := writeNode(bw, c, depth+1); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("\n" + indent); err != nil {
			return fmt.Errorf("writing indent: %w", err)
		}
	}

	if _, err := fmt.Fprintf(bw, "</%s>", n.Tag); err != nil {
		return fmt.Errorf("writing </%s>: %w", n.Tag, err)
	}
	return nil
}

// writeStartTag emits the newline, indentation, and start tag for n. Empty
// elements are self-closed.
func writeStartTag(bw *bufio.Writer, n *Node, indent string) error {
	if n.parent != nil {
		if _, err := bw.WriteString("\n"); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if _, err := bw.WriteString(indent + "<" + n.Tag); err != nil {
		return fmt.Errorf("writing <%s>: %w", n.Tag, err)
	}
	for _, a := range n.Attrs {
		if _, err := bw.WriteString(" " + a.Name + `="`); err != nil {
			return fmt.Errorf("writing attribute %s: %w", a.Name, err)
		}
		if err := xml.EscapeText(bw, []byte(a.Value)); err != nil {
			return fmt.Errorf("escaping attribute %s: %w", a.Name, err)
		}
		if err := bw.WriteByte('"'); err != nil {
			return fmt.Errorf("writing attribute %s: %w", a.Name, err)
		}
	}

	closer := ">"
	if len(n.Children) == 0 && n.Text == "" {
		closer = "/>"
	}
	if _, err := bw.WriteString(closer); err != nil {
		return fmt.Errorf("closing <%s>: %w", n.Tag, err)
	}
	return nil
}
