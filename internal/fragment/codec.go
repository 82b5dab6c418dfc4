package fragment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zjrosen/implbridge/internal/implementors"
)

const (
	prologue   = "(function() {var implementors = {};"
	assignHead = "implementors["
	trailer    = "if (window.register_implementors) {window.register_implementors(implementors);} else {window.pending_implementors = implementors;}})()"
)

// ErrNotFragment is returned when the input does not start like an
// implementors fragment.
var ErrNotFragment = errors.New("not an implementors fragment")

// SyntaxError reports malformed fragment content at a byte offset.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("fragment syntax error at offset %d: %s", e.Offset, e.Msg)
}

// descriptorJSON is the on-disk shape of one implementor.
type descriptorJSON struct {
	Text      string   `json:"text"`
	Synthetic bool     `json:"synthetic"`
	Types     []string `json:"types"`
}

// Decode parses a fragment into a table. Crate order and descriptor order are
// kept as written. A crate assigned twice keeps its first position and its
// last list, as the script itself would.
func Decode(r io.Reader) (implementors.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return implementors.Table{}, fmt.Errorf("reading fragment: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode over an in-memory fragment.
func DecodeBytes(data []byte) (implementors.Table, error) {
	p := &parser{data: data}
	p.skipSpace()
	if !p.consume(prologue) {
		return implementors.Table{}, ErrNotFragment
	}

	var crates []string
	lists := make(map[string][]implementors.Descriptor)

	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		if p.peek(trailer) {
			p.pos += len(trailer)
			p.skipSpace()
			p.consume(";")
			p.skipSpace()
			if !p.eof() {
				return implementors.Table{}, p.errorf("unexpected content after trailer")
			}
			break
		}
		if !p.consume(assignHead) {
			return implementors.Table{}, p.errorf("expected %q", assignHead)
		}

		var crate string
		if err := p.decodeJSON(&crate); err != nil {
			return implementors.Table{}, err
		}
		p.skipSpace()
		if !p.consume("]") {
			return implementors.Table{}, p.errorf("expected ']' after crate name")
		}
		p.skipSpace()
		if !p.consume("=") {
			return implementors.Table{}, p.errorf("expected '=' after crate key")
		}
		p.skipSpace()

		var raw []descriptorJSON
		if err := p.decodeJSON(&raw); err != nil {
			return implementors.Table{}, err
		}
		p.skipSpace()
		if !p.consume(";") {
			return implementors.Table{}, p.errorf("expected ';' after implementor list")
		}

		descs := make([]implementors.Descriptor, 0, len(raw))
		for _, d := range raw {
			if d.Synthetic {
				descs = append(descs, implementors.NewSyntheticDescriptor(d.Text, d.Types...))
			} else {
				descs = append(descs, implementors.NewDescriptor(d.Text, d.Types...))
			}
		}
		if _, seen := lists[crate]; !seen {
			crates = append(crates, crate)
		}
		lists[crate] = descs
	}

	b := implementors.NewTableBuilder()
	for _, crate := range crates {
		b.Crate(crate, lists[crate]...)
	}
	return b.Build(), nil
}

// Encode writes table as a fragment.
func Encode(w io.Writer, table implementors.Table) error {
	var buf bytes.Buffer
	buf.WriteString(prologue)
	buf.WriteByte('\n')

	var encErr error
	table.Each(func(crate string, descs []implementors.Descriptor) bool {
		raw := make([]descriptorJSON, 0, len(descs))
		for _, d := range descs {
			types := d.TypePath()
			if types == nil {
				types = []string{}
			}
			raw = append(raw, descriptorJSON{Text: d.DisplayText(), Synthetic: d.Synthetic(), Types: types})
		}

		buf.WriteString(assignHead)
		if encErr = writeJSON(&buf, crate); encErr != nil {
			return false
		}
		buf.WriteString("] = ")
		if encErr = writeJSON(&buf, raw); encErr != nil {
			return false
		}
		buf.WriteString(";\n")
		return true
	})
	if encErr != nil {
		return fmt.Errorf("encoding fragment: %w", encErr)
	}

	buf.WriteString(trailer)
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}

// EncodeToString is Encode into a string.
func EncodeToString(table implementors.Table) (string, error) {
	var sb strings.Builder
	if err := Encode(&sb, table); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// writeJSON encodes v compactly without HTML escaping, matching generator
// output where signatures carry raw markup.
func writeJSON(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

type parser struct {
	data []byte
	pos  int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.data)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek(s string) bool {
	return bytes.HasPrefix(p.data[p.pos:], []byte(s))
}

func (p *parser) consume(s string) bool {
	if !p.peek(s) {
		return false
	}
	p.pos += len(s)
	return true
}

// decodeJSON decodes exactly one JSON value at the cursor and advances past it.
func (p *parser) decodeJSON(v any) error {
	dec := json.NewDecoder(bytes.NewReader(p.data[p.pos:]))
	if err := dec.Decode(v); err != nil {
		return &SyntaxError{Offset: p.pos, Msg: err.Error()}
	}
	p.pos += int(dec.InputOffset())
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}
