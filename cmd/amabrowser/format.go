package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kalambet/amabrowser/internal/document"
	"github.com/kalambet/amabrowser/internal/render"
)

// writeDocument prints doc as text (rendered slots), json or yaml.
func writeDocument(w io.Writer, doc *document.Document, format string, r *render.Renderer) error {
	switch format {
	case "", "text":
		slots := render.NewSlotSet()
		r.Show(slots, doc)
		writeSlots(w, doc.ID, slots)
		return nil
	case "json":
		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("formatting document: %w", err)
		}
		buf.WriteByte('\n')
		_, err = w.Write(buf.Bytes())
		return err
	case "yaml":
		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlNode(document.DecodeValue(raw))); err != nil {
			return fmt.Errorf("formatting document: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// yamlNode converts a decoded JSON value to a YAML node, keeping object key order.
func yamlNode(v any) *yaml.Node {
	switch t := v.(type) {
	case document.Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range t {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
				yamlNode(f.Value))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: document.String(t)}
	case float64:
		tag := "!!float"
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: document.String(t)}
	case string:
		n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}
		if strings.Contains(t, "\n") {
			n.Style = yaml.LiteralStyle
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// writeSlots prints the non-empty slots grouped by section. Markup slots are reduced to
// plain text.
func writeSlots(w io.Writer, id string, slots *render.SlotSet) {
	if id != "" {
		fmt.Fprintf(w, "%s\n", bold("Document "+id))
	}
	for _, sec := range render.Sections {
		var lines []string
		for _, slot := range sec.Slots {
			v := slots.Value(slot)
			text := v.Text
			if v.HTML {
				text = render.PlainText(text)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			if strings.Contains(text, "\n") {
				lines = append(lines, fmt.Sprintf("  %s:", bold(slot.Label())))
				for _, l := range strings.Split(text, "\n") {
					lines = append(lines, "    "+l)
				}
				continue
			}
			lines = append(lines, fmt.Sprintf("  %s %s", bold(slot.Label()+":"), text))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", stepColor.Sprint(sec.Title))
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}
}
