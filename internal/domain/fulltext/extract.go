package fulltext

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/kailas-cloud/crindex/internal/domain/node"
)

// Extract computes the fulltext of a single node from the property -> bucket
// configuration of its type. Markup is stripped.
func Extract(n *node.Node) Text {
	fields := n.Type().FulltextFields()
	out := Text{}
	for _, prop := range sortedKeys(fields) {
		v, ok := n.Property(prop)
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		text := PlainText(s)
		if text == "" {
			continue
		}
		bucket := fields[prop]
		if acc, ok := out[bucket]; ok {
			out[bucket] = acc + " " + text
		} else {
			out[bucket] = text
		}
	}
	return out
}

// PlainText strips markup from s and collapses whitespace.
func PlainText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
}
