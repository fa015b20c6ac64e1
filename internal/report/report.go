// Package report builds the run's user-facing artifacts: the HTML execution
// summary and the attachments manifest that lists it.
package report

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"clusterprep/internal/record"
)

// ModelName identifies the analysis these inputs are prepared for.
const ModelName = "Disease Cluster Analysis Data Export"

// DateLayout renders the run date in the summary and the execution log.
const DateLayout = "2006-01-02 15:04:05"

// HTML is an append-only summary document, one element per line. It
// satisfies normalize.Reporter.
type HTML struct {
	mu    sync.Mutex
	lines []string
}

func NewHTML() *HTML { return &HTML{} }

// Start writes the summary header.
func (r *HTML) Start(now time.Time) {
	r.Line("h3", "Model Execution Summary")
	r.Line("p", "Model: "+ModelName)
	r.Line("p", "Date: "+now.UTC().Format(DateLayout)+" GMT")
}

// Line appends <tag>text</tag> with text escaped.
func (r *HTML) Line(tag, text string) {
	r.appendRaw(tag, html.EscapeString(text))
}

func (r *HTML) appendRaw(tag, inner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf("<%s>%s</%s>", tag, inner, tag))
}

func (r *HTML) ProviderArea(name string) {
	r.Line("p", "Provider area: "+name)
}

// Parameters lists the exported parameters, nesting objects and arrays.
func (r *HTML) Parameters(params *record.Row) {
	r.Line("h4", "User provided parameters")
	var b strings.Builder
	b.WriteString("<ul>")
	for _, key := range params.Keys() {
		v, _ := params.Get(key)
		b.WriteString("<li>")
		b.WriteString(html.EscapeString(key))
		b.WriteString(": ")
		writeValue(&b, v)
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	r.appendRaw("p", b.String())
}

func (r *HTML) SampleCount(n int) {
	r.Line("h4", "Warehouse data provided to model")
	r.Line("p", fmt.Sprintf("Samples: %d", n))
}

// Fatal records the diagnostic shown when the run aborts.
func (r *HTML) Fatal(diagnostic string) {
	r.Line("h4", "ERROR")
	r.Line("p", diagnostic)
}

// Bytes returns the document.
func (r *HTML) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == 0 {
		return nil
	}
	return []byte(strings.Join(r.lines, "\n") + "\n")
}

func writeValue(b *strings.Builder, v record.Value) {
	raw, ok := v.(json.RawMessage)
	if !ok {
		b.WriteString(html.EscapeString(scalarText(v)))
		return
	}
	writeResult(b, gjson.ParseBytes(raw))
}

func writeResult(b *strings.Builder, res gjson.Result) {
	switch {
	case res.IsObject():
		b.WriteString("<ul>")
		res.ForEach(func(key, value gjson.Result) bool {
			b.WriteString("<li>")
			b.WriteString(html.EscapeString(key.String()))
			b.WriteString(": ")
			writeResult(b, value)
			b.WriteString("</li>")
			return true
		})
		b.WriteString("</ul>")
	case res.IsArray():
		b.WriteString("<ul>")
		res.ForEach(func(_, item gjson.Result) bool {
			b.WriteString("<li>")
			b.WriteString(html.EscapeString(itemText(item)))
			b.WriteString("</li>")
			return true
		})
		b.WriteString("</ul>")
	default:
		b.WriteString(html.EscapeString(scalarText(record.FromResult(res))))
	}
}

// itemText renders an array element; nested composites stay as JSON text.
func itemText(item gjson.Result) string {
	if item.Type == gjson.JSON {
		return gjson.Get(item.Raw, "@ugly").Raw
	}
	return scalarText(record.FromResult(item))
}

func scalarText(v record.Value) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
