package metrics

import (
	"expvar"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

type meta struct {
	typ, help string
	isMap     bool
	label     string
}

// metas describes the GraphFlow metrics for the text exposition format.
var metas = map[string]meta{
	"graphflow_client_requests_total":     {typ: "counter", help: "Graph service requests issued", isMap: true, label: "operation"},
	"graphflow_client_failures_total":     {typ: "counter", help: "Graph service requests that failed", isMap: true, label: "operation"},
	"graphflow_flow_instantiations_total": {typ: "counter", help: "Template instantiation attempts", isMap: true, label: "outcome"},
	"graphflow_journal_records_total":     {typ: "counter", help: "Run records written to the journal", isMap: true, label: "backend"},
	"graphflow_journal_failures_total":    {typ: "counter", help: "Run records the journal failed to write", isMap: true, label: "backend"},
	"graphflow_stub_requests_total":       {typ: "counter", help: "Requests served by the stub server", isMap: true, label: "route"},
	"graphflow_stub_graphs":               {typ: "gauge", help: "Graphs held by the stub server", isMap: false},
}

// Handler renders expvar-published metrics in Prometheus text format.
// Known GraphFlow metrics carry HELP/TYPE metadata; other numeric expvar
// vars are emitted as untyped gauges.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		WritePrometheus(w)
	})
}

// WritePrometheus writes every published expvar var in sorted order.
func WritePrometheus(w io.Writer) {
	varNames := make([]string, 0, 64)
	expvar.Do(func(kv expvar.KeyValue) {
		varNames = append(varNames, kv.Key)
	})
	sort.Strings(varNames)

	for _, name := range varNames {
		v := expvar.Get(name)
		m, known := metas[name]
		if !known {
			if iv, ok := v.(*expvar.Int); ok {
				_, _ = fmt.Fprintf(w, "# TYPE %s gauge\n", name)
				_, _ = fmt.Fprintf(w, "%s %s\n", name, iv.String())
			}
			continue
		}
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, sanitizeHelp(m.help))
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, m.typ)
		if !m.isMap {
			_, _ = fmt.Fprintf(w, "%s %s\n", name, v.String())
			continue
		}
		mp, ok := v.(*expvar.Map)
		if !ok {
			continue
		}
		sub := make([]expvar.KeyValue, 0, 8)
		mp.Do(func(kv expvar.KeyValue) { sub = append(sub, kv) })
		sort.Slice(sub, func(i, j int) bool { return sub[i].Key < sub[j].Key })
		for _, kv := range sub {
			_, _ = fmt.Fprintf(w, "%s{%s=\"%s\"} %s\n", name, m.label, escapeLabel(kv.Key), kv.Value.String())
		}
	}
}

func sanitizeHelp(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

// escapeLabel escapes backslash, double-quote and newline.
func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
