// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"io"
	"strings"

	"github.com/google/safehtml/template"

	"github.com/benchwatch/benchwatch/regress"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"lower": strings.ToLower,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>benchwatch report</title>
<style>
.regressed { background-color: #fdd; }
.improved { background-color: #dfd; }
.insufficient_data { color: #888; }
td.num { text-align: right; }
</style>
</head>
<body>
{{if .RunID}}<p>run {{.RunID}}{{range .Labels}} <span class='label'>{{.}}</span>{{end}}</p>{{end}}
<table class='benchwatch'>
<tr><th>region<th>baseline<th>current<th><th>delta<th><th>verdict
{{range .Rows -}}
<tr class='{{lower .Class}}'><td>{{.Key}}<td class='num'>{{.Baseline}}<td class='num'>{{.Current}}<td>{{.Spread}}<td class='num'>{{.Delta}}<td>{{.P}}<td>{{.Class}}
{{- if .Notes}}<td class='note'>{{range $i, $n := .Notes}}{{if $i}}; {{end}}{{$n}}{{end}}{{end}}
{{end -}}
</table>
<p>{{.Summary}}</p>
{{- if .Excluded}}
<p>excluded (unbalanced regions):{{range .Excluded}} {{.}}{{end}}</p>
{{- end}}
{{- if .StoreErrors}}
<p>baseline errors:</p>
<ul>{{range .StoreErrors}}<li>{{.}}{{end}}</ul>
{{- end}}
</body>
</html>
`))

type htmlData struct {
	RunID       string
	Labels      []string
	Rows        []row
	Summary     string
	Excluded    []string
	StoreErrors []string
}

// WriteHTML writes rep to w as an HTML page. All report text is
// escaped.
func WriteHTML(w io.Writer, rep *regress.Report) error {
	return writeHTML(w, rep, ByName)
}

func writeHTML(w io.Writer, rep *regress.Report, order Order) error {
	d := htmlData{
		RunID:       rep.RunID,
		Rows:        rows(rep, order),
		Summary:     summary(rep),
		Excluded:    rep.Excluded,
		StoreErrors: storeErrors(rep),
	}
	for _, k := range sortedLabels(rep.Labels) {
		d.Labels = append(d.Labels, k+"="+rep.Labels[k])
	}
	return htmlTemplate.Execute(w, d)
}
