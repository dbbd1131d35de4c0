// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package api

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/flyvercity/iot-ngin-c2ng/internal/logger"
	"github.com/flyvercity/iot-ngin-c2ng/stats"
)

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
<title>C2NG Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; }
td.excellent { background: #92d050; }
td.good { background: #c6e0b4; }
td.fair { background: #ffe699; }
td.poor { background: #f4b183; }
td.none { background: #d9d9d9; }
</style>
</head>
<body>
<h1>C2NG Sessions</h1>
<table>
<tr><th>UAS ID</th><th>UA</th><th>ADX</th><th>Avg RSRP</th><th>Avg RTT</th></tr>
{{range .Rows}}
<tr>
<td>{{.UasID}}</td>
<td>{{if .UAConnected}}connected{{else}}-{{end}}</td>
<td>{{if .ADXConnected}}connected{{else}}-{{end}}</td>
<td class="{{.SignalClass}}">{{.SignalText}}</td>
<td class="{{.RTTClass}}">{{.RTTText}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<body>
<h1>C2NG</h1>
<p>Failed to list sessions.</p>
</body>
</html>
`))

type dashboardRow struct {
	UasID        string
	UAConnected  bool
	ADXConnected bool
	SignalText   string
	RTTText      string
	SignalClass  string
	RTTClass     string
}

func meanText(value *float64) string {
	if value == nil {
		return "No Data"
	}
	return fmt.Sprintf("%.1f", *value)
}

// handleDashboard services GET /gui/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.deps.StatsMan.ListSessions(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err != nil {
		logger.ErrorMsg("Failed to list sessions", logger.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_ = errorTemplate.Execute(w, nil)
		return
	}

	rows := make([]dashboardRow, 0, len(sessions))

	for _, session := range sessions {
		rows = append(rows, dashboardRow{
			UasID:        session.UasID,
			UAConnected:  session.UAConnected,
			ADXConnected: session.ADXConnected,
			SignalText:   meanText(session.AvgSignal),
			RTTText:      meanText(session.AvgRTT),
			SignalClass:  stats.SignalClass(session.AvgSignal),
			RTTClass:     stats.RTTClass(session.AvgRTT),
		})
	}

	if err := dashboardTemplate.Execute(w, map[string]interface{}{"Rows": rows}); err != nil {
		logger.ErrorMsg("Failed to render dashboard", logger.Error(err))
	}
}
