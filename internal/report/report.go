// Package report renders a monitoring snapshot into an xlsx workbook for
// offline review and handover documents.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/argusmon/argus/internal/monitor"
)

const (
	endpointsSheet = "endpoints"
	incidentsSheet = "incidents"

	dateFormat    = "yyyy-mm-dd hh:mm:ss"
	latencyFormat = `#,##0.000 "ms"`
	uptimeFormat  = "0.0%"
)

var statusColors = map[monitor.CheckStatus]string{
	monitor.StatusUp:      "89C923",
	monitor.StatusDown:    "FF2D00",
	monitor.StatusUnknown: "000000",
	monitor.StatusAborted: "C0C0C0",
}

func excelPos(x, y uint) string {
	pos, err := excelize.CoordinatesToCellName(int(x+1), int(y+1))
	if err != nil {
		panic(err)
	}
	return pos
}

// New builds a two-sheet workbook from the snapshot: one row per endpoint
// with its lifetime statistics, and one row per incident. The caller owns
// the returned file and should Close it after writing.
func New(snap monitor.Snapshot) (*excelize.File, error) {
	now := time.Now()

	xlsx := excelize.NewFile()
	xlsx.SetSheetName("Sheet1", endpointsSheet)
	if _, err := xlsx.NewSheet(incidentsSheet); err != nil {
		xlsx.Close()
		return nil, err
	}

	xlsx.SetAppProps(&excelize.AppProperties{
		Application: "Argus",
	})
	xlsx.SetDocProps(&excelize.DocProperties{
		Created:        now.Format(time.RFC3339),
		Modified:       now.Format(time.RFC3339),
		Creator:        "Argus",
		LastModifiedBy: "Argus",
	})

	setValue := func(sheet string, x, y uint, value any, color string, style int, format *string) {
		pos := excelPos(x, y)
		xlsx.SetCellValue(sheet, pos, value)
		sid, _ := xlsx.NewStyle(&excelize.Style{
			CustomNumFmt: format,
			Border:       []excelize.Border{{Type: "bottom", Style: style, Color: color}},
		})
		xlsx.SetCellStyle(sheet, pos, pos, sid)
	}

	if err := writeEndpoints(xlsx, snap, now, setValue); err != nil {
		xlsx.Close()
		return nil, err
	}
	if err := writeIncidents(xlsx, snap, now, setValue); err != nil {
		xlsx.Close()
		return nil, err
	}

	return xlsx, nil
}

type cellWriter func(sheet string, x, y uint, value any, color string, style int, format *string)

func writeEndpoints(xlsx *excelize.File, snap monitor.Snapshot, now time.Time, setValue cellWriter) error {
	zone, _ := now.Zone()

	xlsx.SetCellStr(endpointsSheet, "A1", "name")
	xlsx.SetCellStr(endpointsSheet, "B1", "kind")
	xlsx.SetCellStr(endpointsSheet, "C1", "target")
	xlsx.SetCellStr(endpointsSheet, "D1", "status")
	xlsx.SetCellStr(endpointsSheet, "E1", "uptime")
	xlsx.SetCellStr(endpointsSheet, "F1", "avg latency")
	xlsx.SetCellStr(endpointsSheet, "G1", "checks")
	xlsx.SetCellStr(endpointsSheet, "H1", fmt.Sprintf("last checked (%s)", zone))

	statuses := make(map[string]monitor.Status, len(snap.Statuses))
	for _, st := range snap.Statuses {
		statuses[st.EndpointID] = st
	}

	datefmt := dateFormat
	latencyfmt := latencyFormat
	uptimefmt := uptimeFormat

	var row uint
	for _, ep := range snap.Endpoints {
		row++

		st := statuses[ep.ID]
		color := statusColors[st.Current]

		sid, _ := xlsx.NewStyle(&excelize.Style{Border: []excelize.Border{{Type: "bottom", Style: 1, Color: color}}})
		xlsx.SetRowStyle(endpointsSheet, int(row+1), int(row+1), sid)

		setValue(endpointsSheet, 0, row, ep.Name, color, 1, nil)
		setValue(endpointsSheet, 1, row, string(ep.Kind), color, 1, nil)
		setValue(endpointsSheet, 2, row, ep.Target(), color, 1, nil)
		setValue(endpointsSheet, 3, row, st.Current.String(), color, 5, nil)
		setValue(endpointsSheet, 4, row, st.Uptime(), color, 1, &uptimefmt)
		setValue(endpointsSheet, 5, row, st.AvgLatencyMS(), color, 1, &latencyfmt)
		setValue(endpointsSheet, 6, row, st.TotalChecks, color, 1, nil)
		if st.LastCheckedAt.IsZero() {
			setValue(endpointsSheet, 7, row, "", color, 1, nil)
		} else {
			setValue(endpointsSheet, 7, row, st.LastCheckedAt.In(now.Location()), color, 1, &datefmt)
		}
	}

	if err := xlsx.SetPanes(endpointsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "topLeft",
	}); err != nil {
		return err
	}

	xlsx.SetColWidth(endpointsSheet, "A", "A", 24)
	xlsx.SetColWidth(endpointsSheet, "C", "C", 32)
	xlsx.SetColWidth(endpointsSheet, "F", "F", 15)
	xlsx.SetColWidth(endpointsSheet, "H", "H", 20)

	return xlsx.AutoFilter(endpointsSheet, "A1:H1", nil)
}

func writeIncidents(xlsx *excelize.File, snap monitor.Snapshot, now time.Time, setValue cellWriter) error {
	zone, _ := now.Zone()

	xlsx.SetCellStr(incidentsSheet, "A1", "endpoint")
	xlsx.SetCellStr(incidentsSheet, "B1", "status")
	xlsx.SetCellStr(incidentsSheet, "C1", fmt.Sprintf("started (%s)", zone))
	xlsx.SetCellStr(incidentsSheet, "D1", fmt.Sprintf("resolved (%s)", zone))
	xlsx.SetCellStr(incidentsSheet, "E1", "duration")
	xlsx.SetCellStr(incidentsSheet, "F1", "last update")

	names := make(map[string]string, len(snap.Endpoints))
	for _, ep := range snap.Endpoints {
		names[ep.ID] = ep.Name
	}

	datefmt := dateFormat

	var row uint
	for _, in := range snap.Incidents {
		row++

		color := statusColors[monitor.StatusUp]
		if in.Ongoing() {
			color = statusColors[monitor.StatusDown]
		}

		sid, _ := xlsx.NewStyle(&excelize.Style{Border: []excelize.Border{{Type: "bottom", Style: 1, Color: color}}})
		xlsx.SetRowStyle(incidentsSheet, int(row+1), int(row+1), sid)

		name := names[in.EndpointID]
		if name == "" {
			name = in.EndpointID
		}

		setValue(incidentsSheet, 0, row, name, color, 1, nil)
		setValue(incidentsSheet, 1, row, string(in.Status), color, 5, nil)
		setValue(incidentsSheet, 2, row, in.StartedAt.In(now.Location()), color, 1, &datefmt)
		if in.ResolvedAt.IsZero() {
			setValue(incidentsSheet, 3, row, "", color, 1, nil)
		} else {
			setValue(incidentsSheet, 3, row, in.ResolvedAt.In(now.Location()), color, 1, &datefmt)
		}
		setValue(incidentsSheet, 4, row, in.Duration().Round(time.Second).String(), color, 1, nil)
		if len(in.Updates) > 0 {
			setValue(incidentsSheet, 5, row, in.Updates[len(in.Updates)-1].Message, color, 1, nil)
		} else {
			setValue(incidentsSheet, 5, row, "", color, 1, nil)
		}
	}

	if err := xlsx.SetPanes(incidentsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "topLeft",
	}); err != nil {
		return err
	}

	xlsx.SetColWidth(incidentsSheet, "A", "A", 24)
	xlsx.SetColWidth(incidentsSheet, "C", "D", 20)
	xlsx.SetColWidth(incidentsSheet, "F", "F", 40)

	return xlsx.AutoFilter(incidentsSheet, "A1:F1", nil)
}
