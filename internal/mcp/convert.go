package mcp

import (
	"maps"
	"time"

	"github.com/argusmon/argus/internal/monitor"
)

// ResultToMap converts a one-shot check result to a map for jq processing.
func ResultToMap(target string, rec monitor.CheckResult) map[string]any {
	x := map[string]any{
		"time":       rec.CheckedAt.Format(time.RFC3339),
		"time_unix":  rec.CheckedAt.Unix(),
		"status":     rec.Status.String(),
		"latency_ms": rec.LatencyMS,
		"target":     target,
		"message":    rec.Message,
	}
	maps.Copy(x, rec.Extra)
	return x
}

// StatusToMap converts an endpoint and its status to a map for jq
// processing. The endpoint may be the zero value for statuses that have no
// endpoint entity, like the network self-monitor entry.
func StatusToMap(ep monitor.Endpoint, st monitor.Status) map[string]any {
	name := ep.Name
	if name == "" {
		name = st.EndpointID
	}

	x := map[string]any{
		"id":                st.EndpointID,
		"name":              name,
		"kind":              string(ep.Kind),
		"target":            ep.Target(),
		"enabled":           ep.Enabled,
		"status":            st.Current.String(),
		"consecutive_fails": st.ConsecutiveFails,
		"total_checks":      st.TotalChecks,
		"uptime":            st.Uptime(),
		"avg_latency_ms":    st.AvgLatencyMS(),
	}

	if st.LastCheckedAt.IsZero() {
		x["last_checked"] = nil
		x["last_checked_unix"] = nil
	} else {
		x["last_checked"] = st.LastCheckedAt.Format(time.RFC3339)
		x["last_checked_unix"] = st.LastCheckedAt.Unix()
	}

	if len(st.History) > 0 {
		x["latest_check"] = HistoryToMap(st.History[0])
	} else {
		x["latest_check"] = nil
	}

	return x
}

// HistoryToMap converts one history entry to a map for jq processing.
func HistoryToMap(h monitor.HistoryEntry) map[string]any {
	return map[string]any{
		"time":       h.Time.Format(time.RFC3339),
		"time_unix":  h.Time.Unix(),
		"status":     h.Status.String(),
		"latency_ms": h.LatencyMS,
		"message":    h.Message,
	}
}

// IncidentToMap converts an incident to a map for jq processing.
func IncidentToMap(in monitor.Incident, endpointName string) map[string]any {
	if endpointName == "" {
		endpointName = in.EndpointID
	}

	r := map[string]any{
		"id":              in.ID,
		"endpoint_id":     in.EndpointID,
		"endpoint":        endpointName,
		"status":          string(in.Status),
		"started_at":      in.StartedAt.Format(time.RFC3339),
		"started_at_unix": in.StartedAt.Unix(),
	}

	if in.ResolvedAt.IsZero() {
		r["resolved_at"] = nil
		r["resolved_at_unix"] = nil
		r["duration_ms"] = nil
	} else {
		r["resolved_at"] = in.ResolvedAt.Format(time.RFC3339)
		r["resolved_at_unix"] = in.ResolvedAt.Unix()
		r["duration_ms"] = in.DurationMS
	}

	if len(in.Updates) > 0 {
		updates := make([]any, len(in.Updates))
		for i, u := range in.Updates {
			updates[i] = map[string]any{
				"time":    u.Time.Format(time.RFC3339),
				"message": u.Message,
			}
		}
		r["updates"] = updates
	}

	return r
}

// AlertToMap converts an alert to a map for jq processing.
func AlertToMap(al monitor.Alert, endpointName string) map[string]any {
	if endpointName == "" {
		endpointName = al.EndpointID
	}

	r := map[string]any{
		"id":              al.ID,
		"endpoint_id":     al.EndpointID,
		"endpoint":        endpointName,
		"severity":        string(al.Severity),
		"status":          string(al.Status),
		"message":         al.Message,
		"created_at":      al.CreatedAt.Format(time.RFC3339),
		"created_at_unix": al.CreatedAt.Unix(),
	}

	if al.AcknowledgedAt.IsZero() {
		r["acknowledged_at"] = nil
	} else {
		r["acknowledged_at"] = al.AcknowledgedAt.Format(time.RFC3339)
	}

	if al.ResolvedAt.IsZero() {
		r["resolved_at"] = nil
	} else {
		r["resolved_at"] = al.ResolvedAt.Format(time.RFC3339)
	}

	return r
}
