package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"tonegen/pkg/logging"
)

const (
	maxAttrLen    = 20
	maxRecentLogs = logging.DefaultCaptureLines
)

// slog text attribute: key=value or key="value with spaces".
var logAttr = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// LogResponse is the body of GET /api/log/latest.
type LogResponse struct {
	Log    string   `json:"log"`
	Recent []string `json:"recent,omitempty"`
}

// handleLatestLog handles GET /api/log/latest[?n=5]. Without n only the
// newest line is returned.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	resp := LogResponse{Log: formatLogLine(logging.GlobalLogCapture.GetLastLine())}

	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		for _, line := range logging.GlobalLogCapture.Recent(min(n, maxRecentLogs)) {
			resp.Recent = append(resp.Recent, formatLogLine(line))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to write log response", "error", err)
	}
}

// formatLogLine turns a slog text line into "HH:MM:SS msg (k=v, ...)".
// The level is dropped, attributes are sorted and long values are left out.
// Lines that are not slog text pass through unchanged.
func formatLogLine(raw string) string {
	var (
		clock, msg string
		attrs      []string
	)

	for _, m := range logAttr.FindAllStringSubmatch(raw, -1) {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if ts, err := time.Parse(time.RFC3339, val); err == nil {
				clock = ts.Format("15:04:05")
			}
		case "msg":
			msg = val
		case "level", "source":
		default:
			if len(val) <= maxAttrLen {
				attrs = append(attrs, key+"="+val)
			}
		}
	}

	if msg == "" {
		return raw
	}

	out := msg
	if clock != "" {
		out = clock + " " + msg
	}
	if len(attrs) == 0 {
		return out
	}
	sort.Strings(attrs)
	return fmt.Sprintf("%s (%s)", out, strings.Join(attrs, ", "))
}
