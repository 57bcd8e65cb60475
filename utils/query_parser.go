package utils

import (
	"net/http"
	"strconv"
	"strings"

	"hackathonwallah/models"
)

// ParseHackathonFilter reads status, themes and search from the query string.
// status and themes are comma separated.
func ParseHackathonFilter(r *http.Request) models.HackathonFilter {
	q := r.URL.Query()
	var f models.HackathonFilter
	for _, s := range splitCSV(q.Get("status")) {
		if st := models.HackathonStatus(strings.ToLower(s)); st.Valid() {
			f.Statuses = append(f.Statuses, st)
		}
	}
	f.Themes = splitCSV(q.Get("themes"))
	f.Search = strings.TrimSpace(q.Get("search"))
	return f
}

// ParseLimit reads ?limit= clamped to [1, max], defaulting to def.
func ParseLimit(r *http.Request, def, max int) int {
	limit := def
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			limit = v
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > max {
		limit = max
	}
	return limit
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
