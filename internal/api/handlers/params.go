package handlers

import (
	"math"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/wonny/hegemony/internal/contracts"
	"github.com/wonny/hegemony/internal/window"
)

// Identifier limits
const (
	maxIndustryIDLen = 50
	maxSectorIDLen   = 100
	maxTickerLen     = 20
	maxTrendIDs      = 50
	allDays          = 365

	companyStatsLimit    = 20
	companyStatsMaxLimit = 100
)

var (
	industryIDPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
	tickerPattern     = regexp.MustCompile(`^[A-Za-z0-9.^=-]+$`)
)

// validIndustryID reports whether id may name an industry
func validIndustryID(id string) bool {
	return len(id) <= maxIndustryIDLen && industryIDPattern.MatchString(id)
}

func validSectorID(id string) bool {
	return id != "" && len(id) <= maxSectorIDLen
}

func validTicker(t string) bool {
	return len(t) <= maxTickerLen && tickerPattern.MatchString(t)
}

// industryParam returns the optional ?industry= value; ok is false when it is malformed
func industryParam(r *http.Request) (string, bool) {
	id := r.URL.Query().Get("industry")
	if id == "" {
		return "", true
	}
	return id, validIndustryID(id)
}

// periodParam parses ?period= with the window bounds
func periodParam(r *http.Request, def int) int {
	return window.ClampPeriod(r.URL.Query().Get("period"), def)
}

func limitParam(r *http.Request, def, max int) int {
	return window.ParseBounded(r.URL.Query().Get("limit"), def, 1, max)
}

// daysParam parses ?days=; "all" means one year
func daysParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("days")
	if raw == "all" {
		return allDays
	}
	return window.ClampPeriod(raw, def)
}

// idsParam splits ?ids= on commas, dropping blanks, at most maxTrendIDs
func idsParam(r *http.Request) []string {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id == "" {
			continue
		}
		ids = append(ids, id)
		if len(ids) == maxTrendIDs {
			break
		}
	}
	return ids
}

// dateParam returns ?date= when it is a YYYY-MM-DD date, "" otherwise
func dateParam(r *http.Request) string {
	raw := r.URL.Query().Get("date")
	if _, err := time.Parse(contracts.DateLayout, raw); err != nil {
		return ""
	}
	return raw
}

// sortParam returns ?sort= when it is one of allowed, def otherwise
func sortParam(r *http.Request, def string, allowed ...string) string {
	if raw := r.URL.Query().Get("sort"); slices.Contains(allowed, raw) {
		return raw
	}
	return def
}

// orderParam returns ?order=asc, defaulting to desc
func orderParam(r *http.Request) string {
	if r.URL.Query().Get("order") == contracts.OrderAsc {
		return contracts.OrderAsc
	}
	return contracts.OrderDesc
}

// pageParam parses the 1-based ?page=
func pageParam(r *http.Request) int {
	return window.ParseBounded(r.URL.Query().Get("page"), 1, 1, math.MaxInt32)
}
