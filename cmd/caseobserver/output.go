package main

import (
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// relTime renders t as "3 hours ago"; the zero time is "-".
func relTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// backendTime prefers the relative form and falls back to the raw value.
func backendTime(raw string, parsed time.Time) string {
	if parsed.IsZero() {
		return orDash(raw)
	}
	return humanize.Time(parsed)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "must be a positive integer, got "+strconv.Quote(s))
	}
	return id, nil
}
