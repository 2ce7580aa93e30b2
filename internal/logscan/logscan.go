// Package logscan counts execution outcomes recorded in the daily audit logs.
//
// Log files are named log_dd_mm_yyyy.log. A line containing SuccessMarker
// counts as a success; otherwise a line containing FailureMarker counts as a
// failure.
package logscan

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	SuccessMarker = "Éxito en Ejecución"
	FailureMarker = "Error en Ejecución"

	// DateLayout is the dd_mm_yyyy form used in file names and arguments.
	DateLayout = "02_01_2006"
)

var logFilePattern = regexp.MustCompile(`^log_(\d{2}_\d{2}_\d{4})\.log$`)

type Counts struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

// FileName returns the log file name for the calendar day of t.
func FileName(t time.Time) string {
	return "log_" + t.Format(DateLayout) + ".log"
}

// ParseDate parses a dd_mm_yyyy date.
func ParseDate(v string) (time.Time, error) {
	d, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected dd_mm_yyyy: %w", v, err)
	}
	return d, nil
}

// ParseLogs counts successes and failures across the log files in dir whose
// date lies within [startDate, endDate], both given as dd_mm_yyyy.
func ParseLogs(startDate, endDate, dir string) (Counts, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return Counts{}, err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return Counts{}, err
	}
	return Scan(dir, start, end)
}

// Scan is ParseLogs with already parsed bounds.
func Scan(dir string, start, end time.Time) (Counts, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Counts{}, fmt.Errorf("read log dir %s: %w", dir, err)
	}

	var total Counts
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := logFilePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		day, err := time.Parse(DateLayout, match[1])
		if err != nil {
			// log_99_99_2024.log and the like are not ours.
			continue
		}
		if day.Before(start) || day.After(end) {
			continue
		}

		c, err := countFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return Counts{}, err
		}
		total.Successes += c.Successes
		total.Failures += c.Failures
	}
	return total, nil
}

func countFile(path string) (Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return Counts{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var c Counts
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, SuccessMarker):
			c.Successes++
		case strings.Contains(line, FailureMarker):
			c.Failures++
		}
	}
	if err := scanner.Err(); err != nil {
		return Counts{}, fmt.Errorf("read %s: %w", path, err)
	}
	return c, nil
}
