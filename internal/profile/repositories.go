// Package profile reads and rewrites the two R-facing configuration
// files rig manages: the repositories TSV (base R's repository menu)
// and a user's site profile script.
package profile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/r-lib/rig/internal/repos"
	"github.com/r-lib/rig/internal/rigerr"
)

// RepoFileEntry is one data row of the repositories TSV.
type RepoFileEntry struct {
	Name        string
	Description string
	URL         string
	Default     bool
	Source      bool
	WinBinary   bool
	MacBinary   bool
}

// CommentLine is a preserved comment or blank line, keyed by its
// original 1-based line number.
type CommentLine struct {
	Line int
	Text string
}

// RepositoriesFile is the parsed contents of a repositories TSV: the
// data rows plus every comment/blank line, so that rewriting the file
// doesn't disturb lines it didn't touch.
type RepositoriesFile struct {
	Entries  []RepoFileEntry
	Comments []CommentLine
}

var repositoriesHeader = []string{
	"menu_name", "URL", "default", "source", "win.binary", "mac.binary",
}

// ReadRepositoriesFile parses the tab-separated repositories file at
// path, separating comment/blank lines (by original line number) from
// the header and data rows.
func ReadRepositoriesFile(path string) (*RepositoriesFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rigerr.Wrap(rigerr.CacheIO, "opening repositories file", err)
	}
	defer f.Close()

	var comments []CommentLine
	var dataLines []string

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			comments = append(comments, CommentLine{Line: lineNum, Text: line})
		case trimmed == "":
			comments = append(comments, CommentLine{Line: lineNum, Text: ""})
		default:
			dataLines = append(dataLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, rigerr.Wrap(rigerr.ParseError, "reading repositories file", err)
	}

	if len(dataLines) == 0 {
		return &RepositoriesFile{Comments: comments}, nil
	}

	rows, err := parseTSVRows(dataLines)
	if err != nil {
		return nil, rigerr.Wrap(rigerr.ParseError, "parsing repositories file", err)
	}
	if len(rows) < 1 {
		return &RepositoriesFile{Comments: comments}, nil
	}

	entries := make([]RepoFileEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 7 {
			return nil, rigerr.New(rigerr.ParseError, fmt.Sprintf("repositories file: row has %d fields, want 7", len(row)))
		}
		entries = append(entries, RepoFileEntry{
			Name:        row[0],
			Description: row[1],
			URL:         row[2],
			Default:     strings.EqualFold(row[3], "true"),
			Source:      strings.EqualFold(row[4], "true"),
			WinBinary:   strings.EqualFold(row[5], "true"),
			MacBinary:   strings.EqualFold(row[6], "true"),
		})
	}

	return &RepositoriesFile{Entries: entries, Comments: comments}, nil
}

// Write serializes f back to path, reassembling comment lines at their
// original line numbers around the (possibly edited) header and data
// rows, quoting fields that contain whitespace. The write is atomic: a
// uuid-suffixed temp file in the same directory is renamed into place.
func (f *RepositoriesFile) Write(path string) error {
	comments := append([]CommentLine(nil), f.Comments...)
	sort.Slice(comments, func(i, j int) bool { return comments[i].Line < comments[j].Line })
	commentByLine := make(map[int]string, len(comments))
	for _, c := range comments {
		commentByLine[c.Line] = c.Text
	}

	rows := make([][]string, 0, len(f.Entries))
	for _, e := range f.Entries {
		rows = append(rows, []string{
			e.Name, e.Description, e.URL,
			boolTSV(e.Default), boolTSV(e.Source), boolTSV(e.WinBinary), boolTSV(e.MacBinary),
		})
	}

	var b strings.Builder
	totalLines := len(comments) + len(rows) + 1 // +1 for header
	rowIdx := 0
	headerWritten := false
	for line := 1; line <= totalLines; line++ {
		if text, ok := commentByLine[line]; ok {
			b.WriteString(text)
			b.WriteByte('\n')
			continue
		}
		if !headerWritten {
			b.WriteString(formatTSVRow(repositoriesHeader))
			b.WriteByte('\n')
			headerWritten = true
			continue
		}
		if rowIdx < len(rows) {
			b.WriteString(formatTSVRow(rows[rowIdx]))
			b.WriteByte('\n')
			rowIdx++
		}
	}

	return writeAtomic(path, []byte(b.String()))
}

func boolTSV(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// CommentOutAndAdd converts the existing row named entry.Name (if any)
// into a "## "-prefixed comment at its original position, then appends
// a new row for entry. Every other comment's position is left
// untouched.
func CommentOutAndAdd(f *RepositoriesFile, entry RepoFileEntry) {
	idx := -1
	for i, e := range f.Entries {
		if e.Name == entry.Name {
			idx = i
			break
		}
	}

	if idx >= 0 {
		old := f.Entries[idx]
		line := oldEntryLine(f, idx)
		row := []string{
			old.Name, old.Description, old.URL,
			boolTSV(old.Default), boolTSV(old.Source), boolTSV(old.WinBinary), boolTSV(old.MacBinary),
		}
		f.Comments = append(f.Comments, CommentLine{Line: line, Text: "## " + formatTSVRow(row)})
		f.Entries = append(f.Entries[:idx], f.Entries[idx+1:]...)
	}

	f.Entries = append(f.Entries, entry)
}

// oldEntryLine computes the line number a data row at dataIndex
// (0-based, not counting the header) would occupy in the current
// layout, by simulating Write's line assignment.
func oldEntryLine(f *RepositoriesFile, dataIndex int) int {
	comments := append([]CommentLine(nil), f.Comments...)
	sort.Slice(comments, func(i, j int) bool { return comments[i].Line < comments[j].Line })
	commentLines := make(map[int]bool, len(comments))
	for _, c := range comments {
		commentLines[c.Line] = true
	}

	total := len(f.Entries) + 1 // header + data rows
	target := dataIndex + 1     // +1 to skip the header slot

	dataSeen := 0
	line := 0
	for dataSeen < total {
		line++
		if commentLines[line] {
			continue
		}
		if dataSeen == target {
			return line
		}
		dataSeen++
	}
	return line + 1
}

// EntryForRepository builds a default RepoFileEntry for a resolved
// repository entry, mirroring add_repository's all-TRUE defaults.
func EntryForRepository(entry repos.RepoEntry) RepoFileEntry {
	return RepoFileEntry{
		Name:        entry.Name,
		Description: entry.Name,
		URL:         entry.URL,
		Default:     true,
		Source:      true,
		WinBinary:   true,
		MacBinary:   true,
	}
}

func parseTSVRows(lines []string) ([][]string, error) {
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		row, err := splitTSVLine(line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// splitTSVLine splits a tab-delimited line honoring double-quoted
// fields (with doubled internal quotes), the same convention base R's
// repositories file uses for fields containing spaces.
func splitTSVLine(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == '"' && inQuotes:
			if i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i += 2
				continue
			}
			inQuotes = false
			i++
		case c == '"' && !inQuotes && cur.Len() == 0:
			inQuotes = true
			i++
		case c == '\t' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
			i++
		default:
			cur.WriteByte(c)
			i++
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("unterminated quoted field in: %s", line)
	}
	fields = append(fields, cur.String())
	return fields, nil
}

func formatTSVRow(fields []string) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = quoteIfHasSpace(f)
	}
	return strings.Join(out, "\t")
}

func quoteIfHasSpace(field string) string {
	if strings.ContainsAny(field, " \t") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")

	if err := os.WriteFile(tmp, data, 0o666); err != nil {
		return rigerr.Wrap(rigerr.CacheIO, "writing temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return rigerr.Wrap(rigerr.CacheIO, "renaming temp file into place", err)
	}
	return nil
}
