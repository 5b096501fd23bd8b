// Package infile reads and writes the flat key/value/description file
// format the model executable's input processor consumes. The codec does
// no schema validation beyond the line grammar; order and text fidelity
// are what matter here, since the model reads fields positionally.
package infile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sogmodel/sogcmd/internal/model"
)

// Entry is one parsed flat-file line. Value keeps the raw text form
// (quotes stripped); Units is the contents of a trailing [..] pair in the
// description, or empty when the description has none.
type Entry struct {
	Value       string
	Description string
	Units       string
}

var (
	keyValueSep  = regexp.MustCompile(`"\s+`)
	valueDescSep = regexp.MustCompile(`\s+"`)
	unitsPair    = regexp.MustCompile(`\[.+\]`)
)

// maxLineLen is the widest line the model's reader accepts. Longer entries
// are folded: key on its own line, one value element per line, then the
// description.
const maxLineLen = 240

// Read parses flat-file content into entries keyed by infile key. Comment
// lines (starting with !) and blank lines are skipped. A logical entry may
// be folded over several physical lines; lines are joined until the
// key/value/description grammar is satisfied.
func Read(r io.Reader) (map[string]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	entries := make(map[string]Entry)
	lineNo := 0

	next := func() (string, bool) {
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "!") {
				continue
			}
			return line, true
		}
		return "", false
	}

	for {
		line, ok := next()
		if !ok {
			break
		}
		start := lineNo
		if !strings.HasPrefix(line, `"`) {
			return nil, &model.FormatError{Line: start, Text: line, Reason: "entry must begin with a quoted key"}
		}

		var key string
		for {
			parts := keyValueSep.Split(line, 2)
			if len(parts) == 2 {
				key = strings.Trim(parts[0], `"`)
				line = parts[1]
				break
			}
			more, ok := next()
			if !ok {
				return nil, &model.FormatError{Line: start, Text: line, Reason: "entry has no value field"}
			}
			line = line + " " + more
		}

		var value, desc string
		for {
			parts := valueDescSep.Split(line, 2)
			if len(parts) == 2 {
				value = strings.Trim(parts[0], `"`)
				desc = parts[1]
				break
			}
			more, ok := next()
			if !ok {
				return nil, &model.FormatError{Line: start, Text: line, Reason: "entry has no description field"}
			}
			line = line + " " + more
		}
		if !strings.HasSuffix(desc, `"`) {
			return nil, &model.FormatError{Line: start, Text: desc, Reason: "description is not quote terminated"}
		}
		desc = strings.Trim(desc, `"`)

		var units string
		if m := unitsPair.FindString(desc); m != "" {
			desc = strings.TrimSpace(strings.Replace(desc, m, "", 1))
			units = strings.Trim(m, "[]")
		}
		entries[key] = Entry{Value: value, Description: desc, Units: units}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read infile: %w", err)
	}
	return entries, nil
}

// ReadFile parses a flat infile from disk.
func ReadFile(path string) (map[string]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open infile: %w", err)
	}
	defer f.Close()
	entries, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Write emits one flat-file line per record, preserving record order
// exactly. Entries wider than the model reader's line limit are folded
// with the key and each value element on their own lines.
func Write(w io.Writer, records []model.Record) error {
	for _, rec := range records {
		line := fmt.Sprintf("\"%s\"  %s  \"%s\"", rec.Key, rec.Value, rec.Description)
		if len(line) > maxLineLen {
			var b strings.Builder
			b.WriteString("\"" + rec.Key + "\"\n")
			for _, part := range strings.Fields(rec.Value) {
				b.WriteString("  " + part + "\n")
			}
			b.WriteString("  \"" + rec.Description + "\"")
			line = b.String()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write infile line %q: %w", rec.Key, err)
		}
	}
	return nil
}

// WriteFile writes records to a flat infile on disk, truncating any
// existing file.
func WriteFile(path string, records []model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create infile: %w", err)
	}
	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close infile: %w", err)
	}
	return nil
}
