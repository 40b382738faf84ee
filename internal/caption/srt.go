package caption

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// FileExtension is the extension used for exported caption files.
const FileExtension = ".srt"

var timestampLine = regexp.MustCompile(
	`^(\d{2}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2},\d{3})$`,
)

// ExportSRT serializes a track into the bilingual SRT convention: for each
// caption a 1-based index line, the "start --> end" line, the translated
// text line, then the original text line, with a blank line between blocks.
// Timestamps are passed through verbatim.
func ExportSRT(tr *Track) string {
	blocks := make([]string, 0, len(tr.Items))
	for i, it := range tr.Items {
		var sb strings.Builder
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("\n")
		sb.WriteString(it.StartTime)
		sb.WriteString(" --> ")
		sb.WriteString(it.EndTime)
		sb.WriteString("\n")
		sb.WriteString(it.TranslatedText)
		sb.WriteString("\n")
		sb.WriteString(it.OriginalText)
		sb.WriteString("\n")
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n")
}

// WriteFile exports the track to path, creating parent directories.
func WriteFile(tr *Track, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(path, []byte(ExportSRT(tr)), 0644)
}

// ParseSRT reads the bilingual SRT convention back into a track. The first
// text line of each block is taken as the translated text and the second as
// the original; any further lines are folded into the original text. A
// leading BOM is tolerated.
func ParseSRT(path string) (*Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open caption file: %w", err)
	}
	defer file.Close()

	var items []Item
	var current *Item
	var textLines []string

	flush := func() {
		if current == nil {
			return
		}
		if len(textLines) > 0 {
			current.TranslatedText = textLines[0]
		}
		if len(textLines) > 1 {
			current.OriginalText = strings.Join(textLines[1:], "\n")
		}
		items = append(items, *current)
		current = nil
		textLines = nil
	}

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}

		if current == nil {
			if _, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
				current = &Item{}
				continue
			}
			return nil, fmt.Errorf("line %d: expected block index, got %q", lineNum, line)
		}

		if current.StartTime == "" {
			m := timestampLine.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil {
				return nil, fmt.Errorf("line %d: expected timestamp range, got %q", lineNum, line)
			}
			current.StartTime = m[1]
			current.EndTime = m[2]
			continue
		}

		textLines = append(textLines, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading caption file: %w", err)
	}

	return &Track{Items: items}, nil
}
