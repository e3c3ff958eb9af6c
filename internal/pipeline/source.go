package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sciweave/papergraph/pkg/common"
	"github.com/sciweave/papergraph/pkg/logger"
)

// snapshotRecord mirrors one line of the arXiv metadata snapshot. Authors
// come as one comma-separated string, categories as one space-separated
// string.
type snapshotRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Abstract   string `json:"abstract"`
	Authors    string `json:"authors"`
	Categories string `json:"categories"`
	DOI        string `json:"doi"`
	JournalRef string `json:"journal-ref"`
	Versions   []struct {
		Version string `json:"version"`
		Created string `json:"created"`
	} `json:"versions"`
}

// maxSnapshotLine bounds one metadata line. Abstracts stay far below this.
const maxSnapshotLine = 4 * 1024 * 1024

// LoadSnapshot reads paper records from a JSON-lines arXiv metadata
// snapshot. Lines that fail to decode or lack an id are skipped with a
// warning, never aborting the load. A limit of 0 reads the whole file.
func LoadSnapshot(path string, limit int) ([]common.PaperRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata snapshot: %w", err)
	}
	defer file.Close()

	papers, err := readSnapshot(file, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata snapshot %s: %w", path, err)
	}
	return papers, nil
}

func readSnapshot(r io.Reader, limit int) ([]common.PaperRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxSnapshotLine)

	var papers []common.PaperRecord
	line := 0
	for scanner.Scan() {
		line++
		if limit > 0 && len(papers) >= limit {
			break
		}

		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var record snapshotRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			logger.Warn("skipping malformed metadata line", "line", line, "error", err)
			continue
		}
		if record.ID == "" {
			logger.Warn("skipping metadata line without id", "line", line)
			continue
		}

		papers = append(papers, toPaperRecord(record))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return papers, nil
}

func toPaperRecord(record snapshotRecord) common.PaperRecord {
	var authors []string
	for _, name := range strings.Split(record.Authors, ",") {
		if name = strings.TrimSpace(name); name != "" {
			authors = append(authors, name)
		}
	}

	categories := strings.Fields(record.Categories)

	var published, updated string
	if len(record.Versions) > 0 {
		published = record.Versions[0].Created
		updated = record.Versions[len(record.Versions)-1].Created
	}

	return common.PaperRecord{
		ExternalID: record.ID,
		Title:      strings.TrimSpace(record.Title),
		Abstract:   strings.TrimSpace(record.Abstract),
		Authors:    authors,
		Categories: categories,
		Published:  published,
		Updated:    updated,
		DOI:        record.DOI,
		JournalRef: record.JournalRef,
	}
}
