package pipeline

import (
	"strings"
	"testing"
)

const sampleSnapshot = `{"id":"0704.0001","title":" Calculation of prompt diphoton production ","abstract":" A full computation is presented. ","authors":"C. Balázs, E. L. Berger","categories":"hep-ph cs.LG","doi":"10.1103/PhysRevD.76.013009","journal-ref":"Phys.Rev.D76:013009,2007","versions":[{"version":"v1","created":"Mon, 2 Apr 2007 19:18:42 GMT"},{"version":"v2","created":"Tue, 24 Jul 2007 20:10:27 GMT"}]}
not json at all
{"title":"no id on this line"}

{"id":"0704.0002","title":"Sparsity-certifying Graph Decompositions","abstract":"We describe a new algorithm.","authors":"Ileana Streinu","categories":"math.CO","versions":[{"version":"v1","created":"Sat, 31 Mar 2007 02:26:18 GMT"}]}
`

func TestReadSnapshotSkipsBadLines(t *testing.T) {
	papers, err := readSnapshot(strings.NewReader(sampleSnapshot), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(papers))
	}

	first := papers[0]
	if first.ExternalID != "0704.0001" {
		t.Fatalf("unexpected id %q", first.ExternalID)
	}
	if first.Title != "Calculation of prompt diphoton production" {
		t.Fatalf("title not trimmed: %q", first.Title)
	}
	if len(first.Authors) != 2 || first.Authors[1] != "E. L. Berger" {
		t.Fatalf("unexpected authors %v", first.Authors)
	}
	if len(first.Categories) != 2 || first.Categories[0] != "hep-ph" {
		t.Fatalf("unexpected categories %v", first.Categories)
	}
	if first.Published != "Mon, 2 Apr 2007 19:18:42 GMT" {
		t.Fatalf("unexpected published %q", first.Published)
	}
	if first.Updated != "Tue, 24 Jul 2007 20:10:27 GMT" {
		t.Fatalf("unexpected updated %q", first.Updated)
	}
	if first.DOI == "" || first.JournalRef == "" {
		t.Fatal("doi and journal-ref must be carried through")
	}

	second := papers[1]
	if second.Published != second.Updated {
		t.Fatal("single-version papers share published and updated dates")
	}
}

func TestReadSnapshotHonorsLimit(t *testing.T) {
	papers, err := readSnapshot(strings.NewReader(sampleSnapshot), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(papers) != 1 || papers[0].ExternalID != "0704.0001" {
		t.Fatalf("unexpected papers %v", papers)
	}
}
