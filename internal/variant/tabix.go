package variant

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/tabix"
)

// Tabix is a Source over a bgzipped VCF with a tabix index beside it
// (path + ".tbi"). Only the blocks covering a query are decompressed.
type Tabix struct {
	path  string
	index *tabix.Index
}

// OpenTabix loads the tabix index of a bgzipped VCF.
func OpenTabix(path string) (*Tabix, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening vcf: %w", err)
	}
	fh, err := os.Open(path + ".tbi")
	if err != nil {
		return nil, fmt.Errorf("opening tabix index: %w", err)
	}
	defer fh.Close()

	// .tbi files are themselves BGZF compressed.
	bg, err := bgzf.NewReader(fh, 1)
	if err != nil {
		return nil, fmt.Errorf("reading %s.tbi: %w", path, err)
	}
	defer bg.Close()
	idx, err := tabix.ReadFrom(bg)
	if err != nil {
		return nil, fmt.Errorf("reading %s.tbi: %w", path, err)
	}
	return &Tabix{path: path, index: idx}, nil
}

// Contigs lists the contigs named in the index.
func (t *Tabix) Contigs() []string {
	return t.index.Names()
}

// Fetch implements Source. The file is opened per call so concurrent
// fetches do not share a reader.
func (t *Tabix) Fetch(contig string, start, end int) ([]Record, error) {
	if end <= start {
		return nil, nil
	}
	chunks, err := t.index.Chunks(contig, max(start, 0), end)
	switch {
	case errors.Is(err, index.ErrNoReference):
		return nil, fmt.Errorf("%w: %s", ErrUnknownContig, contig)
	case errors.Is(err, index.ErrInvalid):
		// query lies past the last indexed window
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("querying %s:%d-%d: %w", contig, start, end, err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	fh, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("opening vcf: %w", err)
	}
	defer fh.Close()
	bg, err := bgzf.NewReader(fh, 1)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", t.path, err)
	}
	defer bg.Close()
	cr, err := index.NewChunkReader(bg, chunks)
	if err != nil {
		return nil, fmt.Errorf("seeking %s: %w", t.path, err)
	}
	defer cr.Close()

	// Chunks are bin-granular, so records outside the query are filtered.
	var out []Record
	sc := bufio.NewScanner(cr)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		rec, ok, err := parseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.path, err)
		}
		if ok && rec.Contig == contig && rec.overlaps(start, end) {
			out = append(out, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", t.path, err)
	}
	return out, nil
}
