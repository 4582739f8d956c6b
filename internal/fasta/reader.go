// Package fasta reads multi-FASTA files: small primer files in full and
// indexed genomes by region.
package fasta

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is a single FASTA entry. ID is the header up to the first
// whitespace.
type Record struct {
	ID     string
	Header string
	Seq    string
}

// DuplicateNameError is returned when two records share an ID.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate sequence name %q", e.Name)
}

// Read parses all records from r. Sequences are upper-cased. Duplicate
// IDs make the input ambiguous and fail with *DuplicateNameError.
func Read(r io.Reader) ([]Record, error) {
	var (
		records []Record
		seen    = make(map[string]bool)
		cur     *Record
		seq     strings.Builder
	)
	flush := func() {
		if cur != nil {
			cur.Seq = strings.ToUpper(seq.String())
			records = append(records, *cur)
		}
		seq.Reset()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] == '>' {
			flush()
			header := strings.TrimSpace(line[1:])
			fields := strings.Fields(header)
			if len(fields) == 0 {
				return nil, fmt.Errorf("record %d: empty header", len(records)+1)
			}
			id := fields[0]
			if seen[id] {
				return nil, &DuplicateNameError{Name: id}
			}
			seen[id] = true
			cur = &Record{ID: id, Header: header}
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("sequence data before first header")
		}
		seq.WriteString(strings.TrimSpace(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading fasta: %w", err)
	}
	flush()
	return records, nil
}

// ReadFile reads all records of a plain or gzip-compressed FASTA file.
func ReadFile(path string) ([]Record, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	records, err := Read(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Write writes records wrapped at width bases per line (0 = no wrapping).
func Write(w io.Writer, records []Record, width int) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		header := rec.Header
		if header == "" {
			header = rec.ID
		}
		if _, err := fmt.Fprintf(bw, ">%s\n", header); err != nil {
			return err
		}
		seq := rec.Seq
		for len(seq) > 0 {
			n := len(seq)
			if width > 0 && n > width {
				n = width
			}
			if _, err := fmt.Fprintln(bw, seq[:n]); err != nil {
				return err
			}
			seq = seq[n:]
		}
	}
	return bw.Flush()
}

type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// openReader opens path, transparently decompressing gzip input.
func openReader(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	var sig [2]byte
	n, _ := fh.Read(sig[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		fh.Close()
		return nil, fmt.Errorf("rewinding %s: %w", path, err)
	}
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("opening gzip %s: %w", path, err)
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return fh, nil
}
