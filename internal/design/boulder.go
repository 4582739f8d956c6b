package design

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Record is one Boulder-IO record: TAG=VALUE lines terminated by "=".
type Record map[string]string

// WriteRecord writes rec in Boulder-IO format. Tags are written in sorted
// order with SEQUENCE_ID first.
func WriteRecord(w io.Writer, rec Record) error {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		if k != "SEQUENCE_ID" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := rec["SEQUENCE_ID"]; ok {
		keys = append([]string{"SEQUENCE_ID"}, keys...)
	}

	bw := bufio.NewWriter(w)
	for _, k := range keys {
		v := rec[k]
		if strings.ContainsAny(v, "\n") {
			return fmt.Errorf("boulder tag %s: value contains a newline", k)
		}
		fmt.Fprintf(bw, "%s=%s\n", k, v)
	}
	fmt.Fprintln(bw, "=")
	return bw.Flush()
}

// ReadRecord reads a single Boulder-IO record. It returns io.EOF when r
// holds no further record.
func ReadRecord(r io.Reader) (Record, error) {
	rec := make(Record)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "=" {
			return rec, nil
		}
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("boulder: malformed line %q", line)
		}
		rec[k] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("boulder: %w", err)
	}
	if len(rec) == 0 {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("boulder: record not terminated by '='")
}
