package source

import (
	"bufio"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielpatrickdp/transition-gate/internal/canon"
)

// #region entry
// Entry is one input record with its provenance in the source file.
type Entry struct {
	Line     int // 1-based line number in the source
	RecordID string
	Raw      string
	Record   canon.Record
}

// Options bound how much of a source is read.
type Options struct {
	MaxLines int // 0 means no limit; counts accepted entries
}

// Result is a parsed source.
type Result struct {
	Entries []Entry
	Skipped int
}

// ErrUnsupportedFormat is returned by Load for unknown extensions.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// #endregion entry

// #region rsmi
// ParseReaction parses one reaction line of the form reactants>reagents>products
// or reactants>>products. Anything after the first tab is ignored. A line
// containing ">>" must split into exactly two sides on it; otherwise any '>'
// beyond the second stays in the products. ok is false for blank lines and
// lines that fit neither form.
func ParseReaction(line string) (canon.Record, bool) {
	if i := strings.IndexByte(line, '\t'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return canon.Record{}, false
	}
	if strings.Contains(line, ">>") {
		sides := strings.Split(line, ">>")
		if len(sides) != 2 {
			return canon.Record{}, false
		}
		return canon.Record{R: strings.TrimSpace(sides[0]), P: strings.TrimSpace(sides[1])}, true
	}
	parts := strings.SplitN(line, ">", 3)
	if len(parts) != 3 {
		return canon.Record{}, false
	}
	return canon.Record{R: parts[0], C: parts[1], P: parts[2]}, true
}

// RecordID is the first 16 hex characters of the SHA-256 of the trimmed line.
func RecordID(line string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(line)))
	return hex.EncodeToString(sum[:])[:16]
}

// ReadRSMI reads reaction lines. Unparsable lines are counted in Skipped.
func ReadRSMI(r io.Reader, opts Options) (Result, error) {
	var res Result
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		rec, ok := ParseReaction(raw)
		if !ok {
			res.Skipped++
			continue
		}
		res.Entries = append(res.Entries, Entry{
			Line:     lineNo,
			RecordID: RecordID(raw),
			Raw:      raw,
			Record:   rec,
		})
		if opts.MaxLines > 0 && len(res.Entries) >= opts.MaxLines {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read rsmi line %d: %w", lineNo+1, err)
	}
	return res, nil
}

// #endregion rsmi

// #region csv
// ReadCSV reads a CSV with R, C and P header columns (any case, any order).
// A missing C column means every record has empty context.
func ReadCSV(r io.Reader, opts Options) (Result, error) {
	var res Result
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return res, fmt.Errorf("read csv header: %w", err)
	}
	idx := map[string]int{"R": -1, "C": -1, "P": -1}
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, ok := idx[key]; ok {
			idx[key] = i
		}
	}
	if idx["R"] < 0 || idx["P"] < 0 {
		return res, fmt.Errorf("csv header must name R and P columns, got %v", header)
	}

	lineNo := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			return res, fmt.Errorf("read csv line %d: %w", lineNo, err)
		}
		rec := canon.Record{R: field(row, idx["R"]), C: field(row, idx["C"]), P: field(row, idx["P"])}
		raw := strings.Join(row, ",")
		res.Entries = append(res.Entries, Entry{
			Line:     lineNo,
			RecordID: RecordID(raw),
			Raw:      raw,
			Record:   rec,
		})
		if opts.MaxLines > 0 && len(res.Entries) >= opts.MaxLines {
			break
		}
	}
	return res, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// #endregion csv

// #region load
// Load reads a file, choosing the parser by extension: .csv for CSV,
// .rsmi, .smi and .txt for reaction lines.
func Load(path string, opts Options) (Result, error) {
	var read func(io.Reader, Options) (Result, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		read = ReadCSV
	case ".rsmi", ".smi", ".txt":
		read = ReadRSMI
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return read(f, opts)
}

// Records strips provenance from entries.
func Records(entries []Entry) []canon.Record {
	out := make([]canon.Record, len(entries))
	for i, e := range entries {
		out[i] = e.Record
	}
	return out
}

// #endregion load
