// Package trace reads memory access traces and replays them into caches.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/logger"
	"github.com/sarchlab/cachesim/mem/cache"
)

// A Record is one line of a trace: "<op> <hex-address>,<decimal-size>".
type Record struct {
	Op      cache.Operation
	Address uint64
	Size    int

	// Line is the 1-based line number the record was read from.
	Line int
}

func (r Record) String() string {
	return fmt.Sprintf("%s %x,%d", r.Op, r.Address, r.Size)
}

// MalformedRecordError reports a line that is not a valid record.
type MalformedRecordError struct {
	Line int
	Text string
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("line %d: malformed record %q: %v", e.Line, e.Text, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// A Reader parses records one by one. Blank lines and valgrind banner lines
// (starting with "==") are skipped.
type Reader struct {
	reader *bufio.Reader
	line   int

	skipMalformed bool
	logger        logger.Logger
	numSkipped    int
}

// NewReader creates a Reader that fails on the first malformed record.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		reader: bufio.NewReader(r),
	}
}

// MaxLineLength is the longest line a Reader accepts. Longer lines are
// malformed records.
const MaxLineLength = 4096

var errLineTooLong = fmt.Errorf("line longer than %d bytes", MaxLineLength)

// SkipMalformed makes the reader log malformed records as warnings and move
// on instead of failing.
func (r *Reader) SkipMalformed(l logger.Logger) *Reader {
	r.skipMalformed = true
	r.logger = l

	return r
}

// NumSkipped returns how many malformed records were skipped.
func (r *Reader) NumSkipped() int {
	return r.numSkipped
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	for {
		raw, tooLong, err := r.readLine()
		if err != nil {
			return Record{}, err
		}

		r.line++

		text := strings.TrimSpace(raw)
		if !tooLong && (text == "" || strings.HasPrefix(text, "==")) {
			continue
		}

		record, parseErr := ParseRecord(text)
		if tooLong {
			parseErr = errLineTooLong
		}

		if parseErr == nil {
			record.Line = r.line
			return record, nil
		}

		malformed := &MalformedRecordError{Line: r.line, Text: text, Err: parseErr}
		if !r.skipMalformed {
			return Record{}, malformed
		}

		r.numSkipped++
		r.logger.Warning(malformed.Error())
	}
}

// readLine returns the next line without its line ending. Only the first
// MaxLineLength bytes of a longer line are kept, and tooLong is set.
func (r *Reader) readLine() (line string, tooLong bool, err error) {
	var buf []byte

	for {
		chunk, isPrefix, readErr := r.reader.ReadLine()
		if readErr != nil {
			if errors.Is(readErr, io.EOF) && (len(buf) > 0 || tooLong) {
				return string(buf), tooLong, nil
			}

			return "", false, readErr
		}

		if room := MaxLineLength - len(buf); len(chunk) > room {
			chunk = chunk[:room]
			tooLong = true
		}

		buf = append(buf, chunk...)

		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// ParseRecord parses a single trimmed trace line.
func ParseRecord(text string) (Record, error) {
	if len(text) < 2 {
		return Record{}, errors.New("record too short")
	}

	op, err := cache.ParseOperation(text[0])
	if err != nil {
		return Record{}, err
	}

	if text[1] != ' ' && text[1] != '\t' {
		return Record{}, errors.New("missing space after operation")
	}

	addrText, sizeText, found := strings.Cut(strings.TrimSpace(text[1:]), ",")
	if !found {
		return Record{}, errors.New("missing comma between address and size")
	}

	addrText = strings.TrimPrefix(strings.TrimPrefix(addrText, "0x"), "0X")

	addr, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad address: %w", err)
	}

	size, err := strconv.Atoi(strings.TrimSpace(sizeText))
	if err != nil {
		return Record{}, fmt.Errorf("bad size: %w", err)
	}

	if size < 0 {
		return Record{}, fmt.Errorf("negative size %d", size)
	}

	return Record{Op: op, Address: addr, Size: size}, nil
}

// ReadAll reads every record. Many caches can then replay the result.
func ReadAll(r *Reader) ([]Record, error) {
	var records []Record

	for {
		record, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}
}
