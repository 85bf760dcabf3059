// Package sink persists the letter tally.
package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"categorycrawler/internal/pkg/aggregator"
	"categorycrawler/internal/pkg/logger"
)

// DefaultPath is where the CLI writes the tally unless told otherwise.
const DefaultPath = "beasts.csv"

var Header = []string{"Letter", "Count"}

// Older tallies were written with a Russian header, often with a BOM.
var legacyHeader = []string{"Буква", "Количество"}

var (
	ErrBadHeader = errors.New("unexpected CSV header")
	ErrBadRecord = errors.New("malformed CSV record")
)

// WriteCSV writes the header and one row per letter, sorted ascending.
func WriteCSV(w io.Writer, counts aggregator.LetterCount) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, letter := range counts.Keys() {
		if err := writer.Write([]string{letter, strconv.Itoa(counts[letter])}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV truncates path and writes counts to it. Failures are logged here and
// returned; the in-memory result stays valid either way.
func SaveCSV(ctx context.Context, path string, counts aggregator.LetterCount) error {
	err := saveCSV(path, counts)
	if err != nil {
		logger.Error(ctx, "could not save results", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Info(ctx, "results saved", zap.String("path", path), zap.Int("letters", len(counts)))
	return nil
}

func saveCSV(path string, counts aggregator.LetterCount) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	if err := WriteCSV(file, counts); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) (aggregator.LetterCount, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrBadHeader)
		}
		return nil, err
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	if !equalHeader(header, Header) && !equalHeader(header, legacyHeader) {
		return nil, fmt.Errorf("%w: %q", ErrBadHeader, header)
	}

	counts := aggregator.New()
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		letter := record[0]
		count, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if letter == "" || err != nil || count < 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadRecord, record)
		}
		if _, dup := counts[letter]; dup {
			return nil, fmt.Errorf("%w: duplicate letter %q", ErrBadRecord, letter)
		}
		counts[letter] = count
	}
	return counts, nil
}

// LoadCSV reads the tally stored at path.
func LoadCSV(path string) (aggregator.LetterCount, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}
