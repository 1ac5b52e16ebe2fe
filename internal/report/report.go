// Package report writes matched fuzzer.Result values to disk in one
// of the three formats the -o flag accepts: txt, csv, json. Grounded
// on the teacher's results.txt writer in fuzzer.go (os.Create +
// buffered Fprintf); csv/json use only the standard library because
// no repo in the corpus reaches for a third-party serializer for a
// flat record format.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"fuzzer/internal/fuzzer"
)

// Writer accumulates matched results and flushes them to path in the
// format implied by its extension on Close.
type Writer struct {
	path   string
	format string
	runID  string
	file   *os.File
	buf    *bufio.Writer
	csvw   *csv.Writer
	json   []jsonRecord
}

type jsonRecord struct {
	RunID   string                 `json:"run_id,omitempty"`
	Index   uint64                 `json:"index"`
	URL     string                 `json:"url"`
	Method  string                 `json:"method"`
	Status  int                    `json:"status"`
	Length  int                    `json:"length"`
	RTT     float64                `json:"rtt"`
	Words   int                    `json:"words"`
	Lines   int                    `json:"lines"`
	Payload string                 `json:"payload"`
	Custom  map[string]interface{} `json:"custom,omitempty"`
}

// New opens path for writing, picking the format from its extension
// (.txt, .csv, .json). An unsupported extension is a configuration
// error, surfaced before the run starts.
func New(path string) (*Writer, error) {
	ext := filepath.Ext(path)
	switch ext {
	case ".txt", ".csv", ".json":
	default:
		return nil, fmt.Errorf("report: unsupported report extension %q (want .txt, .csv or .json)", ext)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("report: create %s: %w", path, err)
	}

	w := &Writer{path: path, format: ext[1:], file: file}
	switch w.format {
	case "txt":
		w.buf = bufio.NewWriter(file)
	case "csv":
		w.csvw = csv.NewWriter(file)
		w.csvw.Write([]string{"index", "url", "method", "status", "length", "rtt", "words", "lines", "payload"})
	case "json":
		w.json = make([]jsonRecord, 0, 64)
	}
	return w, nil
}

// SetRunID stamps every subsequent JSON record with id, so a report can
// be correlated back to the log lines of the run that produced it. It
// has no effect on the txt/csv formats.
func (w *Writer) SetRunID(id string) {
	w.runID = id
}

// Write appends one matched result.
func (w *Writer) Write(result *fuzzer.Result) error {
	switch w.format {
	case "txt":
		_, err := fmt.Fprintf(w.buf, "[%d] %s %s (%.3fs, %d bytes)\n",
			result.Status, result.Method, result.URL, result.RTT.Seconds(), result.BodyLength)
		return err
	case "csv":
		w.csvw.Write([]string{
			strconv.FormatUint(result.Index, 10),
			result.URL,
			result.Method,
			strconv.Itoa(result.Status),
			strconv.Itoa(result.BodyLength),
			strconv.FormatFloat(result.RTT.Seconds(), 'f', 6, 64),
			strconv.Itoa(result.Words),
			strconv.Itoa(result.Lines),
			result.Payload.Final,
		})
		return w.csvw.Error()
	case "json":
		w.json = append(w.json, jsonRecord{
			RunID:   w.runID,
			Index:   result.Index,
			URL:     result.URL,
			Method:  result.Method,
			Status:  result.Status,
			Length:  result.BodyLength,
			RTT:     result.RTT.Seconds(),
			Words:   result.Words,
			Lines:   result.Lines,
			Payload: result.Payload.Final,
			Custom:  result.Custom,
		})
	}
	return nil
}

// Close flushes pending output and closes the underlying file.
func (w *Writer) Close() error {
	defer w.file.Close()
	switch w.format {
	case "txt":
		return w.buf.Flush()
	case "csv":
		w.csvw.Flush()
		return w.csvw.Error()
	case "json":
		encoder := json.NewEncoder(w.file)
		encoder.SetIndent("", "  ")
		return encoder.Encode(w.json)
	}
	return nil
}
