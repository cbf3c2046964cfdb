package coverage

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// reportFilesName, fileCoveragesName, and metadataName are the fixed member
// names inside a coverage.zip archive.
const (
	reportFilesName   = "report_files.jsonl"
	fileCoveragesName = "file_coverages.jsonl"
	metadataName      = "metadata.json"
)

// reportFileRecord is one line of report_files.jsonl: a raw report file
// qlty ingested, kept verbatim for server-side reprocessing.
type reportFileRecord struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// fileCoverageRecord is one line of file_coverages.jsonl.
type fileCoverageRecord struct {
	Path     string  `json:"path"`
	LineHits []int64 `json:"line_hits"`
}

// BuildZip packages files, the metadata, and the original raw report
// contents into a coverage.zip archive, the exact bundle shape
// internal/cloudclient.UploadCoverage sends.
func BuildZip(w io.Writer, files []FileCoverage, metadata CoverageMetadata, rawReports map[string][]byte) error {
	zw := zip.NewWriter(w)

	if err := writeJSONLines(zw, fileCoveragesName, files, func(f FileCoverage) any {
		return fileCoverageRecord{Path: f.Path, LineHits: f.LineHits}
	}); err != nil {
		return fmt.Errorf("write %s: %w", fileCoveragesName, err)
	}

	names := make([]string, 0, len(rawReports))
	for name := range rawReports {
		names = append(names, name)
	}

	if err := writeRawReports(zw, names, rawReports); err != nil {
		return err
	}

	metaEntry, err := zw.Create(metadataName)
	if err != nil {
		return fmt.Errorf("create %s: %w", metadataName, err)
	}

	if err := json.NewEncoder(metaEntry).Encode(metadata); err != nil {
		return fmt.Errorf("encode %s: %w", metadataName, err)
	}

	return zw.Close()
}

func writeJSONLines[T any](zw *zip.Writer, name string, items []T, toRecord func(T) any) error {
	entry, err := zw.Create(name)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(entry)

	for _, item := range items {
		if err := enc.Encode(toRecord(item)); err != nil {
			return err
		}
	}

	return nil
}

func writeRawReports(zw *zip.Writer, names []string, rawReports map[string][]byte) error {
	entry, err := zw.Create(reportFilesName)
	if err != nil {
		return fmt.Errorf("create %s: %w", reportFilesName, err)
	}

	enc := json.NewEncoder(entry)

	for _, name := range names {
		rec := reportFileRecord{Name: name, Data: rawReports[name]}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode report file %s: %w", name, err)
		}
	}

	return nil
}

// ReadZip is the inverse of BuildZip: it decodes an archive's
// file_coverages.jsonl and metadata.json members. No command calls it;
// report_files.jsonl is not read back.
func ReadZip(data []byte) ([]FileCoverage, CoverageMetadata, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, CoverageMetadata{}, fmt.Errorf("open zip: %w", err)
	}

	var (
		files    []FileCoverage
		metadata CoverageMetadata
	)

	for _, f := range zr.File {
		switch f.Name {
		case fileCoveragesName:
			files, err = readFileCoverages(f)
		case metadataName:
			metadata, err = readMetadata(f)
		}

		if err != nil {
			return nil, CoverageMetadata{}, err
		}
	}

	return files, metadata, nil
}

func readFileCoverages(f *zip.File) ([]FileCoverage, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	var files []FileCoverage

	for _, raw := range splitLines(data) {
		if len(raw) == 0 {
			continue
		}

		var rec fileCoverageRecord

		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}

		fc := FileCoverage{Path: rec.Path, LineHits: rec.LineHits}
		summarize(&fc)
		files = append(files, fc)
	}

	return files, nil
}

func readMetadata(f *zip.File) (CoverageMetadata, error) {
	rc, err := f.Open()
	if err != nil {
		return CoverageMetadata{}, err
	}
	defer rc.Close()

	var metadata CoverageMetadata

	err = json.NewDecoder(rc).Decode(&metadata)

	return metadata, err
}
