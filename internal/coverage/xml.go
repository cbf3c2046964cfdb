package coverage

import (
	"encoding/xml"
)

// Cobertura parses Cobertura's <coverage><packages><package><classes>
// <class filename=...><lines><line number=... hits=.../></lines> shape.
type Cobertura struct{}

type coberturaReport struct {
	Packages []struct {
		Classes []struct {
			Filename string `xml:"filename,attr"`
			Lines    struct {
				Line []struct {
					Number int   `xml:"number,attr"`
					Hits   int64 `xml:"hits,attr"`
				} `xml:"line"`
			} `xml:"lines"`
		} `xml:"classes>class"`
	} `xml:"packages>package"`
}

// Parse implements Parser.
func (Cobertura) Parse(data []byte) ([]FileCoverage, error) {
	var report coberturaReport

	if err := xml.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	byPath := make(map[string]*FileCoverage)
	order := make([]string, 0)

	for _, pkg := range report.Packages {
		for _, class := range pkg.Classes {
			fc, ok := byPath[class.Filename]
			if !ok {
				fc = &FileCoverage{Path: class.Filename}
				byPath[class.Filename] = fc
				order = append(order, class.Filename)
			}

			for _, line := range class.Lines.Line {
				if line.Number < 1 {
					continue
				}

				growHits(fc, line.Number)
				fc.LineHits[line.Number-1] = line.Hits
			}
		}
	}

	return finalizeXML(byPath, order), nil
}

// JaCoCo parses JaCoCo's <report><package><sourcefile name=...>
// <line nr=... ci=.../></sourcefile></package></report> shape, where ci is
// covered-instruction count (treated as a hit count: >0 means covered).
type JaCoCo struct{}

type jacocoReport struct {
	Packages []struct {
		Name        string `xml:"name,attr"`
		SourceFiles []struct {
			Name string `xml:"name,attr"`
			Line []struct {
				Nr int   `xml:"nr,attr"`
				CI int64 `xml:"ci,attr"`
			} `xml:"line"`
		} `xml:"sourcefile"`
	} `xml:"package"`
}

// Parse implements Parser.
func (JaCoCo) Parse(data []byte) ([]FileCoverage, error) {
	var report jacocoReport

	if err := xml.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	byPath := make(map[string]*FileCoverage)
	order := make([]string, 0)

	for _, pkg := range report.Packages {
		for _, sf := range pkg.SourceFiles {
			path := pkg.Name + "/" + sf.Name

			fc, ok := byPath[path]
			if !ok {
				fc = &FileCoverage{Path: path}
				byPath[path] = fc
				order = append(order, path)
			}

			for _, line := range sf.Line {
				if line.Nr < 1 {
					continue
				}

				growHits(fc, line.Nr)
				fc.LineHits[line.Nr-1] = line.CI
			}
		}
	}

	return finalizeXML(byPath, order), nil
}

// Clover parses Atlassian Clover's <coverage><project><file path=...>
// <line num=... count=.../></file></project></coverage> shape.
type Clover struct{}

type cloverReport struct {
	Project struct {
		Files []struct {
			Path string `xml:"path,attr"`
			Name string `xml:"name,attr"`
			Line []struct {
				Num   int   `xml:"num,attr"`
				Count int64 `xml:"count,attr"`
				Type  string `xml:"type,attr"`
			} `xml:"line"`
		} `xml:"file"`
	} `xml:"project"`
}

// Parse implements Parser.
func (Clover) Parse(data []byte) ([]FileCoverage, error) {
	var report cloverReport

	if err := xml.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	byPath := make(map[string]*FileCoverage)
	order := make([]string, 0)

	for _, file := range report.Project.Files {
		path := file.Path
		if path == "" {
			path = file.Name
		}

		fc, ok := byPath[path]
		if !ok {
			fc = &FileCoverage{Path: path}
			byPath[path] = fc
			order = append(order, path)
		}

		for _, line := range file.Line {
			if line.Type != "stmt" && line.Type != "" {
				continue
			}

			if line.Num < 1 {
				continue
			}

			growHits(fc, line.Num)
			fc.LineHits[line.Num-1] = line.Count
		}
	}

	return finalizeXML(byPath, order), nil
}

// DotCover parses the element shape dotCover's HTML-report XML siblings
// use for per-file statement coverage: <File Index=... Name=.../> plus a
// separate <Statement FileIndex=... Line=... Covered=.../> stream.
type DotCover struct{}

type dotCoverReport struct {
	Files []struct {
		Index int    `xml:"Index,attr"`
		Name  string `xml:"Name,attr"`
	} `xml:"FileIndices>File"`
	Statements []struct {
		FileIndex int    `xml:"FileIndex,attr"`
		Line      int    `xml:"Line,attr"`
		Covered   string `xml:"Covered,attr"`
	} `xml:"Statements>Statement"`
}

// Parse implements Parser.
func (DotCover) Parse(data []byte) ([]FileCoverage, error) {
	var report dotCoverReport

	if err := xml.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	names := make(map[int]string, len(report.Files))
	for _, f := range report.Files {
		names[f.Index] = f.Name
	}

	byPath := make(map[string]*FileCoverage)
	order := make([]string, 0)

	for _, st := range report.Statements {
		path, ok := names[st.FileIndex]
		if !ok || st.Line < 1 {
			continue
		}

		fc, ok := byPath[path]
		if !ok {
			fc = &FileCoverage{Path: path}
			byPath[path] = fc
			order = append(order, path)
		}

		growHits(fc, st.Line)

		if st.Covered == "True" || st.Covered == "true" {
			fc.LineHits[st.Line-1] = 1
		} else if fc.LineHits[st.Line-1] < 0 {
			fc.LineHits[st.Line-1] = 0
		}
	}

	return finalizeXML(byPath, order), nil
}

func finalizeXML(byPath map[string]*FileCoverage, order []string) []FileCoverage {
	files := make([]FileCoverage, 0, len(order))

	for _, path := range order {
		fc := byPath[path]
		summarize(fc)
		files = append(files, *fc)
	}

	return files
}
