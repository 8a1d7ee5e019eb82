package importer

import (
	"bytes"
	"encoding/xml"
	"path/filepath"
	"strings"

	"golang.org/x/net/html/charset"
)

// sniff holds the cheap facts detectors look at. The XML root is resolved lazily.
type sniff struct {
	ext  string
	data []byte

	rootDone bool
	root     string
}

func (s *sniff) xmlRoot() string {
	if !s.rootDone {
		s.root = xmlRootElement(s.data)
		s.rootDone = true
	}
	return s.root
}

type detector struct {
	format Format
	match  func(*sniff) bool
}

func defaultDetectors() []detector {
	return []detector{
		{format: FormatTabular, match: func(s *sniff) bool {
			return s.ext == ".csv" || s.ext == ".tsv" || s.ext == ".txt"
		}},
		{format: FormatBackup, match: func(s *sniff) bool {
			return s.ext == ".json"
		}},
		{format: FormatFIT, match: func(s *sniff) bool {
			return s.ext == ".fit" || hasFITMagic(s.data)
		}},
		{format: FormatTCX, match: func(s *sniff) bool {
			return s.xmlRoot() == "TrainingCenterDatabase"
		}},
		{format: FormatGPX, match: func(s *sniff) bool {
			return s.xmlRoot() == "gpx"
		}},
	}
}

// Detect returns the first format whose detector matches, or FormatUnknown.
func (im *Importer) Detect(name string, data []byte) Format {
	s := &sniff{
		ext:  strings.ToLower(filepath.Ext(name)),
		data: data,
	}
	for _, d := range im.detectors {
		if d.match(s) {
			return d.format
		}
	}
	return FormatUnknown
}

// hasFITMagic checks the ".FIT" data type marker at bytes 8..11 of the file header.
func hasFITMagic(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[8:12], []byte(".FIT"))
}

// xmlRootElement returns the local name of the first start element, or "" when data
// is not XML.
func xmlRootElement(data []byte) string {
	trimmed := bytes.TrimLeft(data, "\xef\xbb\xbf \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return ""
	}
	dec := xml.NewDecoder(bytes.NewReader(trimmed))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false
	for i := 0; i < 64; i++ {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local
		}
	}
	return ""
}
