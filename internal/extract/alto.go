package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractALTO returns the words of an ALTO OCR file. Each TextLine becomes one
// output line; String@CONTENT values within a line are joined by single spaces.
// Namespaces are ignored so ALTO v2 to v4 read the same way.
func extractALTO(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var (
		lines []string
		line  []string
		inLn  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse ALTO: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "TextLine":
				inLn = true
				line = line[:0]
			case "String":
				for _, a := range t.Attr {
					if a.Name.Local == "CONTENT" && a.Value != "" {
						line = append(line, a.Value)
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "TextLine" && inLn {
				if len(line) > 0 {
					lines = append(lines, strings.Join(line, " "))
				}
				inLn = false
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
