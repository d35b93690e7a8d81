package recognize

import "strings"

// Sections is a recognition result split at its headers.
type Sections struct {
	Summary string
	OCR     string
}

// ParseSections splits text at the SUMMARY: and OCR: headers. Models do not
// always follow the format; text before any header, or all text when no
// header is present, is treated as summary.
func ParseSections(text string) Sections {
	summaryAt := strings.Index(text, summaryHeader)
	ocrAt := strings.Index(text, ocrHeader)

	switch {
	case summaryAt < 0 && ocrAt < 0:
		return Sections{Summary: strings.TrimSpace(text)}

	case ocrAt < 0:
		return Sections{Summary: strings.TrimSpace(text[summaryAt+len(summaryHeader):])}

	case summaryAt < 0 || summaryAt > ocrAt:
		s := Sections{OCR: strings.TrimSpace(text[ocrAt+len(ocrHeader):])}
		if summaryAt > ocrAt {
			s.OCR = strings.TrimSpace(text[ocrAt+len(ocrHeader) : summaryAt])
			s.Summary = strings.TrimSpace(text[summaryAt+len(summaryHeader):])
		} else {
			s.Summary = strings.TrimSpace(text[:ocrAt])
		}
		return s

	default:
		return Sections{
			Summary: strings.TrimSpace(text[summaryAt+len(summaryHeader) : ocrAt]),
			OCR:     strings.TrimSpace(text[ocrAt+len(ocrHeader):]),
		}
	}
}
