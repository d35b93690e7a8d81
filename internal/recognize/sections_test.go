package recognize_test

import (
	"testing"

	"github.com/alkime/screentalk/internal/recognize"
	"github.com/stretchr/testify/assert"
)

func TestParseSections(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want recognize.Sections
	}{
		{
			name: "both headers",
			in:   "SUMMARY: a terminal window\nOCR: $ go test ./...\nok",
			want: recognize.Sections{Summary: "a terminal window", OCR: "$ go test ./...\nok"},
		},
		{
			name: "no headers",
			in:   "  just prose  ",
			want: recognize.Sections{Summary: "just prose"},
		},
		{
			name: "summary only",
			in:   "SUMMARY: blank desktop",
			want: recognize.Sections{Summary: "blank desktop"},
		},
		{
			name: "ocr only with preamble",
			in:   "Here you go.\nOCR: hello",
			want: recognize.Sections{Summary: "Here you go.", OCR: "hello"},
		},
		{
			name: "reversed order",
			in:   "OCR: hello\nSUMMARY: greeting",
			want: recognize.Sections{Summary: "greeting", OCR: "hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recognize.ParseSections(tt.in))
		})
	}
}
