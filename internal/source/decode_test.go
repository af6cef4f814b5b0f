package source

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func TestDecodeText(t *testing.T) {
	cp1251, _, err := transform.Bytes(charmap.Windows1251.NewEncoder(), []byte("Название;Белок\nКорм;25"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain utf8", []byte("Name,Protein\nA,25"), "Name,Protein\nA,25"},
		{"utf8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Название")...), "Название"},
		{"windows-1251", cp1251, "Название;Белок\nКорм;25"},
		{"decomposed letters composed", []byte("Мои\u0306 корм"), "Мой корм"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeText(tt.input); got != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}
