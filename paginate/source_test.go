package paginate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func encode(t *testing.T, s string, tr transform.Transformer) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, tr)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatalf("encode sample: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("finalize encoded sample: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeSource(t *testing.T) {
	const sample = "Привет, мир. Второе предложение!"

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf8", []byte("  line one\r\nline two \n"), "line one\nline two"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "text"...), "text"},
		{"utf16 bom", encode(t, sample, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()), sample},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSource(tt.data, nil, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("DecodeSource() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeSource() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeSourceForced(t *testing.T) {
	const sample = "Привет, мир."
	data := encode(t, sample, charmap.Windows1251.NewEncoder())

	enc, err := Encoding("windows-1251")
	if err != nil {
		t.Fatalf("Encoding() error = %v", err)
	}
	got, err := DecodeSource(data, enc, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("DecodeSource() error = %v", err)
	}
	if got != sample {
		t.Errorf("DecodeSource() = %q, want %q", got, sample)
	}

	if _, err := Encoding("no-such-charset"); err == nil {
		t.Error("Expected error for unknown charset")
	}
}

func TestDecodeSourceDetected(t *testing.T) {
	// invalid UTF-8, falls back to detected single byte encoding
	data := encode(t, "café au lait", charmap.Windows1252.NewEncoder())
	got, err := DecodeSource(data, nil, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("DecodeSource() error = %v", err)
	}
	if got != "café au lait" {
		t.Errorf("DecodeSource() = %q", got)
	}
}

func TestReadSourceRefusesBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.txt")
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	if err := os.WriteFile(path, png, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSource(path, nil, zaptest.NewLogger(t)); err == nil {
		t.Error("Expected error for binary source")
	}
	if _, err := ReadSource(filepath.Join(t.TempDir(), "absent.txt"), nil, zaptest.NewLogger(t)); err == nil {
		t.Error("Expected error for missing source")
	}
}
