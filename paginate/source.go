package paginate

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Encoding looks up character set by its IANA name.
func Encoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("character set %q is not supported", name)
	}
	return enc, nil
}

// ReadSource reads raw text to be sent for generation. Binary files are
// refused. Text which is not valid UTF-8 is decoded either with forced
// encoding or with the one detected from content.
func ReadSource(path string, forced encoding.Encoding, log *zap.Logger) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read source: %w", err)
	}
	return DecodeSource(data, forced, log)
}

// DecodeSource is ReadSource for data already in memory.
func DecodeSource(data []byte, forced encoding.Encoding, log *zap.Logger) (string, error) {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return "", fmt.Errorf("source looks like %s (%s), plain text expected", kind.MIME.Value, kind.Extension)
	}

	enc := forced
	if enc == nil {
		if utf8.Valid(data) {
			return cleanText(string(bytes.TrimPrefix(data, []byte("\ufeff")))), nil
		}
		var name string
		enc, name, _ = charset.DetermineEncoding(data, "text/plain")
		log.Debug("Source is not UTF-8, detected encoding", zap.String("charset", name))
	}

	// BOM, if present, wins over anything else
	dec := &encoding.Decoder{Transformer: unicode.BOMOverride(enc.NewDecoder())}
	decoded, err := dec.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("unable to decode source: %w", err)
	}
	return cleanText(string(decoded)), nil
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
