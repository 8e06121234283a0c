package paginate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"

	"slidefit/config"
	"slidefit/slides"
)

// NameValues are available to output name template.
type NameValues struct {
	Title      string
	Subtitle   string
	Category   string
	SourceFile string
	Pages      int
}

func nameValues(records []slides.Record, src string) NameValues {
	v := NameValues{SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))}
	for _, r := range records {
		if r.IsCover() {
			v.Title, v.Subtitle, v.Category = r.Title, r.Subtitle, r.Category
			v.Pages = r.TotalPages
			break
		}
	}
	return v
}

func expandNameTemplate(field string, values NameValues) (string, error) {
	funcMap := sprig.FuncMap()
	funcMap["slug"] = slug.Make

	tmpl, err := template.New(config.NameTemplateFieldName).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", config.NameTemplateFieldName, err)
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// buildFileName returns transliterated output file name. Source file name is
// used when template is empty or expands to nothing usable.
func buildFileName(field string, values NameValues) (string, error) {
	var name string
	if len(field) > 0 {
		expanded, err := expandNameTemplate(field, values)
		if err != nil {
			return "", err
		}
		name = slug.Make(expanded)
	}
	if len(name) == 0 {
		name = slug.Make(values.SourceFile)
	}
	if len(name) == 0 {
		name = "slides"
	}
	return name + ".json", nil
}

// buildOutputPath resolves destination: empty means STDOUT, existing
// directory or path ending with separator gets file name from template,
// anything else is the output file itself.
func buildOutputPath(dst, field string, values NameValues) (string, error) {
	if len(dst) == 0 {
		return "", nil
	}
	isDir := strings.HasSuffix(dst, string(filepath.Separator)) || strings.HasSuffix(dst, "/")
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		isDir = true
	}
	if !isDir {
		return filepath.Clean(dst), nil
	}
	name, err := buildFileName(field, values)
	if err != nil {
		return "", err
	}
	return filepath.Join(dst, name), nil
}

// Marshal encodes slide records as JSON.
func Marshal(records []slides.Record, indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(records, "", "  ")
	}
	return json.Marshal(records)
}

var errDestinationExists = errors.New("destination already exists")

// writeOutput creates output file along with missing directories.
func writeOutput(path string, data []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w (%s), use --overwrite to replace it", errDestinationExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}
