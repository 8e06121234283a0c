package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	FontsConfig struct {
		Regular string `yaml:"regular" sanitize:"assure_file_access"`
		Bold    string `yaml:"bold" sanitize:"assure_file_access"`
	}

	SentencesConfig struct {
		Mode     string `yaml:"mode" validate:"oneof=punctuation tokenizer"`
		Language string `yaml:"language" validate:"required,bcp47_language_tag"`
	}

	PaginationConfig struct {
		MaxContentHeight float64         `yaml:"max_content_height" validate:"gt=0"`
		SafetyBuffer     float64         `yaml:"safety_buffer" validate:"gte=0"`
		ContentWidth     float64         `yaml:"content_width" validate:"gt=0"`
		TableHeight      float64         `yaml:"table_height" validate:"gte=0"`
		Fonts            FontsConfig     `yaml:"fonts"`
		Sentences        SentencesConfig `yaml:"sentences"`
	}

	GenerationConfig struct {
		Endpoint string        `yaml:"endpoint" validate:"required,url"`
		APIKey   SecretString  `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
		// Cache is path to response cache database, no caching when empty.
		Cache string `yaml:"cache" sanitize:"path_clean,assure_dir_exists_for_file" validate:"omitempty,filepath"`
	}

	SlidesConfig struct {
		Title            string   `yaml:"title"`
		Subtitle         string   `yaml:"subtitle"`
		Summary          []string `yaml:"summary"`
		Category         string   `yaml:"category"`
		FallbackCategory string   `yaml:"fallback_category"`
		Tags             []string `yaml:"tags"`
		TitleFontSize    int      `yaml:"title_font_size" validate:"min=1"`
		CoverStyle       string   `yaml:"cover_style" validate:"required"`
		BackgroundImage  string   `yaml:"background_image" validate:"omitempty,url"`
	}

	OutputConfig struct {
		NameTemplate string `yaml:"name_template"`
		Indent       bool   `yaml:"indent"`
	}

	ServerConfig struct {
		Listen          string        `yaml:"listen" validate:"required,hostname_port"`
		CORSOrigins     []string      `yaml:"cors_origins" validate:"dive,required"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
		MaxBodySize     int64         `yaml:"max_body_size" validate:"gt=0"`
	}

	Config struct {
		Version    int              `yaml:"version" validate:"eq=1"`
		Pagination PaginationConfig `yaml:"pagination"`
		Generation GenerationConfig `yaml:"generation"`
		Slides     SlidesConfig     `yaml:"slides"`
		Output     OutputConfig     `yaml:"output"`
		Server     ServerConfig     `yaml:"server"`
		Logging    LoggingConfig    `yaml:"logging"`
		Reporting  ReporterConfig   `yaml:"reporting"`
	}
)

// NameTemplateFieldName must match yaml field name above. Field is expanded
// when output is written, not when configuration is loaded.
const NameTemplateFieldName = "name_template"

var requiredOptions = []func(*gencfg.ProcessingOptions){
	gencfg.WithDoNotExpandField(NameTemplateFieldName),
}

// UsableHeight is the page height available to content.
func (p *PaginationConfig) UsableHeight() float64 {
	return p.MaxContentHeight - p.SafetyBuffer
}

// checkConfig performs validation which could not be expressed with tags.
func checkConfig(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	if cfg.Pagination.UsableHeight() <= 0 {
		sl.ReportError(cfg.Pagination.SafetyBuffer, "SafetyBuffer", "safety_buffer", "ltfield", "MaxContentHeight")
	}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkConfig)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

// Dump returns configuration as YAML with secrets hidden.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
