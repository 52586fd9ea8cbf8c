package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/documentai"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/hocr"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/providers"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/tesseract"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/tokenfile"
	"github.com/lehigh-university-libraries/ocrdoc/pkg/vision"
	yaml "go.yaml.in/yaml/v3"
)

// Config is the optional YAML config file. Environment variables fill in
// what the file leaves empty; explicit flags override both.
type Config struct {
	Provider      string        `yaml:"provider"`
	Languages     []string      `yaml:"languages"`
	DPI           int           `yaml:"dpi"`
	PageSegMode   int           `yaml:"psm"`
	Timeout       time.Duration `yaml:"timeout"`
	LineThreshold float64       `yaml:"line_threshold"`
	Workers       int           `yaml:"workers"`
	Store         string        `yaml:"store"`

	Output struct {
		JSONDir     string `yaml:"json"`
		AnnotateDir string `yaml:"annotate"`
		HOCRDir     string `yaml:"hocr"`
		PDFDir      string `yaml:"pdf"`
		TextDir     string `yaml:"text"`
	} `yaml:"output"`

	Vision struct {
		CredentialsFile string `yaml:"credentials_file"`
		ResponseDir     string `yaml:"response_dir"`
	} `yaml:"vision"`

	DocumentAI struct {
		ProjectID   string `yaml:"project_id"`
		Location    string `yaml:"location"`
		ProcessorID string `yaml:"processor_id"`
	} `yaml:"documentai"`
}

var fileConfig Config

// LoadConfig reads path when set and applies environment defaults.
func LoadConfig(path string) (Config, error) {
	var c Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	setDefault(&c.Provider, os.Getenv("OCRDOC_PROVIDER"), "tesseract")
	setDefault(&c.Store, os.Getenv("OCRDOC_STORE"), os.Getenv("REDIS_URL"), os.Getenv("DATABASE_URL"))
	setDefault(&c.Vision.CredentialsFile, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	setDefault(&c.DocumentAI.ProjectID, os.Getenv("DOCUMENTAI_PROJECT_ID"))
	setDefault(&c.DocumentAI.Location, os.Getenv("DOCUMENTAI_LOCATION"), "us")
	setDefault(&c.DocumentAI.ProcessorID, os.Getenv("DOCUMENTAI_PROCESSOR_ID"))
	if c.LineThreshold <= 0 {
		c.LineThreshold = document.DefaultLineThreshold
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}

	return c, nil
}

// setDefault sets *field to the first non-empty value when it is empty.
func setDefault(field *string, values ...string) {
	if *field != "" {
		return
	}
	for _, v := range values {
		if v != "" {
			*field = v
			return
		}
	}
}

// ProviderConfig is the engine configuration derived from the file.
func (c Config) ProviderConfig() providers.Config {
	return providers.Config{
		Provider:        c.Provider,
		Languages:       c.Languages,
		DPI:             c.DPI,
		PageSegMode:     c.PageSegMode,
		Timeout:         c.Timeout,
		CredentialsFile: c.Vision.CredentialsFile,
		ProjectID:       c.DocumentAI.ProjectID,
		Location:        c.DocumentAI.Location,
		ProcessorID:     c.DocumentAI.ProcessorID,
	}
}

// newRegistry registers every OCR engine.
func newRegistry(c Config) *providers.Registry {
	return providers.NewRegistry(
		tesseract.New(),
		vision.New(vision.WithResponseDir(c.Vision.ResponseDir)),
		documentai.New(),
		tokenfile.New(),
		hocr.New(),
	)
}
