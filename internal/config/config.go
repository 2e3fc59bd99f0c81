/*
Copyright 2026 Veriqan Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config implements Config Validation (spec.md §4.11): load a
// ProcessingConfig from YAML, overlay environment variables, and validate it
// into an {IsValid, Errors, Warnings, ValidatedConfig} result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// OutputFormat enumerates the recognized OutputFormat values.
type OutputFormat string

const (
	OutputJSON OutputFormat = "json"
	OutputXML  OutputFormat = "xml"
	OutputCSV  OutputFormat = "csv"
	OutputTXT  OutputFormat = "txt"
	OutputPDF  OutputFormat = "pdf"
)

// SLAConfig holds the escalation-threshold fractions the SLA tracker (C9)
// compares RemainingTime/TotalDays against.
type SLAConfig struct {
	EarlyWarningFraction    float64 `yaml:"early_warning_fraction" validate:"gte=0,lte=1"`
	CriticalFraction        float64 `yaml:"critical_fraction" validate:"gte=0,lte=1"`
	EstimatedConclusionDays int     `yaml:"estimated_conclusion_days" validate:"gte=0"`
}

// ProcessingConfig is the full set of recognized configuration keys
// (spec.md §4.11/§6).
type ProcessingConfig struct {
	DefaultLanguage  string `yaml:"default_language" validate:"required"`
	FallbackLanguage string `yaml:"fallback_language"`

	MaxConcurrency int `yaml:"max_concurrency" validate:"gt=0"`
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"gt=0,lte=3600"`

	EnableWatermarkRemoval bool `yaml:"enable_watermark_removal"`
	EnableDeskewing        bool `yaml:"enable_deskewing"`
	EnableBinarization     bool `yaml:"enable_binarization"`

	OEM                int     `yaml:"oem" validate:"gte=0,lte=3"`
	PSM                int     `yaml:"psm" validate:"gte=0,lte=13"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" validate:"gte=0,lte=1"`

	MaxRetries        int `yaml:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds int `yaml:"retry_delay_seconds" validate:"gte=0"`

	OutputFormat OutputFormat `yaml:"output_format" validate:"required,oneof=json xml csv txt pdf"`

	MaxFileSizeMB    int `yaml:"max_file_size_mb" validate:"gt=0"`
	BatchSize        int `yaml:"batch_size" validate:"gt=0"`
	MaxMemoryUsageMB int `yaml:"max_memory_usage_mb" validate:"gt=0"`

	SLA      SLAConfig `yaml:"sla"`
	Holidays []string  `yaml:"holidays"`
}

var validate = validator.New()

// Load reads path as YAML into a ProcessingConfig, applies defaults for
// fields the file leaves zero, then overlays environment variables.
func Load(path string) (*ProcessingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return cfg, nil
}

func loadFromEnv(cfg *ProcessingConfig) error {
	if v := os.Getenv("VERIQAN_DEFAULT_LANGUAGE"); v != "" {
		cfg.DefaultLanguage = v
	}
	if v := os.Getenv("VERIQAN_MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VERIQAN_MAX_CONCURRENCY: %w", err)
		}
		cfg.MaxConcurrency = n
	}
	if v := os.Getenv("VERIQAN_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VERIQAN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.TimeoutSeconds = n
	}
	if v := os.Getenv("VERIQAN_CONFIDENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("VERIQAN_CONFIDENCE_THRESHOLD: %w", err)
		}
		cfg.ConfidenceThreshold = f
	}
	if v := os.Getenv("VERIQAN_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	return nil
}

// Result is the {IsValid, Errors, Warnings, ValidatedConfig} shape spec.md
// §4.11 names as the output of Config Validation.
type Result struct {
	IsValid        bool
	Errors         []string
	Warnings       []string
	ValidatedConfig *ProcessingConfig
}

// Validate runs struct-tag constraints via go-playground/validator, then
// layers on the suspicious-value warnings the tags can't express (a
// technically-legal value that is probably a mistake).
func Validate(cfg *ProcessingConfig) Result {
	result := Result{ValidatedConfig: cfg}

	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				result.Errors = append(result.Errors, describeFieldError(fe))
			}
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	result.Warnings = append(result.Warnings, warningsFor(cfg)...)
	result.IsValid = len(result.Errors) == 0
	return result
}

func describeFieldError(fe validator.FieldError) string {
	return fmt.Sprintf("%s failed %s validation (got %v)", fe.Field(), fe.Tag(), fe.Value())
}

func warningsFor(cfg *ProcessingConfig) []string {
	var warnings []string
	if cfg.ConfidenceThreshold > 0 && cfg.ConfidenceThreshold < 0.3 {
		warnings = append(warnings, "confidence_threshold below 0.3 will accept most low-quality extractions")
	}
	if cfg.ConfidenceThreshold > 0.95 {
		warnings = append(warnings, "confidence_threshold above 0.95 may reject most valid extractions")
	}
	if cfg.MaxConcurrency > 64 {
		warnings = append(warnings, "max_concurrency above 64 may exhaust downstream connection pools")
	}
	if cfg.TimeoutSeconds > 0 && cfg.TimeoutSeconds < 5 {
		warnings = append(warnings, "timeout_seconds below 5 may abort legitimate OCR work")
	}
	if cfg.MaxRetries == 0 {
		warnings = append(warnings, "max_retries=0 disables retry on transient collaborator failures")
	}
	if cfg.BatchSize > 1000 {
		warnings = append(warnings, "batch_size above 1000 may hold excessive memory per batch")
	}
	return warnings
}

// Default returns the baseline preset: balanced throughput and strictness.
func Default() *ProcessingConfig {
	return &ProcessingConfig{
		DefaultLanguage:     "spa",
		FallbackLanguage:    "eng",
		MaxConcurrency:      4,
		TimeoutSeconds:      120,
		EnableDeskewing:     true,
		EnableBinarization:  true,
		OEM:                 3,
		PSM:                 3,
		ConfidenceThreshold: 0.7,
		MaxRetries:          3,
		RetryDelaySeconds:   2,
		OutputFormat:        OutputJSON,
		MaxFileSizeMB:       50,
		BatchSize:           20,
		MaxMemoryUsageMB:    2048,
		SLA: SLAConfig{
			EarlyWarningFraction:    0.33,
			CriticalFraction:        0.10,
			EstimatedConclusionDays: 20,
		},
	}
}

// HighPerformance favors throughput: higher concurrency, shorter timeouts, a
// lower confidence bar traded for faster batches.
func HighPerformance() *ProcessingConfig {
	cfg := Default()
	cfg.MaxConcurrency = 16
	cfg.TimeoutSeconds = 60
	cfg.ConfidenceThreshold = 0.6
	cfg.MaxRetries = 1
	cfg.BatchSize = 100
	cfg.MaxMemoryUsageMB = 4096
	return cfg
}

// Conservative favors correctness: low concurrency, long timeouts, a high
// confidence bar, and generous retries.
func Conservative() *ProcessingConfig {
	cfg := Default()
	cfg.MaxConcurrency = 2
	cfg.TimeoutSeconds = 300
	cfg.ConfidenceThreshold = 0.85
	cfg.MaxRetries = 5
	cfg.RetryDelaySeconds = 5
	cfg.BatchSize = 10
	return cfg
}

// BusinessDaysHolidays returns the configured Holidays as parsed calendar
// dates (YYYY-MM-DD), skipping any entry that fails to parse.
func (c *ProcessingConfig) BusinessDaysHolidays() []time.Time {
	out := make([]time.Time, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		t, err := time.Parse("2006-01-02", h)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}
