package jetstream

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// Guardrail errors for the adapter configuration.
var (
	// ErrStreamNameRequired is returned when no stream name is configured.
	ErrStreamNameRequired = errors.New("stream name is required")

	// ErrSubjectTemplateRequired is returned when no subject template is
	// configured.
	ErrSubjectTemplateRequired = errors.New("subject template is required")

	// ErrPartitionsRequired is returned when the partition count is not
	// positive.
	ErrPartitionsRequired = errors.New("partition count must be positive")
)

// Config configures the JetStream cluster adapter.
//
// JetStream has no native partition numbering, so partitions are modeled the
// way the broker-side layout usually models them: one subject per partition,
// generated from SubjectTemplate. Offsets are stream sequences.
type Config struct {
	// StreamName is the JetStream stream backing the topic. Required.
	StreamName string `yaml:"streamName"`

	// SubjectTemplate generates the per-partition filter subject, e.g.
	// "orders.{{.Partition}}". Required.
	SubjectTemplate string `yaml:"subjectTemplate"`

	// Partitions is the number of partition subjects. Required.
	Partitions int32 `yaml:"partitions"`
}

// subjectContext is the template context for subject generation.
type subjectContext struct {
	Partition int32
}

// validate checks the configuration and parses the subject template.
func (cfg *Config) validate() (*template.Template, error) {
	if cfg.StreamName == "" {
		return nil, ErrStreamNameRequired
	}
	if strings.TrimSpace(cfg.SubjectTemplate) == "" {
		return nil, ErrSubjectTemplateRequired
	}
	if cfg.Partitions <= 0 {
		return nil, ErrPartitionsRequired
	}

	tmpl, err := template.New("subject").Parse(cfg.SubjectTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}

	return tmpl, nil
}
