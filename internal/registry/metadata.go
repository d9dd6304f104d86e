package registry

import (
	"github.com/spf13/cast"

	"toolforge/internal/tools"
)

// Metadata is the persisted record of one tool.
type Metadata struct {
	Name        string       `json:"-"`
	Description string       `json:"description"`
	Signature   string       `json:"signature"`
	Origin      tools.Origin `json:"origin"`
	Uses        int64        `json:"uses"`
	Success     int64        `json:"success"`
}

// withDefaults fills fields that were never set.
func (m Metadata) withDefaults() Metadata {
	if m.Origin == "" {
		m.Origin = tools.OriginUnknown
	}
	if m.Uses < 0 {
		m.Uses = 0
	}
	if m.Success < 0 {
		m.Success = 0
	}
	return m
}

// metadataFromRaw decodes a hand-editable record leniently: missing or
// mistyped fields take their defaults.
func metadataFromRaw(name string, raw map[string]any) Metadata {
	m := Metadata{
		Name:        name,
		Description: cast.ToString(raw["description"]),
		Signature:   cast.ToString(raw["signature"]),
		Origin:      tools.Origin(cast.ToString(raw["origin"])),
		Uses:        cast.ToInt64(raw["uses"]),
		Success:     cast.ToInt64(raw["success"]),
	}
	return m.withDefaults()
}

// MetaOption supplies metadata fields to Register. Fields not supplied keep
// their stored value.
type MetaOption func(*metaPatch)

type metaPatch struct {
	description *string
	signature   *string
	origin      *tools.Origin
	uses        *int64
	success     *int64
}

func WithDescription(description string) MetaOption {
	return func(p *metaPatch) { p.description = &description }
}

func WithSignature(signature string) MetaOption {
	return func(p *metaPatch) { p.signature = &signature }
}

func WithOrigin(origin tools.Origin) MetaOption {
	return func(p *metaPatch) { p.origin = &origin }
}

// WithCounters overwrites the usage counters.
func WithCounters(uses, success int64) MetaOption {
	return func(p *metaPatch) {
		p.uses = &uses
		p.success = &success
	}
}

func (p *metaPatch) apply(m Metadata) Metadata {
	if p.description != nil {
		m.Description = *p.description
	}
	if p.signature != nil {
		m.Signature = *p.signature
	}
	if p.origin != nil {
		m.Origin = *p.origin
	}
	if p.uses != nil {
		m.Uses = *p.uses
	}
	if p.success != nil {
		m.Success = *p.success
	}
	return m.withDefaults()
}
