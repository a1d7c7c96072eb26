// Package config models the SmartCollect settings document: SLA thresholds,
// per-channel message templates and the operator roster. Saved settings are
// deep-merged over the defaults on load, so partial documents always resolve
// to a complete configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"smartcollect/internal/domain"
	"smartcollect/internal/sla"
)

// Settings is the persisted configuration document.
type Settings struct {
	SLA       sla.Policy              `json:"sla" yaml:"sla"`
	Templates Templates               `json:"templates" yaml:"templates"`
	Operators []domain.OperatorConfig `json:"operators" yaml:"operators"`
}

// Templates maps channel -> tier -> template string. Placeholders use
// {field} syntax, resolved by Render.
type Templates map[string]map[string]string

// Default returns the stock settings.
func Default() *Settings {
	var s Settings
	if err := yaml.Unmarshal([]byte(defaultSettingsYAML), &s); err != nil {
		panic(fmt.Sprintf("default settings template: %v", err))
	}
	return &s
}

// Merge overlays saved settings onto the defaults: zero/missing keys fall
// back, template channels and tiers merge key-wise, extra keys from the saved
// document are preserved.
func Merge(saved *Settings) *Settings {
	out := Default()
	if saved == nil {
		return out
	}
	if saved.SLA.RiskDays > 0 {
		out.SLA.RiskDays = saved.SLA.RiskDays
	}
	if saved.SLA.CriticalRiskDays > 0 {
		out.SLA.CriticalRiskDays = saved.SLA.CriticalRiskDays
	}
	for channel, tiers := range saved.Templates {
		if out.Templates[channel] == nil {
			out.Templates[channel] = map[string]string{}
		}
		for tier, tpl := range tiers {
			if tpl != "" {
				out.Templates[channel][tier] = tpl
			}
		}
	}
	if len(saved.Operators) > 0 {
		out.Operators = saved.Operators
	}
	return out
}

// Validate rejects documents that would break downstream consumers.
func (s *Settings) Validate() error {
	if s.SLA.RiskDays <= 0 {
		return fmt.Errorf("sla.riskDays must be positive")
	}
	if s.SLA.CriticalRiskDays <= 0 {
		return fmt.Errorf("sla.criticalRiskDays must be positive")
	}
	seen := map[string]bool{}
	for _, op := range s.Operators {
		if op.Name == "" {
			return fmt.Errorf("operator with empty name")
		}
		if seen[op.Name] {
			return fmt.Errorf("duplicate operator %s", op.Name)
		}
		seen[op.Name] = true
		if op.DailyCapacity <= 0 {
			return fmt.Errorf("operator %s: daily capacity must be positive", op.Name)
		}
		if op.TargetAmount <= 0 {
			return fmt.Errorf("operator %s: target amount must be positive", op.Name)
		}
	}
	return nil
}

// FromYAML parses and validates a settings document, merged over defaults.
func FromYAML(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid settings yaml: %w", err)
	}
	merged := Merge(&s)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// FromFile reads a YAML settings document from disk.
func FromFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultSettingsYAML = `sla:
  riskDays: 7
  criticalRiskDays: 3

operators:
  - name: Abner
    daily_capacity: 4
    target_amount: 18000
  - name: "João"
    daily_capacity: 3
    target_amount: 12000
  - name: Larissa
    daily_capacity: 3
    target_amount: 15000

templates:
  WhatsApp:
    Critical: "Hello {name}, this is the finance team. We found a pending balance of {amount}, {days} days overdue. Can we settle this now?"
    High: "Hi {name}! Your payment of {amount} is {days} days overdue. Want to see payment options?"
    Medium: "Hello {name}, a reminder about the pending {amount}. Should I send a new payment slip?"
    Low: "Hi {name}! Gentle reminder about {amount}. I can send a new payment slip if you need one."
  Email:
    Critical: "Subject: Urgent settlement required - {name}\n\nHello {name}, your balance of {amount} is {days} days overdue."
    High: "Subject: Open balance - {name}\n\nHello {name}, your payment of {amount} is overdue."
    Medium: "Subject: Payment reminder - {name}\n\nHello {name}, there is a pending balance of {amount}."
    Low: "Subject: Reminder - {name}\n\nHello {name}, just a reminder about {amount}."
  Phone:
    Critical: "Script: confirm identity, then propose an immediate agreement."
    High: "Script: understand the reason, then offer options."
    Medium: "Script: reminder plus new payment slip."
    Low: "Script: courtesy reminder."
`
