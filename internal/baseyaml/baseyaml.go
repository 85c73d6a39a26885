// Package baseyaml decodes a Base definition's YAML source (spec.md
// §3, §6.3) into the vaultmodel-adjacent structures the materializer
// consumes. Filter trees and the properties/formulas maps need
// iteration-order and shape control that yaml.v3's struct tags alone
// cannot express, so each gets a custom UnmarshalYAML.
package baseyaml

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Filter is a recursive filter-tree node (spec.md §3): either a raw
// expression string (Expr set, Compound false) or a compound node whose
// keys are restricted to and/or/not (Compound true).
type Filter struct {
	Expr     string
	Compound bool
	And      []Filter
	Or       []Filter
	Not      []Filter
}

// UnmarshalYAML accepts a bare scalar (the raw-expression form) or a
// mapping restricted to the and/or/not keys, each of which must hold a
// sequence (spec.md §8's "`and` group must be an array" law).
func (f *Filter) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return errors.Wrap(err, "invalid filter expression")
		}
		f.Expr = s
		return nil
	case yaml.MappingNode:
		f.Compound = true
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			val := node.Content[i+1]
			switch key {
			case "and":
				if val.Kind != yaml.SequenceNode {
					return errors.New(`"and" group must be an array`)
				}
				if err := val.Decode(&f.And); err != nil {
					return errors.Wrap(err, "invalid \"and\" group")
				}
			case "or":
				if val.Kind != yaml.SequenceNode {
					return errors.New(`"or" group must be an array`)
				}
				if err := val.Decode(&f.Or); err != nil {
					return errors.Wrap(err, "invalid \"or\" group")
				}
			case "not":
				if val.Kind != yaml.SequenceNode {
					return errors.New(`"not" group must be an array`)
				}
				if err := val.Decode(&f.Not); err != nil {
					return errors.Wrap(err, "invalid \"not\" group")
				}
			default:
				return errors.Errorf("invalid filter key %q: only \"and\", \"or\", \"not\" are allowed", key)
			}
		}
		return nil
	default:
		return errors.New("filter must be a string expression or an and/or/not mapping")
	}
}

// PropertyMeta is the per-column metadata a Base may declare under
// `properties` (spec.md §3): currently only a display name.
type PropertyMeta struct {
	DisplayName string `yaml:"displayName"`
}

// PropertyEntry preserves declaration order for a single properties-map
// key, since §4.7 step 2 derives column keys from "its keys in
// iteration order" when a view has no explicit `order`.
type PropertyEntry struct {
	Key  string
	Meta PropertyMeta
}

// Properties is an order-preserving YAML mapping decode target; plain
// Go maps don't preserve the source order that column derivation needs.
type Properties []PropertyEntry

func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.New("properties must be a mapping")
	}
	*p = make(Properties, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var meta PropertyMeta
		if err := node.Content[i+1].Decode(&meta); err != nil {
			return errors.Wrapf(err, "invalid properties entry %q", node.Content[i].Value)
		}
		*p = append(*p, PropertyEntry{Key: node.Content[i].Value, Meta: meta})
	}
	return nil
}

func (p Properties) Get(key string) (PropertyMeta, bool) {
	for _, e := range p {
		if e.Key == key {
			return e.Meta, true
		}
	}
	return PropertyMeta{}, false
}

func (p Properties) Keys() []string {
	keys := make([]string, len(p))
	for i, e := range p {
		keys[i] = e.Key
	}
	return keys
}

// FormulaEntry is one declared formula, preserving source order.
type FormulaEntry struct {
	Name   string
	Source string
}

// Formulas is an order-preserving YAML mapping decode target for the
// same reason as Properties: §4.7 step 2 falls back to
// "formula.<name> for each formula key" in declaration order.
type Formulas []FormulaEntry

func (f *Formulas) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.New("formulas must be a mapping")
	}
	*f = make(Formulas, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var src string
		if err := node.Content[i+1].Decode(&src); err != nil {
			return errors.Wrapf(err, "invalid formula %q", node.Content[i].Value)
		}
		*f = append(*f, FormulaEntry{Name: node.Content[i].Value, Source: src})
	}
	return nil
}

func (f Formulas) Get(name string) (string, bool) {
	for _, e := range f {
		if e.Name == name {
			return e.Source, true
		}
	}
	return "", false
}

// View is one view configuration within a Base (spec.md §3).
type View struct {
	Type    string   `yaml:"type"`
	Name    string   `yaml:"name"`
	Limit   *float64 `yaml:"limit"`
	Filters *Filter  `yaml:"filters"`
	Order   []string `yaml:"order"`
}

// Base is the top-level decoded Base definition (spec.md §3, §6.3).
type Base struct {
	Filters    *Filter    `yaml:"filters"`
	Formulas   Formulas   `yaml:"formulas"`
	Properties Properties `yaml:"properties"`
	Views      []View     `yaml:"views"`
}

// Parse decodes Base YAML source. Non-mapping roots are rejected
// (spec.md §6.3: "non-object YAML is rejected").
func Parse(data []byte) (*Base, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid YAML")
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("empty base file")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("base file root must be a mapping")
	}
	var b Base
	if err := root.Decode(&b); err != nil {
		return nil, errors.Wrap(err, "invalid base definition")
	}
	return &b, nil
}
