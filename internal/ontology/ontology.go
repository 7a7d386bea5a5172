// Package ontology loads the slot definitions the recognizer works against.
package ontology

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NameSlot identifies the recommended item.
const NameSlot = "name"

var ErrEmptyOntology = errors.New("ontology: no informable slots")

type Slot struct {
	Name     string
	Patterns []string
}

// Ontology is immutable after construction.
type Ontology struct {
	order             []string
	informable        map[string][]string
	requestable       []string
	requestableSet    map[string]bool
	systemRequestable []string
	systemSet         map[string]bool
}

func New(informable []Slot, requestable, systemRequestable []string) *Ontology {
	o := &Ontology{
		informable:     make(map[string][]string, len(informable)),
		requestableSet: make(map[string]bool, len(requestable)),
		systemSet:      make(map[string]bool, len(systemRequestable)),
	}
	for _, s := range informable {
		if _, dup := o.informable[s.Name]; !dup {
			o.order = append(o.order, s.Name)
		}
		o.informable[s.Name] = append([]string(nil), s.Patterns...)
	}
	for _, s := range requestable {
		if !o.requestableSet[s] {
			o.requestable = append(o.requestable, s)
			o.requestableSet[s] = true
		}
	}
	for _, s := range systemRequestable {
		if !o.systemSet[s] {
			o.systemRequestable = append(o.systemRequestable, s)
			o.systemSet[s] = true
		}
	}
	return o
}

func Load(path string) (*Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ontology %s: %w", path, err)
	}
	o, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing ontology %s: %w", path, err)
	}
	return o, nil
}

// Parse decodes YAML or JSON. The node tree is walked by hand so that the
// declared order of informable slots survives.
func Parse(data []byte) (*Ontology, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("ontology: top level must be a mapping")
	}
	root := doc.Content[0]

	var (
		informable        []Slot
		requestable       []string
		systemRequestable []string
	)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		switch key {
		case "informable":
			if val.Kind != yaml.MappingNode {
				return nil, errors.New("ontology: informable must be a mapping")
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				patterns, err := scalars(val.Content[j+1])
				if err != nil {
					return nil, fmt.Errorf("informable %s: %w", val.Content[j].Value, err)
				}
				informable = append(informable, Slot{Name: val.Content[j].Value, Patterns: patterns})
			}
		case "requestable":
			s, err := scalars(val)
			if err != nil {
				return nil, fmt.Errorf("requestable: %w", err)
			}
			requestable = s
		case "system_requestable":
			s, err := scalars(val)
			if err != nil {
				return nil, fmt.Errorf("system_requestable: %w", err)
			}
			systemRequestable = s
		}
	}
	if len(informable) == 0 {
		return nil, ErrEmptyOntology
	}
	return New(informable, requestable, systemRequestable), nil
}

func scalars(n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list, got %s", n.Tag)
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		if c.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("expected scalar at line %d", c.Line)
		}
		out = append(out, c.Value)
	}
	return out, nil
}

// InformableSlots returns slot names in declared order.
func (o *Ontology) InformableSlots() []string {
	return append([]string(nil), o.order...)
}

func (o *Ontology) Patterns(slot string) []string {
	return o.informable[slot]
}

func (o *Ontology) IsInformable(slot string) bool {
	_, ok := o.informable[slot]
	return ok
}

func (o *Ontology) Requestable() []string {
	return append([]string(nil), o.requestable...)
}

func (o *Ontology) IsRequestable(slot string) bool {
	return o.requestableSet[slot]
}

func (o *Ontology) SystemRequestable() []string {
	return append([]string(nil), o.systemRequestable...)
}

func (o *Ontology) IsSystemRequestable(slot string) bool {
	return o.systemSet[slot]
}

// RequestableOnly lists slots the user can ask about but never state, plus name.
func (o *Ontology) RequestableOnly() []string {
	var out []string
	for _, s := range o.requestable {
		if !o.IsInformable(s) {
			out = append(out, s)
		}
	}
	return append(out, NameSlot)
}
