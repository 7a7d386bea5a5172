// Package guard validates recognizer definitions before the service starts.
package guard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ccastromar/movie-nlu/internal/nlu"
	"github.com/ccastromar/movie-nlu/internal/ontology"
)

// ValidateSystemRequestable checks every slot the system may ask for is one
// the recognizer knows about.
func ValidateSystemRequestable(o *ontology.Ontology) error {
	for _, s := range o.SystemRequestable() {
		if !o.IsInformable(s) && !o.IsRequestable(s) {
			return fmt.Errorf("system requestable slot %s is neither informable nor requestable", s)
		}
	}
	return nil
}

// ValidatePatterns checks each informable slot has a usable value.
func ValidatePatterns(o *ontology.Ontology) error {
	for _, s := range o.InformableSlots() {
		ok := false
		for _, p := range o.Patterns(s) {
			if strings.TrimSpace(p) != "" {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("informable slot %s has no patterns", s)
		}
	}
	return nil
}

// ValidateWordLists rejects an empty or blank word list.
func ValidateWordLists(p nlu.Patterns) error {
	for name, list := range p.Lists() {
		if len(list) == 0 {
			return fmt.Errorf("word list %s is empty", name)
		}
		for _, w := range list {
			if strings.TrimSpace(w) == "" {
				return fmt.Errorf("word list %s has a blank entry", name)
			}
		}
	}
	return nil
}

// ValidateAll runs every check and reports all failures together.
func ValidateAll(o *ontology.Ontology, p nlu.Patterns) error {
	if o == nil {
		return errors.New("no ontology loaded")
	}
	return errors.Join(
		ValidateSystemRequestable(o),
		ValidatePatterns(o),
		ValidateWordLists(p),
	)
}
