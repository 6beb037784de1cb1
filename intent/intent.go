package intent

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDatasetNotFound is returned by Load when the dataset file does not exist.
	ErrDatasetNotFound = errors.New("intent: dataset file not found")
	// ErrInvalidIntent is returned for intents that cannot be addressed by tag.
	ErrInvalidIntent = errors.New("intent: invalid intent")
	// ErrIntentNotFound is returned when no intent carries the requested tag.
	ErrIntentNotFound = errors.New("intent: intent not found")
	// ErrPatternNotFound is returned when an intent has no such pattern.
	ErrPatternNotFound = errors.New("intent: pattern not found")
)

// Intent is a labeled group of example phrases and candidate responses.
type Intent struct {
	Tag       string   `json:"tag"`
	Patterns  []string `json:"patterns"`
	Responses []string `json:"responses"`
}

// Dataset is the root of the dataset file.
type Dataset struct {
	Intents []*Intent `json:"intents"`
}

// Validate checks that every intent has a non-empty, unique tag.
func (d *Dataset) Validate() error {
	seen := make(map[string]bool, len(d.Intents))
	for i, in := range d.Intents {
		if in == nil {
			return fmt.Errorf("%w: entry %d is null", ErrInvalidIntent, i)
		}
		if strings.TrimSpace(in.Tag) == "" {
			return fmt.Errorf("%w: entry %d has an empty tag", ErrInvalidIntent, i)
		}
		if seen[in.Tag] {
			return fmt.Errorf("%w: duplicate tag %q", ErrInvalidIntent, in.Tag)
		}
		seen[in.Tag] = true
	}
	return nil
}

// Find returns the intent with the given tag, or nil.
func (d *Dataset) Find(tag string) *Intent {
	for _, in := range d.Intents {
		if in.Tag == tag {
			return in
		}
	}
	return nil
}

// Learn records a new pattern and response under tag, creating the intent
// when it does not exist yet. An empty response only records the pattern.
func (d *Dataset) Learn(tag, pattern, response string) {
	if in := d.Find(tag); in != nil {
		in.Patterns = append(in.Patterns, pattern)
		if response != "" {
			in.Responses = append(in.Responses, response)
		}
		return
	}
	in := &Intent{Tag: tag, Patterns: []string{pattern}, Responses: []string{}}
	if response != "" {
		in.Responses = append(in.Responses, response)
	}
	d.Intents = append(d.Intents, in)
}

// AddResponse appends a response to an existing intent.
func (d *Dataset) AddResponse(tag, response string) error {
	in := d.Find(tag)
	if in == nil {
		return fmt.Errorf("%w: %q", ErrIntentNotFound, tag)
	}
	in.Responses = append(in.Responses, response)
	return nil
}

// RemoveIntent deletes the intent with the given tag.
func (d *Dataset) RemoveIntent(tag string) error {
	for i, in := range d.Intents {
		if in.Tag == tag {
			d.Intents = append(d.Intents[:i], d.Intents[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrIntentNotFound, tag)
}

// RemovePattern deletes every occurrence of pattern from the intent.
func (d *Dataset) RemovePattern(tag, pattern string) error {
	in := d.Find(tag)
	if in == nil {
		return fmt.Errorf("%w: %q", ErrIntentNotFound, tag)
	}
	kept := in.Patterns[:0]
	for _, p := range in.Patterns {
		if p != pattern {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(in.Patterns) {
		return fmt.Errorf("%w: %q in %q", ErrPatternNotFound, pattern, tag)
	}
	in.Patterns = kept
	return nil
}

// Flatten lists every pattern with the tag of its intent, in intent order and
// then pattern order. The two slices are aligned by index.
func (d *Dataset) Flatten() (patterns, tags []string) {
	for _, in := range d.Intents {
		for _, p := range in.Patterns {
			patterns = append(patterns, p)
			tags = append(tags, in.Tag)
		}
	}
	return patterns, tags
}

// Responses maps every tag to its candidate responses.
func (d *Dataset) Responses() map[string][]string {
	out := make(map[string][]string, len(d.Intents))
	for _, in := range d.Intents {
		out[in.Tag] = append([]string(nil), in.Responses...)
	}
	return out
}

// Tags lists intent tags in dataset order.
func (d *Dataset) Tags() []string {
	out := make([]string, 0, len(d.Intents))
	for _, in := range d.Intents {
		out = append(out, in.Tag)
	}
	return out
}
