package models

import (
	"encoding/json"
	"fmt"
)

// DefaultLanguage is the filter language used when none is configured
const DefaultLanguage = "en"

// Flashcard is a single practice item served by the backend.
// Only the fields below are interpreted; everything else is kept in Extra
// so that the record survives a round trip unchanged.
type Flashcard struct {
	ID        int64    `json:"id" validate:"gte=0"`
	ContextID int64    `json:"context_id,omitempty" validate:"gte=0"`
	Direction string   `json:"direction,omitempty"`
	Options   []Option `json:"options,omitempty" validate:"dive"`
	Context   *Context `json:"context,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Option is one of the answer choices offered with a flashcard
type Option struct {
	ID    int64           `json:"id" validate:"gte=0"`
	Extra json.RawMessage `json:"-"`
}

// Context is auxiliary data shared by flashcards with the same context_id
type Context struct {
	ID    int64                      `json:"id"`
	Extra map[string]json.RawMessage `json:"-"`
}

var flashcardFields = []string{"id", "context_id", "direction", "options", "context"}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra
func (f *Flashcard) UnmarshalJSON(data []byte) error {
	type plain Flashcard
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, flashcardFields)
	if err != nil {
		return err
	}
	p.Extra = extra
	*f = Flashcard(p)
	return nil
}

// MarshalJSON writes Extra back next to the known fields
func (f Flashcard) MarshalJSON() ([]byte, error) {
	type plain Flashcard
	return mergeExtra(plain(f), f.Extra)
}

// UnmarshalJSON keeps the raw option next to its id
func (o *Option) UnmarshalJSON(data []byte) error {
	var p struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	o.ID = p.ID
	o.Extra = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the original option object when one was decoded
func (o Option) MarshalJSON() ([]byte, error) {
	if len(o.Extra) > 0 {
		return o.Extra, nil
	}
	return json.Marshal(struct {
		ID int64 `json:"id"`
	}{o.ID})
}

// UnmarshalJSON decodes the context id and keeps the rest in Extra
func (c *Context) UnmarshalJSON(data []byte) error {
	var p struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := extraFields(data, []string{"id"})
	if err != nil {
		return err
	}
	c.ID = p.ID
	c.Extra = extra
	return nil
}

// MarshalJSON writes Extra back next to the id
func (c Context) MarshalJSON() ([]byte, error) {
	return mergeExtra(struct {
		ID int64 `json:"id"`
	}{c.ID}, c.Extra)
}

// Field decodes an uninterpreted field of the context into dst
func (c *Context) Field(name string, dst any) error {
	raw, ok := c.Extra[name]
	if !ok {
		return fmt.Errorf("context %d has no field %q", c.ID, name)
	}
	return json.Unmarshal(raw, dst)
}

// Field decodes an uninterpreted field of the flashcard into dst
func (f *Flashcard) Field(name string, dst any) error {
	raw, ok := f.Extra[name]
	if !ok {
		return fmt.Errorf("flashcard %d has no field %q", f.ID, name)
	}
	return json.Unmarshal(raw, dst)
}

// Answer is one recorded response to a flashcard
type Answer struct {
	FlashcardID         int64   `json:"flashcard_id"`
	FlashcardAnsweredID *int64  `json:"flashcard_answered_id"`
	ResponseTime        int64   `json:"response_time"`
	Direction           string  `json:"direction,omitempty"`
	Meta                any     `json:"meta,omitempty"`
	OptionIDs           []int64 `json:"option_ids,omitempty"`
	TimeGap             *int64  `json:"time_gap,omitempty"`
}

// MarshalJSON writes option_ids whenever OptionIDs is non-nil, so a
// flashcard whose only option was the asked one is sent as an empty list.
func (a Answer) MarshalJSON() ([]byte, error) {
	type plain Answer
	out := struct {
		plain
		OptionIDs *[]int64 `json:"option_ids,omitempty"`
	}{plain: plain(a)}
	if a.OptionIDs != nil {
		out.OptionIDs = &a.OptionIDs
	}
	return json.Marshal(out)
}

// IsCorrect reports whether the answered flashcard is the asked one.
// A nil FlashcardAnsweredID ("don't know") is never correct.
func (a *Answer) IsCorrect() bool {
	return a.FlashcardAnsweredID != nil && *a.FlashcardAnsweredID == a.FlashcardID
}

// PracticeFilter selects the flashcards the backend may return
type PracticeFilter struct {
	Contexts   []int64           `json:"contexts"`
	Categories []int64           `json:"categories"`
	Types      []string          `json:"types"`
	Language   string            `json:"language"`
	Extra      map[string]string `json:"extra,omitempty"`

	// Filled in per request
	Limit           int     `json:"limit,omitempty"`
	Avoid           []int64 `json:"avoid,omitempty"`
	WithoutContexts bool    `json:"without_contexts,omitempty"`
}

// DefaultPracticeFilter returns the filter every session starts with
func DefaultPracticeFilter() PracticeFilter {
	return PracticeFilter{
		Contexts:   []int64{},
		Categories: []int64{},
		Types:      []string{},
		Language:   DefaultLanguage,
	}
}

// Merge returns the defaults overridden key by key.
// A non-nil slice replaces the default entirely; it is never concatenated.
func (f PracticeFilter) Merge(overrides PracticeFilter) PracticeFilter {
	out := f.Clone()
	if overrides.Contexts != nil {
		out.Contexts = append([]int64{}, overrides.Contexts...)
	}
	if overrides.Categories != nil {
		out.Categories = append([]int64{}, overrides.Categories...)
	}
	if overrides.Types != nil {
		out.Types = append([]string{}, overrides.Types...)
	}
	if overrides.Language != "" {
		out.Language = overrides.Language
	}
	for k, v := range overrides.Extra {
		if out.Extra == nil {
			out.Extra = make(map[string]string, len(overrides.Extra))
		}
		out.Extra[k] = v
	}
	return out
}

// Clone returns a deep copy of the filter
func (f PracticeFilter) Clone() PracticeFilter {
	out := f
	out.Contexts = append([]int64{}, f.Contexts...)
	out.Categories = append([]int64{}, f.Categories...)
	out.Types = append([]string{}, f.Types...)
	if f.Avoid != nil {
		out.Avoid = append([]int64{}, f.Avoid...)
	}
	if f.Extra != nil {
		out.Extra = make(map[string]string, len(f.Extra))
		for k, v := range f.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Summary accumulates what happened during one practice set
type Summary struct {
	Flashcards []*Flashcard `json:"flashcards"`
	Answers    []*Answer    `json:"answers"`
	Correct    int          `json:"correct"`
	Count      int          `json:"count"`
}

func extraFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return data, nil
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, taken := all[k]; !taken {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}
