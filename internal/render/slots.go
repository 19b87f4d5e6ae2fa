package render

import "sync"

// Slot names a display target that one formatted field is written into.
type Slot string

const (
	SlotCreated              Slot = "created"
	SlotModel                Slot = "model"
	SlotPrompt               Slot = "prompt"
	SlotCategory             Slot = "category"
	SlotSubcategory          Slot = "subcategory"
	SlotType                 Slot = "type"
	SlotComplexity           Slot = "complexity"
	SlotTags                 Slot = "tags"
	SlotRelation             Slot = "relation"
	SlotAbstractionLevel     Slot = "abstraction_level"
	SlotMainGoal             Slot = "main_goal"
	SlotContext              Slot = "context"
	SlotExpectedOutput       Slot = "expected_output"
	SlotGenericQuery         Slot = "generic_query"
	SlotMessageContent       Slot = "message_content"
	SlotHauptthemen          Slot = "hauptthemen"
	SlotTheologischeKonzepte Slot = "theologische_konzepte"
	SlotBibelreferenzen      Slot = "bibelreferenzen"
	SlotHistorischerKontext  Slot = "historischer_kontext"
	SlotZentralePersonen     Slot = "zentrale_personen"
	SlotRating               Slot = "rating"
	SlotFreeText             Slot = "free_text"
)

var labels = map[Slot]string{
	SlotCreated:              "Created",
	SlotModel:                "Model",
	SlotPrompt:               "Prompt",
	SlotCategory:             "Category",
	SlotSubcategory:          "Subcategory",
	SlotType:                 "Type",
	SlotComplexity:           "Complexity",
	SlotTags:                 "Tags",
	SlotRelation:             "Relation",
	SlotAbstractionLevel:     "Abstraction level",
	SlotMainGoal:             "Main goal",
	SlotContext:              "Context",
	SlotExpectedOutput:       "Expected output",
	SlotGenericQuery:         "Generic query",
	SlotMessageContent:       "Answer",
	SlotHauptthemen:          "Hauptthemen",
	SlotTheologischeKonzepte: "Theologische Konzepte",
	SlotBibelreferenzen:      "Bibelreferenzen",
	SlotHistorischerKontext:  "Historischer Kontext",
	SlotZentralePersonen:     "Zentrale Personen",
	SlotRating:               "Rating",
	SlotFreeText:             "Comment",
}

// Label returns the human-readable name of s.
func (s Slot) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Section groups slots under a heading, in display order.
type Section struct {
	Title string
	Slots []Slot
}

// Sections lists every slot in the order a page shows them.
var Sections = []Section{
	{Title: "Header", Slots: []Slot{SlotCreated, SlotModel, SlotPrompt}},
	{Title: "Question", Slots: []Slot{
		SlotCategory, SlotSubcategory, SlotType, SlotComplexity,
		SlotTags, SlotRelation, SlotAbstractionLevel,
		SlotMainGoal, SlotContext, SlotExpectedOutput,
		SlotGenericQuery,
	}},
	{Title: "Answer", Slots: []Slot{SlotMessageContent}},
	{Title: "Tags", Slots: []Slot{
		SlotHauptthemen, SlotTheologischeKonzepte, SlotBibelreferenzen,
		SlotHistorischerKontext, SlotZentralePersonen,
	}},
	{Title: "Feedback", Slots: []Slot{SlotRating, SlotFreeText}},
}

// AllSlots returns every slot in display order.
func AllSlots() []Slot {
	var out []Slot
	for _, s := range Sections {
		out = append(out, s.Slots...)
	}
	return out
}

// Display receives formatted field values.
type Display interface {
	// SetText writes plain text into slot.
	SetText(slot Slot, text string)
	// SetHTML writes rendered markup into slot.
	SetHTML(slot Slot, markup string)
}

// Value is the content of one slot.
type Value struct {
	Text string
	HTML bool
}

// SlotSet is an in-memory Display. The zero value is ready to use and safe for concurrent use.
type SlotSet struct {
	mu     sync.RWMutex
	values map[Slot]Value
}

func NewSlotSet() *SlotSet {
	return &SlotSet{}
}

func (s *SlotSet) SetText(slot Slot, text string) {
	s.set(slot, Value{Text: text})
}

func (s *SlotSet) SetHTML(slot Slot, markup string) {
	s.set(slot, Value{Text: markup, HTML: true})
}

func (s *SlotSet) set(slot Slot, v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[Slot]Value)
	}
	s.values[slot] = v
}

// Get returns the content of slot; an unwritten slot is empty.
func (s *SlotSet) Get(slot Slot) string {
	return s.Value(slot).Text
}

func (s *SlotSet) Value(slot Slot) Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[slot]
}

// Written reports whether slot has been written since creation.
func (s *SlotSet) Written(slot Slot) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[slot]
	return ok
}

// Snapshot returns a copy of all written slots.
func (s *SlotSet) Snapshot() map[Slot]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Slot]Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Empty reports whether every slot holds the empty string.
func (s *SlotSet) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.values {
		if v.Text != "" {
			return false
		}
	}
	return true
}
