package document

import (
	"encoding/json"
	"testing"
)

const fullDoc = `{
	"_id": "doc-1",
	"prompt": "Wer war Paulus?",
	"reply": {"completion": {
		"created": 1700000000,
		"model": "anthropic/claude-3.5-sonnet",
		"choices": [{"message": {"role": "assistant", "content": "# Paulus\nApostel"}}]
	}},
	"question_abstraction": {
		"categorization": {"category": "Bibel", "subcategory": "NT", "type": "Frage", "complexity": "mittel"},
		"tagging": {"tags": ["paulus", "apostel"], "relation": "person", "abstraction_level": 2},
		"intent": {"main_goal": "verstehen", "context": "Studium", "expected_output": "Text"},
		"semantic": {"generic_query": "Wer war X?", "domain": "Theologie"}
	},
	"tags": {
		"hauptthemen": ["Mission"],
		"theologische_konzepte": ["Gnade", "Glaube"],
		"bibelreferenzen": ["Apg 9"],
		"historischer_kontext": "1. Jh.",
		"zentrale_personen": {"name": "Paulus", "rolle": "Apostel"}
	},
	"feedback": {"rating": 5, "free_text": "gut"}
}`

func TestParse_FullDocument(t *testing.T) {
	d, err := Parse([]byte(fullDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.ID != "doc-1" {
		t.Errorf("ID = %q, want doc-1", d.ID)
	}
	if d.Prompt != "Wer war Paulus?" {
		t.Errorf("Prompt = %q", d.Prompt)
	}
	c := d.Completion()
	if c == nil {
		t.Fatal("Completion() = nil")
	}
	if c.Created != 1700000000 {
		t.Errorf("Created = %d", c.Created)
	}
	if c.Model != "anthropic/claude-3.5-sonnet" {
		t.Errorf("Model = %q", c.Model)
	}
	msg := d.FirstMessage()
	if msg == nil || msg.Content != "# Paulus\nApostel" {
		t.Errorf("FirstMessage = %+v", msg)
	}
	qa := d.QuestionAbstraction
	if qa == nil || qa.Categorization == nil || qa.Categorization.Complexity != "mittel" {
		t.Fatalf("categorization = %+v", qa)
	}
	if qa.Tagging.AbstractionLevel != "2" {
		t.Errorf("AbstractionLevel = %q, want 2", qa.Tagging.AbstractionLevel)
	}
	if len(qa.Tagging.Tags) != 2 || qa.Tagging.Tags[1] != "apostel" {
		t.Errorf("Tagging.Tags = %v", qa.Tagging.Tags)
	}
	if d.Tags == nil || d.Tags.HistorischerKontext != "1. Jh." {
		t.Fatalf("Tags = %+v", d.Tags)
	}
	personen, ok := d.Tags.ZentralePersonen.(Object)
	if !ok {
		t.Fatalf("ZentralePersonen type = %T, want Object", d.Tags.ZentralePersonen)
	}
	if personen[0].Key != "name" || personen[1].Key != "rolle" {
		t.Errorf("object key order not preserved: %+v", personen)
	}
	if d.Feedback.Rating != "5" {
		t.Errorf("Rating = %q, want 5", d.Feedback.Rating)
	}
}

func TestParse_MalformedGroupsAreDropped(t *testing.T) {
	d, err := Parse([]byte(`{
		"_id": "x",
		"reply": "oops",
		"question_abstraction": {"categorization": 42, "tagging": {"tags": "not-a-list"}},
		"feedback": null
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.Reply != nil {
		t.Errorf("Reply = %+v, want nil", d.Reply)
	}
	if d.QuestionAbstraction == nil {
		t.Fatal("QuestionAbstraction dropped, want kept")
	}
	if d.QuestionAbstraction.Categorization != nil {
		t.Errorf("Categorization = %+v, want nil", d.QuestionAbstraction.Categorization)
	}
	if d.QuestionAbstraction.Tagging == nil || d.QuestionAbstraction.Tagging.Tags != nil {
		t.Errorf("Tagging = %+v, want empty tag list", d.QuestionAbstraction.Tagging)
	}
	if d.Feedback != nil {
		t.Errorf("Feedback = %+v, want nil", d.Feedback)
	}
	if d.FirstMessage() != nil {
		t.Error("FirstMessage() should be nil without a reply")
	}
}

func TestParse_NotAnObject(t *testing.T) {
	for _, in := range []string{`[]`, `"x"`, `null`, `{`} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("Parse(%s) = nil error, want error", in)
		}
	}
}

func TestParse_ExtendedJSONID(t *testing.T) {
	d, err := Parse([]byte(`{"_id": {"$oid": "65a1f0c2e4b0a1b2c3d4e5f6"}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d.ID != "65a1f0c2e4b0a1b2c3d4e5f6" {
		t.Errorf("ID = %q", d.ID)
	}
}

func TestText_FalsyValuesAreEmpty(t *testing.T) {
	tests := []struct {
		raw  string
		want Text
	}{
		{`null`, ""},
		{`false`, ""},
		{`0`, ""},
		{`""`, ""},
		{`true`, "true"},
		{`4.5`, "4.5"},
		{`"a"`, "a"},
		{`["a","b"]`, "a,b"},
	}
	for _, tt := range tests {
		if got := decodeText(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("decodeText(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestTimestamp_AcceptsNumericStrings(t *testing.T) {
	if got := decodeTimestamp(json.RawMessage(`"1700000000"`)); got != 1700000000 {
		t.Errorf("decodeTimestamp = %d", got)
	}
	if got := decodeTimestamp(json.RawMessage(`"soon"`)); got != 0 {
		t.Errorf("decodeTimestamp(soon) = %d, want 0", got)
	}
}

func TestMarshalJSON_ReturnsRawBody(t *testing.T) {
	body := `{"_id":"a","prompt":"p"}`
	d, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != body {
		t.Errorf("Marshal = %s, want %s", out, body)
	}
}

func TestTags_AllKeepsEveryGroup(t *testing.T) {
	doc, err := Parse([]byte(`{"tags": {
		"hauptthemen": ["Gnade"],
		"konfession": ["lutherisch", "reformiert"],
		"historischer_kontext": "Reformation"
	}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	konfession, ok := doc.Tags.All["konfession"].([]any)
	if !ok || len(konfession) != 2 {
		t.Fatalf("konfession = %#v, want two entries", doc.Tags.All["konfession"])
	}
	if got := doc.Tags.All["historischer_kontext"]; got != "Reformation" {
		t.Errorf("historischer_kontext = %#v", got)
	}
	if len(doc.Tags.All) != 3 {
		t.Errorf("All has %d groups, want 3", len(doc.Tags.All))
	}
}
