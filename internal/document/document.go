// Package document models the logged question/answer records browsed by amabrowser.
//
// Records come from a loosely structured store. Every field is optional and may carry an
// unexpected shape, so each field group decodes on its own: a malformed group is dropped
// (left nil) instead of failing the whole document.
package document

import (
	"encoding/json"
	"fmt"
)

// Document is a single logged record.
type Document struct {
	ID                  string
	Prompt              Text
	Reply               *Reply
	QuestionAbstraction *QuestionAbstraction
	Tags                *Tags
	Feedback            *Feedback

	// Raw is the JSON body the document was decoded from.
	Raw json.RawMessage
}

type Reply struct {
	Completion *Completion
}

type Completion struct {
	Created Timestamp
	Model   Text
	Choices []Choice
}

type Choice struct {
	Message *Message
}

type Message struct {
	Content Text
}

type QuestionAbstraction struct {
	Categorization *Categorization
	Tagging        *Tagging
	Intent         *Intent
	Semantic       *Semantic
}

type Categorization struct {
	Category    Text
	Subcategory Text
	Type        Text
	Complexity  Text
}

type Tagging struct {
	Tags             List
	Relation         Text
	AbstractionLevel Text
}

type Intent struct {
	MainGoal       Text
	Context        Text
	ExpectedOutput Text
}

type Semantic struct {
	GenericQuery Text
}

// Tags holds the theological tag groups attached to an answer.
type Tags struct {
	Hauptthemen          List
	TheologischeKonzepte List
	Bibelreferenzen      List
	HistorischerKontext  Text
	// ZentralePersonen is an object, a list of objects or a scalar, decoded with DecodeValue.
	ZentralePersonen any

	// All keeps every tag group by name, including ones without a dedicated field
	// such as konfession or pastorale_themen.
	All map[string]any
}

type Feedback struct {
	Rating   Text
	FreeText Text
}

// Completion returns the reply completion, or nil when absent.
func (d *Document) Completion() *Completion {
	if d == nil || d.Reply == nil {
		return nil
	}
	return d.Reply.Completion
}

// FirstMessage returns the message of the first completion choice, or nil when absent.
func (d *Document) FirstMessage() *Message {
	c := d.Completion()
	if c == nil || len(c.Choices) == 0 {
		return nil
	}
	return c.Choices[0].Message
}

// Parse decodes a document from a JSON object.
func Parse(data []byte) (*Document, error) {
	d := new(Document)
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return fmt.Errorf("document: %w", err)
	}
	d.ID = decodeID(obj["_id"])
	d.Prompt = decodeText(obj["prompt"])
	d.Reply = optional[Reply](obj["reply"])
	d.QuestionAbstraction = optional[QuestionAbstraction](obj["question_abstraction"])
	d.Tags = optional[Tags](obj["tags"])
	d.Feedback = optional[Feedback](obj["feedback"])
	d.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the original body back out, so documents round-trip unchanged.
func (d Document) MarshalJSON() ([]byte, error) {
	if len(d.Raw) == 0 {
		return json.Marshal(map[string]string{"_id": d.ID})
	}
	return d.Raw, nil
}

func (r *Reply) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	r.Completion = optional[Completion](obj["completion"])
	return nil
}

func (c *Completion) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	c.Created = decodeTimestamp(obj["created"])
	c.Model = decodeText(obj["model"])
	c.Choices = nil
	var raws []json.RawMessage
	if json.Unmarshal(obj["choices"], &raws) == nil {
		for _, raw := range raws {
			ch := optional[Choice](raw)
			if ch == nil {
				ch = &Choice{}
			}
			c.Choices = append(c.Choices, *ch)
		}
	}
	return nil
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	c.Message = optional[Message](obj["message"])
	return nil
}

func (m *Message) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	m.Content = decodeText(obj["content"])
	return nil
}

func (q *QuestionAbstraction) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	q.Categorization = optional[Categorization](obj["categorization"])
	q.Tagging = optional[Tagging](obj["tagging"])
	q.Intent = optional[Intent](obj["intent"])
	q.Semantic = optional[Semantic](obj["semantic"])
	return nil
}

func (c *Categorization) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	c.Category = decodeText(obj["category"])
	c.Subcategory = decodeText(obj["subcategory"])
	c.Type = decodeText(obj["type"])
	c.Complexity = decodeText(obj["complexity"])
	return nil
}

func (t *Tagging) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	t.Tags = decodeList(obj["tags"])
	t.Relation = decodeText(obj["relation"])
	t.AbstractionLevel = decodeText(obj["abstraction_level"])
	return nil
}

func (i *Intent) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	i.MainGoal = decodeText(obj["main_goal"])
	i.Context = decodeText(obj["context"])
	i.ExpectedOutput = decodeText(obj["expected_output"])
	return nil
}

func (s *Semantic) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	s.GenericQuery = decodeText(obj["generic_query"])
	return nil
}

func (t *Tags) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	t.Hauptthemen = decodeList(obj["hauptthemen"])
	t.TheologischeKonzepte = decodeList(obj["theologische_konzepte"])
	t.Bibelreferenzen = decodeList(obj["bibelreferenzen"])
	t.HistorischerKontext = decodeText(obj["historischer_kontext"])
	t.ZentralePersonen = DecodeValue(obj["zentrale_personen"])
	t.All = make(map[string]any, len(obj))
	for k, raw := range obj {
		t.All[k] = DecodeValue(raw)
	}
	return nil
}

func (f *Feedback) UnmarshalJSON(data []byte) error {
	obj, err := object(data)
	if err != nil {
		return err
	}
	f.Rating = decodeText(obj["rating"])
	f.FreeText = decodeText(obj["free_text"])
	return nil
}
