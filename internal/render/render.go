package render

import (
	"time"

	"github.com/yuin/goldmark"

	"github.com/kalambet/amabrowser/internal/document"
)

// Renderer writes documents into a Display.
type Renderer struct {
	loc *time.Location
	md  goldmark.Markdown
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLocation sets the time zone creation times are shown in.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// New creates a Renderer. Without options it uses the local time zone.
func New(opts ...Option) *Renderer {
	r := &Renderer{loc: time.Local, md: defaultMarkdown}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = New()

// Show writes doc with the default renderer.
func Show(d Display, doc *document.Document) { defaultRenderer.Show(d, doc) }

// Clear resets every slot of d to "".
func Clear(d Display) { defaultRenderer.Clear(d) }

// Show writes each present field of doc into its slot. Slots of absent field groups are
// left untouched.
func (r *Renderer) Show(d Display, doc *document.Document) {
	if doc == nil {
		return
	}

	if c := doc.Completion(); c != nil {
		d.SetText(SlotCreated, FormatDateIn(int64(c.Created), r.loc))
		d.SetText(SlotModel, c.Model.String())
	}
	d.SetText(SlotPrompt, doc.Prompt.String())

	if qa := doc.QuestionAbstraction; qa != nil {
		if c := qa.Categorization; c != nil {
			d.SetText(SlotCategory, c.Category.String())
			d.SetText(SlotSubcategory, c.Subcategory.String())
			d.SetText(SlotType, c.Type.String())
			d.SetText(SlotComplexity, c.Complexity.String())
		}
		if t := qa.Tagging; t != nil {
			d.SetText(SlotTags, FormatArray(t.Tags))
			d.SetText(SlotRelation, t.Relation.String())
			d.SetText(SlotAbstractionLevel, t.AbstractionLevel.String())
		}
		if i := qa.Intent; i != nil {
			d.SetText(SlotMainGoal, i.MainGoal.String())
			d.SetText(SlotContext, i.Context.String())
			d.SetText(SlotExpectedOutput, i.ExpectedOutput.String())
		}
		if s := qa.Semantic; s != nil {
			d.SetText(SlotGenericQuery, s.GenericQuery.String())
		}
	}

	if msg := doc.FirstMessage(); msg != nil {
		d.SetHTML(SlotMessageContent, renderMarkdownWith(r.md, msg.Content.String()))
	}

	if t := doc.Tags; t != nil {
		d.SetText(SlotHauptthemen, FormatArray(t.Hauptthemen))
		d.SetText(SlotTheologischeKonzepte, FormatArray(t.TheologischeKonzepte))
		d.SetText(SlotBibelreferenzen, FormatArray(t.Bibelreferenzen))
		d.SetText(SlotHistorischerKontext, t.HistorischerKontext.String())
		d.SetText(SlotZentralePersonen, FormatObject(t.ZentralePersonen))
	}

	if f := doc.Feedback; f != nil {
		d.SetText(SlotRating, f.Rating.String())
		d.SetText(SlotFreeText, f.FreeText.String())
	}
}

// Clear resets every slot of d to "".
func (r *Renderer) Clear(d Display) {
	for _, s := range AllSlots() {
		if s == SlotMessageContent {
			d.SetHTML(s, "")
			continue
		}
		d.SetText(s, "")
	}
}
