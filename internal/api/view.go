package api

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/amabrowser/internal/document"
	"github.com/kalambet/amabrowser/internal/render"
	"github.com/kalambet/amabrowser/internal/storage"
)

var viewPage = template.Must(template.New("view").Parse(viewTemplate))

type viewData struct {
	ID       string
	Message  string
	First    string
	Previous string
	Next     string
	Last     string
	Sections []viewSection
}

type viewSection struct {
	ID     string
	Title  string
	Fields []viewField
}

type viewField struct {
	Slot   render.Slot
	Label  string
	Text   string
	Markup template.HTML
}

// handleIndex redirects to the newest document.
func handleIndex(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := deps.Store.Latest()
		if errors.Is(err, storage.ErrNotFound) {
			writeView(w, http.StatusNotFound, viewData{Message: "No documents found."})
			return
		}
		if err != nil {
			deps.Logger.Error("loading latest document", "error", err)
			http.Error(w, "failed to load latest document", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, viewPath(rec.ID), http.StatusFound)
	}
}

func handleView(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" || len(id) > maxIDLength {
			http.Error(w, "invalid document id", http.StatusBadRequest)
			return
		}

		rec, err := deps.Store.Get(id)
		if errors.Is(err, storage.ErrNotFound) {
			data := viewData{Message: "Document not found."}
			if latest, err := deps.Store.Latest(); err == nil {
				data.Last = viewPath(latest.ID)
			}
			writeView(w, http.StatusNotFound, data)
			return
		}
		if err != nil {
			deps.Logger.Error("loading document", "id", id, "error", err)
			http.Error(w, "failed to load document", http.StatusInternalServerError)
			return
		}

		doc, err := document.Parse(rec.Body)
		if err != nil {
			deps.Logger.Error("parsing stored document", "id", id, "error", err)
			http.Error(w, "stored document is malformed", http.StatusInternalServerError)
			return
		}

		slots := render.NewSlotSet()
		deps.Renderer.Show(slots, doc)

		data := viewData{ID: rec.ID, Sections: buildSections(slots)}
		// Ends of the collection leave their links empty, which disables them.
		if prev, err := deps.Store.Previous(rec.ID); err == nil {
			data.Previous = viewPath(prev.ID)
			if first, err := deps.Store.First(); err == nil {
				data.First = viewPath(first.ID)
			}
		}
		if next, err := deps.Store.Next(rec.ID); err == nil {
			data.Next = viewPath(next.ID)
			if last, err := deps.Store.Latest(); err == nil {
				data.Last = viewPath(last.ID)
			}
		}
		writeView(w, http.StatusOK, data)
	}
}

func buildSections(slots *render.SlotSet) []viewSection {
	out := make([]viewSection, 0, len(render.Sections))
	for _, s := range render.Sections {
		sec := viewSection{ID: strings.ToLower(s.Title), Title: s.Title}
		for _, slot := range s.Slots {
			v := slots.Value(slot)
			f := viewField{Slot: slot, Label: slot.Label()}
			if v.HTML {
				f.Markup = template.HTML(v.Text)
			} else {
				f.Text = v.Text
			}
			sec.Fields = append(sec.Fields, f)
		}
		out = append(out, sec)
	}
	return out
}

func viewPath(id string) string {
	if id == "" {
		return ""
	}
	return "/view/" + url.PathEscape(id)
}

func writeView(w http.ResponseWriter, code int, data viewData) {
	var buf bytes.Buffer
	if err := viewPage.Execute(&buf, data); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}
