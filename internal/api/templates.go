package api

// viewTemplate is the html/template for the document viewer page.
const viewTemplate = `<!DOCTYPE html>
<html lang="de">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{if .ID}}{{.ID}} | {{end}}amabrowser</title>
  <style>
    body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
    nav { display: flex; gap: .5rem; margin-bottom: 1.5rem; }
    nav a { padding: .4rem .8rem; border: 1px solid #888; border-radius: 4px; text-decoration: none; color: inherit; }
    nav a.disabled { pointer-events: none; opacity: .4; }
    section { margin-bottom: 1.5rem; }
    dt { font-weight: 600; margin-top: .5rem; }
    dd { margin-left: 0; white-space: pre-wrap; }
    dd.markup { white-space: normal; }
    .empty { color: #888; }
  </style>
</head>
<body>
  <nav>
    <a id="first-button" href="{{.First}}"{{if not .First}} class="disabled"{{end}}>&laquo; First</a>
    <a id="previous-button" href="{{.Previous}}"{{if not .Previous}} class="disabled"{{end}}>&lsaquo; Previous</a>
    <a id="next-button" href="{{.Next}}"{{if not .Next}} class="disabled"{{end}}>Next &rsaquo;</a>
    <a id="last-button" href="{{.Last}}"{{if not .Last}} class="disabled"{{end}}>Last &raquo;</a>
  </nav>
  {{if .ID}}
  {{range .Sections}}
  <section id="section-{{.ID}}">
    <h2>{{.Title}}</h2>
    <dl>
      {{range .Fields}}
      <dt>{{.Label}}</dt>
      {{if .Markup}}<dd id="{{.Slot}}" class="markup">{{.Markup}}</dd>{{else}}<dd id="{{.Slot}}">{{.Text}}</dd>{{end}}
      {{end}}
    </dl>
  </section>
  {{end}}
  {{else}}
  <p class="empty">{{.Message}}</p>
  {{end}}
</body>
</html>
`
