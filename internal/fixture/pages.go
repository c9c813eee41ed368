package fixture

import (
	"html/template"
)

type fieldView struct {
	Name    string
	Label   string
	Value   string
	Error   string
	Options []optionView
}

type optionView struct {
	ID      string
	Value   string
	Label   string
	Checked bool
}

type questionView struct {
	Heading string
	Errors  []string
	Fields  []fieldView
}

type cardView struct {
	Title   string
	Entries []entryView
}

type entryView struct {
	Label       string
	Value       string
	ChangeLabel string
	Href        string
}

type embarkView struct {
	Error       string
	Collections []optionView
}

const layoutHead = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{template "title" .}}</title></head>
<body>
`

var pages = template.Must(template.New("pages").Parse(`
{{define "index"}}` + layoutHead + `<main class="index"><h1>Index Page</h1><p><a href="/embark-stage">Start</a></p></main>
</body></html>{{end}}

{{define "notFound"}}` + layoutHead + `<main><h1>Page Not Found</h1></main>
</body></html>{{end}}

{{define "embark"}}` + layoutHead + `<main class="embark resolved">
<h1>Embark</h1>
{{if .Error}}<div class="sprocket error-summary"><h2>There is a problem</h2><ul><li>{{.Error}}</li></ul></div>{{end}}
<form method="post" novalidate>
<fieldset>
<legend>Schema for Collections</legend>
<div class="cog">
<fieldset>
<legend>Collection</legend>
{{if .Error}}<p class="error-message">Error: {{.Error}}</p>{{end}}
{{range .Collections}}<label for="{{.ID}}"><input type="radio" id="{{.ID}}" name="collection" value="{{.Value}}"{{if .Checked}} checked{{end}}> <span class="text-content">{{.Label}}</span></label>
{{end}}</fieldset>
</div>
</fieldset>
<button type="submit">Continue</button>
</form>
</main>
</body></html>{{end}}

{{define "question"}}` + layoutHead + `<main class="omega resolved">
<h1>{{.Heading}}</h1>
{{if .Errors}}<div class="sprocket error-summary"><h2>There is a problem</h2><ul>{{range .Errors}}<li>{{.}}</li>{{end}}</ul></div>{{end}}
<form method="post" novalidate>
{{range .Fields}}<div class="cog">
{{if .Options}}<fieldset><legend>{{.Label}}</legend>
{{if .Error}}<p class="error-message">Error: {{.Error}}</p>{{end}}
{{range .Options}}<label for="{{.ID}}"><input type="radio" id="{{.ID}}" name="field-0" value="{{.Value}}"{{if .Checked}} checked{{end}}> <span class="text-content">{{.Label}}</span></label>
{{end}}</fieldset>
{{else}}<label for="{{.Name}}">{{.Label}}</label>
{{if .Error}}<p class="error-message">Error: {{.Error}}</p>{{end}}
<input type="text" id="{{.Name}}" name="{{.Name}}" value="{{.Value}}">
{{end}}</div>
{{end}}<button type="submit">Continue</button>
</form>
</main>
</body></html>{{end}}

{{define "debark"}}` + layoutHead + `<main class="debark resolved">
<h1>Debark</h1>
<form method="post" novalidate>
{{range .}}<div class="sprocket">
<h2>{{.Title}}</h2>
<dl>
{{range .Entries}}<div class="row"><dt>{{.Label}}</dt><dd class="answer-value">{{.Value}}</dd><dd class="change-answer"><a href="{{.Href}}">{{.ChangeLabel}}</a></dd></div>
{{end}}</dl>
</div>
{{end}}<button type="submit">Continue</button>
</form>
</main>
</body></html>{{end}}

{{define "confirm"}}` + layoutHead + `<main class="confirm resolved"><h1>Confirm</h1><p>Your answers have been sent.</p></main>
</body></html>{{end}}

{{define "title"}}stagecheck fixture{{end}}
`))
