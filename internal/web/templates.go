package web

import (
    "bytes"
    "html/template"

    "github.com/jaminalder/tictactoe-levels/internal/app"
    "github.com/jaminalder/tictactoe-levels/internal/domain"
)

type templates struct {
    base  *template.Template
    game  *template.Template
    board *template.Template
    index *template.Template
}

func funcs() template.FuncMap {
    return template.FuncMap{
        "iter": func(n int) []int { a := make([]int, n); for i := range a { a[i] = i }; return a },
        "add":  func(a, b int) int { return a + b },
        "mul":  func(a, b int) int { return a * b },
    }
}

func loadTemplates() *templates {
    base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic Tac Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
  .row { display: flex; }
  .row form button { width: 5em; height: 3.5em; font-size: 1.4em; }
  .notice { font-weight: bold; margin: .5em 0; }
  .alert { color: #a00; }
</style>
</head><body>{{template "content" .}}</body></html>`))
    // Define the board template within the same set so game can include it
    template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
    index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic Tac Toe</h1>
<p>Beat the computer on Easy, Medium and Hard.</p>
<form action="/game" method="post"><button>New game</button></form>`))
    game := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic Tac Toe</h1>
<div hx-ext="sse" sse-connect="/game/{{.ID}}/events">
  <div hx-get="/game/{{.ID}}/board" hx-trigger="sse:board" hx-target="#board" hx-swap="outerHTML"></div>
  {{template "board" .}}
</div>`))
    // Standalone board template used for fragment rendering
    board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
    return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
    var buf bytes.Buffer
    if name == "" {
        _ = t.Execute(&buf, data)
    } else {
        _ = t.ExecuteTemplate(&buf, name, data)
    }
    return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  <div class="level">Level {{.Level}} &middot; {{.Tier}}</div>
  {{if .Notice}}
  <div class="notice">{{.Notice}}</div>
  {{end}}
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  {{/* 3x3 grid */}}
  {{range $r := iter 3}}
  <div class="row">
    {{range $c := iter 3}}
      {{$cell := index $.Cells (add (mul $r 3) $c)}}
      <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="r" value="{{$r}}">
        <input type="hidden" name="c" value="{{$c}}">
        <button type="submit"{{if or $cell $.Locked}} disabled{{end}}>{{$cell}}</button>
      </form>
    {{end}}
  </div>
  {{end}}
  {{if .Complete}}
  <form hx-post="/game/{{.ID}}/restart" hx-target="#board" hx-swap="outerHTML" method="post">
    <button type="submit">Play again</button>
  </form>
  {{else}}
  <form hx-post="/game/{{.ID}}/reset" hx-target="#board" hx-swap="outerHTML" method="post">
    <button type="submit">Reset</button>
  </form>
  {{end}}
</div>
`

// boardView is the data behind the board fragment.
type boardView struct {
    ID       string
    Cells    [9]string
    Level    int
    Tier     string
    Notice   string
    Error    string
    Complete bool
    // Locked disables every cell: the game is over or the viewer is a spectator.
    Locked bool
}

func newBoardView(gs app.GameState, errMsg string, spectator bool) boardView {
    var cells [9]string
    for i, c := range gs.Board {
        cells[i] = c.String()
    }
    return boardView{
        ID:       gs.ID,
        Cells:    cells,
        Level:    gs.Level.Number,
        Tier:     gs.Level.Tier.String(),
        Notice:   gs.Notice(),
        Error:    errMsg,
        Complete: gs.Phase == domain.GameComplete,
        Locked:   spectator || gs.Phase == domain.GameComplete,
    }
}
