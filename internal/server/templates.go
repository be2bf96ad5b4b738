package server

const pageTemplate = `<!doctype html>
<html lang="th">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Messages.Title}}</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 960px; margin: 0 auto; padding: 24px; color: #222; }
  .muted { color: #666; }
  .notice { background: #e8f6ec; border: 1px solid #9ad3ab; padding: 10px 14px; border-radius: 6px; }
  .error { background: #fdecec; border: 1px solid #f1a3a3; padding: 10px 14px; border-radius: 6px; }
  .info { background: #eef4fb; border: 1px solid #a9c7ea; padding: 10px 14px; border-radius: 6px; }
  .task { border: 1px solid #ddd; border-radius: 8px; padding: 16px; margin: 16px 0; }
  .task.failed { border-color: #f1a3a3; }
  .who { display: flex; gap: 12px; align-items: center; }
  .who img { border-radius: 50%; object-fit: cover; }
  blockquote { background: #f7f7f7; margin: 8px 0; padding: 8px 12px; border-left: 4px solid #ccc; white-space: pre-wrap; }
  textarea { width: 100%; box-sizing: border-box; font: inherit; }
  .actions { display: flex; gap: 8px; margin-top: 8px; }
  button { padding: 6px 12px; cursor: pointer; }
  button.danger { color: #b00020; }
</style>
</head>
<body>
<h1>{{.Messages.Title}}</h1>
{{with .Messages.Subtitle}}<p class="muted">{{.}}</p>{{end}}
<form method="post" action="/profiles/refresh"><button type="submit">{{.Messages.RefreshProfiles}}</button></form>

{{with .Notice}}<p class="notice">{{.}}</p>{{end}}
{{with .Error}}<p class="error">{{.}}</p>{{end}}

<h2>{{.Messages.QueueHeader}}</h2>
{{if not .Items}}<p class="info">{{.Messages.NothingPending}}</p>{{end}}
{{range .Items}}
<section class="task{{if eq .TaskID $.FailedID}} failed{{end}}" id="task-{{.TaskID}}">
  <div class="who">
    <img src="{{.Picture}}" width="80" height="80" alt="">
    <div>
      <strong>{{$.Messages.TaskHeader}}: {{.Name}}</strong><br>
      <span class="muted">{{.UserID}} · {{.Timestamp}}</span>
    </div>
  </div>
  <p><strong>{{$.Messages.CustomerMessage}}</strong></p>
  <blockquote>{{.UserMessage}}</blockquote>
  <form method="post" action="/tasks/{{.TaskID}}/send">
    <label>{{$.Messages.EditedResponse}}
      <textarea name="response" rows="6">{{.Text}}</textarea>
    </label>
    {{if not .Delivered}}<div class="actions">
      <button type="submit" name="action" value="save">{{$.Messages.SaveAndSend}}</button>
      <button type="submit" name="action" value="approve">{{$.Messages.ApproveAndSend}}</button>
    </div>{{end}}
  </form>
  <form method="post" action="/tasks/{{.TaskID}}/reject">
    <div class="actions"><button type="submit" class="danger">{{$.Messages.Reject}}</button></div>
  </form>
</section>
{{end}}
</body>
</html>
`
