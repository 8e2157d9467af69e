package server

import (
	"html/template"
	"net/http"
)

// The portal is a client-rendered application: every page route serves
// the same shell and the browser takes over routing from there.
var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>{{.AppName}}</title>
</head>
<body>
	<div id="root" data-path="{{.Path}}"></div>
	<script src="/static/js/portal.js" defer></script>
</body>
</html>
`))

// ShellHandler serves the portal shell. The edge gate in front of it has
// already bounced unauthenticated protected-path requests to login.
func (s *Server) ShellHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"AppName": s.config.GetAppName(),
			"Path":    r.URL.Path,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := shellTemplate.Execute(w, data); err != nil {
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
	}
}
