package templates

import (
	"bytes"
	"fmt"
	"html/template"
)

var welcomeTpl = template.Must(template.New("welcome").Parse(`<html>
<body style="font-family:sans-serif">
  <h2>Welcome to VideoTube, {{.FullName}}!</h2>
  <p>Your account <b>@{{.Username}}</b> is ready. Upload your first video,
  build playlists and follow creators you like.</p>
  <p>If you did not create this account, please contact support.</p>
</body>
</html>`))

var passwordChangedTpl = template.Must(template.New("password_changed").Parse(`<html>
<body style="font-family:sans-serif">
  <h2>Your password was changed</h2>
  <p>Hi {{.FullName}}, the password for <b>@{{.Username}}</b> was just
  updated. If this was not you, reset your password immediately.</p>
</body>
</html>`))

// Render produces subject and HTML body for a named template.
func Render(name string, data map[string]any) (subject, html string, err error) {
	var tpl *template.Template
	switch name {
	case "welcome":
		tpl = welcomeTpl
		subject = "Welcome to VideoTube"
	case "password_changed":
		tpl = passwordChangedTpl
		subject = "Your VideoTube password was changed"
	default:
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
