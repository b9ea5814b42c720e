package chat

import (
	"bytes"
	"html/template"
)

var messageTmpl = template.Must(template.New("message").Parse(
	`<div class="message {{.Class}}-message">` +
		`<div class="message-avatar" style="background: {{.Color}};"><i class="fas {{.Icon}}"></i></div>` +
		`<div class="message-content"><p>{{.Content}}</p></div>` +
		`</div>`))

type avatar struct {
	Class string
	Icon  string
	Color template.CSS
}

var avatars = map[Role]avatar{
	RoleUser:      {Class: "user", Icon: "fa-user", Color: "#28a745"},
	RoleAssistant: {Class: "ai", Icon: "fa-robot", Color: "#4a6cf7"},
}

type messageData struct {
	Class   string
	Icon    string
	Color   template.CSS
	Content string
}

// renderHTML builds the message node for t. Content is always treated as
// plain text and escaped.
func renderHTML(t Turn) (string, error) {
	av, ok := avatars[t.Role]
	if !ok {
		av = avatars[RoleAssistant]
	}
	var buf bytes.Buffer
	if err := messageTmpl.Execute(&buf, messageData{
		Class:   av.Class,
		Icon:    av.Icon,
		Color:   av.Color,
		Content: t.Content,
	}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
