package service

import (
	"bytes"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
)

const defaultFrontendURL = "http://localhost:5173"

var resetHTMLTemplate = htmltemplate.Must(htmltemplate.New("reset_html").Parse(`<!DOCTYPE html>
<html lang="en">
<body>
  <h1>Reset Your Password</h1>
  <p>We received a request to reset the password for <strong>{{.Email}}</strong>.</p>
  <p><a href="{{.ResetURL}}">Reset Password</a></p>
  <p>This link expires in {{.ValidFor}}. If you did not ask for a reset you can ignore this email.</p>
  <p>{{.AppName}}</p>
</body>
</html>`))

var resetTextTemplate = texttemplate.Must(texttemplate.New("reset_text").Parse(`Reset Your Password

We received a request to reset the password for {{.Email}}.

Open this link to choose a new password:
{{.ResetURL}}

This link expires in {{.ValidFor}}. If you did not ask for a reset you can ignore this email.

{{.AppName}}
`))

var welcomeHTMLTemplate = htmltemplate.Must(htmltemplate.New("welcome_html").Parse(
	`<p>Hi {{.FullName}},</p><p>Thanks for joining the platform as a {{.Role}}!</p>`))

var welcomeTextTemplate = texttemplate.Must(texttemplate.New("welcome_text").Parse(
	"Hi {{.FullName}},\n\nThanks for joining the platform as a {{.Role}}!\n"))

type resetEmailData struct {
	Email    string
	ResetURL string
	ValidFor string
	AppName  string
}

type welcomeEmailData struct {
	FullName string
	Role     string
}

func buildResetURL(frontendURL string, token string) string {
	base := strings.TrimRight(frontendURL, "/")
	if base == "" {
		base = defaultFrontendURL
	}
	return base + "/reset-password?token=" + url.QueryEscape(token)
}

func renderResetEmail(to string, data resetEmailData) (EmailMessage, error) {
	var html, text bytes.Buffer
	if err := resetHTMLTemplate.Execute(&html, data); err != nil {
		return EmailMessage{}, err
	}
	if err := resetTextTemplate.Execute(&text, data); err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		To:      to,
		Subject: "Reset Your Password - " + data.AppName,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func renderWelcomeEmail(to string, data welcomeEmailData) (EmailMessage, error) {
	var html, text bytes.Buffer
	if err := welcomeHTMLTemplate.Execute(&html, data); err != nil {
		return EmailMessage{}, err
	}
	if err := welcomeTextTemplate.Execute(&text, data); err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		To:      to,
		Subject: "Welcome to the Freelancer platform",
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
