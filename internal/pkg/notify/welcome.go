// Package notify builds and dispatches the welcome notification sent after registration.
package notify

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"mime/multipart"
	"net/textproto"
	"strings"
	texttemplate "text/template"
	"time"
)

// WelcomeSubject is the subject line of the welcome message
const WelcomeSubject = "Your Teacher Portfolio Account - Login Credentials"

// ErrMissingFields is returned by Welcome.Validate
var ErrMissingFields = errors.New("missing required fields")

// Welcome is the payload of one welcome notification.
// It carries either a temporary password or a claim link, never both.
type Welcome struct {
	Email             string `json:"email"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	IIN               string `json:"iin"`
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
	ClaimURL          string `json:"claimUrl,omitempty"`
}

// Validate checks that every field the message needs is present
func (w Welcome) Validate() error {
	if w.Email == "" || w.FirstName == "" || w.LastName == "" || w.IIN == "" {
		return ErrMissingFields
	}
	if w.TemporaryPassword == "" && w.ClaimURL == "" {
		return ErrMissingFields
	}
	return nil
}

// Message is a composed e-mail ready for a transport
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
	Raw     []byte
}

// Composer renders welcome messages
type Composer struct {
	AppURL string
	From   string
	now    func() time.Time
}

// NewComposer creates a composer linking to appURL and sending from the given address
func NewComposer(appURL, from string) *Composer {
	return &Composer{AppURL: strings.TrimRight(appURL, "/"), From: from, now: time.Now}
}

type welcomeView struct {
	Welcome
	LoginURL string
	Year     int
}

var textTemplate = texttemplate.Must(texttemplate.New("welcome.txt").Parse(`Welcome to Teacher Portfolio Platform

Dear {{.FirstName}} {{.LastName}},

Your teacher account has been successfully created.

Login Credentials:
- Portfolio Link: {{.LoginURL}}
- Login (IIN): {{.IIN}}
{{- if .TemporaryPassword}}
- Temporary Password: {{.TemporaryPassword}}

IMPORTANT: Please change your password after your first login for security purposes.
{{- else}}
- Set your password: {{.ClaimURL}}

IMPORTANT: This link can be used once and expires soon.
{{- end}}

Best regards,
Teacher Portfolio Platform Team`))

var htmlTemplate = htmltemplate.Must(htmltemplate.New("welcome.html").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Welcome to Teacher Portfolio Platform</title>
  </head>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #2563eb; color: white; padding: 30px; text-align: center; border-radius: 8px 8px 0 0;">
      <h1 style="margin: 0; font-size: 28px;">Welcome to Teacher Portfolio Platform</h1>
    </div>
    <div style="padding: 30px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 8px 8px;">
      <p>Dear {{.FirstName}} {{.LastName}},</p>
      <p>Your teacher account has been successfully created. You can now access your academic portfolio and track your professional development.</p>
      <div style="background: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <p><strong>Portfolio Link:</strong> <a href="{{.LoginURL}}">{{.LoginURL}}</a></p>
        <p><strong>Login (IIN):</strong> <code>{{.IIN}}</code></p>
        {{- if .TemporaryPassword}}
        <p><strong>Temporary Password:</strong> <code>{{.TemporaryPassword}}</code></p>
        {{- else}}
        <p><strong>Set your password:</strong> <a href="{{.ClaimURL}}">{{.ClaimURL}}</a></p>
        {{- end}}
      </div>
      <div style="background: #fef3c7; border-left: 4px solid #f59e0b; padding: 15px; margin: 20px 0;">
        {{- if .TemporaryPassword}}
        <strong>Important Security Notice:</strong> Please change your password immediately after your first login for security purposes.
        {{- else}}
        <strong>Important Security Notice:</strong> The link above can be used once and expires soon.
        {{- end}}
      </div>
      <p style="text-align: center;"><a href="{{.LoginURL}}" style="display: inline-block; background: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: 600;">Access Your Portfolio</a></p>
      <p>If you have any questions or need assistance, please contact your school administrator.</p>
      <p>Best regards,<br/><strong>Teacher Portfolio Platform Team</strong></p>
    </div>
    <div style="text-align: center; color: #6b7280; font-size: 14px; margin-top: 30px;">
      <p>&copy; {{.Year}} Teacher Portfolio Platform. All rights reserved.</p>
      <p>This is an automated message. Please do not reply to this email.</p>
    </div>
  </body>
</html>
`))

// Compose renders the text and HTML bodies and assembles a multipart/alternative message
func (c *Composer) Compose(w Welcome) (*Message, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	view := welcomeView{Welcome: w, LoginURL: c.AppURL + "/login", Year: c.now().Year()}

	var text, html bytes.Buffer
	if err := textTemplate.Execute(&text, view); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTemplate.Execute(&html, view); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	msg := &Message{
		From:    c.From,
		To:      w.Email,
		Subject: WelcomeSubject,
		Text:    text.String(),
		HTML:    html.String(),
	}
	raw, err := assemble(msg)
	if err != nil {
		return nil, err
	}
	msg.Raw = raw
	return msg, nil
}

func assemble(msg *Message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{`text/plain; charset="UTF-8"`, msg.Text},
		{`text/html; charset="UTF-8"`, msg.HTML},
	}
	for _, p := range parts {
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", p.contentType)
		pw, err := mw.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create mime part: %w", err)
		}
		if _, err := pw.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("write mime part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close mime message: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", msg.From)
	fmt.Fprintf(&out, "To: %s\r\n", msg.To)
	fmt.Fprintf(&out, "Subject: %s\r\n", msg.Subject)
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
