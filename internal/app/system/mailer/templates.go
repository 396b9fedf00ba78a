// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// InvitationEmailData holds data for the invitation email.
type InvitationEmailData struct {
	SiteName    string
	CompanyName string
	InviterName string
	Role        string
	AcceptURL   string
	ExpiresIn   string // e.g., "7 days"

	// Set only when a company mailbox was provisioned.
	GeneratedEmail    string
	GeneratedPassword string
}

// BuildInvitationEmail creates an invitation email with both HTML and text bodies.
func BuildInvitationEmail(data InvitationEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("You're invited to join %s on %s", data.CompanyName, data.SiteName),
		TextBody: buildInvitationText(data),
		HTMLBody: buildInvitationHTML(data),
	}
}

func buildInvitationText(data InvitationEmailData) string {
	var buf bytes.Buffer
	if data.InviterName != "" {
		fmt.Fprintf(&buf, "%s invited you to join %s as %s.\n\n", data.InviterName, data.CompanyName, data.Role)
	} else {
		fmt.Fprintf(&buf, "You have been invited to join %s as %s.\n\n", data.CompanyName, data.Role)
	}
	buf.WriteString("Sign in and accept the invitation here:\n")
	buf.WriteString(data.AcceptURL + "\n\n")
	if data.GeneratedEmail != "" {
		fmt.Fprintf(&buf, "Your company mailbox: %s\nTemporary password: %s\n\n", data.GeneratedEmail, data.GeneratedPassword)
	}
	fmt.Fprintf(&buf, "This invitation expires in %s.\n", data.ExpiresIn)
	return buf.String()
}

var invitationTmpl = template.Must(template.New("invitation").Parse(invitationHTMLTemplate))

func buildInvitationHTML(data InvitationEmailData) string {
	var buf bytes.Buffer
	_ = invitationTmpl.Execute(&buf, data)
	return buf.String()
}

const invitationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Invitation</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 16px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #0f766e;">{{.CompanyName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                {{if .InviterName}}{{.InviterName}} invited you{{else}}You have been invited{{end}} to join <strong>{{.CompanyName}}</strong> as <strong>{{.Role}}</strong>.
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.AcceptURL}}" style="display: inline-block; padding: 14px 32px; background-color: #0f766e; color: #ffffff; text-decoration: none; font-size: 16px; border-radius: 6px;">
                      Accept invitation
                    </a>
                  </td>
                </tr>
              </table>
              {{if .GeneratedEmail}}
              <p style="margin: 24px 0 0; font-size: 14px; color: #374151;">
                Company mailbox: <code>{{.GeneratedEmail}}</code><br>
                Temporary password: <code>{{.GeneratedPassword}}</code>
              </p>
              {{end}}
              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This invitation expires in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
