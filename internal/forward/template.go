package forward

import (
	"bytes"
	"html/template"
)

// SubjectPrefix is prepended to every forwarded notification subject.
const SubjectPrefix = "[orderpulse] "

// emailTmpl is the HTML wrapper applied to every forwarded notification.
// {{.Subject}} and {{.Body}} are auto-escaped by html/template.
var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:0;background-color:#f4f4f5;
     font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" role="presentation"
         style="background-color:#f4f4f5;padding:40px 16px;">
    <tr>
      <td align="center">
        <table width="600" cellpadding="0" cellspacing="0" role="presentation"
               style="max-width:600px;width:100%;">
          <tr>
            <td style="background-color:#1a1333;padding:24px 40px;border-radius:12px 12px 0 0;">
              <span style="font-size:20px;font-weight:700;color:#ffffff;letter-spacing:-0.3px;">orderpulse</span>
              <span style="display:block;font-size:11px;color:#9ca3af;margin-top:2px;letter-spacing:0.3px;">
                Store Notifications
              </span>
            </td>
          </tr>
          <tr>
            <td style="background-color:#ffffff;padding:32px 40px;border-radius:0 0 12px 12px;">
              <h2 style="margin:0 0 16px;font-size:17px;color:#111827;">{{.Subject}}</h2>
              <p style="margin:0;font-size:14px;line-height:1.6;color:#374151;white-space:pre-line;">{{.Body}}</p>
            </td>
          </tr>
          <tr>
            <td style="padding:20px 8px;text-align:center;">
              <span style="font-size:11px;color:#9ca3af;">
                Forwarded by orderpulse. Adjust forwarding in forwarding.yaml.
              </span>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))

// buildEmailHTML renders the branded HTML body for a forwarded notification.
func buildEmailHTML(subject, body string) (string, error) {
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct {
		Subject string
		Body    string
	}{Subject: subject, Body: body})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
