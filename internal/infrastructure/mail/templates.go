package mail

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

var welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome.html").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1.0" />
	<title>Welcome to JetDesk</title>
</head>
<body style="margin: 0; padding: 0; font-family: Helvetica, Arial, sans-serif; background-color: #f5f7fa;">
	<table border="0" cellpadding="0" cellspacing="0" width="100%" style="border-collapse: collapse;">
		<tr>
			<td style="padding: 40px 0;">
				<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #0b1f3a; border-radius: 8px 8px 0 0;">
					<tr>
						<td align="center" style="padding: 28px 0; color: #ffffff;">
							<h1 style="margin: 0; font-size: 26px; font-weight: 700;">Welcome aboard</h1>
						</td>
					</tr>
				</table>
				<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #ffffff;">
					<tr>
						<td style="padding: 36px 30px; color: #333333; font-size: 16px; line-height: 1.6;">
							<p style="margin-top: 0;">Hi {{.Greeting}},</p>
							<p>Your JetDesk subscription for <strong>{{.CompanyName}}</strong> is active. Your team can now manage clients, quotes and trips from one workspace.</p>
							{{if .AppURL}}
							<p style="text-align: center; padding: 12px 0;">
								<a href="{{.AppURL}}" style="background-color: #1d64d8; color: #ffffff; padding: 12px 28px; text-decoration: none; border-radius: 5px; display: inline-block;">Open JetDesk</a>
							</p>
							{{end}}
							<p style="margin-bottom: 0;">The JetDesk team</p>
						</td>
					</tr>
				</table>
				<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #eef1f6; border-radius: 0 0 8px 8px;">
					<tr>
						<td align="center" style="padding: 18px; color: #666666; font-size: 12px;">
							<p style="margin: 0;">You are receiving this email because a JetDesk subscription was started with this address.</p>
						</td>
					</tr>
				</table>
			</td>
		</tr>
	</table>
</body>
</html>`))

var welcomeText = texttemplate.Must(texttemplate.New("welcome.txt").Parse(`Hi {{.Greeting}},

Your JetDesk subscription for {{.CompanyName}} is active. Your team can now manage clients, quotes and trips from one workspace.
{{if .AppURL}}
Open JetDesk: {{.AppURL}}
{{end}}
The JetDesk team
`))
