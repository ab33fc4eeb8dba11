// Package email builds run-finished notifications shared by the senders.
package email

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"docwatch/internal/domain"
	"docwatch/internal/port"
)

// Message is a rendered notification.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// RunURL links to the run page of the web app, or "" without a frontend.
func RunURL(frontendURL, objectKey string) string {
	if frontendURL == "" {
		return ""
	}
	return strings.TrimRight(frontendURL, "/") + "/runs/" + url.PathEscape(objectKey)
}

// BuildRunFinished renders n. Every backend-supplied string is escaped in the HTML part.
func BuildRunFinished(n port.RunNotification, frontendURL string) Message {
	label := statusText(n.Status)
	subject := fmt.Sprintf("Document analysis %s: %s", strings.ToLower(label), n.ObjectKey)

	link := n.ReportURL
	if link == "" {
		link = RunURL(frontendURL, n.ObjectKey)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Analysis of %s finished.\n\nStatus: %s\n", n.ObjectKey, label)
	if n.DocType != "" {
		fmt.Fprintf(&text, "Document type: %s\n", n.DocType)
	}
	if len(n.Issues) > 0 {
		text.WriteString("\nIssues:\n")
		for _, is := range n.Issues {
			fmt.Fprintf(&text, "- [%s] %s\n", is.Level, is.UserMessage)
		}
	}
	if link != "" {
		fmt.Fprintf(&text, "\nView the report: %s\n", link)
	}
	text.WriteString("\ndocwatch")

	var issues strings.Builder
	if len(n.Issues) > 0 {
		issues.WriteString(`<ul style="padding-left: 18px;">`)
		for _, is := range n.Issues {
			fmt.Fprintf(&issues, `<li><strong>%s</strong> %s</li>`,
				html.EscapeString(string(is.Level)), html.EscapeString(is.UserMessage))
		}
		issues.WriteString(`</ul>`)
	}
	var button string
	if link != "" {
		esc := html.EscapeString(link)
		button = fmt.Sprintf(`<p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View report</a>
  </p>
  <p style="word-break: break-all; color: #666;">%s</p>`, esc, esc)
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Analysis %s</h2>
  <p>Analysis of <strong>%s</strong> finished.</p>
  <p>Document type: %s</p>
  %s
  %s
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">docwatch</p>
</body>
</html>`, html.EscapeString(strings.ToLower(label)), html.EscapeString(n.ObjectKey),
		html.EscapeString(orDash(n.DocType)), issues.String(), button)

	return Message{Subject: subject, HTML: body, Text: text.String()}
}

func statusText(s domain.RunStatus) string {
	switch s {
	case domain.RunStatusOK:
		return "Completed"
	case domain.RunStatusWarning:
		return "Completed with warnings"
	case domain.RunStatusError:
		return "Failed"
	}
	return "Finished"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
