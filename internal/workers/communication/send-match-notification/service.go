package sendmatchnotification

import (
	"fmt"
	"html"
	"strings"

	"advisor-match-workers/internal/common/aws"
	"advisor-match-workers/internal/models"
)

// matchContext is everything the messages mention.
type matchContext struct {
	Match       *models.MatchRecord
	StudentName string
	AdvisorName string
	PortalURL   string
}

func isValidEmail(email string) bool {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return strings.Contains(parts[1], ".")
}

func studentEmail(to string, mc matchContext) aws.Email {
	subject := "You have been matched with an advisor"

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Hi %s,\n\n", mc.StudentName))
	text.WriteString(fmt.Sprintf("You have been matched with %s (%s%% match).\n", mc.AdvisorName, mc.Match.Score))
	text.WriteString(mc.Match.Reason + "\n\n")
	text.WriteString("Your advisor will review the match shortly.\n")
	if mc.PortalURL != "" {
		text.WriteString(fmt.Sprintf("Follow the status on %s\n", mc.PortalURL))
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("<p>Hi %s,</p>", html.EscapeString(mc.StudentName)))
	body.WriteString(fmt.Sprintf("<p>You have been matched with <strong>%s</strong> (%s%% match).</p>",
		html.EscapeString(mc.AdvisorName), mc.Match.Score))
	body.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(mc.Match.Reason)))
	body.WriteString("<p>Your advisor will review the match shortly.</p>")
	if mc.PortalURL != "" {
		body.WriteString(fmt.Sprintf(`<p><a href="%s">View your dashboard</a></p>`, html.EscapeString(mc.PortalURL)))
	}

	return aws.Email{To: to, Subject: subject, TextBody: text.String(), HTMLBody: body.String()}
}

func advisorEmail(to string, mc matchContext) aws.Email {
	subject := fmt.Sprintf("New student match: %s", mc.StudentName)

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Dear %s,\n\n", mc.AdvisorName))
	text.WriteString(fmt.Sprintf("%s has been matched with you (%s%% match).\n", mc.StudentName, mc.Match.Score))
	text.WriteString(mc.Match.Reason + "\n\n")
	text.WriteString(fmt.Sprintf("Please accept or reject match %s.\n", mc.Match.ID))

	var body strings.Builder
	body.WriteString(fmt.Sprintf("<p>Dear %s,</p>", html.EscapeString(mc.AdvisorName)))
	body.WriteString(fmt.Sprintf("<p><strong>%s</strong> has been matched with you (%s%% match).</p>",
		html.EscapeString(mc.StudentName), mc.Match.Score))
	body.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(mc.Match.Reason)))
	body.WriteString(fmt.Sprintf("<p>Please accept or reject match <code>%s</code>.</p>", html.EscapeString(mc.Match.ID)))

	return aws.Email{To: to, Subject: subject, TextBody: text.String(), HTMLBody: body.String()}
}

// smsText stays within a single 160 character segment for typical names.
func smsText(mc matchContext) string {
	msg := fmt.Sprintf("Matched with %s (%s%%). Awaiting advisor review.", mc.AdvisorName, mc.Match.Score)
	if len(msg) > 160 {
		msg = msg[:157] + "..."
	}
	return msg
}
