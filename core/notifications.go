package core

import (
	"fmt"
	"html"
	"strings"
)

// welcomeNotification composes the onboarding email with the temporary
// password and, when available, the verification link. The password appears
// only in this message; it is never persisted or logged.
func welcomeNotification(account Account, password string, verificationLink string) Notification {
	name := html.EscapeString(account.DisplayName())

	var htmlBody strings.Builder
	fmt.Fprintf(&htmlBody, "<p>Hello %s,</p>", name)
	fmt.Fprintf(&htmlBody, "<p>Your %s account is ready.</p>", html.EscapeString(string(account.Role)))
	fmt.Fprintf(&htmlBody, "<p>Temporary password: <code>%s</code></p>", html.EscapeString(password))
	if strings.TrimSpace(verificationLink) != "" {
		fmt.Fprintf(&htmlBody, `<p><a href="%s">Verify your email address</a></p>`, html.EscapeString(verificationLink))
	}
	htmlBody.WriteString("<p>Please sign in and change your password.</p>")

	var textBody strings.Builder
	fmt.Fprintf(&textBody, "Hello %s,\n\n", account.DisplayName())
	fmt.Fprintf(&textBody, "Your %s account is ready.\n", account.Role)
	fmt.Fprintf(&textBody, "Temporary password: %s\n", password)
	if strings.TrimSpace(verificationLink) != "" {
		fmt.Fprintf(&textBody, "Verify your email address: %s\n", verificationLink)
	}
	textBody.WriteString("\nPlease sign in and change your password.\n")

	return Notification{
		To:      account.Email,
		Subject: "Welcome to your claims account",
		HTML:    htmlBody.String(),
		Text:    textBody.String(),
	}
}

// quoteSubmittedNotification tells the insurer that a provider submitted a
// quote against one of their claims.
func quoteSubmittedNotification(insurer Account, provider Account, claim Claim, quote Quote) Notification {
	amount := formatAmount(quote.Amount, quote.Currency)

	var htmlBody strings.Builder
	fmt.Fprintf(&htmlBody, "<p>Hello %s,</p>", html.EscapeString(insurer.DisplayName()))
	fmt.Fprintf(&htmlBody, "<p>%s submitted a quote of %s for claim %s.</p>",
		html.EscapeString(provider.DisplayName()),
		html.EscapeString(amount),
		html.EscapeString(claim.Reference),
	)
	if attachments := len(quote.Attachments); attachments > 0 {
		fmt.Fprintf(&htmlBody, "<p>%d attachment(s) included.</p>", attachments)
	}

	var textBody strings.Builder
	fmt.Fprintf(&textBody, "Hello %s,\n\n", insurer.DisplayName())
	fmt.Fprintf(&textBody, "%s submitted a quote of %s for claim %s.\n",
		provider.DisplayName(), amount, claim.Reference)
	if attachments := len(quote.Attachments); attachments > 0 {
		fmt.Fprintf(&textBody, "%d attachment(s) included.\n", attachments)
	}

	return Notification{
		To:      insurer.Email,
		Subject: fmt.Sprintf("New quote for claim %s", claim.Reference),
		HTML:    htmlBody.String(),
		Text:    textBody.String(),
	}
}

// formatAmount renders minor units as a decimal amount, e.g. 12345 GBP as
// "GBP 123.45".
func formatAmount(minorUnits int64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	sign := ""
	if minorUnits < 0 {
		sign = "-"
		minorUnits = -minorUnits
	}
	value := fmt.Sprintf("%s%d.%02d", sign, minorUnits/100, minorUnits%100)
	if currency == "" {
		return value
	}
	return currency + " " + value
}
