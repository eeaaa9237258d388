package config

// MailConfig holds SMTP settings for outbound notification mail. Only the
// password-reset flow sends mail, so every field is optional in development:
// when Host is empty the application falls back to logging the message
// instead of delivering it.
type MailConfig struct {
	Host string // SMTP server hostname
	Port string // SMTP server port
	User string // SMTP auth username (empty disables auth)
	Pass string // SMTP auth password
	From string // From address on outgoing mail
}

// LoadMailConfig reads the SMTP settings from environment variables.
func LoadMailConfig() MailConfig {
	return MailConfig{
		Host: envStr("SMTP_HOST", ""),
		Port: envStr("SMTP_PORT", "587"),
		User: envStr("SMTP_USER", ""),
		Pass: envStr("SMTP_PASS", ""),
		From: envStr("MAIL_FROM", "Touring API <no-reply@touring.local>"),
	}
}
