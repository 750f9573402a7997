package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"telenetapi/internal/telemetry"
	"telenetapi/lib/telenet"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("telenetapi.lib.alert")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Config struct {
	Smtp SmtpConfig `json:"smtp"`
	To   []string   `json:"to"`
	// ThresholdPct is the usage percentage at which an alert goes out, defaults to 80.
	ThresholdPct float64 `json:"threshold_pct"`
}

const DefaultThresholdPct = 80

func (c Config) threshold() float64 {
	if c.ThresholdPct <= 0 {
		return DefaultThresholdPct
	}
	return c.ThresholdPct
}

// Due reports whether the usage crossed the threshold while the period is still running.
func (c Config) Due(usage telenet.InternetUsage) bool {
	return usage.UsagePercentage >= c.threshold() && usage.PeriodUsedPercentage < 100
}

// Compose builds the alert mail of a single internet line.
func (c Config) Compose(product string, usage telenet.InternetUsage) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Telenet usage <%s>", c.Smtp.EmailAddress)
	mail.To = c.To
	mail.Subject = fmt.Sprintf("Internet usage of %s at %.1f%%", product, usage.UsagePercentage)

	body := fmt.Sprintf(`Your internet line %s used %.1f GB of the %.1f GB included this period (%.1f%%).

%.1f%% of the period has passed, it runs from %s to %s.`,
		product,
		usage.TotalUsage,
		usage.IncludedVolume,
		usage.UsagePercentage,
		usage.PeriodUsedPercentage,
		usage.PeriodStart,
		usage.PeriodEnd,
	)
	mail.Text = []byte(body)
	return mail
}

// Send delivers the mail, servers without AUTH get the mail unauthenticated.
func (c Config) Send(ctx context.Context, mail *email.Email) error {
	_, span := tracer.Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(attribute.String("alert.subject", mail.Subject))

	addr := fmt.Sprintf("%s:%d", c.Smtp.Server, c.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", c.Smtp.EmailAddress, c.Smtp.Password, c.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
