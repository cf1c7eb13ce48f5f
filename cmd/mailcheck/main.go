// Command mailcheck sends a test message through the configured SMTP relay.
package main

import (
	"context"
	"os"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/email"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("Usage: go run ./cmd/mailcheck <recipient>")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := email.NewEmailService(cfg, log)
	err = svc.SendEmail(ctx, &email.Email{
		To:          []string{os.Args[1]},
		Subject:     "SMTP check from " + cfg.App.Name,
		HTMLContent: "<p>Outgoing mail is configured correctly.</p>",
		TextContent: "Outgoing mail is configured correctly.",
		Type:        email.EmailTypeCheck,
	})
	if err != nil {
		log.WithError(err).WithField("smtp_host", cfg.Email.SMTPHost).Fatal("SMTP check failed")
	}
}
