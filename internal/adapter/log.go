package adapter

import (
	"context"

	"github.com/flowengine/engine/internal/infrastructure/logger"
)

// LogSMSSender logs the message it would have sent and reports success,
// for local runs and demos without a real provider wired.
type LogSMSSender struct {
	Logger *logger.Logger
}

func (s LogSMSSender) SendSMS(_ context.Context, _ SMSSettings, msg SMSMessage) (SMSResult, error) {
	log := s.Logger
	if log == nil {
		log = logger.Default()
	}
	log.Info("sms send (log adapter)", "to", msg.To, "body", msg.Body)
	return SMSResult{Success: true, SID: "log-" + msg.To}, nil
}

// LogEmailSender logs the message it would have sent and reports success,
// for local runs and demos without a real provider wired.
type LogEmailSender struct {
	Logger *logger.Logger
}

func (s LogEmailSender) SendEmail(_ context.Context, _ EmailSettings, msg EmailMessage) (EmailResult, error) {
	log := s.Logger
	if log == nil {
		log = logger.Default()
	}
	log.Info("email send (log adapter)", "to", msg.To, "subject", msg.Subject)
	return EmailResult{Success: true, MessageID: "log-" + msg.To}, nil
}
