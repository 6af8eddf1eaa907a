package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/notify"
)

// Completer is what the service needs from the upstream client.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Service ties the conversation flow together: scan for issue reports, then
// fetch the assistant reply.
type Service struct {
	completer Completer
	notifier  notify.Notifier
	logger    zerolog.Logger

	// OnReport is invoked after each notification attempt with its outcome.
	// Wired to metrics in main; tests use it to observe the async path.
	OnReport func(err error)
}

func NewService(completer Completer, notifier notify.Notifier, logger zerolog.Logger) *Service {
	return &Service{completer: completer, notifier: notifier, logger: logger}
}

// Reply produces the assistant's answer for the conversation. If the trailing
// user turns look like a service complaint, a notification is dispatched in
// the background; its outcome never affects the reply.
func (s *Service) Reply(ctx context.Context, messages []Message) (string, error) {
	if report, ok := DetectIssueReport(messages); ok {
		s.dispatchReport(report)
	}
	return s.completer.Complete(ctx, messages)
}

func (s *Service) dispatchReport(report notify.Report) {
	if s.notifier == nil {
		return
	}
	go func() {
		// detached from the request: the email should go out even if the
		// chat response has already been written
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := s.notifier.Send(ctx, report)
		if err != nil {
			s.logger.Error().Err(err).Str("report_id", report.ID).Msg("issue report notification failed")
		} else {
			s.logger.Info().Str("report_id", report.ID).Int("excerpts", len(report.Excerpts)).Msg("issue report sent")
		}
		if s.OnReport != nil {
			s.OnReport(err)
		}
	}()
}
