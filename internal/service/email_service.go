package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/edutest-api/internal/domain/entity"
)

// maxSendAttempts: сколько раз пробовать отправить письмо
const maxSendAttempts = 3

// ResultMailer отправляет студенту письмо с результатом теста
type ResultMailer interface {
	SendAttemptResult(ctx context.Context, student *entity.User, test *entity.Test, attempt *entity.Attempt) error
}

// NoopResultMailer используется, когда отправка писем выключена
type NoopResultMailer struct{}

func (NoopResultMailer) SendAttemptResult(ctx context.Context, student *entity.User, test *entity.Test, attempt *entity.Attempt) error {
	log.Debug().Str("to", student.Email).Uint("attemptID", attempt.ID).Msg("[EmailService] noop: письмо с результатом не отправлено")
	return nil
}

// emailSender: часть клиента Resend, которую использует сервис
type emailSender interface {
	SendWithOptions(ctx context.Context, params *resend.SendEmailRequest, options *resend.SendEmailOptions) (*resend.SendEmailResponse, error)
}

// ResendResultMailer отправляет письма через Resend REST API
type ResendResultMailer struct {
	from   string
	sender emailSender
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewResendResultMailer(apiKey, from string) (*ResendResultMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	client := resend.NewClient(apiKey)
	return &ResendResultMailer{
		from:   from,
		sender: client.Emails,
		sleep:  sleepContext,
	}, nil
}

func (s *ResendResultMailer) SendAttemptResult(ctx context.Context, student *entity.User, test *entity.Test, attempt *entity.Attempt) error {
	if student == nil || student.Email == "" || test == nil || attempt == nil {
		return fmt.Errorf("student email, test and attempt are required")
	}

	params := buildResultEmail(s.from, student, test, attempt)
	// Один ключ на попытку: повторная отправка того же результата не дублирует письмо
	options := &resend.SendEmailOptions{
		IdempotencyKey: fmt.Sprintf("attempt-result-%d", attempt.ID),
	}

	var lastErr error
	for i := 0; i < maxSendAttempts; i++ {
		_, err := s.sender.SendWithOptions(ctx, params, options)
		if err == nil {
			log.Info().Uint("attemptID", attempt.ID).Str("to", student.Email).Msg("[EmailService] Письмо с результатом отправлено")
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, i); ok {
			if err := s.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func buildResultEmail(from string, student *entity.User, test *entity.Test, attempt *entity.Attempt) *resend.SendEmailRequest {
	subject := fmt.Sprintf("Результат теста «%s»", test.Title)
	text := fmt.Sprintf(
		"%s, вы завершили тест «%s».\nПравильных ответов: %d из %d\nБаллы: %d из %d (%d%%)",
		student.FullName, test.Title,
		attempt.CorrectAnswers, attempt.TotalQuestions,
		attempt.EarnedPoints, attempt.TotalPoints, attempt.Percentage,
	)
	body := fmt.Sprintf(
		"<p>%s, вы завершили тест <strong>%s</strong>.</p><p>Правильных ответов: %d из %d</p><p>Баллы: %d из %d (<strong>%d%%</strong>)</p>",
		html.EscapeString(student.FullName), html.EscapeString(test.Title),
		attempt.CorrectAnswers, attempt.TotalQuestions,
		attempt.EarnedPoints, attempt.TotalPoints, attempt.Percentage,
	)
	return &resend.SendEmailRequest{
		From:    from,
		To:      []string{student.Email},
		Subject: subject,
		Text:    text,
		Html:    body,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
