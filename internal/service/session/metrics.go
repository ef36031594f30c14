package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edutest_sessions_started_total",
		Help: "Количество начатых сессий прохождения теста",
	})
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "edutest_sessions_active",
		Help: "Количество активных сессий",
	})
	attemptsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edutest_attempts_submitted_total",
		Help: "Количество записанных попыток по способу отправки",
	}, []string{"mode"})
	submitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edutest_submit_failures_total",
		Help: "Количество неудачных отправок попыток",
	})
	degradedKeysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edutest_degraded_answer_keys_total",
		Help: "Количество ключей ответа, которые не удалось разобрать",
	})
)

func submitMode(auto bool) string {
	if auto {
		return "auto"
	}
	return "manual"
}
