package session

import (
	"sync"
	"time"
)

// Countdown отсчитывает оставшиеся секунды и один раз вызывает onExpire при достижении нуля
type Countdown struct {
	mu        sync.Mutex
	remaining int
	stopped   bool

	onTick   func(remaining int)
	onExpire func()

	expireOnce sync.Once
	stopOnce   sync.Once
	stopCh     chan struct{}
}

// NewCountdown создает таймер на seconds секунд. Колбэки могут быть nil
func NewCountdown(seconds int, onTick func(remaining int), onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		remaining: seconds,
		onTick:    onTick,
		onExpire:  onExpire,
		stopCh:    make(chan struct{}),
	}
}

// Start запускает горутину тиков
func (c *Countdown) Start(interval time.Duration, newTicker TickerFactory) {
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	ticker := newTicker(interval)
	go c.run(ticker)
}

func (c *Countdown) run(ticker Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C():
			if c.Tick() == 0 {
				return
			}
		}
	}
}

// Tick уменьшает оставшееся время на одну секунду и возвращает новое значение.
// После Stop не делает ничего.
func (c *Countdown) Tick() int {
	c.mu.Lock()
	if c.stopped {
		remaining := c.remaining
		c.mu.Unlock()
		return remaining
	}
	if c.remaining > 0 {
		c.remaining--
	}
	remaining := c.remaining
	if c.onTick != nil {
		c.onTick(remaining)
	}
	c.mu.Unlock()

	if remaining == 0 {
		c.expire()
	}
	return remaining
}

func (c *Countdown) expire() {
	c.expireOnce.Do(func() {
		if c.onExpire != nil {
			c.onExpire()
		}
	})
}

// Remaining возвращает оставшееся количество секунд
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired возвращает true, когда время вышло
func (c *Countdown) Expired() bool {
	return c.Remaining() == 0
}

// Stop останавливает таймер. Повторный вызов безопасен
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()
		close(c.stopCh)
	})
}
