package config

import "time"

func NewQueueForTest(backend, redisURL string) *Queue {
	return &Queue{
		backend:      backend,
		redisURL:     redisURL,
		keyPrefix:    "test:tasks",
		maxAttempts:  3,
		pollInterval: 10 * time.Millisecond,
	}
}

func NewRapidProForTest(rate float64, timeout time.Duration) *RapidPro {
	return &RapidPro{rate: rate, timeout: timeout}
}

func NewSlackForTest(botToken, channel string) *Slack {
	return &Slack{botToken: botToken, channel: channel}
}

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func NewSyncForTest(interval time.Duration, concurrency int) *Sync {
	return &Sync{interval: interval, concurrency: concurrency}
}
