package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// pushJob — имя job в Pushgateway.
const pushJob = "hearing-watch"

// pushMetrics отправляет метрики CLI-запуска в Pushgateway.
// Метрики группируются по режиму.
func pushMetrics(url, mode string) error {
	return pushWith(url, mode, prometheus.DefaultGatherer)
}

func pushWith(url, mode string, g prometheus.Gatherer) error {
	if err := push.New(url, pushJob).
		Grouping("mode", mode).
		Gatherer(g).
		Push(); err != nil {
		return fmt.Errorf("push %s: %w", url, err)
	}
	return nil
}
