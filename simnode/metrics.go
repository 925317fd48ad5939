package simnode

import (
	"sync"

	fd "github.com/TheSmallBoat/meshcfg/foundation"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshcfg",
			Subsystem: "simnode",
			Name:      "frames_total",
			Help:      "Frames seen by simulated nodes.",
		},
		[]string{"opcode", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesTotal)
	})
}

func recordFrame(op fd.OpCode, answered bool) {
	RegisterMetrics()
	result := "ignored"
	if answered {
		result = "answered"
	}
	framesTotal.WithLabelValues(fd.OpcodeName(op), result).Inc()
}
