package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aquamind_ratelimit_rejected_total",
	Help: "Requests refused by the rate gate",
}, []string{"backend"})
