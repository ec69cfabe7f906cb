package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"puttr/internal/token"
)

const (
	resultStored       = "stored"
	resultUnauthorized = "unauthorized"
	resultEmpty        = "empty"
	resultFailed       = "failed"
)

// Metrics holds the domain counters. A nil *Metrics records nothing.
type Metrics struct {
	tokensIssued prometheus.Counter
	tokensActive prometheus.GaugeFunc
	uploads      *prometheus.CounterVec
	uploadBytes  prometheus.Counter
}

// NewMetrics registers the domain metrics on reg. The active-token gauge
// reads the authority's table size at scrape time.
func NewMetrics(reg prometheus.Registerer, tokens *token.Authority) (*Metrics, error) {
	m := &Metrics{
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "puttr_tokens_issued_total",
			Help: "Total number of upload tokens issued.",
		}),
		tokensActive: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "puttr_tokens_active",
			Help: "Tokens currently held in memory, including expired ones not yet swept.",
		}, func() float64 { return float64(tokens.Len()) }),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "puttr_uploads_total",
			Help: "Upload attempts by result.",
		}, []string{"result"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "puttr_upload_bytes_total",
			Help: "Bytes written by successful uploads.",
		}),
	}

	for _, c := range []prometheus.Collector{m.tokensIssued, m.tokensActive, m.uploads, m.uploadBytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) tokenIssued() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

func (m *Metrics) upload(result string, size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
	if size > 0 {
		m.uploadBytes.Add(float64(size))
	}
}
