package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider exposes the operational counters scraped by prometheus.
type Provider interface {
	IncTick()
	IncFetchFailure()
	IncAlertSent()
	IncSendFailure()
	IncCommand(command string)
	SetLastWindKnots(knots float64)
}

type provider struct {
	ticks         prometheus.Counter
	fetchFailures prometheus.Counter
	alertsSent    prometheus.Counter
	sendFailures  prometheus.Counter
	commands      *prometheus.CounterVec
	lastWindKnots prometheus.Gauge
}

func NewProvider(enabled bool) Provider {
	if !enabled {
		return &noop{}
	}

	return &provider{
		ticks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "windalert_ticks_total",
			Help: "Total number of scheduled weather checks",
		}),
		fetchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "windalert_fetch_failures_total",
			Help: "Total number of failed weather fetches",
		}),
		alertsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "windalert_alerts_sent_total",
			Help: "Total number of wind alerts dispatched",
		}),
		sendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "windalert_send_failures_total",
			Help: "Total number of failed notification sends",
		}),
		commands: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "windalert_commands_total",
			Help: "Total number of bot commands handled",
		}, []string{"command"}),
		lastWindKnots: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "windalert_last_wind_knots",
			Help: "Wind speed of the most recent reading, in knots",
		}),
	}
}

func (p *provider) IncTick()                       { p.ticks.Inc() }
func (p *provider) IncFetchFailure()               { p.fetchFailures.Inc() }
func (p *provider) IncAlertSent()                  { p.alertsSent.Inc() }
func (p *provider) IncSendFailure()                { p.sendFailures.Inc() }
func (p *provider) IncCommand(command string)      { p.commands.WithLabelValues(command).Inc() }
func (p *provider) SetLastWindKnots(knots float64) { p.lastWindKnots.Set(knots) }

// noop is used when the metrics listener is disabled.
type noop struct{}

func (n *noop) IncTick()                   {}
func (n *noop) IncFetchFailure()           {}
func (n *noop) IncAlertSent()              {}
func (n *noop) IncSendFailure()            {}
func (n *noop) IncCommand(_ string)        {}
func (n *noop) SetLastWindKnots(_ float64) {}
