package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the bot's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	updates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral_bot",
			Subsystem: "updates",
			Name:      "handled_total",
			Help:      "Inbound Telegram updates by route and outcome.",
		},
		[]string{"route", "status"},
	)

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral_bot",
			Subsystem: "users",
			Name:      "registrations_total",
			Help:      "Start commands by registration outcome (created, existing).",
		},
		[]string{"outcome"},
	)

	referralCredits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "referral_bot",
			Subsystem: "referrals",
			Name:      "credited_total",
			Help:      "Referral points credited to inviters.",
		},
	)

	membershipChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral_bot",
			Subsystem: "membership",
			Name:      "checks_total",
			Help:      "Channel membership checks by result.",
		},
		[]string{"result"},
	)

	usersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "referral_bot",
			Subsystem: "users",
			Name:      "total",
			Help:      "Registered users at the last stats run.",
		},
	)

	referralsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "referral_bot",
			Subsystem: "referrals",
			Name:      "total",
			Help:      "Credited referrals at the last stats run.",
		},
	)

	topScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "referral_bot",
			Subsystem: "leaderboard",
			Name:      "top_score",
			Help:      "Highest score at the last stats run.",
		},
	)
)

func init() {
	Registry.MustRegister(
		updates,
		registrations,
		referralCredits,
		membershipChecks,
		usersTotal,
		referralsTotal,
		topScore,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordUpdate(route string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	updates.WithLabelValues(route, status).Inc()
}

func RecordRegistration(created, credited bool) {
	outcome := "existing"
	if created {
		outcome = "created"
	}
	registrations.WithLabelValues(outcome).Inc()
	if credited {
		referralCredits.Inc()
	}
}

func RecordMembershipCheck(result string) {
	membershipChecks.WithLabelValues(result).Inc()
}

func SetPopulation(users, referrals, top int64) {
	usersTotal.Set(float64(users))
	referralsTotal.Set(float64(referrals))
	topScore.Set(float64(top))
}
