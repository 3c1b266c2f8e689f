// Package metrics publishes dataset level gauges for prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/codeoc/dashboard/pkg/api"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

var (
	chatsMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "codeoc_dashboard_chats",
		Help: "Conversations in the loaded dataset, by verification state.",
	}, []string{"verified"})

	usersMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "codeoc_dashboard_users",
		Help: "Users in the loaded dataset, by role.",
	}, []string{"role"})

	verifiedRatioMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codeoc_dashboard_verified_ratio",
		Help: "Share of conversations answered through the verified path.",
	})

	satisfactionMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "codeoc_dashboard_satisfaction_rate",
		Help: "Percentage of rated conversations with positive feedback, by verification state. Unset when nothing was rated.",
	}, []string{"verified"})

	warningsMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codeoc_dashboard_dataset_warnings",
		Help: "Row level problems recovered from while building the dataset.",
	})

	loadedAtMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codeoc_dashboard_dataset_loaded_timestamp_seconds",
		Help: "Unix time the current dataset was loaded.",
	})
)

// RefreshDatasetMetrics publishes gauges for a freshly loaded dataset.
func RefreshDatasetMetrics(ds *v1.Dataset) {
	if ds == nil {
		return
	}

	stats := api.ComputeGlobalStats(ds, api.GlobalOptions{})
	chatsMetric.WithLabelValues("true").Set(float64(stats.VerifiedChats))
	chatsMetric.WithLabelValues("false").Set(float64(stats.UnverifiedChats))
	usersMetric.WithLabelValues(v1.RoleMechanic).Set(float64(stats.TotalMechanics))
	usersMetric.WithLabelValues(v1.RoleOther).Set(float64(stats.TotalUsers - stats.TotalMechanics))
	if stats.TotalChats > 0 {
		verifiedRatioMetric.Set(float64(stats.VerifiedChats) / float64(stats.TotalChats))
	}

	matrix := api.ComputeSatisfaction(ds.Conversations)
	for label, rate := range map[string]*float64{
		"true":  matrix.Supported.SatisfactionRate,
		"false": matrix.Unsupported.SatisfactionRate,
	} {
		if rate == nil {
			satisfactionMetric.DeleteLabelValues(label)
			continue
		}
		satisfactionMetric.WithLabelValues(label).Set(*rate)
	}

	warningsMetric.Set(float64(len(ds.Warnings)))
	loadedAtMetric.Set(float64(ds.LoadedAt.Unix()))

	log.WithFields(log.Fields{
		"chats": stats.TotalChats,
		"users": stats.TotalUsers,
	}).Debug("dataset metrics refreshed")
}
