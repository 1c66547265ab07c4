package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DimensionsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exm_dimensions_emitted_total",
		Help: "Dimension results produced per email event type",
	}, []string{"event_type"})

	DimensionsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exm_dimensions_skipped_total",
		Help: "Email events that produced no dimension result",
	}, []string{"reason"})

	GeoLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exm_geoip_lookups_total",
		Help: "Geo-IP lookups by result",
	}, []string{"result"})

	StoreAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exm_store_attempts_total",
		Help: "Remote store attempts by classification",
	}, []string{"operation", "outcome"})

	InteractionsSaved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exm_interactions_saved_total",
		Help: "Interactions handled by the saver",
	}, []string{"status"})
)

// Register adds the collectors to reg. Already registered collectors are ignored.
func Register(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		DimensionsEmitted,
		DimensionsSkipped,
		GeoLookups,
		StoreAttempts,
		InteractionsSaved,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			panic(err)
		}
	}
}
