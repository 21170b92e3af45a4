package media

import "github.com/prometheus/client_golang/prometheus"

var mediaOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "media_files_total", Help: "Media store/delete operations"},
	[]string{"area", "op", "result"},
)

func init() { prometheus.MustRegister(mediaOps) }
