package article

import "github.com/prometheus/client_golang/prometheus"

var mutations = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "articles_mutations_total", Help: "Article create/update/delete count"},
	[]string{"op"},
)

func init() { prometheus.MustRegister(mutations) }
