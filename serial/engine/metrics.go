package engine

import (
	"github.com/objson/objson"
	"github.com/prometheus/client_golang/prometheus"
)

// defines prometheus metrics
var (
	readOps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "objson_engine_reads_total",
		Help: "total number of read operations",
	})

	writeOps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "objson_engine_writes_total",
		Help: "total number of write operations",
	})

	failTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "objson_engine_failures_total",
		Help: "total number of fatal errors, by error code",
	}, []string{"code"})

	warnTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "objson_engine_warnings_total",
		Help: "total number of non-fatal errors, by error code",
	}, []string{"code"})
)

func init() {
	objson.PromCollectors = append(objson.PromCollectors,
		readOps, writeOps, failTotal, warnTotal)
}
