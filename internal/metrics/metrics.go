package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "groupvial"

// 下单结果标签
const (
	ResultSuccess    = "success"
	ResultReplayed   = "replayed"
	ResultRejected   = "rejected"
	ResultInvalid    = "invalid"
	ResultFailed     = "failed"
	ResultCollision  = "code_collision"
	ResultNoCapacity = "no_capacity"
)

var (
	checkoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Checkout attempts by purchase mode and result.",
	}, []string{"mode", "result"})

	checkoutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Checkout transaction latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})

	vialsReserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vials_reserved_total",
		Help:      "Vials reserved against batch capacity.",
	}, []string{"mode"})

	batchesFilled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_filled_total",
		Help:      "Batches that reached their vial target.",
	})

	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Order status transitions.",
	}, []string{"from", "to"})

	tasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_processed_total",
		Help:      "Background tasks handled by type and result.",
	}, []string{"task", "result"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler 指标抓取接口
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCheckout 记录下单结果与耗时
func ObserveCheckout(mode, result string, started time.Time) {
	checkoutTotal.WithLabelValues(mode, result).Inc()
	if !started.IsZero() {
		checkoutDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
	}
}

// AddVialsReserved 累加已占用支数
func AddVialsReserved(mode string, vials int) {
	if vials > 0 {
		vialsReserved.WithLabelValues(mode).Add(float64(vials))
	}
}

// IncBatchFilled 满团计数
func IncBatchFilled() {
	batchesFilled.Inc()
}

// IncOrderTransition 订单状态流转计数
func IncOrderTransition(from, to string) {
	orderTransitions.WithLabelValues(from, to).Inc()
}

// IncTask 后台任务计数
func IncTask(task, result string) {
	tasksProcessed.WithLabelValues(task, result).Inc()
}

// ObserveHTTP 记录 HTTP 请求
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
