// Package metrics is the backend-neutral instrumentation seam.
//
// Core code calls the package-level helpers (RecordProcess, RecordHTTP, ...);
// the binary picks a Backend at startup with SetBackend. Until then a no-op
// backend swallows everything, so tests and library callers need no setup.
package metrics

import (
	"strconv"
	"sync"
	"time"
)

// Labels are metric dimensions.
type Labels map[string]string

// Backend receives metric observations.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// Metric names. Backends may ignore names they do not know.
const (
	StepTotal           = "jsonify_step_total"
	StepDurationSeconds = "jsonify_step_duration_seconds"
	RecordsTotal        = "jsonify_records_total"

	HTTPRequestsTotal           = "jsonify_http_requests_total"
	HTTPErrorsTotal             = "jsonify_http_errors_total"
	HTTPRequestDurationSeconds  = "jsonify_http_request_duration_seconds"
	HTTPResponseDurationSeconds = "jsonify_http_response_duration_seconds"
	HTTPDownloadBytes           = "jsonify_http_download_bytes"

	APIRequestsTotal          = "jsonify_api_requests_total"
	APIRequestDurationSeconds = "jsonify_api_request_duration_seconds"
)

type nop struct{}

func (nop) IncCounter(string, float64, Labels)       {}
func (nop) ObserveHistogram(string, float64, Labels) {}
func (nop) Flush() error                             { return nil }

// Nop returns a Backend that discards everything.
func Nop() Backend { return nop{} }

var (
	mu      sync.RWMutex
	backend Backend = nop{}
)

// SetBackend installs b as the process-wide backend. A nil b restores the
// no-op backend.
func SetBackend(b Backend) {
	if b == nil {
		b = nop{}
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to the named counter on the current backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records value on the named histogram.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush pushes buffered observations, if the backend buffers.
func Flush() error {
	return current().Flush()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordStep counts one execution of a named step and its duration.
func RecordStep(step string, err error, d time.Duration) {
	l := Labels{"step": step, "status": status(err)}
	IncCounter(StepTotal, 1, l)
	ObserveHistogram(StepDurationSeconds, d.Seconds(), l)
}

// RecordProcess records one normalization run: a "process" step plus the
// number of records produced, keyed by format.
func RecordProcess(format string, records int, err error, d time.Duration) {
	RecordStep("process_"+format, err, d)
	if err == nil && records > 0 {
		IncCounter(RecordsTotal, float64(records), Labels{"kind": format})
	}
}

// RecordHTTP records one outbound fetch made by source (e.g. "fetch").
//
// reqDur is time to response headers, respDur time spent reading the body.
// Negative durations or sizes mean "not reached" and are skipped.
func RecordHTTP(source string, statusCode int, err error, reqDur, respDur time.Duration, bytes int64) {
	code := "0"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	l := Labels{"source": source, "status": code}

	IncCounter(HTTPRequestsTotal, 1, l)
	if err != nil || statusCode < 200 || statusCode >= 300 {
		IncCounter(HTTPErrorsTotal, 1, l)
	}
	if reqDur >= 0 {
		ObserveHistogram(HTTPRequestDurationSeconds, reqDur.Seconds(), l)
	}
	if respDur >= 0 {
		ObserveHistogram(HTTPResponseDurationSeconds, respDur.Seconds(), l)
	}
	if bytes >= 0 {
		ObserveHistogram(HTTPDownloadBytes, float64(bytes), l)
	}
}

// RecordRequest records one inbound API request.
func RecordRequest(route, method string, statusCode int, d time.Duration) {
	l := Labels{"route": route, "method": method, "status": strconv.Itoa(statusCode)}
	IncCounter(APIRequestsTotal, 1, l)
	ObserveHistogram(APIRequestDurationSeconds, d.Seconds(), Labels{"route": route, "method": method})
}
