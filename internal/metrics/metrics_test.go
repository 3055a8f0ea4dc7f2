package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type observation struct {
	kind   string
	name   string
	value  float64
	labels Labels
}

// captureBackend records every call for assertions.
type captureBackend struct {
	mu      sync.Mutex
	obs     []observation
	flushes int
}

func (c *captureBackend) IncCounter(name string, delta float64, labels Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs = append(c.obs, observation{kind: "counter", name: name, value: delta, labels: labels})
}

func (c *captureBackend) ObserveHistogram(name string, value float64, labels Labels) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs = append(c.obs, observation{kind: "histogram", name: name, value: value, labels: labels})
}

func (c *captureBackend) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushes++
	return nil
}

func (c *captureBackend) find(name string) (observation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range c.obs {
		if o.name == name {
			return o, true
		}
	}
	return observation{}, false
}

func install(t *testing.T) *captureBackend {
	t.Helper()
	c := &captureBackend{}
	SetBackend(c)
	t.Cleanup(func() { SetBackend(nil) })
	return c
}

func TestNopByDefault(t *testing.T) {
	SetBackend(nil)
	IncCounter("x", 1, nil)
	ObserveHistogram("x", 1, nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush() err=%v, want nil", err)
	}
}

func TestRecordProcess(t *testing.T) {
	c := install(t)

	RecordProcess("csv", 3, nil, 250*time.Millisecond)

	step, ok := c.find(StepTotal)
	if !ok || step.labels["step"] != "process_csv" || step.labels["status"] != "ok" {
		t.Fatalf("step counter=%+v", step)
	}
	dur, ok := c.find(StepDurationSeconds)
	if !ok || dur.value != 0.25 {
		t.Fatalf("step duration=%+v, want 0.25s", dur)
	}
	recs, ok := c.find(RecordsTotal)
	if !ok || recs.value != 3 || recs.labels["kind"] != "csv" {
		t.Fatalf("records=%+v", recs)
	}
}

func TestRecordProcess_ErrorSkipsRecords(t *testing.T) {
	c := install(t)
	RecordProcess("json", 0, errors.New("bad"), time.Millisecond)

	step, _ := c.find(StepTotal)
	if step.labels["status"] != "error" {
		t.Fatalf("status=%q, want error", step.labels["status"])
	}
	if _, ok := c.find(RecordsTotal); ok {
		t.Fatalf("records counted for a failed run")
	}
}

// TestRecordHTTP verifies status labelling and the skip rules for
// unreached phases.
func TestRecordHTTP(t *testing.T) {
	c := install(t)

	RecordHTTP("fetch", 0, errors.New("dial"), 10*time.Millisecond, -1, -1)

	req, ok := c.find(HTTPRequestsTotal)
	if !ok || req.labels["status"] != "0" || req.labels["source"] != "fetch" {
		t.Fatalf("requests=%+v", req)
	}
	if _, ok := c.find(HTTPErrorsTotal); !ok {
		t.Fatalf("transport error not counted")
	}
	if _, ok := c.find(HTTPResponseDurationSeconds); ok {
		t.Fatalf("negative response duration should be skipped")
	}
	if _, ok := c.find(HTTPDownloadBytes); ok {
		t.Fatalf("negative size should be skipped")
	}
}

func TestRecordHTTP_SuccessIsNotError(t *testing.T) {
	c := install(t)
	RecordHTTP("fetch", 200, nil, time.Millisecond, time.Millisecond, 42)

	if _, ok := c.find(HTTPErrorsTotal); ok {
		t.Fatalf("2xx counted as error")
	}
	b, ok := c.find(HTTPDownloadBytes)
	if !ok || b.value != 42 {
		t.Fatalf("download bytes=%+v", b)
	}
}

func TestRecordRequest(t *testing.T) {
	c := install(t)
	RecordRequest("/api/v1/process", "POST", 422, time.Second)

	o, ok := c.find(APIRequestsTotal)
	if !ok || o.labels["status"] != "422" || o.labels["route"] != "/api/v1/process" {
		t.Fatalf("api request=%+v", o)
	}
}

func TestFlushDelegates(t *testing.T) {
	c := install(t)
	_ = Flush()
	if c.flushes != 1 {
		t.Fatalf("flushes=%d, want 1", c.flushes)
	}
}
