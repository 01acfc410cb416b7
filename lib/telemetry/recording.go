package telemetry

import "sync"

type Report struct {
	Kind   string
	Id     string
	Params []any
}

// RecordingAPI keeps every report in memory, it is meant to be handed to
// components under test.
type RecordingAPI struct {
	mu      sync.Mutex
	reports []Report
}

func NewRecordingAPI() *RecordingAPI {
	return &RecordingAPI{}
}

func (r *RecordingAPI) record(kind, id string, params []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, Id: id, Params: params})
}

func (r *RecordingAPI) ReportBroken(id string, params ...any) {
	r.record("broken", id, params)
}

func (r *RecordingAPI) ReportWarning(id string, params ...any) {
	r.record("warning", id, params)
}

func (r *RecordingAPI) ReportDebug(msg string, params ...any) {
	r.record("debug", msg, params)
}

func (r *RecordingAPI) ReportCount(id string, count int64) {
	r.record("count", id, []any{count})
}

func (r *RecordingAPI) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// Count returns how many reports of the given kind were made under `id`.
func (r *RecordingAPI) Count(kind, id string) int {
	n := 0
	for _, report := range r.Reports() {
		if report.Kind == kind && report.Id == id {
			n++
		}
	}
	return n
}
