package metrics

import (
	"expvar"
)

// Client metrics using expvar maps keyed by operation name.
var (
	clientRequests = expvar.NewMap("graphflow_client_requests_total")
	clientFailures = expvar.NewMap("graphflow_client_failures_total")
)

// Flow metrics keyed by outcome: success, failure, rejected, not_found.
var flowInstantiations = expvar.NewMap("graphflow_flow_instantiations_total")

// Journal metrics keyed by backend.
var (
	journalRecords  = expvar.NewMap("graphflow_journal_records_total")
	journalFailures = expvar.NewMap("graphflow_journal_failures_total")
)

// Stub server metrics.
var (
	stubRequests = expvar.NewMap("graphflow_stub_requests_total")
	stubGraphs   = new(expvar.Int)
)

func init() {
	expvar.Publish("graphflow_stub_graphs", stubGraphs)
}

// Client helpers
func ClientRequest(op string) { clientRequests.Add(op, 1) }
func ClientFailure(op string) { clientFailures.Add(op, 1) }

// Flow helpers
func FlowInstantiation(outcome string) { flowInstantiations.Add(outcome, 1) }

// Journal helpers
func JournalRecorded(backend string) { journalRecords.Add(backend, 1) }
func JournalFailed(backend string) { journalFailures.Add(backend, 1) }

// Stub helpers
func StubRequest(route string) { stubRequests.Add(route, 1) }
func SetStubGraphs(n int) { stubGraphs.Set(int64(n)) }

// Readers, mainly for tests and CLI diagnostics.
func ClientRequests(op string) int64 { return mapInt(clientRequests, op) }
func ClientFailures(op string) int64 { return mapInt(clientFailures, op) }
func FlowInstantiations(outcome string) int64 { return mapInt(flowInstantiations, outcome) }
func JournalRecords(backend string) int64 { return mapInt(journalRecords, backend) }
func JournalFailures(backend string) int64 { return mapInt(journalFailures, backend) }
func StubRequests(route string) int64 { return mapInt(stubRequests, route) }
func StubGraphs() int64 { return stubGraphs.Value() }

// mapInt reads a counter from an expvar.Map, zero when absent.
func mapInt(m *expvar.Map, key string) int64 {
	if v, ok := m.Get(key).(*expvar.Int); ok {
		return v.Value()
	}
	return 0
}
