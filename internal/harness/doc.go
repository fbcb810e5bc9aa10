// Package harness runs reconciliation scenarios against the counter
// application.
//
// A scenario is a YAML file describing an initial state, a configuration and
// a sequence of steps. Dispatch steps feed operations through a real store
// and engine; resolve steps complete the oldest outstanding authoritative
// call, either with an explicit result or by asking the counter server;
// expect steps check the fast state and engine phase at that point.
//
// Authoritative calls are executed by testutil.DeferredExecutor, so a
// scenario controls exactly which local operations happen while a call is in
// flight. Ids are drawn from sequence generators, which makes the resulting
// trace deterministic and suitable for golden comparison:
//
//	result, err := harness.Run(scenario)
//	harness.AssertGolden(t, scenario.Name, result)
//
// Golden files live in testdata/golden and are regenerated with
//
//	go test ./internal/harness -update
package harness
