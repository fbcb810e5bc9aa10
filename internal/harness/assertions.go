package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/fastpath/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s(%s)\n", i+1, event.Type, event.Kind, event.ID)
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func eventType(a Assertion) string {
	if a.Event == "" {
		return EventDispatch
	}
	return a.Event
}

// assertTraceContains checks that an event of the given type and kind exists.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	typ := eventType(a)
	for _, event := range trace {
		if event.Type == typ && event.Kind == a.Kind {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s event for %s", typ, a.Kind),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that kinds appear in the specified order among
// events of one type. Kinds don't need to be consecutive, and a kind may
// appear more than once in the list.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	typ := eventType(a)
	next := 0
	for _, event := range trace {
		if next == len(a.Kinds) {
			break
		}
		if event.Type == typ && event.Kind == a.Kinds[next] {
			next++
		}
	}

	if next < len(a.Kinds) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("%s events in order: %v", typ, a.Kinds),
			Actual:   fmt.Sprintf("missing or out of order: %s (position %d)", a.Kinds[next], next+1),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks the number of events of a type, optionally
// restricted to one kind.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	typ := eventType(a)
	count := 0
	for _, event := range trace {
		if event.Type == typ && (a.Kind == "" || event.Kind == a.Kind) {
			count++
		}
	}

	if count != a.Count {
		what := typ
		if a.Kind != "" {
			what = fmt.Sprintf("%s %s", typ, a.Kind)
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks that the final fast state equals the expectation.
func assertFinalState(result *Result, a Assertion) error {
	want, err := ir.FromGo(a.Expect)
	if err != nil {
		return fmt.Errorf("invalid expected state: %w", err)
	}
	if !ir.Equal(result.FinalState, want) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: formatValue(want),
			Actual:   formatValue(result.FinalState),
			Trace:    result.Trace,
		}
	}
	return nil
}
