package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fastpath/internal/config"
	"github.com/roach88/fastpath/internal/engine"
	"github.com/roach88/fastpath/internal/ir"
)

// Scenario defines a reconciliation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the engine configuration. Unset fields keep their defaults.
	Config config.Config `yaml:"config"`

	// Initial is the initial state. Defaults to {counter: 0}.
	Initial map[string]interface{} `yaml:"initial,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is exactly one of Dispatch, Resolve or Expect.
type Step struct {
	Dispatch *DispatchStep `yaml:"dispatch,omitempty"`
	Resolve  *ResolveStep  `yaml:"resolve,omitempty"`
	Expect   *ExpectStep   `yaml:"expect,omitempty"`
}

// DispatchStep feeds one operation into the store.
type DispatchStep struct {
	// Kind is the operation kind.
	Kind string `yaml:"kind"`

	// ID overrides the generated operation id. Re-using an id dispatches the
	// same operation again.
	ID string `yaml:"id,omitempty"`

	// Remote flags the operation authoritative regardless of its kind.
	Remote bool `yaml:"remote,omitempty"`

	Payload map[string]interface{} `yaml:"payload,omitempty"`

	// ResponseTo turns the step into a response correlated with the given
	// operation id. Result is the response result.
	ResponseTo string                 `yaml:"response_to,omitempty"`
	Result     map[string]interface{} `yaml:"result,omitempty"`

	// Error is the runtime error code the step is expected to fail with.
	Error string `yaml:"error,omitempty"`
}

// ResolveStep completes the oldest outstanding authoritative call.
type ResolveStep struct {
	// Result overrides the server's computation.
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// ExpectStep checks the store and engine at this point of the scenario.
// Only the fields that are set are checked.
type ExpectStep struct {
	State      map[string]interface{} `yaml:"state,omitempty"`
	Phase      string                 `yaml:"phase,omitempty"`
	QueueLen   *int                   `yaml:"queue_len,omitempty"`
	PendingLog *int                   `yaml:"pending_log,omitempty"`
}

// Assertion validates the final trace or state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event of Event type with Kind exists
	// - "trace_order": Kinds appear in order among events of Event type
	// - "trace_count": events of Event type (and Kind, if set) occur Count times
	// - "final_state": the final fast state equals Expect
	Type string `yaml:"type"`

	// Event is the trace event type. Defaults to "dispatch".
	Event string `yaml:"event,omitempty"`

	Kind   string                 `yaml:"kind,omitempty"`
	Kinds  []string               `yaml:"kinds,omitempty"`
	Count  int                    `yaml:"count,omitempty"`
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	scenario := Scenario{Config: config.Default()}

	// Strict field validation catches typos like "step:" vs "steps:".
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// InitialState converts Initial into a state value.
func (s *Scenario) InitialState() (ir.Value, error) {
	if s.Initial == nil {
		return ir.NewObject(ir.O("counter", ir.Int(0))), nil
	}
	v, err := ir.FromGo(s.Initial)
	if err != nil {
		return nil, fmt.Errorf("initial: %w", err)
	}
	return v, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if err := s.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if _, err := s.InitialState(); err != nil {
		return err
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step Step) error {
	set := 0
	for _, present := range []bool{step.Dispatch != nil, step.Resolve != nil, step.Expect != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of dispatch, resolve or expect is required", index)
	}

	if d := step.Dispatch; d != nil {
		if d.Kind == "" {
			return fmt.Errorf("steps[%d].dispatch: kind is required", index)
		}
		if d.Result != nil && d.ResponseTo == "" {
			return fmt.Errorf("steps[%d].dispatch: result requires response_to", index)
		}
		switch engine.RuntimeErrorCode(d.Error) {
		case "", engine.ErrCodeTransitionFailed, engine.ErrCodeUnexpectedResponse:
		default:
			return fmt.Errorf("steps[%d].dispatch: unknown error code %q", index, d.Error)
		}
	}

	if e := step.Expect; e != nil {
		switch engine.Phase(e.Phase) {
		case "", engine.PhaseIdle, engine.PhaseInFlight:
		default:
			return fmt.Errorf("steps[%d].expect: unknown phase %q", index, e.Phase)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	switch a.Event {
	case "", EventIntake, EventDispatch, EventResolve, EventCycle:
	default:
		return fmt.Errorf("assertions[%d]: unknown event type %q", index, a.Event)
	}

	return nil
}
