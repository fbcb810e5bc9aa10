package ir

import (
	"fmt"
	"strings"
)

// Variant distinguishes the three shapes an Operation can take.
type Variant int

const (
	// VariantAction is an application-defined operation (local or authoritative).
	VariantAction Variant = iota
	// VariantResponse carries the result of an authoritative operation.
	VariantResponse
	// VariantCorrection carries a reconciled state the store must adopt.
	VariantCorrection
)

// String returns the lowercase name of the variant.
func (v Variant) String() string {
	switch v {
	case VariantAction:
		return "action"
	case VariantResponse:
		return "response"
	case VariantCorrection:
		return "correction"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Naming conventions for derived operation kinds.
const (
	// RemotePrefix marks an action kind as authoritative under the default classifier.
	RemotePrefix = "REMOTE_"

	// ResponsePrefix is prepended to the originating kind of a response.
	ResponsePrefix = "RESPONSE_"

	// KindCorrection is the kind of every correction operation.
	KindCorrection = "@@fastpath/RECONCILE"
)

// Operation is an immutable, tagged operation flowing through a store.
//
// Action operations carry an application discriminator (Kind) and an open
// Payload. Response operations additionally carry the originating
// operation's identity (Origin, OriginKind) and the authoritative Result.
// Correction operations carry the reconciled State.
type Operation struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"`
	Variant Variant `json:"variant"`

	// Remote explicitly flags an action as authoritative.
	Remote  bool   `json:"remote,omitempty"`
	Payload Object `json:"payload,omitempty"`

	// Response fields.
	Origin     string `json:"origin,omitempty"`
	OriginKind string `json:"origin_kind,omitempty"`
	Result     Value  `json:"result,omitempty"`

	// Correction fields.
	State Value `json:"state,omitempty"`
}

// NewAction creates an action operation with a fresh UUIDv7 identity.
func NewAction(kind string, payload Object) Operation {
	return NewActionWithID(UUIDv7Generator{}.Generate(), kind, payload)
}

// NewRemoteAction creates an action explicitly flagged as authoritative.
func NewRemoteAction(kind string, payload Object) Operation {
	op := NewAction(kind, payload)
	op.Remote = true
	return op
}

// NewActionWithID creates an action operation with a caller-chosen identity.
// Used by tests and scenario replays that need stable ids.
func NewActionWithID(id, kind string, payload Object) Operation {
	return Operation{
		ID:      id,
		Kind:    kind,
		Variant: VariantAction,
		Payload: payload,
	}
}

// NewResponse wraps an authoritative result as a response operation
// correlated with origin. The response id is derived from the origin id, so
// a given origin has exactly one possible response identity.
func NewResponse(origin Operation, result Value) Operation {
	if result == nil {
		result = Null{}
	}
	return Operation{
		ID:         ResponseID(origin.ID),
		Kind:       ResponsePrefix + origin.Kind,
		Variant:    VariantResponse,
		Origin:     origin.ID,
		OriginKind: origin.Kind,
		Result:     result,
	}
}

// ResponseID returns the identity of the response to the operation originID.
func ResponseID(originID string) string {
	return "response:" + originID
}

// NewCorrection creates a correction operation carrying state.
func NewCorrection(id string, state Value) Operation {
	return Operation{
		ID:      id,
		Kind:    KindCorrection,
		Variant: VariantCorrection,
		State:   state,
	}
}

// IsResponse reports whether op is a response operation.
func (op Operation) IsResponse() bool {
	return op.Variant == VariantResponse
}

// IsCorrection reports whether op is a correction operation.
func (op Operation) IsCorrection() bool {
	return op.Variant == VariantCorrection
}

// HasRemoteKind reports whether the kind follows the remote naming convention.
func (op Operation) HasRemoteKind(prefix string) bool {
	return prefix != "" && strings.HasPrefix(op.Kind, prefix)
}

// Equal reports whether op and other are structurally identical.
func (op Operation) Equal(other Operation) bool {
	if op.ID != other.ID || op.Kind != other.Kind || op.Variant != other.Variant ||
		op.Remote != other.Remote || op.Origin != other.Origin || op.OriginKind != other.OriginKind {
		return false
	}
	if len(op.Payload) != 0 || len(other.Payload) != 0 {
		if !Equal(op.Payload, other.Payload) {
			return false
		}
	}
	return Equal(op.Result, other.Result) && Equal(op.State, other.State)
}

// String renders a short human-readable form, e.g. "REMOTE_LOAD(0190...)".
func (op Operation) String() string {
	return fmt.Sprintf("%s(%s)", op.Kind, op.ID)
}

// ToValue converts op into an Object, suitable for MarshalValue.
// Empty optional fields are omitted.
func (op Operation) ToValue() Object {
	obj := Object{
		"id":      String(op.ID),
		"kind":    String(op.Kind),
		"variant": String(op.Variant.String()),
	}
	if op.Remote {
		obj["remote"] = Bool(true)
	}
	if len(op.Payload) > 0 {
		obj["payload"] = op.Payload
	}
	if op.Origin != "" {
		obj["origin"] = String(op.Origin)
		obj["origin_kind"] = String(op.OriginKind)
	}
	if op.Variant == VariantResponse {
		obj["result"] = nullIfNil(op.Result)
	}
	if op.Variant == VariantCorrection {
		obj["state"] = nullIfNil(op.State)
	}
	return obj
}

func nullIfNil(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}
