package engine

import "github.com/roach88/fastpath/internal/ir"

// Classifier decides whether an action operation is authoritative.
// Must be pure and total.
type Classifier func(op ir.Operation) bool

// DefaultClassifier treats an action as authoritative when it is explicitly
// flagged Remote or its kind starts with ir.RemotePrefix.
func DefaultClassifier(op ir.Operation) bool {
	return op.Remote || op.HasRemoteKind(ir.RemotePrefix)
}

// PrefixClassifier is DefaultClassifier with a custom naming convention.
// An empty prefix disables the naming convention; the Remote flag still counts.
func PrefixClassifier(prefix string) Classifier {
	return func(op ir.Operation) bool {
		return op.Remote || op.HasRemoteKind(prefix)
	}
}

// isAuthoritative applies the classifier to action operations only.
// Responses and corrections are produced by the engine itself and are never
// sent to the authoritative collaborator.
func (e *Engine) isAuthoritative(op ir.Operation) bool {
	if op.Variant != ir.VariantAction {
		return false
	}
	return e.classify(op)
}
