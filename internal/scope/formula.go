package scope

import (
	"github.com/pkg/errors"

	"github.com/obsidian-tools/materialize-base/internal/baseyaml"
	"github.com/obsidian-tools/materialize-base/internal/exprlang"
	"github.com/obsidian-tools/materialize-base/internal/value"
)

type formulaState int

const (
	stateUnevaluated formulaState = iota
	stateInProgress
	stateDone
)

type formulaSlot struct {
	source string
	state  formulaState
	value  value.Value
	err    error
}

// formulaProxy backs the `formula` scope binding (spec.md §4.4): each
// named formula is evaluated lazily, on first member access, against the
// expression source declared in the Base's formulas map, and memoized
// per (file, formula name) for the rest of the file's scope lifetime.
// stateInProgress detects a formula referencing itself, directly or
// through another formula, while it is still being evaluated.
type formulaProxy struct {
	slots map[string]*formulaSlot
	scope exprlang.Scope
}

func newFormulaProxy(formulas baseyaml.Formulas) *formulaProxy {
	slots := make(map[string]*formulaSlot, len(formulas))
	for _, f := range formulas {
		slots[f.Name] = &formulaSlot{source: f.Source}
	}
	return &formulaProxy{slots: slots}
}

func (p *formulaProxy) Get(name string) (value.Value, bool, error) {
	slot, ok := p.slots[name]
	if !ok {
		return value.Undefined(), false, nil
	}
	switch slot.state {
	case stateDone:
		return slot.value, true, slot.err
	case stateInProgress:
		return value.Undefined(), true, errors.Errorf("Circular formula reference detected for %q", name)
	}

	slot.state = stateInProgress
	node, err := exprlang.Parse(slot.source)
	if err != nil {
		slot.state = stateDone
		slot.value = value.Undefined()
		slot.err = errors.Wrapf(err, "formula %q", name)
		return slot.value, true, slot.err
	}

	v, err := exprlang.Evaluate(node, p.scope)
	if err != nil {
		err = errors.Wrapf(err, "formula %q", name)
	}
	slot.state = stateDone
	slot.value = v
	slot.err = err
	return v, true, err
}

func (p *formulaProxy) Call(name string, args []value.Value) (value.Value, bool, error) {
	return value.Value{}, false, nil
}
