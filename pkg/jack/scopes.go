package jack

import (
	"fmt"
	"strings"

	"github.com/hack-toolchain/n2t/pkg/utils"
)

type Scope struct {
	name    string
	entries utils.Stack[Variable]
}

type ScopeTable struct {
	static utils.Stack[Variable]

	local     Scope
	field     Scope
	parameter Scope
}

func NewScopeTable() *ScopeTable {
	return &ScopeTable{
		static:    utils.Stack[Variable]{},
		local:     Scope{},
		field:     Scope{},
		parameter: Scope{},
	}
}

func (st *ScopeTable) PushClassScope(class string) {
	newScope := fmt.Sprintf("%s.Global", class)
	st.field = Scope{name: newScope, entries: utils.Stack[Variable]{}}
}

func (st *ScopeTable) PopClassScope() { st.field = Scope{} }

func (st *ScopeTable) PushSubRoutineScope(method string) {
	newScope := strings.ReplaceAll(st.GetScope(), "Global", method)
	st.local = Scope{name: newScope, entries: utils.Stack[Variable]{}}
	st.parameter = Scope{name: newScope, entries: utils.Stack[Variable]{}}
}

func (st *ScopeTable) PopSubroutineScope() { st.local, st.parameter = Scope{}, Scope{} }

func (st *ScopeTable) GetScope() string {
	if st.local.name != "" && st.parameter.name != "" {
		return st.local.name
	}

	if st.field.name != "" {
		return st.field.name
	}

	return "Global"
}

// stackFor returns the scope stack backing variables of kind 't', or nil for an
// unrecognized VarType. Centralizing the (VarType -> stack) mapping here means
// RegisterVariable and any future caller that needs the same lookup share it
// instead of repeating a per-kind switch.
func (st *ScopeTable) stackFor(t VarType) *utils.Stack[Variable] {
	switch t {
	case Local:
		return &st.local.entries
	case Field:
		return &st.field.entries
	case Parameter:
		return &st.parameter.entries
	case Static:
		return &st.static
	default:
		return nil
	}
}

func (st *ScopeTable) RegisterVariable(new Variable) {
	if stack := st.stackFor(new.Type); stack != nil {
		stack.Push(new)
	}
}

func (st *ScopeTable) ResolveVariable(name string) (uint16, Variable, error) {
	scopes := []utils.Stack[Variable]{st.local.entries, st.parameter.entries, st.field.entries, st.static}

	for _, scope := range scopes {
		for idx, entry := range scope.Iterator() {
			if entry.Name == name {
				return uint16(idx), entry, nil
			}
		}
	}

	return 0, Variable{}, fmt.Errorf("variable '%s' undeclared, not found in any scope", name)
}
