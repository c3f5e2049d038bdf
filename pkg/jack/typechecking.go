package jack

import (
	"fmt"
	"strings"
)

// The TypeChecker walks a 'jack.Program' the same way the Lowerer does (class by class,
// statement by statement) but never produces any output: it only validates that every
// variable reference resolves, every function call targets a real subroutine with a
// matching argument count and that assignments don't mix incompatible data types.
type TypeChecker struct {
	program Program
	scopes  ScopeTable // Keeps track of the scopes and declared variables inside each one
}

func NewTypeChecker(program Program) TypeChecker {
	return TypeChecker{program: program}
}

func (tc *TypeChecker) Check() (bool, error) {
	if tc.program == nil {
		return false, fmt.Errorf("the given 'program' is empty or nil")
	}

	for name, class := range tc.program {
		if _, err := tc.HandleClass(class); err != nil {
			return false, fmt.Errorf("error type checking class '%s': %w", name, err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Class' and nested fields.
func (tc *TypeChecker) HandleClass(class Class) (bool, error) {
	tc.scopes.PushClassScope(class.Name) // Keep track of the current scope being processed
	defer tc.scopes.PopClassScope()      // Reset the function name after processing

	for _, field := range class.Fields.Entries() {
		if _, err := tc.HandleVarStmt(VarStmt{Vars: []Variable{field}}); err != nil {
			return false, fmt.Errorf("error handling field '%s' in class '%s': %w", field.Name, class.Name, err)
		}
	}

	for _, subroutine := range class.Subroutines.Entries() {
		if _, err := tc.HandleSubroutine(subroutine); err != nil {
			return false, fmt.Errorf("error handling subroutine '%s' in class '%s': %w", subroutine.Name, class.Name, err)
		}
	}

	return true, nil
}

// Specialized function to type-check a 'jack.Subroutine' and nested fields.
func (tc *TypeChecker) HandleSubroutine(subroutine Subroutine) (bool, error) {
	tc.scopes.PushSubRoutineScope(subroutine.Name) // Keep track of the current subroutine function being processed
	defer tc.scopes.PopSubroutineScope()           // Reset the function name after processing

	if subroutine.Type == Method {
		tc.scopes.RegisterVariable(Variable{Name: "__obj", Type: Parameter, DataType: Object})
	}

	// We add to the current scope also all of the arguments of the subroutine
	for _, arg := range subroutine.Arguments {
		// Like this we're actually supporting shadowing of variables, so if a variable
		// with the same name is already present in the current scope, we just temporarily
		// override it with the most update one instead of returning an error (like Go does).
		tc.scopes.RegisterVariable(arg)
	}

	for _, stmt := range subroutine.Statements {
		if _, err := tc.HandleStatement(stmt); err != nil {
			return false, fmt.Errorf("error handling nested statement %T: %w", stmt, err)
		}
	}

	return true, nil
}

// Generalized function to type-check multiple statements types.
func (tc *TypeChecker) HandleStatement(stmt Statement) (bool, error) {
	switch tStmt := stmt.(type) {
	case DoStmt:
		return tc.HandleDoStmt(tStmt)
	case VarStmt:
		return tc.HandleVarStmt(tStmt)
	case LetStmt:
		return tc.HandleLetStmt(tStmt)
	case IfStmt:
		return tc.HandleIfStmt(tStmt)
	case WhileStmt:
		return tc.HandleWhileStmt(tStmt)
	case ReturnStmt:
		return tc.HandleReturnStmt(tStmt)
	default:
		return false, fmt.Errorf("unrecognized statement: %T", stmt)
	}
}

func (tc *TypeChecker) HandleDoStmt(stmt DoStmt) (bool, error) {
	if _, err := tc.HandleExpression(stmt.FuncCall); err != nil {
		return false, fmt.Errorf("error handling 'do' function call: %w", err)
	}
	return true, nil
}

func (tc *TypeChecker) HandleVarStmt(stmt VarStmt) (bool, error) {
	for _, variable := range stmt.Vars {
		tc.scopes.RegisterVariable(variable)
	}
	return true, nil
}

func (tc *TypeChecker) HandleLetStmt(stmt LetStmt) (bool, error) {
	rhsType, err := tc.HandleExpression(stmt.Rhs)
	if err != nil {
		return false, fmt.Errorf("error handling RHS expression: %w", err)
	}

	switch lhs := stmt.Lhs.(type) {
	case VarExpr:
		_, variable, err := tc.scopes.ResolveVariable(lhs.Var)
		if err != nil {
			return false, fmt.Errorf("error resolving LHS variable '%s': %w", lhs.Var, err)
		}
		if variable.DataType != rhsType && variable.DataType != Object && rhsType != Object {
			return false, fmt.Errorf("cannot assign value of type '%s' to variable '%s' of type '%s'", rhsType, lhs.Var, variable.DataType)
		}
		return true, nil

	case ArrayExpr:
		_, variable, err := tc.scopes.ResolveVariable(lhs.Var)
		if err != nil {
			return false, fmt.Errorf("error resolving LHS array variable '%s': %w", lhs.Var, err)
		}
		if variable.DataType != Object {
			return false, fmt.Errorf("cannot index non-array variable '%s' of type '%s'", lhs.Var, variable.DataType)
		}
		if _, err := tc.HandleExpression(lhs.Index); err != nil {
			return false, fmt.Errorf("error handling array index expression: %w", err)
		}
		return true, nil

	default:
		return false, fmt.Errorf("LHS expression must be either a 'VarExpr' or an 'ArrayExpr', got: %T", stmt.Lhs)
	}
}

func (tc *TypeChecker) HandleIfStmt(stmt IfStmt) (bool, error) {
	if _, err := tc.HandleExpression(stmt.Condition); err != nil {
		return false, fmt.Errorf("error handling if condition: %w", err)
	}
	for _, s := range stmt.ThenBlock {
		if _, err := tc.HandleStatement(s); err != nil {
			return false, fmt.Errorf("error handling statement in 'then' block: %w", err)
		}
	}
	for _, s := range stmt.ElseBlock {
		if _, err := tc.HandleStatement(s); err != nil {
			return false, fmt.Errorf("error handling statement in 'else' block: %w", err)
		}
	}
	return true, nil
}

func (tc *TypeChecker) HandleWhileStmt(stmt WhileStmt) (bool, error) {
	if _, err := tc.HandleExpression(stmt.Condition); err != nil {
		return false, fmt.Errorf("error handling while condition: %w", err)
	}
	for _, s := range stmt.Block {
		if _, err := tc.HandleStatement(s); err != nil {
			return false, fmt.Errorf("error handling statement in while block: %w", err)
		}
	}
	return true, nil
}

func (tc *TypeChecker) HandleReturnStmt(stmt ReturnStmt) (bool, error) {
	if stmt.Expr == nil {
		return true, nil
	}
	if _, err := tc.HandleExpression(stmt.Expr); err != nil {
		return false, fmt.Errorf("error handling return expression: %w", err)
	}
	return true, nil
}

// Generalized function to type-check multiple expression types, returns the resolved type.
func (tc *TypeChecker) HandleExpression(expr Expression) (DataType, error) {
	switch tExpr := expr.(type) {
	case VarExpr:
		return tc.HandleVarExpr(tExpr)
	case LiteralExpr:
		return tExpr.Type, nil
	case ArrayExpr:
		return tc.HandleArrayExpr(tExpr)
	case UnaryExpr:
		return tc.HandleExpression(tExpr.Rhs)
	case BinaryExpr:
		return tc.HandleBinaryExpr(tExpr)
	case FuncCallExpr:
		return tc.HandleFuncCallExpr(tExpr)
	default:
		return "", fmt.Errorf("unrecognized expression: %T", expr)
	}
}

func (tc *TypeChecker) HandleVarExpr(expr VarExpr) (DataType, error) {
	if expr.Var == "this" {
		return Object, nil
	}
	_, variable, err := tc.scopes.ResolveVariable(expr.Var)
	if err != nil {
		return "", fmt.Errorf("error resolving variable '%s': %w", expr.Var, err)
	}
	return variable.DataType, nil
}

func (tc *TypeChecker) HandleArrayExpr(expr ArrayExpr) (DataType, error) {
	if _, _, err := tc.scopes.ResolveVariable(expr.Var); err != nil {
		return "", fmt.Errorf("error resolving array variable '%s': %w", expr.Var, err)
	}
	if _, err := tc.HandleExpression(expr.Index); err != nil {
		return "", fmt.Errorf("error handling array index expression: %w", err)
	}
	// Jack arrays are untyped at compile time, elements are always treated as 'int'.
	return Int, nil
}

func (tc *TypeChecker) HandleBinaryExpr(expr BinaryExpr) (DataType, error) {
	lhs, err := tc.HandleExpression(expr.Lhs)
	if err != nil {
		return "", fmt.Errorf("error handling LHS expression: %w", err)
	}
	if _, err := tc.HandleExpression(expr.Rhs); err != nil {
		return "", fmt.Errorf("error handling RHS expression: %w", err)
	}

	switch expr.Type {
	case Equal, LessThan, GreatThan, BoolOr, BoolAnd, BoolNot:
		return Bool, nil
	default:
		return lhs, nil
	}
}

// Specialized function to type-check a 'jack.FuncCallExpr', returns the callee's return type.
func (tc *TypeChecker) HandleFuncCallExpr(expr FuncCallExpr) (DataType, error) {
	for _, arg := range expr.Arguments {
		if _, err := tc.HandleExpression(arg); err != nil {
			return "", fmt.Errorf("error handling argument expression: %w", err)
		}
	}

	if !expr.IsExtCall {
		className := strings.Split(tc.scopes.GetScope(), ".")[0]
		class, exists := tc.program[className]
		if !exists {
			return "", fmt.Errorf("class definition not found for '%s'", className)
		}
		routine, exists := class.Subroutines.Get(expr.FuncName)
		if !exists {
			return "", fmt.Errorf("subroutine '%s' not found in class '%s'", expr.FuncName, className)
		}
		if len(expr.Arguments) != len(routine.Arguments) {
			return "", fmt.Errorf("subroutine '%s' expects %d argument(s), got %d", expr.FuncName, len(routine.Arguments), len(expr.Arguments))
		}
		return routine.Return, nil
	}

	if _, variable, err := tc.scopes.ResolveVariable(expr.Var); err == nil {
		if variable.DataType != Object {
			return "", fmt.Errorf("variable '%s' is not an object", expr.Var)
		}
		class, exists := tc.program[variable.ClassName]
		if !exists {
			return "", fmt.Errorf("class definition not found for '%s'", variable.ClassName)
		}
		routine, exists := class.Subroutines.Get(expr.FuncName)
		if !exists {
			return "", fmt.Errorf("subroutine '%s' not found in class '%s'", expr.FuncName, variable.ClassName)
		}
		if len(expr.Arguments) != len(routine.Arguments) {
			return "", fmt.Errorf("subroutine '%s' expects %d argument(s), got %d", expr.FuncName, len(routine.Arguments), len(expr.Arguments))
		}
		return routine.Return, nil
	}

	class, exists := tc.program[expr.Var]
	if !exists {
		return "", fmt.Errorf("unrecognized function call expression: %s", expr.FuncName)
	}
	routine, exists := class.Subroutines.Get(expr.FuncName)
	if !exists {
		return "", fmt.Errorf("subroutine '%s' not found in class '%s'", expr.FuncName, class.Name)
	}
	if len(expr.Arguments) != len(routine.Arguments) {
		return "", fmt.Errorf("subroutine '%s' expects %d argument(s), got %d", expr.FuncName, len(routine.Arguments), len(expr.Arguments))
	}
	return routine.Return, nil
}
