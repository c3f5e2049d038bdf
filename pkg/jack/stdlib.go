package jack

// ----------------------------------------------------------------------------
// Standard Library ABI

// StandardLibraryABI describes the signatures of the 8 built-in OS classes every Jack
// program may call without declaring them (Math, String, Array, Output, Screen, Keyboard,
// Memory and Sys). It's keyed by class name and then by subroutine name. None of the
// entries carry a body: they only exist so the typechecker and lowerer can resolve calls
// into the standard library without requiring its source to be present in the program.
var StandardLibraryABI = map[string]map[string]Subroutine{
	"Math": {
		"abs":      fn("abs", Int, arg("x", Int)),
		"multiply": fn("multiply", Int, arg("x", Int), arg("y", Int)),
		"divide":   fn("divide", Int, arg("x", Int), arg("y", Int)),
		"min":      fn("min", Int, arg("x", Int), arg("y", Int)),
		"max":      fn("max", Int, arg("x", Int), arg("y", Int)),
		"sqrt":     fn("sqrt", Int, arg("x", Int)),
	},
	"String": {
		"new":           ctor("new", arg("maxLength", Int)),
		"dispose":       method("dispose", Void),
		"length":        method("length", Int),
		"charAt":        method("charAt", Char, arg("j", Int)),
		"setCharAt":     method("setCharAt", Void, arg("j", Int), arg("c", Char)),
		"appendChar":    method("appendChar", Object, arg("c", Char)),
		"eraseLastChar": method("eraseLastChar", Void),
		"intValue":      method("intValue", Int),
		"setInt":        method("setInt", Void, arg("n", Int)),
		"newLine":       fn("newLine", Char),
		"backSpace":     fn("backSpace", Char),
		"doubleQuote":   fn("doubleQuote", Char),
	},
	"Array": {
		"new":    fn("new", Object, arg("size", Int)),
		"dispose": method("dispose", Void),
	},
	"Output": {
		"moveCursor":  fn("moveCursor", Void, arg("i", Int), arg("j", Int)),
		"printChar":   fn("printChar", Void, arg("c", Char)),
		"printString": fn("printString", Void, objArg("s", "String")),
		"printInt":    fn("printInt", Void, arg("i", Int)),
		"println":     fn("println", Void),
		"backSpace":   fn("backSpace", Void),
	},
	"Screen": {
		"clearScreen": fn("clearScreen", Void),
		"setColor":    fn("setColor", Void, arg("b", Bool)),
		"drawPixel":   fn("drawPixel", Void, arg("x", Int), arg("y", Int)),
		"drawLine":    fn("drawLine", Void, arg("x1", Int), arg("y1", Int), arg("x2", Int), arg("y2", Int)),
		"drawRectangle": fn("drawRectangle", Void,
			arg("x1", Int), arg("y1", Int), arg("x2", Int), arg("y2", Int)),
		"drawCircle": fn("drawCircle", Void, arg("x", Int), arg("y", Int), arg("r", Int)),
	},
	"Keyboard": {
		"keyPressed":     fn("keyPressed", Char),
		"readChar":       fn("readChar", Char),
		"readLine":       fn("readLine", Object, objArg("message", "String")),
		"readInt":        fn("readInt", Int, objArg("message", "String")),
	},
	"Memory": {
		"peek":  fn("peek", Int, arg("address", Int)),
		"poke":  fn("poke", Void, arg("address", Int), arg("value", Int)),
		"alloc": fn("alloc", Object, arg("size", Int)),
		"deAlloc": fn("deAlloc", Void, objArg("object", "Array")),
	},
	"Sys": {
		"halt":    fn("halt", Void),
		"error":   fn("error", Void, arg("errorCode", Int)),
		"wait":    fn("wait", Void, arg("duration", Int)),
		"init":    fn("init", Void),
	},
}

// Small helpers to keep the table above readable: they're not meant to be reused outside of it.

func arg(name string, dt DataType) Variable {
	return Variable{Name: name, Type: Parameter, DataType: dt}
}

// objArg declares a parameter of object type, tracking the concrete class it refers to.
func objArg(name, className string) Variable {
	return Variable{Name: name, Type: Parameter, DataType: Object, ClassName: className}
}

func fn(name string, ret DataType, args ...Variable) Subroutine {
	return Subroutine{Name: name, Type: Function, Return: ret, Arguments: args}
}

func method(name string, ret DataType, args ...Variable) Subroutine {
	return Subroutine{Name: name, Type: Method, Return: ret, Arguments: args}
}

func ctor(name string, args ...Variable) Subroutine {
	return Subroutine{Name: name, Type: Constructor, Return: Object, Arguments: args}
}
