package pybind11

// --- C++ 运算符 -> Python 特殊方法 ---

// binaryOperators 有一个参数的成员运算符 (或两个参数的自由运算符)
var binaryOperators = map[string]string{
	"+":   "__add__",
	"-":   "__sub__",
	"*":   "__mul__",
	"/":   "__truediv__",
	"%":   "__mod__",
	"&":   "__and__",
	"|":   "__or__",
	"^":   "__xor__",
	"<<":  "__lshift__",
	">>":  "__rshift__",
	"+=":  "__iadd__",
	"-=":  "__isub__",
	"*=":  "__imul__",
	"/=":  "__itruediv__",
	"%=":  "__imod__",
	"&=":  "__iand__",
	"|=":  "__ior__",
	"^=":  "__ixor__",
	"<<=": "__ilshift__",
	">>=": "__irshift__",
	"==":  "__eq__",
	"!=":  "__ne__",
	"<":   "__lt__",
	"<=":  "__le__",
	">":   "__gt__",
	">=":  "__ge__",
	"[]":  "__getitem__",
	"=":   "assign",
}

// unaryOperators 没有参数的成员运算符 (或一个参数的自由运算符)
var unaryOperators = map[string]string{
	"-":  "__neg__",
	"+":  "__pos__",
	"~":  "__invert__",
	"!":  "__not__",
	"*":  "dereference",
	"++": "pre_increment",
	"--": "pre_decrement",
}

// postfixOperators 带 int 哑元参数的后缀自增/自减
var postfixOperators = map[string]string{
	"++": "post_increment",
	"--": "post_decrement",
}

// OperatorName 运算符在 Python 侧的名称。arity 为除 this 以外的参数个数 (自由运算符已减去首个参数)。
// 无法映射时返回 false ("&&", "||", ",", "->", new/delete 以及 bool 之外的转换运算符)。
func OperatorName(op string, arity int) (string, bool) {
	switch op {
	case "()":
		return "__call__", true
	case "bool":
		return "__bool__", arity == 0
	}

	var table map[string]string
	switch arity {
	case 0:
		table = unaryOperators
	case 1:
		if name, ok := postfixOperators[op]; ok {
			return name, true
		}
		table = binaryOperators
	default:
		return "", false
	}
	name, ok := table[op]
	return name, ok
}
