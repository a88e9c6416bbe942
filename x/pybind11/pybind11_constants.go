package pybind11

// 运行时头文件
const (
	HeaderCore       = "pybind11/pybind11.h"
	HeaderSTL        = "pybind11/stl.h"
	HeaderFunctional = "pybind11/functional.h"
	HeaderComplex    = "pybind11/complex.h"
)

// 返回值策略
const (
	PolicyReference         = "pybind11::return_value_policy::reference"
	PolicyReferenceInternal = "pybind11::return_value_policy::reference_internal"
)

// holder 模板
const (
	HolderShared   = "std::shared_ptr"
	HolderUnique   = "std::unique_ptr"
	NoDeleteHolder = "pybind11::nodelete"
)

const (
	// BindPrefix 注册函数名前缀
	BindPrefix = "bind_"
	// TrampolinePrefix trampoline 类名前缀
	TrampolinePrefix = "PyCallBack_"
	// ModuleGetter 生成代码中模块查找函数的类型名
	ModuleGetter = "ModuleGetter"
)

// pythonKeywords 作为 Python 标识符时需要改名
var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "print": true,
	"raise": true, "return": true, "try": true, "while": true, "with": true,
	"yield": true,
}
