package pybind11

// --- pybind11 内置 caster 表 ---

// FundamentalTable 可直接转换的基础类型
var FundamentalTable = map[string]bool{
	"bool": true,

	"char": true, "signed char": true, "unsigned char": true,
	"wchar_t": true, "char8_t": true, "char16_t": true, "char32_t": true,

	"short": true, "unsigned short": true,
	"int": true, "unsigned int": true,
	"long": true, "unsigned long": true,
	"long long": true, "unsigned long long": true,

	"std::int8_t": true, "std::uint8_t": true,
	"std::int16_t": true, "std::uint16_t": true,
	"std::int32_t": true, "std::uint32_t": true,
	"std::int64_t": true, "std::uint64_t": true,
	"std::size_t": true, "std::ptrdiff_t": true,
	"size_t": true, "ptrdiff_t": true,

	"float": true, "double": true, "long double": true,

	"void": true,
}

// charTypes const char * 一类的指针按字符串转换
var charTypes = map[string]bool{
	"char": true, "wchar_t": true, "char16_t": true, "char32_t": true,
}

// StringTable 按值即可转换的字符串类 (pybind11.h 自带)
var StringTable = map[string]bool{
	"std::string":      true,
	"std::wstring":     true,
	"std::u16string":   true,
	"std::u32string":   true,
	"std::string_view": true,
}

// ContainerKind stl caster 表中的模板
type ContainerKind int

const (
	Sequence   ContainerKind = iota // 元素实参
	Mapping                         // 键/值实参
	Product                         // 全部实参 (pair / tuple)
	Optional                        // 单个实参
	FixedArray                      // 元素实参 + 长度
	Complex                         // std::complex<T>
	Callable                        // std::function<Sig>
	SharedOwner                     // std::shared_ptr<T>
	UniqueOwner                     // std::unique_ptr<T>
	String                          // std::basic_string<CharT>
)

// TemplateTable 已知模板 -> (种类, 需要的头文件)
var TemplateTable = map[string]struct {
	Kind   ContainerKind
	Header string
}{
	"std::vector":            {Sequence, HeaderSTL},
	"std::deque":             {Sequence, HeaderSTL},
	"std::list":              {Sequence, HeaderSTL},
	"std::valarray":          {Sequence, HeaderSTL},
	"std::set":               {Sequence, HeaderSTL},
	"std::unordered_set":     {Sequence, HeaderSTL},
	"std::map":               {Mapping, HeaderSTL},
	"std::unordered_map":     {Mapping, HeaderSTL},
	"std::pair":              {Product, HeaderSTL},
	"std::tuple":             {Product, HeaderSTL},
	"std::optional":          {Optional, HeaderSTL},
	"std::variant":           {Product, HeaderSTL},
	"std::array":             {FixedArray, HeaderSTL},
	"std::complex":           {Complex, HeaderComplex},
	"std::function":          {Callable, HeaderFunctional},
	"std::shared_ptr":        {SharedOwner, ""},
	"std::unique_ptr":        {UniqueOwner, ""},
	"std::basic_string":      {String, ""},
	"std::basic_string_view": {String, ""},
}
