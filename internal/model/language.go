package model

import (
	"fmt"
	"strings"
)

type Language int

const (
	LanguageC Language = iota
	LanguageCPlusPlus
	LanguageCSharp
)

func (l Language) String() string {
	switch l {
	case LanguageC:
		return "C"
	case LanguageCPlusPlus:
		return "C++"
	case LanguageCSharp:
		return "C#"
	}
	return fmt.Sprintf("Language(%d)", int(l))
}

// Native reports whether the language is compiled by the C/C++ toolchain.
func (l Language) Native() bool { return l == LanguageC || l == LanguageCPlusPlus }

func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c":
		return LanguageC, nil
	case "", "c++", "cpp", "cxx", "cplusplus":
		return LanguageCPlusPlus, nil
	case "c#", "cs", "csharp":
		return LanguageCSharp, nil
	}
	return 0, fmt.Errorf("unknown language %q", s)
}

// CStandard is the C dialect of a native project.
type CStandard int

const (
	CStandardDefault CStandard = iota
	C11
	C17
	CLatest
)

// MSBuild returns the LanguageStandard_C value.
func (s CStandard) MSBuild() string {
	switch s {
	case C11:
		return "stdc11"
	case C17:
		return "stdc17"
	case CLatest:
		return "stdclatest"
	}
	return "Default"
}

// Flag returns the gcc/clang -std flag, or "" for the compiler default.
func (s CStandard) Flag() string {
	switch s {
	case C11:
		return "-std=c11"
	case C17:
		return "-std=c17"
	case CLatest:
		return "-std=c2x"
	}
	return ""
}

func ParseCStandard(s string) (CStandard, error) {
	switch trimStandard(s, "c") {
	case "", "default", "none":
		return CStandardDefault, nil
	case "11":
		return C11, nil
	case "17":
		return C17, nil
	case "latest":
		return CLatest, nil
	}
	return 0, fmt.Errorf("unknown C standard %q", s)
}

// CppStandard is the C++ dialect of a native project. Values are ordered by revision.
type CppStandard int

const (
	CppStandardDefault CppStandard = iota
	Cpp11
	Cpp14
	Cpp17
	Cpp20
	Cpp23
	CppLatest
)

// ModulesMinimum is the first standard with module support.
const ModulesMinimum = Cpp20

func (s CppStandard) MSBuild() string {
	switch s {
	case Cpp11:
		return "stdcpp11"
	case Cpp14:
		return "stdcpp14"
	case Cpp17:
		return "stdcpp17"
	case Cpp20:
		return "stdcpp20"
	case Cpp23:
		return "stdcpp23"
	case CppLatest:
		return "stdcpplatest"
	}
	return "Default"
}

func (s CppStandard) Flag() string {
	switch s {
	case Cpp11:
		return "-std=c++11"
	case Cpp14:
		return "-std=c++14"
	case Cpp17:
		return "-std=c++17"
	case Cpp20:
		return "-std=c++20"
	case Cpp23, CppLatest:
		return "-std=c++2b"
	}
	return ""
}

func ParseCppStandard(s string) (CppStandard, error) {
	switch trimStandard(s, "c++", "cpp") {
	case "", "default", "none":
		return CppStandardDefault, nil
	case "11":
		return Cpp11, nil
	case "14":
		return Cpp14, nil
	case "17":
		return Cpp17, nil
	case "20":
		return Cpp20, nil
	case "23":
		return Cpp23, nil
	case "latest":
		return CppLatest, nil
	}
	return 0, fmt.Errorf("unknown C++ standard %q", s)
}

type CSharpVersion int

const (
	CSharpDefault CSharpVersion = iota
	CSharp8
	CSharp9
	CSharp10
	CSharp11
	CSharpLatest
)

// LangVersion returns the csproj LangVersion value, or "" for the SDK default.
func (v CSharpVersion) LangVersion() string {
	switch v {
	case CSharp8:
		return "8.0"
	case CSharp9:
		return "9.0"
	case CSharp10:
		return "10.0"
	case CSharp11:
		return "11.0"
	case CSharpLatest:
		return "latest"
	}
	return ""
}

func ParseCSharpVersion(s string) (CSharpVersion, error) {
	switch trimStandard(s, "c#", "csharp") {
	case "", "default", "none":
		return CSharpDefault, nil
	case "8":
		return CSharp8, nil
	case "9":
		return CSharp9, nil
	case "10":
		return CSharp10, nil
	case "11":
		return CSharp11, nil
	case "latest":
		return CSharpLatest, nil
	}
	return 0, fmt.Errorf("unknown C# version %q", s)
}

type DotNetSDK int

const (
	DotNet8 DotNetSDK = iota
	DotNet7
	DotNet6
	DotNet5
	DotNetFramework
)

// TargetFramework returns the csproj TargetFramework moniker.
func (s DotNetSDK) TargetFramework() string {
	switch s {
	case DotNet7:
		return "net7.0"
	case DotNet6:
		return "net6.0"
	case DotNet5:
		return "net5.0"
	case DotNetFramework:
		return "net481"
	}
	return "net8.0"
}

func ParseDotNetSDK(s string) (DotNetSDK, error) {
	switch trimStandard(s, "dotnet", "net") {
	case "", "8", "8.0":
		return DotNet8, nil
	case "7", "7.0":
		return DotNet7, nil
	case "6", "6.0":
		return DotNet6, nil
	case "5", "5.0":
		return DotNet5, nil
	case "framework", "481", "4.8.1":
		return DotNetFramework, nil
	}
	return 0, fmt.Errorf("unknown .NET SDK %q", s)
}

// trimStandard lower-cases s and strips the first matching language prefix, so
// "C++20", "cpp20" and "20" all yield "20".
func trimStandard(s string, prefixes ...string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(s, p); ok {
			return strings.TrimLeft(rest, " -_")
		}
	}
	return s
}
