package resource

import (
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// MatchFunc reports whether a file basename is selected.
type MatchFunc func(name string) (bool, error)

// Engine compiles a pattern into a MatchFunc. Matching uses search semantics:
// a match anywhere in the name selects it.
type Engine func(pattern string) (MatchFunc, error)

// Engine names accepted by EngineByName.
const (
	EngineRE2  = "re2"
	EnginePCRE = "pcre"
)

// PCREMatchTimeout bounds a single PCRE match against one file name.
var PCREMatchTimeout = time.Second

// EngineByName resolves a configured engine name. An empty name selects RE2.
func EngineByName(name string) (Engine, error) {
	switch strings.ToLower(name) {
	case "", EngineRE2:
		return RE2, nil
	case EnginePCRE:
		return PCRE, nil
	default:
		return nil, invalidArgument("engine", name, "unknown pattern engine %q", name)
	}
}

// RE2 compiles pattern with the standard library regexp package.
func RE2(pattern string) (MatchFunc, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Op: "compile", Path: pattern, Err: err}
	}
	return func(name string) (bool, error) {
		return re.MatchString(name), nil
	}, nil
}

// PCRE compiles pattern with regexp2, which supports backreferences and
// lookaround. Delimited patterns such as "/\.css$/i" are unwrapped and their
// trailing flags applied.
func PCRE(pattern string) (MatchFunc, error) {
	expr, opts, err := splitDelimited(pattern)
	if err != nil {
		return nil, err
	}
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Op: "compile", Path: pattern, Err: err}
	}
	re.MatchTimeout = PCREMatchTimeout
	return func(name string) (bool, error) {
		ok, err := re.MatchString(name)
		if err != nil {
			return false, &Error{Kind: KindInvalidArgument, Op: "match", Path: name, Err: err}
		}
		return ok, nil
	}, nil
}

// splitDelimited unwraps "/expr/flags". Patterns that do not start with a
// delimiter are returned unchanged.
func splitDelimited(pattern string) (string, regexp2.RegexOptions, error) {
	if len(pattern) < 2 || !isDelimiter(pattern[0]) {
		return pattern, regexp2.None, nil
	}
	delim := pattern[0]
	end := strings.LastIndexByte(pattern[1:], delim)
	if end < 0 {
		return "", regexp2.None, invalidArgument("compile", pattern, "no ending delimiter %q", delim)
	}
	end++

	opts := regexp2.None
	for _, f := range pattern[end+1:] {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		case 'u':
		default:
			return "", regexp2.None, invalidArgument("compile", pattern, "unknown modifier %q", f)
		}
	}
	return pattern[1:end], opts, nil
}

// Bracket-style delimiters are not recognised; "(a|b)" stays a plain pattern.
func isDelimiter(c byte) bool {
	return strings.IndexByte("/#~!@%,;:", c) >= 0
}
