package domain

import (
	"fmt"
	"strings"

	m "github.com/mouse-blink/weave/internal/model"
)

const (
	classTag    = "$C"
	functionTag = "$F"
)

// ParseAddress parses "<file>[/$C<class>][$F<function>]" into a TargetAddress.
// Supports: "index.php", "index.php/$Findex", "lib/a.php/$CUser$Fsave", "a.php/$CUser".
func ParseAddress(address string) (m.TargetAddress, error) {
	if strings.TrimSpace(address) == "" {
		return m.TargetAddress{}, fmt.Errorf("empty target address")
	}

	file, selector := address, ""
	if idx := strings.Index(address, "/$"); idx >= 0 {
		file, selector = address[:idx], address[idx+1:]
	}

	if strings.HasPrefix(file, "$") || strings.Trim(file, "/. ") == "" {
		return m.TargetAddress{}, fmt.Errorf("invalid target %q: missing file path", address)
	}

	target := m.TargetAddress{File: m.SourcePath(file)}

	for selector != "" {
		if len(selector) < 2 {
			return m.TargetAddress{}, fmt.Errorf("invalid target %q: dangling %q", address, selector)
		}

		tag := selector[:2]
		rest := selector[2:]

		next := strings.Index(rest, "$")
		if next < 0 {
			next = len(rest)
		}

		name := rest[:next]
		selector = rest[next:]

		if !isValidName(name) {
			return m.TargetAddress{}, fmt.Errorf("invalid target %q: invalid name %q after %s", address, name, tag)
		}

		switch tag {
		case classTag:
			if target.Class != "" || target.Function != "" {
				return m.TargetAddress{}, fmt.Errorf("invalid target %q: class segment must come first and only once", address)
			}

			target.Class = name
		case functionTag:
			if target.Function != "" {
				return m.TargetAddress{}, fmt.Errorf("invalid target %q: more than one function segment", address)
			}

			target.Function = name
		default:
			return m.TargetAddress{}, fmt.Errorf("invalid target %q: unknown segment %q", address, tag)
		}
	}

	return target, nil
}

// isValidName accepts identifier characters, including PHP's non-ASCII bytes.
func isValidName(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= 0x80:
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}

// Resolve returns the statement sequence an address selects: a function or
// method body, a class member list, or a file's top-level statements.
func Resolve(tree *m.TargetTree, target m.TargetAddress) (*m.Sequence, error) {
	notFound := func(missing string) error {
		return &TargetNotFoundError{Address: target, Missing: missing}
	}

	if tree == nil {
		return nil, notFound("file")
	}

	file, ok := tree.File(target.File)
	if !ok {
		return nil, notFound("file")
	}

	if target.Class == "" {
		if target.Function == "" {
			return file.Body, nil
		}

		fn, ok := file.Function(target.Function)
		if !ok {
			return nil, notFound("function")
		}

		return fn.Body, nil
	}

	class, ok := file.Class(target.Class)
	if !ok {
		return nil, notFound("class")
	}

	if target.Function == "" {
		return class.Body, nil
	}

	method, ok := class.Method(target.Function)
	if !ok {
		return nil, notFound("function")
	}

	return method.Body, nil
}
