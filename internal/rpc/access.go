package rpc

import "strings"

// Access selects which accessors BindVar synthesizes for a variable.
type Access uint8

const (
	AccessNone      Access = 0
	AccessRead      Access = 1 << 0
	AccessWrite     Access = 1 << 1
	AccessReadWrite        = AccessRead | AccessWrite
)

// Has reports whether every bit of b is set in a.
func (a Access) Has(b Access) bool {
	return a&b == b
}

func (a Access) String() string {
	if a == AccessNone {
		return "none"
	}
	var parts []string
	if a.Has(AccessRead) {
		parts = append(parts, "read")
	}
	if a.Has(AccessWrite) {
		parts = append(parts, "write")
	}
	if rest := a &^ AccessReadWrite; rest != 0 {
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, "|")
}

// GetterHandle and SetterHandle name the accessors synthesized for a variable.
func GetterHandle(name string) string { return "get_" + name }
func SetterHandle(name string) string { return "set_" + name }
