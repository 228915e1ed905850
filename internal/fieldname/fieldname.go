// Package fieldname derives the two injected S-Box field names from a
// class's this-class name, per spec.md §3.4. The hash function is pinned
// bit-exact to the host virtual machine's canonical string hash so that a
// class concealed by one implementation of this algorithm can be
// extracted by another (spec.md §9's cross-compatibility contract).
package fieldname

// HostHash reproduces the JVM's String.hashCode: a polynomial hash with
// multiplier 31 and seed 0, folded over the string's UTF-16 code units.
//
// s is expected to hold a class's binary name (the bytes of its
// constant-pool Utf8 entry). Names restricted to ASCII/Latin-1
// identifiers — the common case for JVM class names — map one rune to
// one UTF-16 code unit, so ranging over s as Go runes reproduces the
// JVM's per-code-unit fold exactly. Class names containing supplementary
// plane characters are out of scope.
func HostHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	return h
}

// TableFieldName returns the injected S-Box table field's name:
// "_T<d>" if HostHash(name) is even, else "_S<d>", where d = |hash| mod 10.
func TableFieldName(thisClassName string) string {
	h := HostHash(thisClassName)
	d := absMod(h, 10)
	if h%2 == 0 {
		return "_T" + digit(d)
	}
	return "_S" + digit(d)
}

// ChecksumFieldName returns the injected checksum field's name: "_<c>k",
// where c = 'a' + (|hash| mod 26).
func ChecksumFieldName(thisClassName string) string {
	h := HostHash(thisClassName)
	c := byte('a' + absMod(h, 26))
	return "_" + string(c) + "k"
}

func absMod(h int32, m int32) int32 {
	v := h % m
	if v < 0 {
		v = -v
	}
	return v
}

func digit(d int32) string {
	return string(rune('0' + d))
}
