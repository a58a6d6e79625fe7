//go:build darwin || linux

package mpv

import (
	"reflect"
	"testing"
	"unsafe"
)

func TestDecodeScalars(t *testing.T) {
	a := installTracker(t)

	cases := []struct {
		name string
		node func() mpvNode
		want Node
	}{
		{"string", func() mpvNode { return stringNode(a, FormatString, "hello") }, String("hello")},
		{"osd string", func() mpvNode { return stringNode(a, FormatOsdString, "00:01:02") }, OsdString("00:01:02")},
		{"flag true", func() mpvNode { return flagNode(1) }, Flag(true)},
		{"flag false", func() mpvNode { return flagNode(0) }, Flag(false)},
		{"flag nonzero", func() mpvNode { return flagNode(2) }, Flag(true)},
		{"int64", func() mpvNode { return int64Node(-7) }, Int64(-7)},
		{"double", func() mpvNode { return float64Node(1.5) }, Float64(1.5)},
		{"byte array", func() mpvNode { return byteArrayNode(a, []byte{0, 1, 0xff}) }, ByteArray{0, 1, 0xff}},
	}
	for _, tc := range cases {
		n := tc.node()
		got, ok := decodeNode(&n).Get()
		if !ok {
			t.Errorf("%s: decodeNode absent, want %#v", tc.name, tc.want)
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: decodeNode = %#v, want %#v", tc.name, got, tc.want)
		}
	}
	a.checkBalanced(t)
}

func TestDecodeInvalidString(t *testing.T) {
	a := installTracker(t)

	n := stringNode(a, FormatString, "\xff\xfe")
	if v := decodeNode(&n); v.IsPresent() {
		t.Errorf("decodeNode(invalid utf-8) = %#v, want absent", v.MustGet())
	}
	// The allocation is still released exactly once.
	a.checkBalanced(t)
}

func TestDecodeNilPointers(t *testing.T) {
	a := installTracker(t)

	for _, format := range []Format{FormatString, FormatByteArray, FormatNodeArray, FormatNodeMap} {
		n := mpvNode{format: int32(format)}
		if v := decodeNode(&n); v.IsPresent() {
			t.Errorf("decodeNode(format %d, nil ptr) = %#v, want absent", format, v.MustGet())
		}
	}
	a.checkBalanced(t)
}

func TestDecodeUnknownFormat(t *testing.T) {
	a := installTracker(t)

	n := mpvNode{format: 99}
	if decodeNode(&n).IsPresent() {
		t.Error("decodeNode(unknown format) present, want absent")
	}
	n = mpvNode{format: int32(FormatNone)}
	if decodeNode(&n).IsPresent() {
		t.Error("decodeNode(FORMAT_NONE) present, want absent")
	}
	a.checkBalanced(t)
}

func TestDecodeArraySkipsBadElements(t *testing.T) {
	a := installTracker(t)

	bad := stringNode(a, FormatString, "\xff")
	unknown := mpvNode{format: 42}
	n := listNode(a, FormatNodeArray, []mpvNode{int64Node(1), bad, unknown, stringNode(a, FormatString, "ok")}, nil)

	got, ok := decodeNode(&n).Get()
	if !ok {
		t.Fatal("decodeNode(array) absent")
	}
	want := Array{Int64(1), String("ok")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decodeNode(array) = %#v, want %#v", got, want)
	}
	a.checkBalanced(t)
}

func TestDecodeMapSkipsBadPairs(t *testing.T) {
	a := installTracker(t)

	n := listNode(a, FormatNodeMap,
		[]mpvNode{int64Node(1), mpvNode{format: 42}, int64Node(3)},
		[]string{"a", "broken-value", "\xffkey"})

	got, ok := decodeNode(&n).Get()
	if !ok {
		t.Fatal("decodeNode(map) absent")
	}
	want := Map{"a": Int64(1)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decodeNode(map) = %#v, want %#v", got, want)
	}
	// Keys and values of dropped pairs were still consumed.
	a.checkBalanced(t)
}

func TestDecodeMapAsymmetricArrays(t *testing.T) {
	a := installTracker(t)

	// Values with no key array: the children are still consumed.
	n := listNode(a, FormatNodeMap, []mpvNode{stringNode(a, FormatString, "orphan"), int64Node(2)}, nil)
	got, ok := decodeNode(&n).Get()
	if !ok {
		t.Fatal("decodeNode(map without keys) absent")
	}
	if m := got.(Map); len(m) != 0 {
		t.Errorf("decodeNode(map without keys) = %#v, want empty", m)
	}

	// Keys with no value array: the key strings are still consumed.
	list := mpvNodeList{num: 2}
	list.keys = a.malloc(2 * pointerSize)
	slots := unsafe.Slice((*uintptr)(unsafe.Pointer(list.keys)), 2)
	slots[0] = a.cstring("a")
	slots[1] = a.cstring("b")
	n = mpvNode{format: int32(FormatNodeMap)}
	n.setPtr(put(a, list))
	got, ok = decodeNode(&n).Get()
	if !ok {
		t.Fatal("decodeNode(map without values) absent")
	}
	if m := got.(Map); len(m) != 0 {
		t.Errorf("decodeNode(map without values) = %#v, want empty", m)
	}
	a.checkBalanced(t)
}

func TestEncodeStringWithNUL(t *testing.T) {
	a := installTracker(t)

	if _, ok := encodeNode(String("a\x00b")); ok {
		t.Error("encodeNode(string with NUL) succeeded, want failure")
	}
	a.checkBalanced(t)
}

func TestEncodeCollectionsDropBadChildren(t *testing.T) {
	a := installTracker(t)

	arr, ok := encodeNode(Array{String("ok"), String("a\x00b"), Int64(5)})
	if !ok {
		t.Fatal("encodeNode(array) failed")
	}
	list := (*mpvNodeList)(unsafe.Pointer(arr.ptr()))
	if list.num != 2 {
		t.Errorf("array num = %d, want 2", list.num)
	}
	freeOwnNode(&arr)

	m, ok := encodeNode(Map{"good": Int64(1), "bad\x00key": Int64(2), "dropped": String("x\x00y")})
	if !ok {
		t.Fatal("encodeNode(map) failed")
	}
	list = (*mpvNodeList)(unsafe.Pointer(m.ptr()))
	if list.num != 1 {
		t.Errorf("map num = %d, want 1", list.num)
	}
	key := *(*uintptr)(unsafe.Pointer(list.keys))
	if got := goStringConst(key); got != "good" {
		t.Errorf("surviving key = %q, want %q", got, "good")
	}
	freeOwnNode(&m)

	a.checkBalanced(t)
}

func TestEncodeMapLayout(t *testing.T) {
	a := installTracker(t)

	enc, ok := encodeNode(Map{"a": Int64(1), "b": Flag(true)})
	if !ok {
		t.Fatal("encodeNode(map) failed")
	}
	if Format(enc.format) != FormatNodeMap {
		t.Fatalf("format = %d, want %d", enc.format, FormatNodeMap)
	}
	list := (*mpvNodeList)(unsafe.Pointer(enc.ptr()))
	if list.num != 2 {
		t.Fatalf("num = %d, want 2", list.num)
	}
	byKey := map[string]Format{}
	for i := 0; i < int(list.num); i++ {
		key := goStringConst(*(*uintptr)(unsafe.Pointer(list.keys + uintptr(i)*pointerSize)))
		child := (*mpvNode)(unsafe.Pointer(list.values + uintptr(i)*nodeSize))
		byKey[key] = Format(child.format)
	}
	if byKey["a"] != FormatInt64 || byKey["b"] != FormatFlag {
		t.Errorf("encoded entries = %v, want a:int64 b:flag", byKey)
	}
	freeOwnNode(&enc)
	a.checkBalanced(t)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	a := installTracker(t)

	orig := Map{
		"title":  String("night"),
		"osd":    OsdString("Night"),
		"count":  Int64(3),
		"rate":   Float64(1.5),
		"paused": Flag(true),
		"tags":   Array{String("a"), Int64(2), Flag(false)},
		"blob":   ByteArray{0x78, 0x79, 0x7a},
		"empty":  ByteArray{},
		"nested": Map{"x": Array{}},
	}
	enc, ok := encodeNode(orig)
	if !ok {
		t.Fatal("encodeNode failed")
	}
	got, ok := decodeNode(&enc).Get()
	if !ok {
		t.Fatal("decodeNode absent")
	}
	if !reflect.DeepEqual(got, Node(orig)) {
		t.Errorf("round trip = %#v, want %#v", got, orig)
	}
	// decode consumed the whole encoded tree.
	a.checkBalanced(t)
}

func TestEncodeUnknownVariantPanics(t *testing.T) {
	installTracker(t)
	mustPanic(t, "encodeNode(foreign variant)", func() {
		encodeNode(badNode{})
	})
}

type badNode struct{}

func (badNode) isNode() {}
