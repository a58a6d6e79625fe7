//go:build darwin || linux

package mpv

import (
	"unsafe"

	"github.com/samber/mo"
)

// Node is this package's owned representation of the engine's dynamically
// typed value format (mpv_node). It is a closed sum: the variants below are
// the only implementations. Raw pointers never escape through a Node; the
// conversions in this file are the entire boundary.
type Node interface {
	isNode()
}

// String is a raw property string, like ${=property} in input.conf.
//
// Warning: the encoding is usually UTF-8, but not always. File tags often
// store strings in some legacy codepage, and filenames don't have to be
// UTF-8 either (at least on Linux). Strings that fail UTF-8 validation are
// dropped during decode.
type String string

// OsdString is the OSD property string, like ${property} in input.conf:
// formatted for display and intended to be human readable. Only valid when
// doing read access; do not attempt to parse these strings.
type OsdString string

// Flag is a boolean node. The wire format carries 0 or 1; any nonzero value
// reads as true.
type Flag bool

// Int64 is a 64-bit integer node.
type Int64 int64

// Float64 is a double node.
type Float64 float64

// Array is an ordered sequence of nodes.
type Array []Node

// ByteArray is a raw byte buffer node.
type ByteArray []byte

// Map is a string-keyed node mapping. Key order is not preserved across the
// boundary.
type Map map[string]Node

func (String) isNode()    {}
func (OsdString) isNode() {}
func (Flag) isNode()      {}
func (Int64) isNode()     {}
func (Float64) isNode()   {}
func (Array) isNode()     {}
func (ByteArray) isNode() {}
func (Map) isNode()       {}

// decodeNode converts a foreign mpv_node into an owned Node, consuming every
// allocation it traverses exactly once: leaf strings and byte buffers, the
// byte-array header, value arrays, key arrays, and list headers. This holds
// on failure paths too, so a malformed tree never leaks. Callers must not
// free a decoded tree again.
//
// Elements of an array or map that fail to decode are skipped silently, so
// the owned collection may be smaller than the foreign count. Unrecognized
// format tags yield None.
func decodeNode(n *mpvNode) mo.Option[Node] {
	switch Format(n.format) {
	case FormatString:
		s, ok := takeString(n.ptr())
		if !ok {
			return mo.None[Node]()
		}
		return mo.Some[Node](String(s))

	case FormatOsdString:
		s, ok := takeString(n.ptr())
		if !ok {
			return mo.None[Node]()
		}
		return mo.Some[Node](OsdString(s))

	case FormatFlag:
		return mo.Some[Node](Flag(n.flag() != 0))

	case FormatInt64:
		return mo.Some[Node](Int64(n.int64v()))

	case FormatDouble:
		return mo.Some[Node](Float64(n.float64v()))

	case FormatByteArray:
		return decodeByteArray(n.ptr())

	case FormatNodeArray:
		return decodeArray(n.ptr())

	case FormatNodeMap:
		return decodeMap(n.ptr())
	}
	return mo.None[Node]()
}

func decodeByteArray(hdrPtr uintptr) mo.Option[Node] {
	if hdrPtr == 0 {
		return mo.None[Node]()
	}
	hdr := (*mpvByteArray)(unsafe.Pointer(hdrPtr))
	buf := []byte{}
	if hdr.data != 0 {
		if hdr.size > 0 {
			buf = make([]byte, hdr.size)
			copy(buf, unsafe.Slice((*byte)(unsafe.Pointer(hdr.data)), hdr.size))
		}
		cFree(hdr.data)
	}
	cFree(hdrPtr)
	return mo.Some[Node](ByteArray(buf))
}

func decodeArray(listPtr uintptr) mo.Option[Node] {
	if listPtr == 0 {
		return mo.None[Node]()
	}
	list := (*mpvNodeList)(unsafe.Pointer(listPtr))
	arr := Array{}
	if list.values != 0 {
		for i := 0; i < int(list.num); i++ {
			child := (*mpvNode)(unsafe.Pointer(list.values + uintptr(i)*nodeSize))
			if v, ok := decodeNode(child).Get(); ok {
				arr = append(arr, v)
			}
		}
		cFree(list.values)
	}
	cFree(listPtr)
	return mo.Some[Node](arr)
}

func decodeMap(listPtr uintptr) mo.Option[Node] {
	if listPtr == 0 {
		return mo.None[Node]()
	}
	list := (*mpvNodeList)(unsafe.Pointer(listPtr))
	m := Map{}
	for i := 0; i < int(list.num); i++ {
		// Each half of the pair is consumed even when the other half is
		// missing or failed, so every allocation is released exactly once.
		v := mo.None[Node]()
		if list.values != 0 {
			child := (*mpvNode)(unsafe.Pointer(list.values + uintptr(i)*nodeSize))
			v = decodeNode(child)
		}
		var key string
		kok := false
		if list.keys != 0 {
			keyPtr := *(*uintptr)(unsafe.Pointer(list.keys + uintptr(i)*pointerSize))
			key, kok = takeString(keyPtr)
		}
		if v.IsAbsent() || !kok {
			continue
		}
		m[key] = v.MustGet()
	}
	if list.values != 0 {
		cFree(list.values)
	}
	if list.keys != 0 {
		cFree(list.keys)
	}
	cFree(listPtr)
	return mo.Some[Node](m)
}

// encodeNode converts an owned Node into the foreign representation. All
// memory is taken from the C allocator; ownership of the result transfers to
// the caller, who must eventually release it with freeOwnNode (never with the
// engine's node-contents free, which is reserved for engine-built trees).
//
// A top-level string containing an embedded NUL fails the conversion. Inside
// an array or map, a child that fails to encode is dropped from the
// collection instead; collection encoding itself cannot fail once started.
func encodeNode(n Node) (mpvNode, bool) {
	var out mpvNode
	switch v := n.(type) {
	case String:
		p, ok := cString(string(v))
		if !ok {
			return out, false
		}
		out.format = int32(FormatString)
		out.setPtr(p)

	case OsdString:
		p, ok := cString(string(v))
		if !ok {
			return out, false
		}
		out.format = int32(FormatOsdString)
		out.setPtr(p)

	case Flag:
		out.format = int32(FormatFlag)
		if v {
			out.setFlag(1)
		}

	case Int64:
		out.format = int32(FormatInt64)
		out.setInt64(int64(v))

	case Float64:
		out.format = int32(FormatDouble)
		out.setFloat64(float64(v))

	case Array:
		children := make([]mpvNode, 0, len(v))
		for _, c := range v {
			if enc, ok := encodeNode(c); ok {
				children = append(children, enc)
			}
		}
		out.format = int32(FormatNodeArray)
		out.setPtr(newCNodeList(children, nil))

	case ByteArray:
		hdr := (*mpvByteArray)(unsafe.Pointer(cMalloc(baSize)))
		hdr.data = 0
		hdr.size = uintptr(len(v))
		if len(v) > 0 {
			hdr.data = cMalloc(uintptr(len(v)))
			copy(unsafe.Slice((*byte)(unsafe.Pointer(hdr.data)), len(v)), v)
		}
		out.format = int32(FormatByteArray)
		out.setPtr(uintptr(unsafe.Pointer(hdr)))

	case Map:
		children := make([]mpvNode, 0, len(v))
		keys := make([]uintptr, 0, len(v))
		for key, c := range v {
			enc, ok := encodeNode(c)
			if !ok {
				continue
			}
			kp, ok := cString(key)
			if !ok {
				freeOwnNode(&enc)
				continue
			}
			children = append(children, enc)
			keys = append(keys, kp)
		}
		out.format = int32(FormatNodeMap)
		out.setPtr(newCNodeList(children, keys))

	default:
		// Closed sum; a foreign implementation reaching here is a contract
		// violation, not a runtime condition.
		panic("mpv: cannot encode unknown Node variant")
	}
	return out, true
}

// newCNodeList allocates an mpv_node_list in C memory holding the given
// values and (for maps) the parallel key array.
func newCNodeList(values []mpvNode, keys []uintptr) uintptr {
	listPtr := cMalloc(listSize)
	list := (*mpvNodeList)(unsafe.Pointer(listPtr))
	list.num = int32(len(values))
	list.values = 0
	list.keys = 0
	if len(values) > 0 {
		list.values = cMalloc(uintptr(len(values)) * nodeSize)
		copy(unsafe.Slice((*mpvNode)(unsafe.Pointer(list.values)), len(values)), values)
	}
	if len(keys) > 0 {
		list.keys = cMalloc(uintptr(len(keys)) * pointerSize)
		copy(unsafe.Slice((*uintptr)(unsafe.Pointer(list.keys)), len(keys)), keys)
	}
	return listPtr
}

// freeOwnNode releases the contents of a node produced by encodeNode. It
// walks exactly the shapes encodeNode builds, so every allocation is paired
// with one release through the same allocator.
func freeOwnNode(n *mpvNode) {
	switch Format(n.format) {
	case FormatString, FormatOsdString:
		cFree(n.ptr())

	case FormatByteArray:
		hdr := (*mpvByteArray)(unsafe.Pointer(n.ptr()))
		if hdr.data != 0 {
			cFree(hdr.data)
		}
		cFree(n.ptr())

	case FormatNodeArray, FormatNodeMap:
		listPtr := n.ptr()
		list := (*mpvNodeList)(unsafe.Pointer(listPtr))
		if list.values != 0 {
			for i := 0; i < int(list.num); i++ {
				child := (*mpvNode)(unsafe.Pointer(list.values + uintptr(i)*nodeSize))
				freeOwnNode(child)
			}
			cFree(list.values)
		}
		if list.keys != 0 {
			for i := 0; i < int(list.num); i++ {
				cFree(*(*uintptr)(unsafe.Pointer(list.keys + uintptr(i)*pointerSize)))
			}
			cFree(list.keys)
		}
		cFree(listPtr)
	}
}

// Property is a named property value as delivered by property events.
type Property struct {
	// Name of the property.
	Name string
	// Data carries the value, or nothing when the property is currently
	// unavailable (the event arrived with FORMAT_NONE).
	Data mo.Option[Node]
}

// propertyFromC converts an mpv_event_property. The name is owned by the
// engine and only copied; the value data, if present, is consumed like any
// other node payload.
func propertyFromC(p *mpvEventProperty) mo.Option[Property] {
	if p.name == 0 {
		return mo.None[Property]()
	}
	res := Property{Name: goStringConst(p.name), Data: mo.None[Node]()}
	if p.data == 0 {
		return mo.Some(res)
	}
	n := mpvNode{
		u:      *(*uint64)(unsafe.Pointer(p.data)),
		format: p.format,
	}
	res.Data = decodeNode(&n)
	return mo.Some(res)
}
