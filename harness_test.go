//go:build darwin || linux

package mpv

import (
	"testing"
	"unsafe"
)

// allocTracker stands in for the C allocator and the engine's generic free.
// Every block it hands out is accounted for, so tests can assert that a code
// path released exactly what it acquired: no leak, no double free.
type allocTracker struct {
	blocks      map[uintptr][]byte
	frees       int
	doubleFrees int
}

func newAllocTracker() *allocTracker {
	return &allocTracker{blocks: map[uintptr][]byte{}}
}

func (a *allocTracker) malloc(size uintptr) uintptr {
	if size == 0 {
		size = 1
	}
	b := make([]byte, size)
	p := uintptr(unsafe.Pointer(&b[0]))
	a.blocks[p] = b
	return p
}

func (a *allocTracker) free(p uintptr) {
	if p == 0 {
		a.doubleFrees++
		return
	}
	if _, ok := a.blocks[p]; !ok {
		a.doubleFrees++
		return
	}
	delete(a.blocks, p)
	a.frees++
}

func (a *allocTracker) outstanding() int { return len(a.blocks) }

// cstring allocates a NUL-terminated copy of s, without UTF-8 validation so
// tests can fabricate malformed engine strings.
func (a *allocTracker) cstring(s string) uintptr {
	p := a.malloc(uintptr(len(s)) + 1)
	buf := unsafe.Slice((*byte)(unsafe.Pointer(p)), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return p
}

func (a *allocTracker) bytes(b []byte) uintptr {
	p := a.malloc(uintptr(len(b)))
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), len(b)), b)
	return p
}

// put copies v into a fresh tracked block and returns its address.
func put[T any](a *allocTracker, v T) uintptr {
	var zero T
	p := a.malloc(unsafe.Sizeof(zero))
	*(*T)(unsafe.Pointer(p)) = v
	return p
}

// Foreign node builders.

func stringNode(a *allocTracker, format Format, s string) mpvNode {
	n := mpvNode{format: int32(format)}
	n.setPtr(a.cstring(s))
	return n
}

func int64Node(v int64) mpvNode {
	n := mpvNode{format: int32(FormatInt64)}
	n.setInt64(v)
	return n
}

func float64Node(v float64) mpvNode {
	n := mpvNode{format: int32(FormatDouble)}
	n.setFloat64(v)
	return n
}

func flagNode(v int32) mpvNode {
	n := mpvNode{format: int32(FormatFlag)}
	n.setFlag(v)
	return n
}

func byteArrayNode(a *allocTracker, b []byte) mpvNode {
	hdr := mpvByteArray{size: uintptr(len(b))}
	if len(b) > 0 {
		hdr.data = a.bytes(b)
	}
	n := mpvNode{format: int32(FormatByteArray)}
	n.setPtr(put(a, hdr))
	return n
}

// listNode builds a foreign array (keys nil) or map (keys parallel to
// values) node.
func listNode(a *allocTracker, format Format, values []mpvNode, keys []string) mpvNode {
	list := mpvNodeList{num: int32(len(values))}
	if len(values) > 0 {
		list.values = a.malloc(uintptr(len(values)) * nodeSize)
		copy(unsafe.Slice((*mpvNode)(unsafe.Pointer(list.values)), len(values)), values)
	}
	if keys != nil {
		list.keys = a.malloc(uintptr(len(keys)) * pointerSize)
		slots := unsafe.Slice((*uintptr)(unsafe.Pointer(list.keys)), len(keys))
		for i, k := range keys {
			slots[i] = a.cstring(k)
		}
	}
	n := mpvNode{format: int32(format)}
	n.setPtr(put(a, list))
	return n
}

// installTracker routes the package's allocator seams (including the
// engine's generic free) through a fresh tracker for the duration of the
// test.
func installTracker(t *testing.T) *allocTracker {
	t.Helper()
	a := newAllocTracker()
	oldMalloc, oldFree, oldMpvFree := cMalloc, cFree, mpvFree
	cMalloc, cFree, mpvFree = a.malloc, a.free, a.free
	t.Cleanup(func() {
		cMalloc, cFree, mpvFree = oldMalloc, oldFree, oldMpvFree
	})
	return a
}

// stubLoader marks the library load as succeeded (loadErr nil) or failed,
// without touching a real shared object, restoring the previous state when
// the test finishes.
func stubLoader(t *testing.T, loadErr error) {
	t.Helper()
	libmpvOnce.Do(func() {})
	savedErr, savedLoaded := libmpvInitErr, libmpvLoaded
	libmpvInitErr, libmpvLoaded = loadErr, loadErr == nil
	t.Cleanup(func() { libmpvInitErr, libmpvLoaded = savedErr, savedLoaded })
}

func (a *allocTracker) checkBalanced(t *testing.T) {
	t.Helper()
	if n := a.outstanding(); n != 0 {
		t.Errorf("outstanding allocations = %d, want 0", n)
	}
	if a.doubleFrees != 0 {
		t.Errorf("double frees = %d, want 0", a.doubleFrees)
	}
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	fn()
}
