//go:build darwin || linux

package mpv

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/samber/mo"
)

// Handle is one client connection to an mpv core. A Handle owns exactly one
// non-NULL engine pointer for its lifetime and must be released exactly once
// with Destroy or TerminateDestroy; any use after that aborts.
//
// Handles derived with CreateClient or CreateWeakClient are independent
// owners sharing the same core: destroying one does not invalidate its
// siblings.
type Handle struct {
	ptr uintptr
}

// Create allocates a new mpv core and its first client handle. The instance
// starts uninitialized: set initial options first, then call Initialize.
//
// A nil engine pointer (out of memory, or LC_NUMERIC not set to "C") is a
// hard failure with no fallback.
func Create() (*Handle, error) {
	if err := loadLibmpv(); err != nil {
		return nil, fmt.Errorf("libmpv not available: %w", err)
	}
	ctx := mpvCreate()
	if ctx == 0 {
		return nil, errors.New("mpv_create failed (out of memory or LC_NUMERIC is not \"C\")")
	}
	return &Handle{ptr: ctx}, nil
}

// p returns the engine pointer, aborting on use after Destroy or
// TerminateDestroy.
func (h *Handle) p() uintptr {
	if h.ptr == 0 {
		panic("mpv: use of destroyed handle")
	}
	return h.ptr
}

// Initialize starts an uninitialized mpv instance. Returns an error if the
// instance is already running. Options that are only read at initialization
// time (config, config-dir, input-conf, ...) must be set before this call.
func (h *Handle) Initialize() error {
	return errorFor(mpvInitialize(h.p()))
}

// Name returns this client handle's unique name, mostly used for user
// interface purposes.
func (h *Handle) Name() string {
	return goStringConst(mpvClientName(h.p()))
}

// ClientID returns this client handle's unique id. Ids are never 0 or
// negative and are never reused by the core.
func (h *Handle) ClientID() int64 {
	return mpvClientID(h.p())
}

// Destroy detaches the handle from the core and releases it. Each Handle
// must be destroyed exactly once; the core itself lives on while other
// handles reference it.
func (h *Handle) Destroy() {
	ptr := h.p()
	h.ptr = 0
	dropWakeup(ptr)
	mpvDestroy(ptr)
}

// TerminateDestroy is the terminal alternative to Destroy: it quits the
// player and blocks until the core and every other client handle have shut
// down. The receiver is consumed either way, so the two paths can never
// double-destroy.
func (h *Handle) TerminateDestroy() {
	ptr := h.p()
	h.ptr = 0
	dropWakeup(ptr)
	mpvTerminateDestroy(ptr)
}

// CreateClient creates a new handle connected to the same core, with its own
// event queue, observed properties, and async state. Only valid once the
// primary handle has been initialized. The core lives as long as at least
// one handle references it.
func (h *Handle) CreateClient(name string) (*Handle, error) {
	return h.deriveClient(name, mpvCreateClient)
}

// CreateWeakClient is like CreateClient, but the new handle is a weak
// reference: if only weak handles remain, the core shuts down and the weak
// handles receive Shutdown.
func (h *Handle) CreateWeakClient(name string) (*Handle, error) {
	return h.deriveClient(name, mpvCreateWeakClient)
}

func (h *Handle) deriveClient(name string, create func(ctx, name uintptr) uintptr) (*Handle, error) {
	cname, ok := cString(name)
	if !ok {
		return nil, errors.New("mpv: client name contains embedded NUL")
	}
	ctx := create(h.p(), cname)
	cFree(cname)
	if ctx == 0 {
		return nil, errors.New("mpv: creating client handle failed")
	}
	return &Handle{ptr: ctx}, nil
}

// LoadConfigFile loads and parses a config file, applying its default
// section as option assignments. The path should be absolute.
func (h *Handle) LoadConfigFile(path string) error {
	cpath, ok := cString(path)
	if !ok {
		return ErrInvalidParameter
	}
	status := mpvLoadConfigFile(h.p(), cpath)
	cFree(cpath)
	return errorFor(status)
}

// SetOption sets an option by name. Options can normally only be set in the
// uninitialized state; some also work at runtime. Both the name and the
// encoded payload are released after the call, since the engine copies and
// does not take ownership of either. A value that cannot be encoded (for
// example a string with an embedded NUL) surfaces as ErrOptionError.
func (h *Handle) SetOption(name string, value Node) error {
	cname, ok := cString(name)
	if !ok {
		return ErrOptionError
	}
	raw, ok := encodeNode(value)
	if !ok {
		cFree(cname)
		return ErrOptionError
	}
	// mpv_set_option takes the data pointer per the value's own format, i.e.
	// a pointer to the union, not to the whole node.
	data := cMalloc(unsafe.Sizeof(raw.u))
	*(*uint64)(unsafe.Pointer(data)) = raw.u
	status := mpvSetOption(h.p(), cname, raw.format, data)
	cFree(data)
	freeOwnNode(&raw)
	cFree(cname)
	return errorFor(status)
}

// SetOptionString sets an option from its string representation.
func (h *Handle) SetOptionString(name, value string) error {
	cname, ok := cString(name)
	if !ok {
		return ErrOptionError
	}
	cvalue, ok := cString(value)
	if !ok {
		cFree(cname)
		return ErrOptionError
	}
	status := mpvSetOptionString(h.p(), cname, cvalue)
	cFree(cvalue)
	cFree(cname)
	return errorFor(status)
}

// makeArgv builds a NUL-terminated C array of C strings. The caller releases
// it with freeArgv. Fails if any argument contains an embedded NUL.
func makeArgv(args []string) (uintptr, bool) {
	argv := cMalloc(uintptr(len(args)+1) * pointerSize)
	slots := unsafe.Slice((*uintptr)(unsafe.Pointer(argv)), len(args)+1)
	for i, arg := range args {
		p, ok := cString(arg)
		if !ok {
			slots[i] = 0
			freeArgv(argv)
			return 0, false
		}
		slots[i] = p
	}
	slots[len(args)] = 0
	return argv, true
}

func freeArgv(argv uintptr) {
	for i := 0; ; i++ {
		p := *(*uintptr)(unsafe.Pointer(argv + uintptr(i)*pointerSize))
		if p == 0 {
			break
		}
		cFree(p)
	}
	cFree(argv)
}

// Command sends a command in pre-split form; the first item is usually the
// command name. Commands match input.conf, without OSD and string expansion.
func (h *Handle) Command(args ...string) error {
	argv, ok := makeArgv(args)
	if !ok {
		return ErrCommand
	}
	status := mpvCommand(h.p(), argv)
	freeArgv(argv)
	return errorFor(status)
}

// CommandRet is Command but also returns the command-specific result, which
// most commands leave absent. The result's foreign storage is released after
// decoding regardless of outcome.
func (h *Handle) CommandRet(args ...string) (mo.Option[Node], error) {
	argv, ok := makeArgv(args)
	if !ok {
		return mo.None[Node](), ErrCommand
	}
	box := newCNode()
	status := mpvCommandRet(h.p(), argv, box)
	freeArgv(argv)
	if err := errorFor(status); err != nil {
		cFree(box)
		return mo.None[Node](), err
	}
	res := decodeNode((*mpvNode)(unsafe.Pointer(box)))
	cFree(box)
	return res, nil
}

// CommandString sends a command as a single string parsed like an input.conf
// line.
func (h *Handle) CommandString(cmd string) error {
	ccmd, ok := cString(cmd)
	if !ok {
		return ErrCommand
	}
	status := mpvCommandString(h.p(), ccmd)
	cFree(ccmd)
	return errorFor(status)
}

// CommandNode sends a command as structured data: an Array of positional
// arguments (first one the command name), or a Map of named arguments with
// at least a "name" entry.
func (h *Handle) CommandNode(arg Node) error {
	_, err := h.commandNode(arg, false)
	return err
}

// CommandNodeRet is CommandNode but also returns the command result. The
// result's foreign storage is released after decoding regardless of outcome.
func (h *Handle) CommandNodeRet(arg Node) (mo.Option[Node], error) {
	return h.commandNode(arg, true)
}

func (h *Handle) commandNode(arg Node, wantResult bool) (mo.Option[Node], error) {
	raw, ok := encodeNode(arg)
	if !ok {
		return mo.None[Node](), ErrCommand
	}
	args := newCNode()
	*(*mpvNode)(unsafe.Pointer(args)) = raw

	var result uintptr
	if wantResult {
		result = newCNode()
	}

	status := mpvCommandNode(h.p(), args, result)
	freeOwnNode(&raw)
	cFree(args)

	res := mo.None[Node]()
	err := errorFor(status)
	if wantResult {
		if err == nil {
			res = decodeNode((*mpvNode)(unsafe.Pointer(result)))
		}
		cFree(result)
	}
	return res, err
}

// CommandAsync queues a command like Command and returns immediately; the
// outcome arrives later as a CommandReply event carrying replyUserdata.
func (h *Handle) CommandAsync(replyUserdata uint64, args ...string) error {
	argv, ok := makeArgv(args)
	if !ok {
		return ErrCommand
	}
	status := mpvCommandAsync(h.p(), replyUserdata, argv)
	freeArgv(argv)
	return errorFor(status)
}

// CommandNodeAsync queues a structured command; see CommandNode and
// CommandAsync.
func (h *Handle) CommandNodeAsync(replyUserdata uint64, arg Node) error {
	raw, ok := encodeNode(arg)
	if !ok {
		return ErrCommand
	}
	args := newCNode()
	*(*mpvNode)(unsafe.Pointer(args)) = raw
	status := mpvCommandNodeAsync(h.p(), replyUserdata, args)
	freeOwnNode(&raw)
	cFree(args)
	return errorFor(status)
}

// AbortAsyncCommand tries to abort the still-pending async command with the
// given correlation id; its reply event will carry an aborted status.
func (h *Handle) AbortAsyncCommand(replyUserdata uint64) {
	mpvAbortAsyncCmd(h.p(), replyUserdata)
}

// GetProperty reads a property as a structured value. An absent result means
// the engine reported the value as FORMAT_NONE.
func (h *Handle) GetProperty(name string) (mo.Option[Node], error) {
	cname, ok := cString(name)
	if !ok {
		return mo.None[Node](), ErrPropertyError
	}
	box := newCNode()
	status := mpvGetProperty(h.p(), cname, int32(FormatNode), box)
	cFree(cname)
	if err := errorFor(status); err != nil {
		cFree(box)
		return mo.None[Node](), err
	}
	res := decodeNode((*mpvNode)(unsafe.Pointer(box)))
	cFree(box)
	return res, nil
}

// GetPropertyString reads a property as a string, or nothing if the property
// is empty or the read failed. The engine-allocated string is released after
// copying.
func (h *Handle) GetPropertyString(name string) mo.Option[string] {
	return h.propertyString(name, mpvGetPropertyString)
}

// GetPropertyOsdString is GetPropertyString for the human-readable OSD
// formatting of the property.
func (h *Handle) GetPropertyOsdString(name string) mo.Option[string] {
	return h.propertyString(name, mpvGetPropertyOsdString)
}

func (h *Handle) propertyString(name string, get func(ctx, name uintptr) uintptr) mo.Option[string] {
	cname, ok := cString(name)
	if !ok {
		return mo.None[string]()
	}
	p := get(h.p(), cname)
	cFree(cname)
	if p == 0 {
		return mo.None[string]()
	}
	s := goStringConst(p)
	mpvFree(p)
	return mo.Some(s)
}

// SetProperty writes a property as a structured value. An unencodable value
// surfaces as ErrPropertyError.
func (h *Handle) SetProperty(name string, value Node) error {
	cname, ok := cString(name)
	if !ok {
		return ErrPropertyError
	}
	raw, ok := encodeNode(value)
	if !ok {
		cFree(cname)
		return ErrPropertyError
	}
	box := newCNode()
	*(*mpvNode)(unsafe.Pointer(box)) = raw
	status := mpvSetProperty(h.p(), cname, int32(FormatNode), box)
	freeOwnNode(&raw)
	cFree(box)
	cFree(cname)
	return errorFor(status)
}

// SetPropertyString writes a property from its string representation.
func (h *Handle) SetPropertyString(name, value string) error {
	cname, ok := cString(name)
	if !ok {
		return ErrPropertyError
	}
	cvalue, ok := cString(value)
	if !ok {
		cFree(cname)
		return ErrPropertyError
	}
	status := mpvSetPropertyString(h.p(), cname, cvalue)
	cFree(cvalue)
	cFree(cname)
	return errorFor(status)
}

// DelProperty deletes a property; most properties are not deletable.
func (h *Handle) DelProperty(name string) error {
	cname, ok := cString(name)
	if !ok {
		return ErrPropertyError
	}
	status := mpvDelProperty(h.p(), cname)
	cFree(cname)
	return errorFor(status)
}

// GetPropertyAsync queues a property read; the value arrives later as a
// GetPropertyReply event carrying replyUserdata.
func (h *Handle) GetPropertyAsync(replyUserdata uint64, name string) error {
	cname, ok := cString(name)
	if !ok {
		return ErrPropertyError
	}
	status := mpvGetPropertyAsync(h.p(), replyUserdata, cname, int32(FormatNode))
	cFree(cname)
	return errorFor(status)
}

// SetPropertyAsync queues a property write; the outcome arrives later as a
// SetPropertyReply event carrying replyUserdata. The engine copies the value
// before returning, so the encoded payload is released here.
func (h *Handle) SetPropertyAsync(replyUserdata uint64, name string, value Node) error {
	cname, ok := cString(name)
	if !ok {
		return ErrPropertyError
	}
	raw, ok := encodeNode(value)
	if !ok {
		cFree(cname)
		return ErrPropertyError
	}
	box := newCNode()
	*(*mpvNode)(unsafe.Pointer(box)) = raw
	status := mpvSetPropertyAsync(h.p(), replyUserdata, cname, int32(FormatNode), box)
	freeOwnNode(&raw)
	cFree(box)
	cFree(cname)
	return errorFor(status)
}

// ObserveProperty registers for change notifications on a property,
// delivered as PropertyChange events carrying replyUserdata. An initial
// event with the current value is always delivered.
func (h *Handle) ObserveProperty(replyUserdata uint64, name string) error {
	cname, ok := cString(name)
	if !ok {
		return ErrPropertyError
	}
	status := mpvObserveProperty(h.p(), replyUserdata, cname, int32(FormatNode))
	cFree(cname)
	return errorFor(status)
}

// UnobserveProperty undoes every ObserveProperty registered with the given
// correlation id and returns how many were removed.
func (h *Handle) UnobserveProperty(registeredReplyUserdata uint64) (int, error) {
	status := mpvUnobserveProperty(h.p(), registeredReplyUserdata)
	if err := errorFor(status); err != nil {
		return 0, err
	}
	return int(status), nil
}

// RequestLogMessages enables LogMessage events at the given minimum level
// ("no", "fatal", "error", "warn", "info", "v", "debug", "trace").
func (h *Handle) RequestLogMessages(minLevel string) error {
	clevel, ok := cString(minLevel)
	if !ok {
		return ErrInvalidParameter
	}
	status := mpvRequestLogMessages(h.p(), clevel)
	cFree(clevel)
	return errorFor(status)
}

// RequestEvent enables or disables delivery of an event kind. All kinds are
// enabled by default.
func (h *Handle) RequestEvent(id EventID, enable bool) error {
	flag := int32(0)
	if enable {
		flag = 1
	}
	return errorFor(mpvRequestEvent(h.p(), int32(id), flag))
}

// WaitEvent waits for the next event, until the timeout (in seconds)
// expires, or until another thread calls Wakeup. A timeout of 0 polls
// without waiting; a negative timeout waits indefinitely. Nothing is
// returned on timeout. Every call returns at most one event, decoded and
// owned; events are delivered strictly in the engine's order, with no
// buffering or reordering in this layer.
//
// Precondition: only one goroutine may call WaitEvent on a given Handle at a
// time. The engine's event record is a single-slot buffer invalidated by the
// next poll, and this layer does not detect concurrent readers.
func (h *Handle) WaitEvent(timeout float64) mo.Option[Event] {
	evPtr := mpvWaitEvent(h.p(), timeout)
	if evPtr == 0 {
		return mo.None[Event]()
	}
	return decodeEvent((*mpvEvent)(unsafe.Pointer(evPtr)))
}

// Wakeup interrupts the current or next WaitEvent call on this handle.
func (h *Handle) Wakeup() {
	mpvWakeup(h.p())
}

// WaitAsyncRequests blocks until every pending asynchronous request on this
// handle has completed.
func (h *Handle) WaitAsyncRequests() {
	mpvWaitAsyncRequests(h.p())
}

// GetWakeupPipe returns a file descriptor that becomes readable whenever
// events are pending, for integrating the handle into an external poll loop.
func (h *Handle) GetWakeupPipe() (int, error) {
	fd := mpvGetWakeupPipe(h.p())
	if fd < 0 {
		return 0, errors.New("mpv: wakeup pipe unavailable")
	}
	return int(fd), nil
}

// HookAdd registers a hook handler. The engine later delivers Hook events
// carrying replyUserdata and blocks at the hook point until the event is
// acknowledged with HookContinue.
func (h *Handle) HookAdd(replyUserdata uint64, name string, priority int) error {
	cname, ok := cString(name)
	if !ok {
		return ErrInvalidParameter
	}
	status := mpvHookAdd(h.p(), replyUserdata, cname, int32(priority))
	cFree(cname)
	return errorFor(status)
}

// HookContinue acknowledges a received Hook event by its ID, letting the
// engine proceed past the hook point.
func (h *Handle) HookContinue(id uint64) error {
	return errorFor(mpvHookContinue(h.p(), id))
}

// GetTimeNS returns the engine's internal monotonic time in nanoseconds.
func (h *Handle) GetTimeNS() int64 {
	return mpvGetTimeNS(h.p())
}

// GetTimeUS returns the engine's internal monotonic time in microseconds.
func (h *Handle) GetTimeUS() int64 {
	return mpvGetTimeUS(h.p())
}

// newCNode allocates one zeroed mpv_node in C memory.
func newCNode() uintptr {
	p := cMalloc(nodeSize)
	*(*mpvNode)(unsafe.Pointer(p)) = mpvNode{}
	return p
}

// Wakeup callback plumbing. The engine holds at most one callback per
// handle; registering replaces any previous one rather than stacking. A
// single Go trampoline dispatches through a registry keyed by the engine
// pointer, since callback slots cannot be reclaimed.
var (
	wakeupMu         sync.Mutex
	wakeupFuncs      = map[uintptr]func(){}
	wakeupTrampoline uintptr
)

func wakeupHandler(d uintptr) {
	wakeupMu.Lock()
	notify := wakeupFuncs[d]
	wakeupMu.Unlock()
	if notify != nil {
		notify()
	}
}

// SetWakeupCallback installs notify to run whenever events are pending on
// this handle, replacing any previously installed callback.
//
// notify executes on an internal engine thread: it must return promptly,
// must not block, and must not call back into this package. Use it only to
// hand a signal to code running elsewhere; WakeupChan does exactly that.
func (h *Handle) SetWakeupCallback(notify func()) {
	ptr := h.p()
	wakeupMu.Lock()
	if wakeupTrampoline == 0 {
		wakeupTrampoline = purego.NewCallback(wakeupHandler)
	}
	wakeupFuncs[ptr] = notify
	tramp := wakeupTrampoline
	wakeupMu.Unlock()
	mpvSetWakeupCallback(ptr, tramp, ptr)
}

// WakeupChan installs a wakeup callback that nudges the returned channel.
// The send never blocks the engine thread; a pending nudge coalesces with
// the next one, so treat a receive as "check the event queue", not as a
// count.
func (h *Handle) WakeupChan() <-chan struct{} {
	ch := make(chan struct{}, 1)
	h.SetWakeupCallback(func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	return ch
}

func dropWakeup(ptr uintptr) {
	wakeupMu.Lock()
	delete(wakeupFuncs, ptr)
	wakeupMu.Unlock()
}
