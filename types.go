//go:build darwin || linux

package mpv

import "unsafe"

// Format identifies the data type carried by an mpv_node or property.
// Values mirror enum mpv_format in client.h.
type Format int32

const (
	FormatNone      Format = 0
	FormatString    Format = 1
	FormatOsdString Format = 2
	FormatFlag      Format = 3
	FormatInt64     Format = 4
	FormatDouble    Format = 5
	FormatNode      Format = 6
	FormatNodeArray Format = 7
	FormatNodeMap   Format = 8
	FormatByteArray Format = 9
)

// EventID mirrors enum mpv_event_id. Gaps correspond to event kinds that
// were removed from the client API.
type EventID int32

const (
	EventIDNone             EventID = 0
	EventIDShutdown         EventID = 1
	EventIDLogMessage       EventID = 2
	EventIDGetPropertyReply EventID = 3
	EventIDSetPropertyReply EventID = 4
	EventIDCommandReply     EventID = 5
	EventIDStartFile        EventID = 6
	EventIDEndFile          EventID = 7
	EventIDFileLoaded       EventID = 8
	EventIDIdle             EventID = 11
	EventIDTick             EventID = 14
	EventIDClientMessage    EventID = 16
	EventIDVideoReconfig    EventID = 17
	EventIDAudioReconfig    EventID = 18
	EventIDSeek             EventID = 20
	EventIDPlaybackRestart  EventID = 21
	EventIDPropertyChange   EventID = 22
	EventIDQueueOverflow    EventID = 24
	EventIDHook             EventID = 25
)

// LogLevel mirrors enum mpv_log_level. Lower values are more important.
// LogLevelNone is never seen on received messages.
type LogLevel int32

const (
	LogLevelNone  LogLevel = 0
	LogLevelFatal LogLevel = 10
	LogLevelError LogLevel = 20
	LogLevelWarn  LogLevel = 30
	LogLevelInfo  LogLevel = 40
	LogLevelV     LogLevel = 50
	LogLevelDebug LogLevel = 60
	LogLevelTrace LogLevel = 70
)

// String returns the level name as used by Handle.RequestLogMessages.
func (l LogLevel) String() string {
	switch l {
	case LogLevelNone:
		return "no"
	case LogLevelFatal:
		return "fatal"
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelV:
		return "v"
	case LogLevelDebug:
		return "debug"
	case LogLevelTrace:
		return "trace"
	}
	return "unknown"
}

// EndFileReasonKind mirrors enum mpv_end_file_reason.
type EndFileReasonKind int32

const (
	EndFileEOF      EndFileReasonKind = 0
	EndFileStop     EndFileReasonKind = 2
	EndFileQuit     EndFileReasonKind = 3
	EndFileError    EndFileReasonKind = 4
	EndFileRedirect EndFileReasonKind = 5
)

// Raw struct layouts mirroring client.h on 64-bit targets. These must match
// the C ABI exactly; they are only ever manipulated through unsafe pointers
// handed to or received from the engine.

// mpvNode matches mpv_node: an 8-byte union followed by mpv_format.
type mpvNode struct {
	u      uint64
	format int32
	_      int32
}

// Union accessors. Going through the address of u keeps them independent of
// byte order.

func (n *mpvNode) ptr() uintptr      { return *(*uintptr)(unsafe.Pointer(&n.u)) }
func (n *mpvNode) flag() int32       { return *(*int32)(unsafe.Pointer(&n.u)) }
func (n *mpvNode) int64v() int64     { return *(*int64)(unsafe.Pointer(&n.u)) }
func (n *mpvNode) float64v() float64 { return *(*float64)(unsafe.Pointer(&n.u)) }

func (n *mpvNode) setPtr(p uintptr)     { *(*uintptr)(unsafe.Pointer(&n.u)) = p }
func (n *mpvNode) setFlag(v int32)      { *(*int32)(unsafe.Pointer(&n.u)) = v }
func (n *mpvNode) setInt64(v int64)     { *(*int64)(unsafe.Pointer(&n.u)) = v }
func (n *mpvNode) setFloat64(v float64) { *(*float64)(unsafe.Pointer(&n.u)) = v }

// mpvNodeList matches mpv_node_list: num, values array, parallel keys array
// (maps only).
type mpvNodeList struct {
	num    int32
	_      int32
	values uintptr // *mpv_node
	keys   uintptr // **char
}

// mpvByteArray matches mpv_byte_array.
type mpvByteArray struct {
	data uintptr
	size uintptr
}

// mpvEvent matches mpv_event: event id, status code, correlation id, payload.
type mpvEvent struct {
	id            int32
	err           int32
	replyUserdata uint64
	data          uintptr
}

// mpvEventProperty matches mpv_event_property.
type mpvEventProperty struct {
	name   uintptr // const char*
	format int32
	_      int32
	data   uintptr
}

// mpvEventLogMessage matches mpv_event_log_message.
type mpvEventLogMessage struct {
	prefix   uintptr // const char*
	level    uintptr // const char*
	text     uintptr // const char*
	logLevel int32
	_        int32
}

// mpvEventStartFile matches mpv_event_start_file.
type mpvEventStartFile struct {
	playlistEntryID int64
}

// mpvEventEndFile matches mpv_event_end_file.
type mpvEventEndFile struct {
	reason                   int32
	err                      int32
	playlistEntryID          int64
	playlistInsertID         int64
	playlistInsertNumEntries int32
	_                        int32
}

// mpvEventClientMessage matches mpv_event_client_message.
type mpvEventClientMessage struct {
	numArgs int32
	_       int32
	args    uintptr // **char
}

// mpvEventHook matches mpv_event_hook.
type mpvEventHook struct {
	name uintptr // const char*
	id   uint64
}

const (
	nodeSize    = unsafe.Sizeof(mpvNode{})
	listSize    = unsafe.Sizeof(mpvNodeList{})
	baSize      = unsafe.Sizeof(mpvByteArray{})
	pointerSize = unsafe.Sizeof(uintptr(0))
)
