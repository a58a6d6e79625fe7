//go:build darwin || linux

package mpv

import (
	"fmt"
	"unsafe"

	"github.com/samber/mo"
)

// Event is one owned, structured notification decoded from a single
// mpv_event record. Every Event is constructed fresh by WaitEvent and holds
// no foreign memory.
type Event interface {
	// EventID reports the raw event kind, usable with EventName and
	// Handle.RequestEvent.
	EventID() EventID
}

// Shutdown: the player is quitting and disconnecting all clients. Most
// requests will fail from now on; react by destroying the handle as soon as
// possible.
type Shutdown struct{}

// LogMessage is a log line requested via Handle.RequestLogMessages.
type LogMessage struct {
	// Prefix identifies the module producing the message.
	Prefix string
	// Level is the textual log level as the engine spells it.
	Level string
	// Text is the message itself, usually terminated with a newline.
	Text string
	// LogLevel is the numeric level.
	LogLevel LogLevel
}

// GetPropertyReply answers an asynchronous property read. Result carries the
// property on success (absent when the property is currently unavailable) or
// the engine error.
type GetPropertyReply struct {
	Result        mo.Result[mo.Option[Property]]
	ReplyUserdata uint64
}

// SetPropertyReply answers an asynchronous property write.
type SetPropertyReply struct {
	Result        mo.Result[mo.Option[Property]]
	ReplyUserdata uint64
}

// CommandReply answers an asynchronous command. Result carries the
// command-specific return value, which most commands leave absent.
type CommandReply struct {
	Result        mo.Result[mo.Option[Node]]
	ReplyUserdata uint64
}

// StartFile: notification before playback start of a file, before the file
// is loaded.
type StartFile struct {
	// PlaylistEntryID of the file being loaded now.
	PlaylistEntryID int64
}

// EndFileReason says why playback of a file ended. Err is set only for
// EndFileError.
type EndFileReason struct {
	Kind EndFileReasonKind
	Err  error
}

// EndFile: notification after playback end, after the file was unloaded.
type EndFile struct {
	Reason EndFileReason
	// PlaylistEntryID of the file that was being played; matches the id of
	// the corresponding StartFile event.
	PlaylistEntryID int64
	// PlaylistInsertID is set when the ended entry was replaced by inserted
	// entries (typically EndFileRedirect): the id of the first inserted
	// entry, or 0.
	PlaylistInsertID int64
	// PlaylistInsertNumEntries is the number of inserted entries; only
	// nonzero when PlaylistInsertID is valid.
	PlaylistInsertNumEntries int64
}

// FileLoaded: the file has been loaded (headers read etc.) and decoding
// starts.
type FileLoaded struct{}

// Idle: the playback core entered idle mode: no file is played and it waits
// for new commands.
//
// Deprecated: equivalent to observing the "idle-active" property.
type Idle struct{}

// Tick: periodic playback notification.
//
// Deprecated: the engine no longer guarantees delivery.
type Tick struct{}

// ClientMessage is triggered by the script-message input command; the
// arguments are passed through as-is.
type ClientMessage struct {
	Args []string
}

// VideoReconfig: the video changed in some way (resolution, pixel format,
// filters). Can fire sporadically; check the actual parameters before doing
// anything expensive.
type VideoReconfig struct{}

// AudioReconfig: like VideoReconfig, for audio.
type AudioReconfig struct{}

// Seek: a seek was initiated and playback stopped; usually followed by
// PlaybackRestart once the seek finishes.
type Seek struct{}

// PlaybackRestart: playback was reinitialized after a discontinuity. Lets a
// client detect when a seek request is finished.
type PlaybackRestart struct{}

// PropertyChange is sent for properties registered with
// Handle.ObserveProperty.
type PropertyChange struct {
	Result        mo.Result[mo.Option[Property]]
	ReplyUserdata uint64
}

// QueueOverflow: the per-handle event ringbuffer overflowed and at least one
// event was dropped. Delivery resumes normally once this event is returned.
type QueueOverflow struct{}

// Hook is delivered for hooks registered with Handle.HookAdd. The receiver
// must acknowledge it with Handle.HookContinue(ID) or the engine stalls.
type Hook struct {
	Name          string
	ID            uint64
	ReplyUserdata uint64
}

func (Shutdown) EventID() EventID         { return EventIDShutdown }
func (LogMessage) EventID() EventID       { return EventIDLogMessage }
func (GetPropertyReply) EventID() EventID { return EventIDGetPropertyReply }
func (SetPropertyReply) EventID() EventID { return EventIDSetPropertyReply }
func (CommandReply) EventID() EventID     { return EventIDCommandReply }
func (StartFile) EventID() EventID        { return EventIDStartFile }
func (EndFile) EventID() EventID          { return EventIDEndFile }
func (FileLoaded) EventID() EventID       { return EventIDFileLoaded }
func (Idle) EventID() EventID             { return EventIDIdle }
func (Tick) EventID() EventID             { return EventIDTick }
func (ClientMessage) EventID() EventID    { return EventIDClientMessage }
func (VideoReconfig) EventID() EventID    { return EventIDVideoReconfig }
func (AudioReconfig) EventID() EventID    { return EventIDAudioReconfig }
func (Seek) EventID() EventID             { return EventIDSeek }
func (PlaybackRestart) EventID() EventID  { return EventIDPlaybackRestart }
func (PropertyChange) EventID() EventID   { return EventIDPropertyChange }
func (QueueOverflow) EventID() EventID    { return EventIDQueueOverflow }
func (Hook) EventID() EventID             { return EventIDHook }

// decodeEvent interprets one mpv_event record. It runs once per record,
// dispatches on the event kind, and releases the payload pointer via the
// engine's generic free exactly once after interpretation, whether or not a
// structured event came out of it. Kinds with a mandatory payload abort on a
// nil payload: the engine guarantees presence, so absence means memory is
// already corrupt and continuing would read undefined data.
func decodeEvent(ev *mpvEvent) mo.Option[Event] {
	var res mo.Option[Event]

	switch EventID(ev.id) {
	case EventIDShutdown:
		res = mo.Some[Event](Shutdown{})

	case EventIDLogMessage:
		m := (*mpvEventLogMessage)(unsafe.Pointer(mandatoryPayload(ev, "log message")))
		level, ok := logLevelFrom(m.logLevel)
		if !ok {
			panic(fmt.Sprintf("mpv: engine delivered unknown log level %d", m.logLevel))
		}
		res = mo.Some[Event](LogMessage{
			Prefix:   goStringConst(m.prefix),
			Level:    goStringConst(m.level),
			Text:     goStringConst(m.text),
			LogLevel: level,
		})

	case EventIDGetPropertyReply:
		res = mo.Some[Event](GetPropertyReply{
			Result:        propertyResult(ev, "get property reply"),
			ReplyUserdata: ev.replyUserdata,
		})

	case EventIDSetPropertyReply:
		res = mo.Some[Event](SetPropertyReply{
			Result:        propertyResult(ev, "set property reply"),
			ReplyUserdata: ev.replyUserdata,
		})

	case EventIDCommandReply:
		var result mo.Result[mo.Option[Node]]
		if err := errorFor(ev.err); err != nil {
			result = mo.Err[mo.Option[Node]](err)
		} else {
			n := (*mpvNode)(unsafe.Pointer(mandatoryPayload(ev, "command reply")))
			result = mo.Ok(decodeNode(n))
		}
		res = mo.Some[Event](CommandReply{
			Result:        result,
			ReplyUserdata: ev.replyUserdata,
		})

	case EventIDStartFile:
		sf := (*mpvEventStartFile)(unsafe.Pointer(mandatoryPayload(ev, "start file")))
		res = mo.Some[Event](StartFile{PlaylistEntryID: sf.playlistEntryID})

	case EventIDEndFile:
		ef := (*mpvEventEndFile)(unsafe.Pointer(mandatoryPayload(ev, "end file")))
		res = mo.Some[Event](EndFile{
			Reason:                   endFileReason(ef.reason, ef.err),
			PlaylistEntryID:          ef.playlistEntryID,
			PlaylistInsertID:         ef.playlistInsertID,
			PlaylistInsertNumEntries: int64(ef.playlistInsertNumEntries),
		})

	case EventIDFileLoaded:
		res = mo.Some[Event](FileLoaded{})

	case EventIDIdle:
		res = mo.Some[Event](Idle{})

	case EventIDTick:
		res = mo.Some[Event](Tick{})

	case EventIDClientMessage:
		cm := (*mpvEventClientMessage)(unsafe.Pointer(mandatoryPayload(ev, "client message")))
		args := make([]string, 0, cm.numArgs)
		for i := 0; i < int(cm.numArgs); i++ {
			p := *(*uintptr)(unsafe.Pointer(cm.args + uintptr(i)*pointerSize))
			// The strings live inside engine-owned storage; copy before the
			// array is released below.
			args = append(args, goStringConst(p))
		}
		if cm.args != 0 {
			mpvFree(cm.args)
		}
		res = mo.Some[Event](ClientMessage{Args: args})

	case EventIDVideoReconfig:
		res = mo.Some[Event](VideoReconfig{})

	case EventIDAudioReconfig:
		res = mo.Some[Event](AudioReconfig{})

	case EventIDSeek:
		res = mo.Some[Event](Seek{})

	case EventIDPlaybackRestart:
		res = mo.Some[Event](PlaybackRestart{})

	case EventIDPropertyChange:
		res = mo.Some[Event](PropertyChange{
			Result:        propertyResult(ev, "property change"),
			ReplyUserdata: ev.replyUserdata,
		})

	case EventIDQueueOverflow:
		res = mo.Some[Event](QueueOverflow{})

	case EventIDHook:
		hk := (*mpvEventHook)(unsafe.Pointer(mandatoryPayload(ev, "hook")))
		res = mo.Some[Event](Hook{
			Name:          goStringConst(hk.name),
			ID:            hk.id,
			ReplyUserdata: ev.replyUserdata,
		})

	default:
		res = mo.None[Event]()
	}

	if ev.data != 0 {
		mpvFree(ev.data)
	}
	return res
}

// mandatoryPayload returns the payload pointer for an event kind whose
// payload the engine guarantees, aborting when the guarantee is broken.
func mandatoryPayload(ev *mpvEvent, kind string) uintptr {
	if ev.data == 0 {
		panic(fmt.Sprintf("mpv: engine delivered %s event without payload", kind))
	}
	return ev.data
}

// propertyResult folds the status code and payload of a property-carrying
// event: an error status wins and the payload is ignored, otherwise the
// payload is decoded (absent data means the property is unavailable, which
// is not an error).
func propertyResult(ev *mpvEvent, kind string) mo.Result[mo.Option[Property]] {
	if err := errorFor(ev.err); err != nil {
		return mo.Err[mo.Option[Property]](err)
	}
	p := (*mpvEventProperty)(unsafe.Pointer(mandatoryPayload(ev, kind)))
	return mo.Ok(propertyFromC(p))
}

func logLevelFrom(raw int32) (LogLevel, bool) {
	switch LogLevel(raw) {
	case LogLevelNone, LogLevelFatal, LogLevelError, LogLevelWarn,
		LogLevelInfo, LogLevelV, LogLevelDebug, LogLevelTrace:
		return LogLevel(raw), true
	}
	return 0, false
}

// endFileReason maps the raw reason and its accompanying status code. A
// reason of EndFileError with no actual error code, or an unknown reason
// value, is a broken engine contract and aborts.
func endFileReason(raw int32, status int32) EndFileReason {
	kind := EndFileReasonKind(raw)
	switch kind {
	case EndFileEOF, EndFileStop, EndFileQuit, EndFileRedirect:
		return EndFileReason{Kind: kind}
	case EndFileError:
		err := errorFor(status)
		if err == nil {
			panic("mpv: end file event reported an error reason without an error code")
		}
		return EndFileReason{Kind: kind, Err: err}
	}
	panic(fmt.Sprintf("mpv: engine delivered unknown end file reason %d", raw))
}
