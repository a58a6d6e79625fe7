//go:build darwin || linux

package mpv

// Error is the closed set of mpv status codes, carried as the canonical
// negative code itself. Success is never an Error value: errorFor maps any
// non-negative status (including positive informational returns) to nil.
type Error int32

const (
	// ErrEventQueueFull: the event ringbuffer is full and the client can't
	// receive events.
	ErrEventQueueFull Error = -1
	// ErrNoMemory: memory allocation failed.
	ErrNoMemory Error = -2
	// ErrUninitialized: the mpv core wasn't configured and initialized yet.
	ErrUninitialized Error = -3
	// ErrInvalidParameter: a parameter had an invalid or unsupported value.
	ErrInvalidParameter Error = -4
	// ErrOptionNotFound: trying to set an option that doesn't exist.
	ErrOptionNotFound Error = -5
	// ErrOptionFormat: trying to set an option using an unsupported format.
	ErrOptionFormat Error = -6
	// ErrOptionError: setting the option failed, typically a parse error.
	ErrOptionError Error = -7
	// ErrPropertyNotFound: the accessed property doesn't exist.
	ErrPropertyNotFound Error = -8
	// ErrPropertyFormat: property access with an unsupported format.
	ErrPropertyFormat Error = -9
	// ErrPropertyUnavailable: the property exists but is currently
	// unavailable, e.g. querying audio parameters while audio is disabled.
	ErrPropertyUnavailable Error = -10
	// ErrPropertyError: error setting or getting a property.
	ErrPropertyError Error = -11
	// ErrCommand: general error running a command.
	ErrCommand Error = -12
	// ErrLoadingFailed: generic error on loading.
	ErrLoadingFailed Error = -13
	// ErrAudioOutputInitFailed: initializing the audio output failed.
	ErrAudioOutputInitFailed Error = -14
	// ErrVideoOutputInitFailed: initializing the video output failed.
	ErrVideoOutputInitFailed Error = -15
	// ErrNothingToPlay: no audio or video data to play, or no streams were
	// selected.
	ErrNothingToPlay Error = -16
	// ErrUnknownFormat: the file format could not be determined, or the file
	// was too broken to open.
	ErrUnknownFormat Error = -17
	// ErrUnsupported: certain system requirements are not fulfilled.
	ErrUnsupported Error = -18
	// ErrNotImplemented: the called API function is a stub.
	ErrNotImplemented Error = -19
	// ErrUnspecified: unspecified error; also the bucket any unrecognized
	// negative status falls into.
	ErrUnspecified Error = -20
)

// errorFor classifies a raw status code. Non-negative codes are success and
// map to nil; recognized negative codes map to their variant; any other
// negative code maps to ErrUnspecified.
func errorFor(status int32) error {
	if status >= 0 {
		return nil
	}
	if status >= int32(ErrUnspecified) && status <= int32(ErrEventQueueFull) {
		return Error(status)
	}
	return ErrUnspecified
}

func (e Error) Error() string {
	switch e {
	case ErrEventQueueFull:
		return "mpv: event queue full"
	case ErrNoMemory:
		return "mpv: memory allocation failed"
	case ErrUninitialized:
		return "mpv: core not initialized"
	case ErrInvalidParameter:
		return "mpv: invalid parameter"
	case ErrOptionNotFound:
		return "mpv: option not found"
	case ErrOptionFormat:
		return "mpv: unsupported format for accessing option"
	case ErrOptionError:
		return "mpv: error setting option"
	case ErrPropertyNotFound:
		return "mpv: property not found"
	case ErrPropertyFormat:
		return "mpv: unsupported format for accessing property"
	case ErrPropertyUnavailable:
		return "mpv: property unavailable"
	case ErrPropertyError:
		return "mpv: error accessing property"
	case ErrCommand:
		return "mpv: error running command"
	case ErrLoadingFailed:
		return "mpv: loading failed"
	case ErrAudioOutputInitFailed:
		return "mpv: audio output initialization failed"
	case ErrVideoOutputInitFailed:
		return "mpv: video output initialization failed"
	case ErrNothingToPlay:
		return "mpv: no audio or video data played"
	case ErrUnknownFormat:
		return "mpv: unrecognized file format"
	case ErrUnsupported:
		return "mpv: not supported"
	case ErrNotImplemented:
		return "mpv: operation not implemented"
	}
	return "mpv: unspecified error"
}

// Description returns the engine's own description of the error via
// mpv_error_string. The engine guarantees a non-NULL static string for every
// code, including unknown ones, so this never fails; if libmpv is not
// available it falls back to the static message.
func (e Error) Description() string {
	if err := loadLibmpv(); err != nil {
		return e.Error()
	}
	return goStringConst(mpvErrorString(int32(e)))
}
