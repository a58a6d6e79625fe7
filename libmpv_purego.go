//go:build darwin || linux

// Bindings load libmpv dynamically at runtime via purego.
//
// Library locations checked (in order):
//   - MPV_LIBRARY_PATH environment variable (full path to the shared object)
//   - System library paths

package mpv

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	libmpvOnce    sync.Once
	libmpvHandle  uintptr
	libmpvInitErr error
	libmpvLoaded  bool
)

// libmpv function pointers
var (
	mpvClientAPIVersion func() uint64
	mpvErrorString      func(code int32) uintptr
	mpvFree             func(data uintptr)
	mpvClientName       func(ctx uintptr) uintptr
	mpvClientID         func(ctx uintptr) int64
	mpvCreate           func() uintptr
	mpvInitialize       func(ctx uintptr) int32
	mpvDestroy          func(ctx uintptr)
	mpvTerminateDestroy func(ctx uintptr)
	mpvCreateClient     func(ctx, name uintptr) uintptr
	mpvCreateWeakClient func(ctx, name uintptr) uintptr
	mpvLoadConfigFile   func(ctx, filename uintptr) int32
	mpvGetTimeNS        func(ctx uintptr) int64
	mpvGetTimeUS        func(ctx uintptr) int64

	mpvSetOption       func(ctx, name uintptr, format int32, data uintptr) int32
	mpvSetOptionString func(ctx, name, data uintptr) int32

	mpvCommand          func(ctx, args uintptr) int32
	mpvCommandNode      func(ctx, args, result uintptr) int32
	mpvCommandRet       func(ctx, args, result uintptr) int32
	mpvCommandString    func(ctx, args uintptr) int32
	mpvCommandAsync     func(ctx uintptr, replyUserdata uint64, args uintptr) int32
	mpvCommandNodeAsync func(ctx uintptr, replyUserdata uint64, args uintptr) int32
	mpvAbortAsyncCmd    func(ctx uintptr, replyUserdata uint64)

	mpvSetProperty          func(ctx, name uintptr, format int32, data uintptr) int32
	mpvSetPropertyString    func(ctx, name, data uintptr) int32
	mpvSetPropertyAsync     func(ctx uintptr, replyUserdata uint64, name uintptr, format int32, data uintptr) int32
	mpvDelProperty          func(ctx, name uintptr) int32
	mpvGetProperty          func(ctx, name uintptr, format int32, data uintptr) int32
	mpvGetPropertyString    func(ctx, name uintptr) uintptr
	mpvGetPropertyOsdString func(ctx, name uintptr) uintptr
	mpvGetPropertyAsync     func(ctx uintptr, replyUserdata uint64, name uintptr, format int32) int32
	mpvObserveProperty      func(ctx uintptr, replyUserdata uint64, name uintptr, format int32) int32
	mpvUnobserveProperty    func(ctx uintptr, registeredReplyUserdata uint64) int32

	mpvEventName          func(eventID int32) uintptr
	mpvRequestEvent       func(ctx uintptr, eventID int32, enable int32) int32
	mpvRequestLogMessages func(ctx, minLevel uintptr) int32
	mpvWaitEvent          func(ctx uintptr, timeout float64) uintptr
	mpvWakeup             func(ctx uintptr)
	mpvSetWakeupCallback  func(ctx, cb, d uintptr)
	mpvWaitAsyncRequests  func(ctx uintptr)
	mpvGetWakeupPipe      func(ctx uintptr) int32

	mpvHookAdd      func(ctx uintptr, replyUserdata uint64, name uintptr, priority int32) int32
	mpvHookContinue func(ctx uintptr, id uint64) int32
)

// C allocator used for every allocation this package hands to the engine and
// for consuming allocations the engine hands back. Resolved through the
// libmpv handle (dlsym searches the dependency chain, so these come from the
// libc the engine itself links against).
var (
	cMalloc func(size uintptr) uintptr
	cFree   func(ptr uintptr)
)

// loadLibmpv loads the libmpv shared library.
func loadLibmpv() error {
	libmpvOnce.Do(func() {
		libmpvInitErr = loadLibmpvLib()
		if libmpvInitErr == nil {
			libmpvLoaded = true
		}
	})
	return libmpvInitErr
}

func loadLibmpvLib() error {
	paths := getLibmpvPaths()

	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			libmpvHandle = handle
			loadLibmpvSymbols()
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to load libmpv: %w", lastErr)
	}
	return errors.New("libmpv not found in any standard location")
}

func getLibmpvPaths() []string {
	var paths []string

	if envPath := os.Getenv("MPV_LIBRARY_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			"libmpv.dylib",
			"libmpv.2.dylib",
			"/opt/homebrew/lib/libmpv.dylib",
			"/usr/local/lib/libmpv.dylib",
			"/opt/local/lib/libmpv.dylib",
		)
	case "linux":
		paths = append(paths,
			"libmpv.so.2",
			"libmpv.so.1",
			"libmpv.so",
			"/usr/local/lib/libmpv.so",
			"/usr/lib/libmpv.so",
		)
	}

	return paths
}

func loadLibmpvSymbols() {
	purego.RegisterLibFunc(&mpvClientAPIVersion, libmpvHandle, "mpv_client_api_version")
	purego.RegisterLibFunc(&mpvErrorString, libmpvHandle, "mpv_error_string")
	purego.RegisterLibFunc(&mpvFree, libmpvHandle, "mpv_free")
	purego.RegisterLibFunc(&mpvClientName, libmpvHandle, "mpv_client_name")
	purego.RegisterLibFunc(&mpvClientID, libmpvHandle, "mpv_client_id")
	purego.RegisterLibFunc(&mpvCreate, libmpvHandle, "mpv_create")
	purego.RegisterLibFunc(&mpvInitialize, libmpvHandle, "mpv_initialize")
	purego.RegisterLibFunc(&mpvDestroy, libmpvHandle, "mpv_destroy")
	purego.RegisterLibFunc(&mpvTerminateDestroy, libmpvHandle, "mpv_terminate_destroy")
	purego.RegisterLibFunc(&mpvCreateClient, libmpvHandle, "mpv_create_client")
	purego.RegisterLibFunc(&mpvCreateWeakClient, libmpvHandle, "mpv_create_weak_client")
	purego.RegisterLibFunc(&mpvLoadConfigFile, libmpvHandle, "mpv_load_config_file")
	purego.RegisterLibFunc(&mpvGetTimeNS, libmpvHandle, "mpv_get_time_ns")
	purego.RegisterLibFunc(&mpvGetTimeUS, libmpvHandle, "mpv_get_time_us")

	purego.RegisterLibFunc(&mpvSetOption, libmpvHandle, "mpv_set_option")
	purego.RegisterLibFunc(&mpvSetOptionString, libmpvHandle, "mpv_set_option_string")

	purego.RegisterLibFunc(&mpvCommand, libmpvHandle, "mpv_command")
	purego.RegisterLibFunc(&mpvCommandNode, libmpvHandle, "mpv_command_node")
	purego.RegisterLibFunc(&mpvCommandRet, libmpvHandle, "mpv_command_ret")
	purego.RegisterLibFunc(&mpvCommandString, libmpvHandle, "mpv_command_string")
	purego.RegisterLibFunc(&mpvCommandAsync, libmpvHandle, "mpv_command_async")
	purego.RegisterLibFunc(&mpvCommandNodeAsync, libmpvHandle, "mpv_command_node_async")
	purego.RegisterLibFunc(&mpvAbortAsyncCmd, libmpvHandle, "mpv_abort_async_command")

	purego.RegisterLibFunc(&mpvSetProperty, libmpvHandle, "mpv_set_property")
	purego.RegisterLibFunc(&mpvSetPropertyString, libmpvHandle, "mpv_set_property_string")
	purego.RegisterLibFunc(&mpvSetPropertyAsync, libmpvHandle, "mpv_set_property_async")
	purego.RegisterLibFunc(&mpvDelProperty, libmpvHandle, "mpv_del_property")
	purego.RegisterLibFunc(&mpvGetProperty, libmpvHandle, "mpv_get_property")
	purego.RegisterLibFunc(&mpvGetPropertyString, libmpvHandle, "mpv_get_property_string")
	purego.RegisterLibFunc(&mpvGetPropertyOsdString, libmpvHandle, "mpv_get_property_osd_string")
	purego.RegisterLibFunc(&mpvGetPropertyAsync, libmpvHandle, "mpv_get_property_async")
	purego.RegisterLibFunc(&mpvObserveProperty, libmpvHandle, "mpv_observe_property")
	purego.RegisterLibFunc(&mpvUnobserveProperty, libmpvHandle, "mpv_unobserve_property")

	purego.RegisterLibFunc(&mpvEventName, libmpvHandle, "mpv_event_name")
	purego.RegisterLibFunc(&mpvRequestEvent, libmpvHandle, "mpv_request_event")
	purego.RegisterLibFunc(&mpvRequestLogMessages, libmpvHandle, "mpv_request_log_messages")
	purego.RegisterLibFunc(&mpvWaitEvent, libmpvHandle, "mpv_wait_event")
	purego.RegisterLibFunc(&mpvWakeup, libmpvHandle, "mpv_wakeup")
	purego.RegisterLibFunc(&mpvSetWakeupCallback, libmpvHandle, "mpv_set_wakeup_callback")
	purego.RegisterLibFunc(&mpvWaitAsyncRequests, libmpvHandle, "mpv_wait_async_requests")
	purego.RegisterLibFunc(&mpvGetWakeupPipe, libmpvHandle, "mpv_get_wakeup_pipe")

	purego.RegisterLibFunc(&mpvHookAdd, libmpvHandle, "mpv_hook_add")
	purego.RegisterLibFunc(&mpvHookContinue, libmpvHandle, "mpv_hook_continue")

	purego.RegisterLibFunc(&cMalloc, libmpvHandle, "malloc")
	purego.RegisterLibFunc(&cFree, libmpvHandle, "free")
}

// IsAvailable checks if libmpv can be loaded.
func IsAvailable() bool {
	if err := loadLibmpv(); err != nil {
		return false
	}
	return libmpvLoaded
}

// ClientAPIVersion returns the MPV_CLIENT_API_VERSION the loaded library was
// compiled with, or 0 if libmpv is not available.
func ClientAPIVersion() uint64 {
	if err := loadLibmpv(); err != nil {
		return 0
	}
	return mpvClientAPIVersion()
}

// EventName returns the engine's name for an event id ("shutdown",
// "end-file", ...), or "" if libmpv is not available. The engine guarantees a
// valid string for any id.
func EventName(id EventID) string {
	if err := loadLibmpv(); err != nil {
		return ""
	}
	return goStringConst(mpvEventName(int32(id)))
}
