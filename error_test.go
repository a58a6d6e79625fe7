//go:build darwin || linux

package mpv

import (
	"errors"
	"strings"
	"testing"
	"unsafe"
)

func TestErrorFor(t *testing.T) {
	cases := []struct {
		status int32
		want   error
	}{
		{0, nil},
		{1, nil},
		{64, nil},
		{-1, ErrEventQueueFull},
		{-2, ErrNoMemory},
		{-3, ErrUninitialized},
		{-4, ErrInvalidParameter},
		{-5, ErrOptionNotFound},
		{-6, ErrOptionFormat},
		{-7, ErrOptionError},
		{-8, ErrPropertyNotFound},
		{-9, ErrPropertyFormat},
		{-10, ErrPropertyUnavailable},
		{-11, ErrPropertyError},
		{-12, ErrCommand},
		{-13, ErrLoadingFailed},
		{-14, ErrAudioOutputInitFailed},
		{-15, ErrVideoOutputInitFailed},
		{-16, ErrNothingToPlay},
		{-17, ErrUnknownFormat},
		{-18, ErrUnsupported},
		{-19, ErrNotImplemented},
		{-20, ErrUnspecified},
		{-21, ErrUnspecified},
		{-33, ErrUnspecified},
		{-1000, ErrUnspecified},
	}
	for _, tc := range cases {
		got := errorFor(tc.status)
		if tc.want == nil {
			if got != nil {
				t.Errorf("errorFor(%d) = %v, want nil", tc.status, got)
			}
			continue
		}
		if !errors.Is(got, tc.want) {
			t.Errorf("errorFor(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	for code := ErrUnspecified; code <= ErrEventQueueFull; code++ {
		msg := code.Error()
		if !strings.HasPrefix(msg, "mpv: ") {
			t.Errorf("Error(%d).Error() = %q, want mpv prefix", code, msg)
		}
	}
	if got, want := Error(-99).Error(), ErrUnspecified.Error(); got != want {
		t.Errorf("Error(-99).Error() = %q, want %q", got, want)
	}
}

func TestErrorDescription(t *testing.T) {
	stubLoader(t, nil)
	desc := append([]byte("invalid parameter"), 0)
	var gotCode int32
	old := mpvErrorString
	mpvErrorString = func(code int32) uintptr {
		gotCode = code
		return uintptr(unsafe.Pointer(&desc[0]))
	}
	t.Cleanup(func() { mpvErrorString = old })

	if got := ErrInvalidParameter.Description(); got != "invalid parameter" {
		t.Errorf("Description() = %q, want %q", got, "invalid parameter")
	}
	if gotCode != -4 {
		t.Errorf("mpv_error_string called with %d, want -4", gotCode)
	}
}

func TestErrorDescriptionWithoutLibrary(t *testing.T) {
	stubLoader(t, errors.New("libmpv not found"))

	// Falls back to the static message instead of calling into an unloaded
	// library.
	if got, want := ErrCommand.Description(), ErrCommand.Error(); got != want {
		t.Errorf("Description() = %q, want %q", got, want)
	}
}
