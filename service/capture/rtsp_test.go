package capture

import "testing"

// The timeout properties are passed to OpenCV by raw id; these must stay
// CAP_PROP_OPEN_TIMEOUT_MSEC (53) and CAP_PROP_READ_TIMEOUT_MSEC (54).
func TestTimeoutPropertyIDs(t *testing.T) {
	if videoCaptureOpenTimeoutMsec != 53 {
		t.Errorf("videoCaptureOpenTimeoutMsec = %d, want 53", int(videoCaptureOpenTimeoutMsec))
	}
	if videoCaptureReadTimeoutMsec != 54 {
		t.Errorf("videoCaptureReadTimeoutMsec = %d, want 54", int(videoCaptureReadTimeoutMsec))
	}
}
