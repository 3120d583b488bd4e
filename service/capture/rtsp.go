package capture

import (
	"context"
	"fmt"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/snap-go/model"
	"github.com/khaledhikmat/snap-go/service/config"
)

const jpegQuality = 90

// gocv does not name CAP_PROP_OPEN_TIMEOUT_MSEC and
// CAP_PROP_READ_TIMEOUT_MSEC, so the raw OpenCV property ids are passed
// through the typed conversion.
const (
	videoCaptureOpenTimeoutMsec = gocv.VideoCaptureProperties(53)
	videoCaptureReadTimeoutMsec = gocv.VideoCaptureProperties(54)
)

type rtspService struct {
	CfgSvc config.IService
}

// NewRTSP returns a capturer that opens the camera's stream from scratch on
// every call and tears it down before returning. No stream handle survives a
// snapshot, so there is no stale connection to go bad between triggers.
func NewRTSP(cfgsvc config.IService) IService {
	return &rtspService{
		CfgSvc: cfgsvc,
	}
}

func (svc *rtspService) Snapshot(ctx context.Context, camera model.Camera) (model.CapturedFrame, error) {
	if err := ctx.Err(); err != nil {
		return model.CapturedFrame{}, err
	}

	start := time.Now()

	// The error names the locator without its embedded password since it
	// ends up in logs and chat notices.
	webcam, err := gocv.OpenVideoCapture(camera.RtspURL)
	if err != nil {
		return model.CapturedFrame{}, fmt.Errorf("opening stream %s for camera %s: %w", camera.SafeURL(), camera.Name, err)
	}
	defer webcam.Close()

	// Bound decoder stalls and keep the internal buffer at one frame so the
	// snapshot is close to live rather than the oldest buffered frame. The
	// open timeout only takes effect on the next open of this handle.
	webcam.Set(videoCaptureOpenTimeoutMsec, float64(svc.CfgSvc.GetCaptureOpenTimeout()))
	webcam.Set(videoCaptureReadTimeoutMsec, float64(svc.CfgSvc.GetCaptureReadTimeout()))
	webcam.Set(gocv.VideoCaptureBufferSize, 1)

	img := gocv.NewMat()
	defer img.Close()

	if ok := webcam.Read(&img); !ok || img.Empty() {
		return model.CapturedFrame{}, xerrors.Errorf("no frame available from camera %s", camera.Name)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, jpegQuality})
	if err != nil {
		return model.CapturedFrame{}, fmt.Errorf("encoding frame for camera %s: %w", camera.Name, err)
	}
	defer buf.Close()

	// The native buffer is released on Close so the bytes must be copied out.
	image := make([]byte, buf.Len())
	copy(image, buf.GetBytes())

	return model.CapturedFrame{
		Camera:    camera.Name,
		Image:     image,
		Timestamp: time.Now(),
		Elapsed:   time.Since(start),
	}, nil
}
