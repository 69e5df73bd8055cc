package mirror

import (
	"context"

	"github.com/cloakshare/safemirror/internal/types"
)

// Capture is the capture capability the orchestrator depends on. Sources
// produce display geometry and the latest frame on demand; LatestFrame is
// non-blocking and may report no frame.
type Capture interface {
	StartCapture(ctx context.Context) error
	DisplayResolution() (int, int, error)
	LatestFrame() (*types.Frame, bool)
	Stop() error
}

// Renderer is the presentation capability: texture upload and present,
// plus surface reconfiguration on resize.
type Renderer interface {
	Resize(width, height int)
	UpdateTexture(data []byte)
	Present() error
	CurrentSize() (int, int)
	Close() error
}

// Extractor is the duty-cycled text extraction capability. Submit and
// Poll are non-blocking so extraction latency never stalls the tick.
type Extractor interface {
	Start(ctx context.Context) error
	Stop()
	ShouldExtract(tick uint64) bool
	Submit(f *types.Frame) bool
	Poll() (string, bool)
}

// Publisher publishes detection-event summaries to a broker.
type Publisher interface {
	Connect(ctx context.Context) error
	Publish(ev types.DetectionEvent) error
	Disconnect() error
}
