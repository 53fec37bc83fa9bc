package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/smegmarip/live-recognition/pkg/utils"
)

var stillExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".bmp": true,
}

// StillsSource replays the images of a directory as a camera feed, holding
// each image for Hold before moving to the next. JPEG EXIF orientation is
// honoured so frames come out upright.
type StillsSource struct {
	Dir  string
	Hold time.Duration
	now  func() time.Time
}

// NewStillsSource creates a directory-backed frame source
func NewStillsSource(dir string) *StillsSource {
	return &StillsSource{Dir: dir, Hold: time.Second, now: time.Now}
}

func (s *StillsSource) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Device: s.Dir, Err: err}
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, Classify(s.Dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !stillExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(s.Dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, &NotFoundError{Device: s.Dir, Err: fmt.Errorf("no images in directory")}
	}
	sort.Strings(paths)

	hold := s.Hold
	if hold <= 0 {
		hold = time.Second
	}
	stream := &stillsStream{
		id:     uuid.NewString(),
		paths:  paths,
		hold:   hold,
		bounds: utils.Size{Width: c.Width, Height: c.Height},
		start:  s.now(),
		now:    s.now,
		cache:  make(map[int]image.Image),
	}
	stream.track = NewTrack("stills "+filepath.Base(s.Dir), nil)

	// decode the first frame up front so acquisition fails fast on bad input
	first, err := stream.load(0)
	if err != nil {
		return nil, &Error{Device: s.Dir, Err: err}
	}
	stream.size = sizeOf(first)
	log.Infof("Stills source: %d image(s) from %s", len(paths), s.Dir)
	return stream, nil
}

type stillsStream struct {
	id     string
	paths  []string
	hold   time.Duration
	bounds utils.Size
	start  time.Time
	now    func() time.Time
	track  *BasicTrack

	mu    sync.Mutex
	size  utils.Size
	cache map[int]image.Image
}

func (s *stillsStream) ID() string      { return s.id }
func (s *stillsStream) Tracks() []Track { return []Track{s.track} }

func (s *stillsStream) Size() utils.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *stillsStream) ReadyState() ReadyState {
	if s.track.Stopped() {
		return HaveNothing
	}
	return HaveEnoughData
}

func (s *stillsStream) Frame() (image.Image, error) {
	if s.track.Stopped() {
		return nil, ErrStreamEnded
	}
	idx := int(s.now().Sub(s.start)/s.hold) % len(s.paths)
	img, err := s.load(idx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.size = sizeOf(img)
	s.mu.Unlock()
	return img, nil
}

func (s *stillsStream) load(idx int) (image.Image, error) {
	s.mu.Lock()
	img, ok := s.cache[idx]
	s.mu.Unlock()
	if ok {
		return img, nil
	}

	img, err := LoadOriented(s.paths[idx])
	if err != nil {
		return nil, err
	}
	if s.bounds.Width > 0 && s.bounds.Height > 0 {
		b := img.Bounds()
		if b.Dx() > s.bounds.Width || b.Dy() > s.bounds.Height {
			img = imaging.Fit(img, s.bounds.Width, s.bounds.Height, imaging.Lanczos)
		}
	}

	s.mu.Lock()
	s.cache[idx] = img
	s.mu.Unlock()
	return img, nil
}

// LoadOriented decodes an image file and applies its EXIF orientation
func LoadOriented(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", filepath.Base(path), err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return img, nil
	}
	return ApplyOrientation(img, readOrientation(f)), nil
}

// readOrientation returns the EXIF orientation tag, or 1 when absent
func readOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// ApplyOrientation transforms img so that an image carrying the given EXIF
// orientation displays upright
func ApplyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

func sizeOf(img image.Image) utils.Size {
	b := img.Bounds()
	return utils.Size{Width: b.Dx(), Height: b.Dy()}
}
