// Package testsupport provides fakes shared by package tests.
package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrExit mimics a non-zero process exit
var ErrExit = errors.New("exit status 1")

// Call records one invocation made through FakeMedia
type Call struct {
	Name string
	Args []string
}

// FakeMedia stands in for ffprobe and ffmpeg. Encodes write a small
// playlist plus segments so the rest of the pipeline sees real files.
type FakeMedia struct {
	// SourceWidth and SourceHeight are reported for any non-playlist input
	SourceWidth  int
	SourceHeight int

	// Segments written per variant, defaults to 2
	Segments int

	// FailVariant makes the encode of that variant exit non-zero
	FailVariant string
	// FailProbe makes every probe of the source exit non-zero
	FailProbe bool
	// FailVariantProbe makes probes of produced playlists exit non-zero
	FailVariantProbe bool
	// Unavailable makes "ffmpeg -version" fail
	Unavailable bool

	// EncodeDelay is slept inside every encode
	EncodeDelay time.Duration

	mu            sync.Mutex
	calls         []Call
	produced      map[string][2]int
	active        int
	maxConcurrent int
}

// NewFakeMedia returns a fake reporting the given source dimensions
func NewFakeMedia(width, height int) *FakeMedia {
	return &FakeMedia{SourceWidth: width, SourceHeight: height, Segments: 2}
}

// Run implements the transcoder runner contract
func (f *FakeMedia) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: append([]string(nil), args...)})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	switch filepath.Base(name) {
	case "ffprobe":
		return f.probe(args)
	case "ffmpeg":
		if len(args) == 1 && args[0] == "-version" {
			if f.Unavailable {
				return nil, []byte("ffmpeg: command not found"), ErrExit
			}
			return []byte("ffmpeg version 6.0"), nil, nil
		}
		return f.encode(ctx, args)
	}
	return nil, []byte("unknown tool " + name), ErrExit
}

func (f *FakeMedia) probe(args []string) ([]byte, []byte, error) {
	path := args[len(args)-1]

	if strings.HasSuffix(path, ".m3u8") {
		if f.FailVariantProbe {
			return nil, []byte("Invalid data found when processing input"), ErrExit
		}
		f.mu.Lock()
		dims, ok := f.produced[path]
		f.mu.Unlock()
		if !ok {
			return nil, []byte(path + ": No such file or directory"), ErrExit
		}
		return []byte(fmt.Sprintf("%d,%d\n", dims[0], dims[1])), nil, nil
	}

	if f.FailProbe {
		return nil, []byte("moov atom not found"), ErrExit
	}
	return []byte(fmt.Sprintf("%d,%d\n", f.SourceWidth, f.SourceHeight)), nil, nil
}

func (f *FakeMedia) encode(ctx context.Context, args []string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxConcurrent {
		f.maxConcurrent = f.active
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.EncodeDelay > 0 {
		select {
		case <-time.After(f.EncodeDelay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	playlist := args[len(args)-1]
	variant := strings.TrimSuffix(filepath.Base(playlist), ".m3u8")
	if variant == f.FailVariant {
		return nil, []byte("Error while opening encoder for output stream"), ErrExit
	}

	height, err := strconv.Atoi(strings.Split(argValue(args, "-vf"), ":")[1])
	if err != nil {
		return nil, []byte("bad scale filter"), ErrExit
	}
	width := f.SourceWidth * height / f.SourceHeight
	width -= width % 2

	pattern := argValue(args, "-hls_segment_filename")
	segments := f.Segments
	if segments <= 0 {
		segments = 2
	}

	var body strings.Builder
	body.WriteString("#EXTM3U\n#EXT-X-PLAYLIST-TYPE:VOD\n")
	for i := 0; i < segments; i++ {
		segment := fmt.Sprintf(pattern, i)
		if err := os.WriteFile(segment, []byte("segment"), 0644); err != nil {
			return nil, []byte(err.Error()), ErrExit
		}
		body.WriteString("#EXTINF:6.0,\n" + filepath.Base(segment) + "\n")
	}
	body.WriteString("#EXT-X-ENDLIST\n")
	if err := os.WriteFile(playlist, []byte(body.String()), 0644); err != nil {
		return nil, []byte(err.Error()), ErrExit
	}

	f.mu.Lock()
	if f.produced == nil {
		f.produced = make(map[string][2]int)
	}
	f.produced[playlist] = [2]int{width, height}
	f.mu.Unlock()

	return nil, nil, nil
}

// Calls returns every invocation so far
func (f *FakeMedia) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// EncodedVariants returns the variant names passed to ffmpeg, in call order
func (f *FakeMedia) EncodedVariants() []string {
	var names []string
	for _, c := range f.Calls() {
		if filepath.Base(c.Name) != "ffmpeg" || len(c.Args) < 2 {
			continue
		}
		names = append(names, strings.TrimSuffix(filepath.Base(c.Args[len(c.Args)-1]), ".m3u8"))
	}
	return names
}

// MaxConcurrentEncodes returns the highest number of overlapping encodes seen
func (f *FakeMedia) MaxConcurrentEncodes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxConcurrent
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
