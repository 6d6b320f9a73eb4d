// ABOUTME: Entry point for the Krono playback console
// ABOUTME: Wires config, store, audio device and engine behind a stdin REPL
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/kronoedit/krono-go/internal/config"
	"github.com/kronoedit/krono-go/internal/device"
	"github.com/kronoedit/krono-go/internal/engine"
	"github.com/kronoedit/krono-go/internal/media"
	"github.com/kronoedit/krono-go/internal/model"
	"github.com/kronoedit/krono-go/internal/render"
	"github.com/kronoedit/krono-go/internal/store"
	"github.com/kronoedit/krono-go/internal/timecode"
	"github.com/kronoedit/krono-go/internal/version"
)

var (
	mediaPath  = flag.String("media", "", "Audio file to open as a source clip")
	frames     = flag.Int64("frames", 0, "Source clip length in frames (0 = derive from media)")
	fps        = flag.Float64("fps", 24, "Source frame rate")
	sequenceID = flag.String("sequence", "", "Sequence id to load from the store")
	logFile    = flag.String("log-file", "krono.log", "Log file path")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		logrus.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	logrus.Infof("%s %s starting", version.Product, version.Version)

	seqStore, err := store.Open(cfg.StorePath)
	if err != nil {
		logrus.Fatalf("store: %v", err)
	}
	defer seqStore.Close()

	mixer := media.NewMixer(media.Format{SampleRate: cfg.SampleRate, Channels: cfg.Channels})

	var audio device.Device
	var closeAudio func() error
	if dev, err := device.NewOtoDevice(cfg.SampleRate, cfg.Channels, cfg.AudioBufferMS, mixer); err != nil {
		logrus.Warnf("audio device unavailable, running video-only: %v", err)
	} else {
		audio = dev
		closeAudio = dev.Close
	}

	own := device.NewOwnership()
	buf := render.NewMemoryBuffer()

	eng := engine.New(audio, own, buf, engine.Callbacks{
		OnShowFrame: func(vr render.VideoResult) {
			logrus.Debugf("frame: clip=%s source=%d", vr.ClipID, vr.SourceFrame)
		},
		OnShowGap: func() {
			logrus.Debug("frame: gap")
		},
		OnSetRotation: func(degrees int) {
			logrus.Debugf("rotation: %d", degrees)
		},
		OnPositionChanged: func(frame int64) {
			fmt.Printf("\r%8d ", frame)
		},
	})

	if err := loadInitial(eng, seqStore, mixer, buf); err != nil {
		logrus.Fatalf("%v", err)
	}
	eng.ActivateAudio()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		repl(eng, seqStore, mixer)
	}()

	select {
	case <-sigChan:
		logrus.Info("shutdown signal received")
	case <-done:
	}

	eng.Stop()
	if closeAudio != nil {
		if err := closeAudio(); err != nil {
			logrus.Warnf("error closing audio device: %v", err)
		}
	}
	logrus.Info("stopped")
}

// loadInitial binds either the flagged media file (source mode) or the
// flagged sequence (timeline mode). With neither flag, a one-second
// placeholder source keeps the transport usable.
func loadInitial(eng *engine.Engine, seqStore *store.SequenceStore, mixer *media.Mixer, buf *render.MemoryBuffer) error {
	rate := timecode.SnapToCanonical(timecode.Rate{Num: int32(*fps * 1000), Den: 1000})

	if *sequenceID != "" {
		seq, ok, err := seqStore.Load(*sequenceID)
		if err != nil {
			return fmt.Errorf("load sequence %s: %w", *sequenceID, err)
		}
		if !ok {
			return fmt.Errorf("no sequence %q in store", *sequenceID)
		}
		preloadSequenceMedia(seq, mixer)
		eng.SetTimelineMode(true, seq)
		return nil
	}

	if *mediaPath != "" {
		if err := mixer.LoadFile(*mediaPath); err != nil {
			logrus.Warnf("media decode failed, playing silent: %v", err)
		}
		total := *frames
		if total <= 0 {
			total = deriveFrames(mixer, *mediaPath, rate)
		}
		eng.SetSource(total, rate)
		buf.SetTrackClips(render.TrackID{Type: render.TrackVideo, Index: 0}, []render.ClipLayout{{
			ClipID:     "source",
			MediaPath:  *mediaPath,
			Duration:   total,
			Rate:       rate,
			SpeedRatio: 1,
		}})
		return nil
	}

	eng.SetSource(int64(rate.FPS()), rate)
	return nil
}

// deriveFrames estimates a source clip's frame count from its decoded
// audio duration, falling back to one second for undecodable media.
func deriveFrames(mixer *media.Mixer, path string, rate timecode.Rate) int64 {
	pcm, err := media.DecodeFile(path, media.Format{SampleRate: 48000, Channels: 2})
	if err != nil {
		return int64(rate.FPS())
	}
	total := timecode.TimeToFrame(pcm.DurationUS(), rate)
	if total < 1 {
		total = 1
	}
	return total
}

func preloadSequenceMedia(seq *model.Sequence, mixer *media.Mixer) {
	for _, t := range seq.AudioTracks() {
		for _, c := range t.Clips() {
			if err := mixer.LoadFile(c.MediaPath); err != nil {
				logrus.Warnf("preload %s: %v", c.MediaPath, err)
			}
		}
	}
}

// repl reads transport commands from stdin until EOF or quit.
func repl(eng *engine.Engine, seqStore *store.SequenceStore, mixer *media.Mixer) {
	fmt.Println("commands: play stop j l k slow seek <n> jog <n> status save-demo list quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "play":
			eng.Play()
		case "stop", "k":
			eng.Stop()
		case "l":
			eng.Shuttle(1)
		case "j":
			eng.Shuttle(-1)
		case "slow":
			eng.SlowPlay(1)
		case "seek":
			if n, ok := argInt(fields); ok {
				eng.Seek(n)
			}
		case "jog":
			if n, ok := argInt(fields); ok {
				eng.Seek(eng.Position() + n)
				eng.PlayFrameAudio(eng.Position())
			}
		case "status":
			st := eng.Status()
			fmt.Printf("\npos=%d dir=%d speed=%.1f latched=%v timeline=%v\n",
				st.Position, st.Direction, st.Speed, st.Latched, st.TimelineMode)
		case "list":
			ids, err := seqStore.List()
			if err != nil {
				logrus.Errorf("list: %v", err)
				continue
			}
			fmt.Printf("\nsequences: %v\n", ids)
		case "save-demo":
			if err := seqStore.Save(demoSequence()); err != nil {
				logrus.Errorf("save: %v", err)
			}
		case "quit", "exit":
			return
		default:
			fmt.Printf("\nunknown command %q\n", fields[0])
		}
	}
}

func argInt(fields []string) (int64, bool) {
	if len(fields) < 2 {
		return 0, false
	}
	n, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		fmt.Printf("\nbad number %q\n", fields[1])
		return 0, false
	}
	return n, true
}

// demoSequence builds a small two-track sequence for poking at timeline
// mode without a project file.
func demoSequence() *model.Sequence {
	seq := model.NewSequence("demo", timecode.Rate24)
	seq.SetVideoTrack(0, []model.Clip{
		{ID: "v1", MediaPath: "demo-a.mp3", TimelineStart: 0, Duration: 96, Rate: timecode.Rate24, SpeedRatio: 1},
		{ID: "v2", MediaPath: "demo-b.mp3", TimelineStart: 120, Duration: 96, Rate: timecode.Rate24, SpeedRatio: 1, Rotation: 90},
	})
	seq.SetAudioTrack(0, []model.Clip{
		{ID: "a1", MediaPath: "demo-a.mp3", TimelineStart: 0, Duration: 216, Rate: timecode.Rate24, SpeedRatio: 1},
	})
	return seq
}
