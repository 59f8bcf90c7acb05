// Package record implements the capture-to-WAV subcommand: it runs a full
// session end to end, acting as the remote consumer of the shared queues.
package record

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tphakala/audiopipe/internal/audio"
	"github.com/tphakala/audiopipe/internal/conf"
	"github.com/tphakala/audiopipe/internal/device/malgodev"
	"github.com/tphakala/audiopipe/internal/fmq"
	"github.com/tphakala/audiopipe/internal/logging"
	"github.com/tphakala/audiopipe/internal/observability/metrics"
	"github.com/tphakala/audiopipe/internal/sched"
	"github.com/tphakala/audiopipe/internal/streamin"
)

// Command returns the record subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		output   string
		duration time.Duration
		priority string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Capture audio through the shared-memory pipeline into a WAV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if priority == "" {
				priority = settings.Capture.Priority
			}
			return runRecord(cmd.Context(), settings, output, duration, priority)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "capture.wav", "Output WAV file path")
	cmd.Flags().DurationVarP(&duration, "duration", "t", 10*time.Second, "Capture duration")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Capture thread priority (normal, urgent)")

	return cmd
}

func runRecord(ctx context.Context, settings *conf.Settings, output string, duration time.Duration, priority string) error {
	logger := logging.ForService("record")

	prio, err := sched.ParsePriority(priority)
	if err != nil {
		return err
	}

	format := audio.Format{
		SampleRate: settings.Audio.SampleRate,
		Channels:   settings.Audio.Channels,
		BitDepth:   settings.Audio.BitDepth,
	}

	dev, err := malgodev.Open(malgodev.Config{
		Source: settings.Audio.Source,
		Format: format,
		Debug:  settings.Debug,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.NewCaptureMetrics(registry)
	if err != nil {
		_ = dev.Close()
		return err
	}

	stream := streamin.New("default", dev, sched.NewElevator(), m, streamin.Config{
		WaitTimeout:   settings.Capture.WaitTimeout,
		OverrunPolicy: settings.Capture.OverrunPolicy,
	})

	// One second worth of frames in the data queue.
	frameSize := uint32(format.FrameSize())
	framesCount := uint32(format.SampleRate)
	res, dataDesc, statusDesc := stream.PrepareForReading(frameSize, framesCount, prio)
	if res != audio.ResultOK {
		_ = dev.Close()
		return fmt.Errorf("prepare for reading failed: %s", res)
	}
	streamClosed := false
	defer func() {
		if !streamClosed {
			stream.Close()
		}
	}()

	// Attach the consumer side exactly as a remote process would, from
	// the descriptors.
	dataMQ, err := fmq.AttachDataQueue(*dataDesc)
	if err != nil {
		return err
	}
	defer dataMQ.Close() //nolint:errcheck
	statusMQ, err := fmq.AttachStatusQueue(*statusDesc)
	if err != nil {
		return err
	}
	defer statusMQ.Close() //nolint:errcheck
	efGroup, err := fmq.CreateEventFlag(dataMQ.EventFlagWord())
	if err != nil {
		return err
	}

	outFile, err := os.Create(output)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(outFile, format.SampleRate, format.BitDepth, format.Channels, 1)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	deadline := time.After(duration)

	logger.Info("recording", "output", output, "duration", duration.String(),
		"sample_rate", format.SampleRate, "channels", format.Channels)

	buf := make([]byte, dataMQ.Capacity())
	statusBuf := make([]byte, audio.ReadStatusSize)

	// Kick the producer: the queue is empty, so there is space to fill.
	if err := efGroup.Wake(fmq.FlagNotFull); err != nil {
		logger.Warn("initial wake failed", "error", err)
	}

drain:
	for {
		select {
		case <-ctx.Done():
			break drain
		case <-deadline:
			break drain
		default:
		}

		bits := efGroup.Wait(fmq.FlagNotEmpty, 100*time.Millisecond)
		if bits&fmq.FlagNotEmpty == 0 {
			continue
		}

		if statusMQ.ReadRecord(statusBuf) {
			status := audio.UnmarshalReadStatus(statusBuf)
			if status.Result != audio.ResultOK {
				logger.Warn("read cycle failed", "result", status.Result.String())
			}
		}

		n := dataMQ.Read(buf)
		if n > 0 {
			if err := enc.Write(&gaudio.IntBuffer{
				Data:           byteSliceToInts(buf[:n]),
				Format:         &gaudio.Format{SampleRate: format.SampleRate, NumChannels: format.Channels},
				SourceBitDepth: format.BitDepth,
			}); err != nil {
				_ = enc.Close()
				_ = outFile.Close()
				return fmt.Errorf("failed to write to WAV encoder: %w", err)
			}
		}

		if err := efGroup.Wake(fmq.FlagNotFull); err != nil {
			logger.Warn("event flag wake failed", "error", err)
		}
	}

	if res := stream.Close(); res != audio.ResultOK {
		logger.Warn("stream close", "result", res.String())
	}
	streamClosed = true

	if err := enc.Close(); err != nil {
		_ = outFile.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return outFile.Close()
}

// byteSliceToInts converts little-endian 16-bit PCM bytes to the integer
// samples the WAV encoder expects.
func byteSliceToInts(pcmData []byte) []int {
	samples := make([]int, 0, len(pcmData)/2)
	for i := 0; i+1 < len(pcmData); i += 2 {
		samples = append(samples, int(int16(binary.LittleEndian.Uint16(pcmData[i:i+2]))))
	}
	return samples
}
