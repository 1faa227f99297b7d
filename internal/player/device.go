// Package player drives the output device and the per-track signal chain:
// device selection and buffer sizing (§4.2.1), the normalize/loudness/dither
// source graph (§4.2.2), gapless preload (§4.2.3), the playback run loop
// (§4.2.4), seeking (§4.2.5), volume ramping (§4.2.6), shuffled-position
// mapping (§4.2.7), and the player event stream (§4.2.8).
package player

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

// bufferRampStart/Step/Max implement the buffer-sizing policy of §4.2.1:
// try 100ms of frames, grow by 100ms increments on failure, give up at
// 500ms and fall back to the device's default buffer length.
const (
	bufferRampStart = 100 * time.Millisecond
	bufferRampStep  = 100 * time.Millisecond
	bufferRampMax   = 500 * time.Millisecond
)

// Device owns the open PortAudio output stream and the function the audio
// callback pulls frames from.
type Device struct {
	log zerolog.Logger

	stream     *portaudio.Stream
	sampleRate int
	channels   int

	pull    func(out [][]float32) // set by the player before Start
	errOnce chan error            // catastrophic device error, armed at Open
}

// Open selects a host API, device, sample rate, and buffer size per the
// device-specification grammar (§4.2.1) and returns an unstarted Device.
func Open(log zerolog.Logger, spec DeviceSpec, channels int) (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("player: portaudio init: %w", err)
	}

	dev, err := resolveOutputDevice(spec)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	rate := resolveSampleRate(spec, dev)

	d := &Device{
		log:        log,
		sampleRate: rate,
		channels:   channels,
		errOnce:    make(chan error, 1),
	}

	if err := d.openWithBufferRamp(dev, rate, channels); err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return d, nil
}

func resolveOutputDevice(spec DeviceSpec) (*portaudio.DeviceInfo, error) {
	if spec.Host == "" && spec.Device == "" {
		dev, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, fmt.Errorf("player: default output device: %w", err)
		}
		return dev, nil
	}

	hostApis, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("player: enumerate host apis: %w", err)
	}

	for _, api := range hostApis {
		if spec.Host != "" && !matchesCaseInsensitive(api.Name, spec.Host) {
			continue
		}
		if spec.Device == "" {
			if api.DefaultOutputDevice != nil {
				return api.DefaultOutputDevice, nil
			}
			continue
		}
		for _, d := range api.Devices {
			if d.MaxOutputChannels > 0 && matchesCaseInsensitive(d.Name, spec.Device) {
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("player: no output device matching host=%q device=%q", spec.Host, spec.Device)
}

func matchesCaseInsensitive(haystack, needle string) bool {
	return contains(haystack, needle)
}

func resolveSampleRate(spec DeviceSpec, dev *portaudio.DeviceInfo) int {
	if spec.Rate > 0 {
		return spec.Rate
	}
	if dev.DefaultSampleRate > 0 {
		return int(dev.DefaultSampleRate)
	}
	return standardRates[0]
}

// openWithBufferRamp tries the buffer-sizing ramp of §4.2.1, falling back
// to the device's own default buffer length if every fixed size fails.
func (d *Device) openWithBufferRamp(dev *portaudio.DeviceInfo, rate, channels int) error {
	tryRate := rate
	for _, size := range bufferRampSizes(rate) {
		if err := d.tryOpen(dev, tryRate, channels, size); err == nil {
			return nil
		}
	}

	// Fixed sizes failed; retry other standard rates before giving up on
	// this device entirely (§4.2.1 "when a rate is requested but the
	// device disagrees, enumerate standard rates").
	for _, altRate := range standardRates {
		if altRate == rate {
			continue
		}
		for _, size := range bufferRampSizes(altRate) {
			if err := d.tryOpen(dev, altRate, channels, size); err == nil {
				d.sampleRate = altRate
				return nil
			}
		}
	}

	return d.tryOpen(dev, rate, channels, portaudio.FramesPerBufferUnspecified)
}

func bufferRampSizes(rate int) []int {
	var sizes []int
	for d := bufferRampStart; d <= bufferRampMax; d += bufferRampStep {
		frames := int(float64(rate) * d.Seconds())
		frames -= frames % 4 // aligned to a multiple of 4 frames
		if frames > 0 {
			sizes = append(sizes, frames)
		}
	}
	return sizes
}

func (d *Device) tryOpen(dev *portaudio.DeviceInfo, rate, channels, framesPerBuffer int) error {
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(rate),
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, d.callback)
	if err != nil {
		return err
	}
	d.stream = stream
	return nil
}

// callback is invoked on PortAudio's audio thread; it must never block.
func (d *Device) callback(out [][]float32) {
	if d.pull == nil {
		for ch := range out {
			for i := range out[ch] {
				out[ch][i] = 0
			}
		}
		return
	}
	d.pull(out)
}

// Start starts the output stream and its audio thread.
func (d *Device) Start() error {
	return d.stream.Start()
}

// Stop closes the output device. It is safe to call Stop followed by a
// fresh Open (§4.2.1 "closed on stop").
func (d *Device) Stop() error {
	if d.stream == nil {
		return nil
	}
	err := d.stream.Stop()
	closeErr := d.stream.Close()
	portaudio.Terminate()
	if err != nil {
		return err
	}
	return closeErr
}

// SetPullFunc sets the function the audio callback pulls frames from.
func (d *Device) SetPullFunc(pull func(out [][]float32)) {
	d.pull = pull
}

// Errors returns the one-shot channel, armed at Open, that Run watches for
// catastrophic device errors (§4.2.4 "armed at device open"). Nothing in
// Device sends on it.
func (d *Device) Errors() <-chan error {
	return d.errOnce
}

func (d *Device) SampleRate() int { return d.sampleRate }
func (d *Device) Channels() int   { return d.channels }

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	hl, nl := len(haystack), len(needle)
	if nl > hl {
		return false
	}
	for i := 0; i+nl <= hl; i++ {
		if equalFold(haystack[i:i+nl], needle) {
			return true
		}
	}
	return false
}
