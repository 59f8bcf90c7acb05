package malgodev

import (
	"encoding/hex"
	"runtime"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/audiopipe/internal/errors"
)

// captureSource holds information about a selected capture source.
type captureSource struct {
	name    string
	id      string
	pointer unsafe.Pointer
}

// DeviceInfo describes one available capture device.
type DeviceInfo struct {
	Index   int
	Name    string
	ID      string
	Default bool
}

// ListCaptureDevices enumerates the capture devices the platform backend
// exposes.
func ListCaptureDevices() ([]DeviceInfo, error) {
	ctx, err := malgo.InitContext([]malgo.Backend{platformBackend()}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component("malgodev").
			Category(errors.CategoryAudioDevice).
			Context("operation", "init_context").
			Build()
	}
	defer ctx.Uninit() //nolint:errcheck

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(err).
			Component("malgodev").
			Category(errors.CategoryAudioDevice).
			Context("operation", "list_devices").
			Build()
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:   i,
			Name:    info.Name(),
			ID:      decodedID,
			Default: info.IsDefault == 1,
		})
	}
	return devices, nil
}

// selectCaptureSource picks the capture device matching the source setting.
func selectCaptureSource(ctx *malgo.AllocatedContext, source string) (captureSource, error) {
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return captureSource{}, errors.New(err).
			Component("malgodev").
			Category(errors.CategoryAudioDevice).
			Context("operation", "list_devices").
			Build()
	}

	for _, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		if matchesDeviceSetting(decodedID, info, source) {
			return captureSource{
				name:    info.Name(),
				id:      decodedID,
				pointer: info.ID.Pointer(),
			}, nil
		}
	}

	return captureSource{}, errors.Newf("no suitable capture source found for device setting %q", source).
		Component("malgodev").
		Category(errors.CategoryAudioDevice).
		Build()
}

// matchesDeviceSetting checks if the device matches the configured source.
func matchesDeviceSetting(decodedID string, info malgo.DeviceInfo, source string) bool {
	if runtime.GOOS == "windows" && source == "sysdefault" {
		// On Windows there is no "sysdefault" device, use the backend
		// default instead.
		return info.IsDefault == 1
	}
	return decodedID == source || strings.Contains(info.Name(), source)
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
