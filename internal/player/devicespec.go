package player

import (
	"strconv"
	"strings"
)

// standardRates are tried, in order, when a requested sample rate is not
// supported by the chosen device (§4.2.1).
var standardRates = []int{44100, 48000}

// DeviceSpec is a parsed `[host][|device][|rate][|format]` output-device
// string (§4.2.1). Any part may be empty, meaning "use the default".
type DeviceSpec struct {
	Host   string
	Device string
	Rate   int
	Format string
}

// ParseDeviceSpec parses the pipe-delimited device-selection grammar. Parts
// are matched case-insensitively; rate is the only numeric part and is
// simply left zero (meaning "default") if it doesn't parse as an integer.
func ParseDeviceSpec(spec string) DeviceSpec {
	var out DeviceSpec
	if spec == "" {
		return out
	}
	parts := strings.Split(spec, "|")
	for i, p := range parts {
		if i > 3 {
			break
		}
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		switch i {
		case 0:
			out.Host = p
		case 1:
			out.Device = p
		case 2:
			if n, err := strconv.Atoi(p); err == nil {
				out.Rate = n
			}
		case 3:
			out.Format = strings.ToLower(p)
		}
	}
	return out
}
