package player

import "testing"

func TestParseDeviceSpecEmpty(t *testing.T) {
	got := ParseDeviceSpec("")
	want := DeviceSpec{}
	if got != want {
		t.Fatalf("ParseDeviceSpec(%q) = %+v, want %+v", "", got, want)
	}
}

func TestParseDeviceSpecAllParts(t *testing.T) {
	got := ParseDeviceSpec("CoreAudio|Built-in Output|48000|s16")
	want := DeviceSpec{Host: "CoreAudio", Device: "Built-in Output", Rate: 48000, Format: "s16"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseDeviceSpecPartialLeavesRestZero(t *testing.T) {
	got := ParseDeviceSpec("ALSA")
	want := DeviceSpec{Host: "ALSA"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseDeviceSpecSkipsEmptyMiddleParts(t *testing.T) {
	got := ParseDeviceSpec("|Speakers||flac")
	want := DeviceSpec{Device: "Speakers", Format: "flac"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseDeviceSpecNonNumericRateLeftZero(t *testing.T) {
	got := ParseDeviceSpec("||fast||")
	if got.Rate != 0 {
		t.Fatalf("Rate = %d, want 0 for non-numeric input", got.Rate)
	}
}

func TestParseDeviceSpecIgnoresExtraParts(t *testing.T) {
	got := ParseDeviceSpec("a|b|44100|flac|extra|parts")
	want := DeviceSpec{Host: "a", Device: "b", Rate: 44100, Format: "flac"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestBufferRampSizesAlignedToFourAndIncreasing(t *testing.T) {
	sizes := bufferRampSizes(44100)
	if len(sizes) == 0 {
		t.Fatal("expected at least one buffer size")
	}
	for i, s := range sizes {
		if s%4 != 0 {
			t.Fatalf("size[%d] = %d not aligned to 4", i, s)
		}
		if i > 0 && s <= sizes[i-1] {
			t.Fatalf("sizes not increasing: %v", sizes)
		}
	}
}

func TestContainsIsCaseInsensitive(t *testing.T) {
	if !contains("USB Audio Device", "usb audio") {
		t.Fatal("expected case-insensitive substring match")
	}
	if contains("USB Audio Device", "bluetooth") {
		t.Fatal("unexpected match")
	}
}

func TestContainsEmptyNeedleMatchesAnything(t *testing.T) {
	if !contains("anything", "") {
		t.Fatal("empty needle should match")
	}
}
