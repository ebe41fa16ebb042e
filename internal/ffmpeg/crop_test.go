package ffmpeg

import "testing"

func TestCropGeometry(t *testing.T) {
	cases := []struct {
		name  string
		w, h  int
		cropW int
		cropH int
	}{
		{"wide 16:9 input loses width", 1920, 1080, 607, 1080},
		{"already 9:16 stays intact", 1080, 1920, 1080, 1920},
		{"taller than 9:16 loses height", 1080, 2400, 1080, 1920},
		{"square input loses width", 1000, 1000, 562, 1000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotW, gotH := CropGeometry(tc.w, tc.h)
			if gotW != tc.cropW || gotH != tc.cropH {
				t.Fatalf("CropGeometry(%d, %d) = %dx%d, want %dx%d",
					tc.w, tc.h, gotW, gotH, tc.cropW, tc.cropH)
			}
			if gotW > tc.w || gotH > tc.h {
				t.Fatalf("crop window %dx%d exceeds input %dx%d", gotW, gotH, tc.w, tc.h)
			}
		})
	}
}
