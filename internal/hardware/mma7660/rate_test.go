package mma7660

import "testing"

func TestSampleRate_Codes(t *testing.T) {
	rates := []SampleRate{120, 64, 32, 16, 8, 4, 2, 1}
	for i, r := range rates {
		code, err := r.Code()
		if err != nil {
			t.Fatalf("Code(%d) failed: %v", r, err)
		}
		if code != byte(i) {
			t.Errorf("rate %d: expected code %d, got %d", r, i, code)
		}
	}
}

func TestParseSampleRate(t *testing.T) {
	tests := []struct {
		in      string
		want    SampleRate
		wantErr bool
	}{
		{"120", Rate120, false},
		{"64\n", Rate64, false},
		{" 1 ", Rate1, false},
		{"0", 0, true},
		{"100", 0, true},
		{"-4", 0, true},
		{"fast", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSampleRate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSampleRate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSampleRate(%q) = %d, expected %d", tt.in, got, tt.want)
		}
	}
}
