package types

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "15", want: 1500},
		{in: "15.5", want: 1550},
		{in: "15.50", want: 1550},
		{in: "15.504", want: 1550},
		{in: "15.505", want: 1551},
		{in: "0.005", want: 1},
		{in: "500", want: 50000},
		{in: "-3", want: -300},
		{in: "+2.50", want: 250},
		{in: "  20.00 ", want: 2000},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "12a", wantErr: true},
		{in: "1.2.3", wantErr: true},
		{in: ".", wantErr: true},
		{in: "-", wantErr: true},
		// huge inputs must error out, never wrap around
		{in: "92233720368547758080", wantErr: true},
		{in: "99999999999999999999999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{1500, "15.00"},
		{1550, "15.50"},
		{1, "0.01"},
		{0, "0.00"},
		{50000, "500.00"},
		{-250, "-2.50"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.in); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
