package gsm

import (
	"slices"
	"testing"
	"time"
)

func TestFields(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`1,2`, []string{"1", "2"}},
		{`"REC READ","+1","","24/01/02,10:20:30+00"`, []string{"REC READ", "+1", "", "24/01/02,10:20:30+00"}},
		{` 0 , 1 `, []string{"0", "1"}},
		{``, []string{""}},
	}
	for _, tt := range tests {
		if got := fields(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("fields(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGroups(t *testing.T) {
	got := groups(`(1,"A(x)","B","1"),,(0,1)`)
	want := []string{`1,"A(x)","B","1"`, `0,1`}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{`"24/01/02,10:20:30+00"`, time.Date(2024, 1, 2, 10, 20, 30, 0, time.UTC), false},
		{`24/01/02,10:20:30-08`, time.Date(2024, 1, 2, 12, 20, 30, 0, time.UTC), false},
		{`24/01/02,10:20:30`, time.Date(2024, 1, 2, 10, 20, 30, 0, time.UTC), false},
		{`24/13/02,10:20:30+00`, time.Time{}, true},
		{`garbage`, time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := parseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseClock(%q): error %v", tt.in, err)
			continue
		}
		if !tt.wantErr && !got.Equal(tt.want) {
			t.Errorf("parseClock(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseCallInfo(t *testing.T) {
	ci, err := parseCallInfo(`2,0,2,0,1,"112",129`)
	if err != nil {
		t.Fatal(err)
	}
	want := CallInfo{ID: 2, Dir: CallDirMO, State: CallStateDialing, Multiparty: true, Number: "112", AddressType: 129}
	if ci != want {
		t.Errorf("got %+v, want %+v", ci, want)
	}
	if _, err := parseCallInfo(`1,0`); err == nil {
		t.Error("expected error for short line")
	}
}

func TestSignalDBm(t *testing.T) {
	if d, ok := (Signal{RSSI: 10}).DBm(); !ok || d != -93 {
		t.Errorf("RSSI 10: %d %v", d, ok)
	}
	if _, ok := (Signal{RSSI: 99}).DBm(); ok {
		t.Error("RSSI 99 must be unknown")
	}
}
