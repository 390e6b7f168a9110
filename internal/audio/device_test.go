package audio

import (
	"context"
	"reflect"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

var (
	headset  = Device{ID: "alsa_input.usb-field_headset", Description: "Field Headset Mono", Available: true}
	lavalier = Device{ID: "alsa_input.usb-lavalier", Description: "Clip-on Lavalier", Available: true}
	builtin  = Device{ID: "alsa_input.pci-builtin", Description: "Built-in Microphone", Available: true}
)

func withDefault(d Device) Device {
	d.Default = true
	return d
}

func muted(d Device) Device {
	d.Muted = true
	return d
}

func unplugged(d Device) Device {
	d.Available = false
	return d
}

func TestSelectDeviceFromList(t *testing.T) {
	tests := []struct {
		name     string
		devices  []Device
		input    string
		fallback string
		wantID   string
		warning  string
		switched bool
		wantErr  error
		errText  string
	}{
		{
			name:     "default source",
			devices:  []Device{withDefault(headset), lavalier},
			input:    "default",
			fallback: "default",
			wantID:   headset.ID,
		},
		{
			name:    "input matched by description",
			devices: []Device{withDefault(headset), lavalier},
			input:   "Clip-on",
			wantID:  lavalier.ID,
		},
		{
			name:     "muted input falls back",
			devices:  []Device{withDefault(muted(headset)), lavalier},
			input:    "headset",
			fallback: "lavalier",
			wantID:   lavalier.ID,
			warning:  "muted",
			switched: true,
		},
		{
			name:     "unplugged input falls back to default",
			devices:  []Device{unplugged(headset), withDefault(builtin)},
			input:    "headset",
			wantID:   builtin.ID,
			warning:  "unavailable",
			switched: true,
		},
		{
			name:     "fallback resolves to the same muted source",
			devices:  []Device{withDefault(muted(headset))},
			input:    "default",
			fallback: "default",
			wantErr:  ErrDeviceUnusable,
			errText:  "muted",
		},
		{
			name:     "unknown input",
			devices:  []Device{withDefault(headset)},
			input:    "tractor-cab",
			fallback: "default",
			wantErr:  ErrDeviceNotFound,
			errText:  "did not match",
		},
		{
			name:     "unknown fallback",
			devices:  []Device{withDefault(muted(headset))},
			input:    "default",
			fallback: "phone",
			wantErr:  ErrDeviceNotFound,
			errText:  "audio.fallback failed",
		},
		{
			name:    "no devices",
			input:   "default",
			wantErr: ErrNoDevices,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selection, err := selectDeviceFromList(tt.devices, tt.input, tt.fallback)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorContains(t, err, tt.errText)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, selection.Device.ID)
			require.Equal(t, tt.switched, selection.Fallback)
			if tt.warning == "" {
				require.Empty(t, selection.Warning)
			} else {
				require.Contains(t, selection.Warning, tt.warning)
			}
		})
	}
}

func TestDeviceMatches(t *testing.T) {
	require.True(t, deviceMatches(headset, "field_headset"))
	require.True(t, deviceMatches(headset, "headset mono"))
	require.False(t, deviceMatches(headset, ""))
	require.False(t, deviceMatches(headset, "lavalier"))
}

func TestDeviceQueriesFailWithoutPulse(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/nonexistent/agrivoice-pulse")

	_, err := ListDevices(context.Background())
	require.Error(t, err)

	_, err = SelectDevice(context.Background(), "default", "default")
	require.Error(t, err)
}

func TestSourceStateString(t *testing.T) {
	for state, want := range map[uint32]string{0: "running", 1: "idle", 2: "suspended", 7: "unknown(7)"} {
		require.Equal(t, want, sourceStateString(state))
	}
}

func TestSourceAvailable(t *testing.T) {
	require.False(t, sourceAvailable(nil))
	require.True(t, sourceAvailable(&pulseproto.GetSourceInfoReply{}))

	tests := []struct {
		active    string
		available uint32
		want      bool
	}{
		{active: "analog-input-mic", available: 0, want: true},
		{active: "analog-input-mic", available: 1, want: false},
		{active: "analog-input-mic", available: 2, want: true},
		{active: "analog-input-line", available: 1, want: true},
	}
	for _, tt := range tests {
		reply := &pulseproto.GetSourceInfoReply{ActivePortName: tt.active}
		setPorts(t, reply, map[string]uint32{"analog-input-mic": tt.available})
		require.Equal(t, tt.want, sourceAvailable(reply), "%s=%d", tt.active, tt.available)
	}
}

// setPorts fills the reply's unnamed port struct slice by reflection.
func setPorts(t *testing.T, reply *pulseproto.GetSourceInfoReply, ports map[string]uint32) {
	t.Helper()

	field := reflect.ValueOf(reply).Elem().FieldByName("Ports")
	slice := reflect.MakeSlice(field.Type(), 0, len(ports))
	for name, available := range ports {
		port := reflect.New(field.Type().Elem()).Elem()
		port.FieldByName("Name").SetString(name)
		port.FieldByName("Available").SetUint(uint64(available))
		slice = reflect.Append(slice, port)
	}
	field.Set(slice)
}
