package parsers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "hours folded into minutes", token: "1:05:30.12", want: "65:30.12"},
		{name: "zero hours", token: "0:47:05.3", want: "47:05.3"},
		{name: "two hours", token: "2:00:01", want: "120:01"},
		{name: "minutes and seconds unchanged", token: "5:30.12", want: "5:30.12"},
		{name: "long minutes unchanged", token: "47:05", want: "47:05"},
		{name: "bare number unchanged", token: "205", want: "205"},
		{name: "letters pass through", token: "abc", want: "abc"},
		{name: "placeholder time passes through", token: "x:xx:xx", want: "x:xx:xx"},
		{name: "empty", token: "", want: ""},
		{name: "dash", token: "-", want: ""},
		{name: "empty hour part passes through", token: ":05:30", want: ":05:30"},
		{name: "empty minute part passes through", token: "1::30", want: "1::30"},
		{name: "four parts unchanged", token: "1:2:3:4", want: "1:2:3:4"},
		{name: "DNF passes through", token: "DNF", want: "DNF"},
		{name: "hours that overflow minutes pass through", token: "153722867280912931:00:00", want: "153722867280912931:00:00"},
		{name: "hours beyond int range pass through", token: "99999999999999999999:00:00", want: "99999999999999999999:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeTime(tt.token))
		})
	}
}

func Test_tokenShapes(t *testing.T) {
	t.Run("time like", func(t *testing.T) {
		require.True(t, isTimeLike("15:20"))
		require.True(t, isTimeLike("1:05:30.12"))
		require.True(t, isTimeLike("15:20x"))
		require.False(t, isTimeLike("-"))
		require.False(t, isTimeLike(":20"))
		require.False(t, isTimeLike("DNF"))
	})

	t.Run("points", func(t *testing.T) {
		require.True(t, isPoints("205"))
		require.False(t, isPoints("45"))
		require.False(t, isPoints("1205"))
		require.False(t, isPoints("2o5"))
	})
}

func TestClockSeconds(t *testing.T) {
	tests := []struct {
		clock  string
		want   float64
		wantOK bool
	}{
		{clock: "63:05", want: 3785, wantOK: true},
		{clock: "66:48.60", want: 4008.6, wantOK: true},
		{clock: "1:00:00", want: 3600, wantOK: true},
		{clock: "0:59.5", want: 59.5, wantOK: true},
		{clock: "DNF"},
		{clock: ""},
		{clock: "205"},
		{clock: "1:2:3:4"},
		{clock: "x:xx:xx"},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			got, ok := ClockSeconds(tt.clock)
			require.Equal(t, tt.wantOK, ok)
			require.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
