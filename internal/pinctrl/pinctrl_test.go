package pinctrl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubRun(t *testing.T, out string, err error) *[][]string {
	t.Helper()
	var calls [][]string
	orig := run
	run = func(args ...string) ([]byte, error) {
		calls = append(calls, args)
		return []byte(out), err
	}
	t.Cleanup(func() { run = orig })
	return &calls
}

func TestParseLevelOutput(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"0", false},
		{"1", true},
		{"\n1\n", true},
		{"\n0\n", false},
	}
	for _, tc := range tests {
		result, err := parseLevel(tc.input)
		if err != nil {
			t.Errorf("error parsing level output %q: %v", tc.input, err)
		}
		if result != tc.expected {
			t.Errorf("expected %v for input %q, got %v", tc.expected, tc.input, result)
		}
	}

	_, err := parseLevel("hi")
	assert.Error(t, err)
}

func TestReadLevel(t *testing.T) {
	calls := stubRun(t, "1\n", nil)

	level, err := ReadLevel(33)
	require.NoError(t, err)
	assert.True(t, level)
	assert.Equal(t, [][]string{{"lev", "33"}}, *calls)
}

func TestDriver_Drive(t *testing.T) {
	calls := stubRun(t, "", nil)
	d := NewDriver()

	require.NoError(t, d.Drive(33, true))
	require.NoError(t, d.Drive(25, false))

	assert.Equal(t, [][]string{
		{"set", "33", "op", "pn", "dh"},
		{"set", "25", "op", "pn", "dl"},
	}, *calls)
}

func TestSetPin_ErrorIncludesOutput(t *testing.T) {
	stubRun(t, "pinctrl: invalid pin", errors.New("exit status 1"))

	err := SetPin(99, "op")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pin")
}
