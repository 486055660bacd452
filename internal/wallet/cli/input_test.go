package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

// stubReadPassword feeds the given answers to successive readPassword calls.
func stubReadPassword(t *testing.T, answers ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(answers) {
			return nil, errors.New("no more answers")
		}
		i++
		return []byte(answers[i-1]), nil
	}
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword("Enter password", &out)
	require.Error(t, err)
}

func TestGetNewPassword(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		stubReadPassword(t, "s3cret", "s3cret")
		var out bytes.Buffer
		pw, err := GetNewPassword(&out)
		require.NoError(t, err)
		assert.Equal(t, []byte("s3cret"), pw)
		assert.Contains(t, out.String(), "Repeat password")
	})

	t.Run("mismatch", func(t *testing.T) {
		stubReadPassword(t, "one", "two")
		_, err := GetNewPassword(&bytes.Buffer{})
		assert.ErrorIs(t, err, errPasswordMismatch)
	})

	t.Run("empty", func(t *testing.T) {
		stubReadPassword(t, "", "")
		_, err := GetNewPassword(&bytes.Buffer{})
		assert.ErrorIs(t, err, errPasswordMismatch)
	})
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		got, err := Confirm(rdr(tt.in), "Sure?", &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
