package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderWithHeader(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf).
		WithHeader([]string{"AB", "C"}).
		WithColumnAlignment([]Alignment{AlignLeft, AlignRight}).
		Append([]string{"x", "1234"}).
		Append([]string{"yy", "5"}).
		Render()

	want := strings.Join([]string{
		"+----+------+",
		"| AB | C    |",
		"+----+------+",
		"| x  | 1234 |",
		"| yy |    5 |",
		"+----+------+",
		"",
	}, "\n")
	require.Equal(t, want, buf.String())
}

func TestRenderCenteredHeader(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf).
		WithHeader([]string{"HI"}).
		WithHeaderAlignment([]Alignment{AlignCenter}).
		Append([]string{"abcd"}).
		Render()

	want := strings.Join([]string{
		"+------+",
		"|  HI  |",
		"+------+",
		"| abcd |",
		"+------+",
		"",
	}, "\n")
	require.Equal(t, want, buf.String())
}

func TestRenderWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf).
		WithRows([][]string{{"a", "b"}}).
		Render()

	want := strings.Join([]string{
		"+---+---+",
		"| a | b |",
		"+---+---+",
		"",
	}, "\n")
	require.Equal(t, want, buf.String())
}

func TestAnsiSequencesAreInvisibleToWidths(t *testing.T) {
	colored := "\x1b[1mab\x1b[0m"
	var buf bytes.Buffer
	NewTable(&buf).
		Append([]string{colored, "x"}).
		Render()

	want := strings.Join([]string{
		"+----+---+",
		"| " + colored + " | x |",
		"+----+---+",
		"",
	}, "\n")
	require.Equal(t, want, buf.String())
	require.Equal(t, 2, visibleLen(colored))
}

func TestShortRowsPadToColumnCount(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf).
		WithHeader([]string{"A", "B"}).
		Append([]string{"1"}).
		Render()

	want := strings.Join([]string{
		"+---+---+",
		"| A | B |",
		"+---+---+",
		"| 1 |   |",
		"+---+---+",
		"",
	}, "\n")
	require.Equal(t, want, buf.String())
}

func TestPad(t *testing.T) {
	require.Equal(t, "ab  ", pad("ab", 4, AlignLeft))
	require.Equal(t, "  ab", pad("ab", 4, AlignRight))
	require.Equal(t, " ab ", pad("ab", 4, AlignCenter))
	require.Equal(t, "a", pad("a", 1, AlignRight))
	// Uneven center gaps put the extra space on the right.
	require.Equal(t, " a  ", pad("a", 4, AlignCenter))
}
