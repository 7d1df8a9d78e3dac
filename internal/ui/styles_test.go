package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStylesFor_NonTerminalIsPlain(t *testing.T) {
	styles := StylesFor(&bytes.Buffer{})
	assert.Equal(t, "hello", styles.Success.Render("hello"),
		"non-terminal output must carry no escape codes")
}

func TestNoColorStylesRenderPlain(t *testing.T) {
	styles := NoColorStyles()
	assert.Equal(t, "x", styles.Error.Render("x"))
	assert.Equal(t, "x", styles.Header.Render("x"))
}
