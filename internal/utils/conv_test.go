package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringConversions(t *testing.T) {
	assert.Equal(t, 12, StringToInt(" 12 ", 0))
	assert.Equal(t, 7, StringToInt("x", 7))

	id, ok := StringToUint("42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
	_, ok = StringToUint("0")
	assert.False(t, ok)
	_, ok = StringToUint("-3")
	assert.False(t, ok)

	assert.True(t, StringToBool("", true))
	assert.False(t, StringToBool("false", true))
	assert.True(t, StringToBool("1", false))
}
