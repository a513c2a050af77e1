package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("bad opcode 42", From("bad opcode %d", 42))
	assert.Equal("label start missing", From("label %v missing", "start"))
	assert.NotEmpty(Locales())
	assert.Same(Printer(), Printer())
}
