package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()
	assert.True(t, strings.HasPrefix(info, "sqlreport "+Short()+" "))
	assert.Contains(t, info, runtime.Version())
	assert.NotEmpty(t, Short())
}
