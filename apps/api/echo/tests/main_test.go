package tests

import (
	"os"
	"testing"

	"github.com/trezcool/shule/core"
)

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true
	os.Exit(m.Run())
}
