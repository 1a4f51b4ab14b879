package experiment

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPresetScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Preset Scenarios")
}
