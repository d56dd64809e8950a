package constants_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"esxinventory/internal/constants"
)

var _ = Describe("Constants", func() {
	It("should list every connection key as required", func() {
		Expect(constants.RequiredKeys).To(ConsistOf(
			constants.KeyESXiHost,
			constants.KeyESXiPort,
			constants.KeyESXiUsername,
			constants.KeyESXiPassword,
			constants.KeyGroupBy,
		))
	})

	It("should derive the documented environment variable names", func() {
		Expect(constants.EnvPrefix + "_" + strings.ToUpper(constants.KeyESXiHost)).
			To(Equal("ANSIBLE_INVENTORY_SCRIPT_ESXI_HOST"))
		Expect(constants.EnvPrefix + "_" + strings.ToUpper(constants.KeyGroupBy)).
			To(Equal("ANSIBLE_INVENTORY_SCRIPT_GROUP_BY"))
	})

	It("should default to JSON output keyed by IP without TLS verification", func() {
		Expect(constants.DefaultOutput).To(Equal(constants.OutputJSON))
		Expect(constants.DefaultUseIP).To(BeTrue())
		Expect(constants.DefaultVerifyTLS).To(BeFalse())
	})
})
