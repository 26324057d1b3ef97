package lang_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frherrer/treesync/internal/lang"
)

var _ = Describe("Registry", func() {
	It("should hold the built-in languages", func() {
		r := lang.NewDefaultRegistry()
		Expect(r.Names()).To(Equal([]string{"noir", "rust", "solidity"}))
	})

	It("should look languages up case-insensitively", func() {
		r := lang.NewDefaultRegistry()
		l, err := r.Lookup("Rust")
		Expect(err).ToNot(HaveOccurred())
		Expect(l.Extension()).To(Equal(".rs"))
	})

	It("should list the alternatives for an unknown language", func() {
		_, err := lang.NewDefaultRegistry().Lookup("cobol")
		Expect(err).To(MatchError(ContainSubstring("noir, rust, solidity")))
	})
})
