package noir_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frherrer/treesync/internal/lang/noir"
)

const source = `/// Context for test conditions
struct TestContext {}

/// When x
fn x() {}

#[test]
unconstrained fn test_x_does_y() {
    x();
}

#[test(should_fail)]
unconstrained fn test_x_reverts() {}

#[test(should_fail_with = "boom")]
fn test_x_fails_with() {}
`

var _ = Describe("Noir", func() {
	var l *noir.Language

	BeforeEach(func() {
		l = noir.New()
	})

	It("should name itself and its extension", func() {
		Expect(l.Name()).To(Equal("noir"))
		Expect(l.Extension()).To(Equal(".nr"))
	})

	Describe("Parse", func() {
		It("should treat the file as the container", func() {
			doc, err := l.Parse([]byte("fn main() {}\n"))
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.ContainerPresent).To(BeTrue())
		})

		It("should classify functions by their test attribute", func() {
			doc, err := l.Parse([]byte(source))
			Expect(err).ToNot(HaveOccurred())
			facts := doc.Facts()
			Expect(facts.TestIDs()).To(Equal([]string{"test_x_does_y", "test_x_reverts", "test_x_fails_with"}))
			Expect(facts.HelperIDs()).To(Equal(map[string]bool{"x": true}))

			for id, failure := range map[string]bool{
				"test_x_does_y":     false,
				"test_x_reverts":    true,
				"test_x_fails_with": true,
			} {
				fact, ok := facts.Test(id)
				Expect(ok).To(BeTrue())
				Expect(fact.ExpectFailure).To(Equal(failure), id)
			}
		})

		It("should keep helpers out of the container", func() {
			doc, err := l.Parse([]byte(source))
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Units[0].Name).To(Equal("x"))
			Expect(doc.Units[0].InContainer).To(BeFalse())
		})

		It("should insert helpers after the last helper", func() {
			doc, err := l.Parse([]byte(source))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(doc.Source[doc.HelperAnchor.Offset:])).To(HavePrefix("\n#[test]\nunconstrained fn test_x_does_y"))
			Expect(doc.TestAnchor.Offset).To(Equal(len(source)))
		})

		It("should insert helpers before the first test when there are none", func() {
			doc, err := l.Parse([]byte("struct S {}\n\n#[test]\nfn test_a() {}\n"))
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.HelperAnchor.Before).To(BeTrue())
			Expect(string(doc.Source[doc.HelperAnchor.Offset:])).To(HavePrefix("#[test]"))
		})

		It("should read brackets inside attribute strings as text", func() {
			doc, err := l.Parse([]byte("#[test(should_fail_with = \"index ] out of range\")]\nunconstrained fn test_a() {}\n"))
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.Units).To(HaveLen(1))
			Expect(doc.Units[0].Name).To(Equal("test_a"))
			Expect(doc.Units[0].Test).To(BeTrue())
			Expect(doc.Units[0].ExpectFailure).To(BeTrue())
		})

		It("should reject an unterminated string inside an attribute", func() {
			_, err := l.Parse([]byte("#[test(should_fail_with = \"oops)]\nfn test_a() {}\n"))
			Expect(err).To(HaveOccurred())
		})

		It("should reject unbalanced source", func() {
			_, err := l.Parse([]byte("fn a() {\n"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("MarkFailure", func() {
		It("should rewrite a bare test attribute", func() {
			doc, err := l.Parse([]byte(source))
			Expect(err).ToNot(HaveOccurred())
			unit, _ := doc.Test("test_x_does_y")
			edit, err := l.MarkFailure(doc, unit)
			Expect(err).ToNot(HaveOccurred())
			out, err := doc.Apply(edit)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(ContainSubstring("#[test(should_fail)]\nunconstrained fn test_x_does_y()"))
		})

		It("should refuse attributes with other arguments", func() {
			doc, err := l.Parse([]byte("#[test(only_on = \"x\")]\nfn test_a() {}\n"))
			Expect(err).ToNot(HaveOccurred())
			unit, _ := doc.Test("test_a")
			_, err = l.MarkFailure(doc, unit)
			Expect(err).To(HaveOccurred())
		})
	})
})
