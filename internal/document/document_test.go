package document_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frherrer/treesync/internal/document"
)

// build lays out named declarations separated by sep and records their spans.
func build(prefix, sep, suffix string, names ...string) *document.Document {
	var sb strings.Builder
	sb.WriteString(prefix)
	doc := &document.Document{ContainerPresent: true}
	for i, n := range names {
		if i > 0 {
			sb.WriteString(sep)
		}
		start := sb.Len()
		sb.WriteString("fn " + n + "() {}")
		doc.Units = append(doc.Units, document.Unit{
			Name: n, Test: true, InContainer: true, Start: start, End: sb.Len(),
		})
	}
	sb.WriteString(suffix)
	doc.Source = []byte(sb.String())
	return doc
}

var _ = Describe("Document", func() {
	Describe("Reorder", func() {
		It("should put expected names first and extras after", func() {
			doc := build("mod {\n", "\n\n", "\n}\n", "setup", "a", "c", "b")
			out, err := doc.Reorder([]string{"a", "b", "c"})
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(Equal("mod {\nfn a() {}\n\nfn b() {}\n\nfn c() {}\n\nfn setup() {}\n}\n"))
		})

		It("should keep extras in their original relative order", func() {
			doc := build("", "\n", "", "x", "b", "y", "a")
			out, err := doc.Reorder([]string{"a", "b"})
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(Equal("fn a() {}\nfn b() {}\nfn x() {}\nfn y() {}"))
		})

		It("should keep gaps in place", func() {
			doc := build("", "\n// gap\n", "", "b", "a")
			out, err := doc.Reorder([]string{"a", "b"})
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(Equal("fn a() {}\n// gap\nfn b() {}"))
		})

		It("should leave units outside the container alone", func() {
			doc := build("", "\n", "", "helper", "b", "a")
			doc.Units[0].InContainer = false
			doc.Units[0].Test = false
			out, err := doc.Reorder([]string{"a", "b"})
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(Equal("fn helper() {}\nfn a() {}\nfn b() {}"))
		})

		It("should match duplicate names one by one", func() {
			doc := build("", "\n", "", "t", "x", "t")
			out, err := doc.Reorder([]string{"t", "t"})
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(Equal("fn t() {}\nfn t() {}\nfn x() {}"))
		})

		It("should fail when a name is not declared", func() {
			doc := build("", "\n", "", "a")
			_, err := doc.Reorder([]string{"a", "missing"})
			Expect(err).To(MatchError(ContainSubstring(`"missing"`)))
		})
	})

	Describe("Apply", func() {
		It("should replace a range", func() {
			doc := &document.Document{Source: []byte("#[test]\nfn a() {}")}
			out, err := doc.Apply(document.Edit{Offset: 0, Delete: 7, Text: "#[test(should_fail)]"})
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(Equal("#[test(should_fail)]\nfn a() {}"))
			Expect(string(doc.Source)).To(Equal("#[test]\nfn a() {}"))
		})

		It("should reject edits outside the source", func() {
			doc := &document.Document{Source: []byte("abc")}
			_, err := doc.Apply(document.Edit{Offset: 2, Delete: 5})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Insert", func() {
		It("should separate the fragment after a closing line", func() {
			e, err := document.Insert(document.Anchor{Offset: 4, Valid: true}, "x")
			Expect(err).ToNot(HaveOccurred())
			Expect(e.Text).To(Equal("\nx\n"))
		})

		It("should separate the fragment before a declaration", func() {
			e, err := document.Insert(document.Anchor{Offset: 0, Before: true, Valid: true}, "x")
			Expect(err).ToNot(HaveOccurred())
			Expect(e.Text).To(Equal("x\n\n"))
		})

		It("should fail without an anchor", func() {
			_, err := document.Insert(document.Anchor{}, "x")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Facts", func() {
		It("should expose units in file order", func() {
			doc := build("", "\n", "", "a", "b")
			doc.Units[1].ExpectFailure = true
			facts := doc.Facts()
			Expect(facts.ContainerPresent).To(BeTrue())
			Expect(facts.TestIDs()).To(Equal([]string{"a", "b"}))
			unit, ok := facts.Test("b")
			Expect(ok).To(BeTrue())
			Expect(unit.ExpectFailure).To(BeTrue())
		})
	})

	Describe("line helpers", func() {
		src := []byte("a\n    }\nb")

		It("should count lines", func() {
			Expect(document.LineAt(src, 0)).To(Equal(1))
			Expect(document.LineAt(src, 6)).To(Equal(2))
			Expect(document.LineAt(src, 8)).To(Equal(3))
		})

		It("should find the start of a blank-prefixed line", func() {
			Expect(document.LineStart(src, 6)).To(Equal(2))
			Expect(document.LineStart([]byte("x }"), 2)).To(Equal(2))
		})

		It("should return the indentation", func() {
			Expect(document.IndentAt(src, 6)).To(Equal("    "))
			Expect(document.IndentAt([]byte("x }"), 2)).To(Equal(""))
		})
	})
})

var _ = Describe("LineEnd", func() {
	It("should move past a blank line end", func() {
		src := []byte("fn a() {}  \nfn b() {}")
		Expect(document.LineEnd(src, 9)).To(Equal(12))
	})

	It("should stay put when code follows", func() {
		src := []byte("fn a() {} fn b() {}")
		Expect(document.LineEnd(src, 9)).To(Equal(9))
	})

	It("should stop at the end of the source", func() {
		src := []byte("fn a() {}")
		Expect(document.LineEnd(src, 9)).To(Equal(9))
	})
})
