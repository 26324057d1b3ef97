package template_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frherrer/treesync/internal/domain"
	"github.com/frherrer/treesync/internal/parser"
	tmpl "github.com/frherrer/treesync/internal/template"
	"github.com/frherrer/treesync/internal/translator"
)

func hirFor(tree string, cfg translator.Config) *domain.HIR {
	roots, err := parser.ParseTrees(tree, 0)
	Expect(err).ToNot(HaveOccurred())
	hir, err := translator.NewTranslator(cfg).Translate(roots[0])
	Expect(err).ToNot(HaveOccurred())
	return hir
}

const hashPair = `HashPairTest
├── It should be pure.
├── When first arg is smaller than second arg
│   └── It should match the result of hash(a, b).
└── When first arg is bigger than second arg
    ├── It should revert.
    └── it should match the result of hash(b, a)
        └── with the arguments swapped`

var _ = Describe("TemplateEngine", func() {
	var (
		engine *tmpl.DefaultEngine
		hir    *domain.HIR
	)

	BeforeEach(func() {
		var err error
		engine, err = tmpl.NewEngine("")
		Expect(err).ToNot(HaveOccurred())
		hir = hirFor(hashPair, translator.Config{})
	})

	It("should list the embedded templates", func() {
		Expect(engine.ListTemplates()).To(Equal([]string{"noir", "rust", "solidity"}))
	})

	Describe("Render rust", func() {
		var out string

		BeforeEach(func() {
			var err error
			out, err = engine.Render(hir, "rust", tmpl.Options{})
			Expect(err).ToNot(HaveOccurred())
		})

		It("should emit the context first", func() {
			Expect(out).To(ContainSubstring("/// Context for test conditions\n#[derive(Default)]\nstruct TestContext {}"))
		})

		It("should emit helpers before the test module", func() {
			Expect(out).To(ContainSubstring("/// When first arg is smaller than second arg\nfn first_arg_is_smaller_than_second_arg(_ctx: &mut TestContext) {}"))
			Expect(out).To(ContainSubstring("#[cfg(test)]\nmod tests {\n    use super::*;"))
		})

		It("should emit failing tests with should_panic and helper calls", func() {
			Expect(out).To(ContainSubstring(`    #[test]
    #[should_panic]
    fn test_first_arg_is_bigger_than_second_arg_should_revert() {
        let mut ctx = TestContext::default();
        first_arg_is_bigger_than_second_arg(&mut ctx);
        // It should revert.
    }`))
		})

		It("should emit root tests without a context", func() {
			Expect(out).To(ContainSubstring("    #[test]\n    fn test_should_be_pure() {\n        // It should be pure.\n    }"))
		})

		It("should pass annotations through trimmed", func() {
			Expect(out).To(ContainSubstring("        // it should match the result of hash(b, a)\n        // with the arguments swapped\n"))
		})

		It("should end with a single newline and no blank runs", func() {
			Expect(out).To(HaveSuffix("    }\n}\n"))
			Expect(out).ToNot(ContainSubstring("\n\n\n"))
		})
	})

	It("should reformat annotations when requested", func() {
		hir = hirFor(hashPair, translator.Config{FormatDescriptions: true})
		out, err := engine.Render(hir, "rust", tmpl.Options{})
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(ContainSubstring("// It should match the result of hash(b, a).\n        // With the arguments swapped."))
	})

	It("should skip helper declarations and calls", func() {
		hir = hirFor(hashPair, translator.Config{SkipHelpers: true})
		out, err := engine.Render(hir, "rust", tmpl.Options{})
		Expect(err).ToNot(HaveOccurred())
		Expect(out).ToNot(ContainSubstring("fn first_arg_is_smaller_than_second_arg"))
		Expect(out).ToNot(ContainSubstring("TestContext::default()"))
		Expect(out).To(ContainSubstring("struct TestContext"))
	})

	Describe("Render noir", func() {
		It("should emit top-level unconstrained tests", func() {
			out, err := engine.Render(hir, "noir", tmpl.Options{})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("/// Context for test conditions\nstruct TestContext {}"))
			Expect(out).To(ContainSubstring("fn first_arg_is_smaller_than_second_arg() {}"))
			Expect(out).To(ContainSubstring("#[test(should_fail)]\nunconstrained fn test_first_arg_is_bigger_than_second_arg_should_revert() {\n    first_arg_is_bigger_than_second_arg();\n    // It should revert.\n}"))
			Expect(out).To(ContainSubstring("#[test]\nunconstrained fn test_should_be_pure() {"))
		})
	})

	Describe("Render solidity", func() {
		It("should emit a context contract with modifiers and the test contract", func() {
			out, err := engine.Render(hir, "solidity", tmpl.Options{SolidityVersion: "0.8.20"})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(HavePrefix("// SPDX-License-Identifier: UNLICENSED\npragma solidity 0.8.20;\n"))
			Expect(out).To(ContainSubstring(`import {Test} from "forge-std/Test.sol";`))
			Expect(out).To(ContainSubstring("abstract contract HashPairTestContext is Test {\n    /// @dev When first arg is smaller than second arg\n    modifier first_arg_is_smaller_than_second_arg() {\n        _;\n    }"))
			Expect(out).To(ContainSubstring("contract HashPairTest is HashPairTestContext {"))
			Expect(out).To(ContainSubstring("    function test_first_arg_is_bigger_than_second_arg_should_revert() external first_arg_is_bigger_than_second_arg {\n        vm.expectRevert();\n        // It should revert.\n    }"))
		})

		It("should default the compiler version and add vm.skip", func() {
			out, err := engine.Render(hir, "solidity", tmpl.Options{WithVMSkip: true})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("pragma solidity 0.8.0;"))
			Expect(out).To(ContainSubstring("    function test_should_be_pure() external {\n        vm.skip(true);\n"))
		})
	})

	Describe("fragments", func() {
		It("should render a single test", func() {
			out, err := engine.RenderTest(hir, "rust", "test_should_be_pure", tmpl.Options{})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("    #[test]\n    fn test_should_be_pure() {\n        // It should be pure.\n    }"))
		})

		It("should render a single helper", func() {
			out, err := engine.RenderHelper(hir, "noir", "first_arg_is_bigger_than_second_arg", tmpl.Options{})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("/// When first arg is bigger than second arg\nfn first_arg_is_bigger_than_second_arg() {}"))
		})

		It("should fail for unknown ids", func() {
			_, err := engine.RenderTest(hir, "rust", "test_nope", tmpl.Options{})
			Expect(err).To(HaveOccurred())
			_, err = engine.RenderHelper(hir, "rust", "nope", tmpl.Options{})
			Expect(err).To(HaveOccurred())
		})
	})

	It("should fail for an unknown language", func() {
		_, err := engine.Render(hir, "cobol", tmpl.Options{})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("noir, rust, solidity"))
	})

	Describe("template directory", func() {
		It("should override embedded templates", func() {
			dir := GinkgoT().TempDir()
			custom := `{{define "file"}}custom {{.Title}}{{end}}{{define "helper"}}h{{end}}{{define "test"}}t{{end}}`
			Expect(os.WriteFile(filepath.Join(dir, "rust.tmpl"), []byte(custom), 0o644)).To(Succeed())

			e, err := tmpl.NewEngine(dir)
			Expect(err).ToNot(HaveOccurred())
			out, err := e.Render(hir, "rust", tmpl.Options{})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("custom HashPairTest\n"))

			out, err = e.Render(hir, "noir", tmpl.Options{})
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("unconstrained fn"))
		})

		It("should reject templates missing a block", func() {
			dir := GinkgoT().TempDir()
			Expect(os.WriteFile(filepath.Join(dir, "rust.tmpl"), []byte(`{{define "file"}}x{{end}}`), 0o644)).To(Succeed())
			_, err := tmpl.NewEngine(dir)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(`"helper"`))
		})

		It("should fail for a missing directory", func() {
			_, err := tmpl.NewEngine(filepath.Join(GinkgoT().TempDir(), "nope"))
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("FormatComment", func() {
	DescribeTable("capitalizes and terminates",
		func(in, want string) {
			Expect(tmpl.FormatComment(in)).To(Equal(want))
		},
		Entry("plain", "should return sum", "Should return sum."),
		Entry("period", "Should return sum.", "Should return sum."),
		Entry("bang", "should panic!", "Should panic!"),
		Entry("question", "  why?  ", "Why?"),
		Entry("empty", "", ""),
	)
})

var _ = Describe("ContractName", func() {
	DescribeTable("keeps identifier characters",
		func(in, want string) {
			Expect(tmpl.ContractName(in)).To(Equal(want))
		},
		Entry("plain", "HashPairTest", "HashPairTest"),
		Entry("scoped", "Vault::withdraw", "Vault_withdraw"),
		Entry("spaces", "My test-case!", "Mytestcase"),
		Entry("digit", "1inch", "T1inch"),
		Entry("empty", "!!!", "GeneratedTest"),
	)
})
