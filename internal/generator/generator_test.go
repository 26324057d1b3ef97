package generator_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/frherrer/treesync/internal/config"
	"github.com/frherrer/treesync/internal/domain"
	"github.com/frherrer/treesync/internal/generator"
	"github.com/frherrer/treesync/internal/lang"
	"github.com/frherrer/treesync/internal/parser"
	"github.com/frherrer/treesync/internal/scanner"
	tmpl "github.com/frherrer/treesync/internal/template"
)

func copyFixture(dir string, parts ...string) string {
	src := filepath.Join(append([]string{"..", "..", "testdata"}, parts...)...)
	data, err := os.ReadFile(src)
	Expect(err).ToNot(HaveOccurred())
	dst := filepath.Join(dir, filepath.Base(src))
	Expect(os.WriteFile(dst, data, 0o644)).To(Succeed())
	return dst
}

var _ = Describe("Generator", func() {
	var (
		gen    *generator.DefaultGenerator
		cfg    *config.Config
		out    *bytes.Buffer
		tmpDir string
	)

	BeforeEach(func() {
		log := logrus.New()
		log.SetOutput(io.Discard)

		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}

		cfg = config.DefaultConfig()
		cfg.Lang = "rust"

		engine, err := tmpl.NewEngine("")
		Expect(err).ToNot(HaveOccurred())

		gen = generator.NewGenerator(
			scanner.NewScanner(true),
			parser.NewDefaultRegistry(),
			lang.NewDefaultRegistry(),
			engine,
			out,
			log,
		)
	})

	Describe("Scaffold", func() {
		It("should print a single file to stdout without framing", func() {
			tree := copyFixture(tmpDir, "trees", "hash_pair.tree")

			Expect(gen.Scaffold([]string{tree}, cfg, generator.EmitMode{Stdout: true})).To(Succeed())

			content := out.String()
			Expect(content).To(HavePrefix("// Generated by treesync from HashPairTest."))
			Expect(content).To(ContainSubstring("fn first_arg_is_smaller_than_second_arg(_ctx: &mut TestContext) {}"))
			Expect(content).To(ContainSubstring("#[should_panic]\n    fn test_should_never_revert()"))
			Expect(content).ToNot(ContainSubstring("-->"))
		})

		It("should frame every file when several are printed", func() {
			copyFixture(tmpDir, "trees", "hash_pair.tree")
			copyFixture(tmpDir, "trees", "nested.tree")

			Expect(gen.Scaffold([]string{tmpDir}, cfg, generator.EmitMode{Stdout: true})).To(Succeed())

			content := out.String()
			Expect(content).To(ContainSubstring("--> " + filepath.Join(tmpDir, "hash_pair_test.rs") + "\n"))
			Expect(content).To(ContainSubstring("--> " + filepath.Join(tmpDir, "nested_test.rs") + "\n"))
			Expect(bytes.Count(out.Bytes(), []byte("<--\n"))).To(Equal(2))
		})

		It("should write sibling files", func() {
			tree := copyFixture(tmpDir, "trees", "hash_pair.tree")

			Expect(gen.Scaffold([]string{tree}, cfg, generator.EmitMode{})).To(Succeed())

			content, err := os.ReadFile(filepath.Join(tmpDir, "hash_pair_test.rs"))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(content)).To(ContainSubstring("mod tests {"))
			Expect(out.Len()).To(BeZero())
		})

		It("should use the configured suffix and extension", func() {
			tree := copyFixture(tmpDir, "trees", "hash_pair.tree")
			cfg.Lang = "solidity"
			cfg.Output.Suffix = ".t"

			Expect(gen.Scaffold([]string{tree}, cfg, generator.EmitMode{})).To(Succeed())

			content, err := os.ReadFile(filepath.Join(tmpDir, "hash_pair.t.sol"))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(content)).To(ContainSubstring("contract HashPairTest is HashPairTestContext"))
		})

		It("should not overwrite existing files unless forced", func() {
			tree := copyFixture(tmpDir, "trees", "hash_pair.tree")
			target := filepath.Join(tmpDir, "hash_pair_test.rs")
			Expect(os.WriteFile(target, []byte("// mine\n"), 0o644)).To(Succeed())

			Expect(gen.Scaffold([]string{tree}, cfg, generator.EmitMode{})).To(Succeed())
			content, _ := os.ReadFile(target)
			Expect(string(content)).To(Equal("// mine\n"))

			Expect(gen.Scaffold([]string{tree}, cfg, generator.EmitMode{Force: true})).To(Succeed())
			content, _ = os.ReadFile(target)
			Expect(string(content)).To(ContainSubstring("HashPairTest"))
		})

		It("should respect dry-run mode", func() {
			tree := copyFixture(tmpDir, "trees", "hash_pair.tree")

			Expect(gen.Scaffold([]string{tree}, cfg, generator.EmitMode{DryRun: true})).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, "hash_pair_test.rs"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("should keep going after a bad file and report the failure", func() {
			bad := copyFixture(tmpDir, "trees", "bad_keyword.tree")
			good := copyFixture(tmpDir, "trees", "hash_pair.tree")
			cfg.Jobs = 2

			err := gen.Scaffold([]string{bad, good}, cfg, generator.EmitMode{})
			Expect(err).To(MatchError(domain.ErrScaffoldFailed))

			_, statErr := os.Stat(filepath.Join(tmpDir, "hash_pair_test.rs"))
			Expect(statErr).ToNot(HaveOccurred())
		})

		It("should fail colliding specifications when collisions are rejected", func() {
			tree := copyFixture(tmpDir, "trees", "colliding.tree")
			cfg.Naming.RejectCollisions = true

			err := gen.Scaffold([]string{tree}, cfg, generator.EmitMode{Stdout: true})
			Expect(err).To(MatchError(domain.ErrScaffoldFailed))
			Expect(out.Len()).To(BeZero())
		})

		It("should merge colliding conditions by default", func() {
			tree := copyFixture(tmpDir, "trees", "colliding.tree")

			Expect(gen.Scaffold([]string{tree}, cfg, generator.EmitMode{Stdout: true})).To(Succeed())
			Expect(bytes.Count(out.Bytes(), []byte("fn the_owner_calls(_ctx"))).To(Equal(1))
		})

		It("should treat conditions differing only by case as one helper", func() {
			tree := copyFixture(tmpDir, "trees", "duplicated_condition.tree")
			cfg.Naming.RejectCollisions = true

			Expect(gen.Scaffold([]string{tree}, cfg, generator.EmitMode{Stdout: true})).To(Succeed())
			Expect(bytes.Count(out.Bytes(), []byte("fn x(_ctx"))).To(Equal(1))
		})

		It("should reject an unknown language", func() {
			tree := copyFixture(tmpDir, "trees", "hash_pair.tree")
			cfg.Lang = "cobol"

			err := gen.Scaffold([]string{tree}, cfg, generator.EmitMode{Stdout: true})
			Expect(err).To(HaveOccurred())
			Expect(domain.IsPhase(err, "config")).To(BeTrue())
		})

		It("should handle an empty directory gracefully", func() {
			Expect(gen.Scaffold([]string{tmpDir}, cfg, generator.EmitMode{})).To(Succeed())
		})
	})

	Describe("Targets", func() {
		It("should render one target per tree, suffixing later ones", func() {
			tree := copyFixture(tmpDir, "trees", "multi.tree")
			l, err := lang.NewDefaultRegistry().Lookup("noir")
			Expect(err).ToNot(HaveOccurred())

			targets, err := gen.Targets(tree, l, cfg)
			Expect(err).ToNot(HaveOccurred())
			Expect(targets).To(HaveLen(2))
			Expect(targets[0].Path).To(Equal(filepath.Join(tmpDir, "multi_test.nr")))
			Expect(targets[1].Path).To(Equal(filepath.Join(tmpDir, "multi_second_test.nr")))
			Expect(targets[1].HIR.TestIDs()).To(Equal([]string{"test_ready_runs_second"}))
		})

		It("should read trees embedded in markdown", func() {
			doc := copyFixture(tmpDir, "docs", "guide.md")
			l, err := lang.NewDefaultRegistry().Lookup("rust")
			Expect(err).ToNot(HaveOccurred())

			targets, err := gen.Targets(doc, l, cfg)
			Expect(err).ToNot(HaveOccurred())
			Expect(targets).ToNot(BeEmpty())
			Expect(targets[0].Path).To(Equal(filepath.Join(tmpDir, "guide_test.rs")))
		})

		It("should attach the file to parse errors", func() {
			bad := copyFixture(tmpDir, "trees", "bad_keyword.tree")
			l, _ := lang.NewDefaultRegistry().Lookup("rust")

			_, err := gen.Targets(bad, l, cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(bad + ":2"))
		})
	})

	Describe("OutputPath", func() {
		root := &domain.SpecNode{Kind: domain.KindRoot, Title: "Token::transfer"}

		DescribeTable("should place outputs next to the source",
			func(index int, expected string) {
				spec := domain.SpecFile{Index: index, Root: root}
				Expect(generator.OutputPath(filepath.Join("specs", "token.tree"), spec, "_test", ".rs")).
					To(Equal(filepath.Join("specs", expected)))
			},
			Entry("first specification", 0, "token_test.rs"),
			Entry("later specification", 2, "token_tokentransfer_test.rs"),
		)
	})
})
