package cgen_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"codeberg.org/saruga/bfc/internal/ast"
	"codeberg.org/saruga/bfc/internal/cgen"
	"codeberg.org/saruga/bfc/internal/parser"
	"codeberg.org/saruga/bfc/internal/sourcemap"
	"codeberg.org/saruga/bfc/internal/test"
)

var _ = Describe("Generator", func() {
	Describe("program frame", func() {
		It("emits an empty main for an empty program", func() {
			out := cgen.Generate(nil, cgen.Options{})
			Expect(out).To(Equal("#include <stdio.h>\n" +
				"\n" +
				"int main(void) {\n" +
				"    static unsigned char tape[30000];\n" +
				"    unsigned char *ptr = tape;\n" +
				"    return 0;\n" +
				"}\n"))
		})

		It("honors the tape size", func() {
			out := cgen.Generate(nil, cgen.Options{TapeSize: 64})
			Expect(out).To(ContainSubstring("static unsigned char tape[64];"))
		})

		It("falls back to the default tape size", func() {
			out := cgen.Generate(nil, cgen.Options{TapeSize: -5})
			Expect(out).To(ContainSubstring("tape[30000]"))
		})
	})

	Describe("statements", func() {
		DescribeTable("single node translation",
			func(node ast.Node, expected string) {
				out := cgen.Generate(test.Tree(node), cgen.Options{Compact: true})
				Expect(out).To(ContainSubstring("tape;" + expected + "return 0;"))
			},
			Entry("increment", test.Cell(3, 0, 2), "*ptr += 3;"),
			Entry("decrement", test.Cell(-1, 0, 0), "*ptr -= 1;"),
			Entry("most negative cell amount", test.Cell(-128, 0, 0), "*ptr -= 128;"),
			Entry("move right", test.Ptr(2, 0, 1), "ptr += 2;"),
			Entry("move left", test.Ptr(-4, 0, 3), "ptr -= 4;"),
			Entry("write", test.Write(0), "putchar(*ptr);"),
			Entry("read", test.Read(0), "{ int c = getchar(); if (c != EOF) *ptr = (unsigned char)c; }"),
			Entry("clear", test.Set(0, 0, 2), "*ptr = 0;"),
			Entry("empty loop", test.Loop(0, 1), "while (*ptr) {}"),
		)

		It("indents loop bodies", func() {
			tree := test.Tree(
				test.Cell(1, 0, 0),
				test.Loop(1, 4, test.Ptr(1, 2, 2), test.Write(3)),
			)
			out := cgen.Generate(tree, cgen.Options{})
			Expect(out).To(ContainSubstring(
				"    *ptr += 1;\n" +
					"    while (*ptr) {\n" +
					"        ptr += 1;\n" +
					"        putchar(*ptr);\n" +
					"    }\n" +
					"    return 0;\n"))
		})

		It("keeps compact output on two lines", func() {
			tree := test.Tree(test.Loop(0, 2, test.Cell(-1, 1, 1)))
			out := cgen.Generate(tree, cgen.Options{Compact: true})
			Expect(strings.Count(out, "\n")).To(Equal(2))
			Expect(out).To(HaveSuffix("while (*ptr) {*ptr -= 1;}return 0;}\n"))
		})

		It("can be reused across programs", func() {
			g := cgen.New(cgen.Options{Compact: true})
			first := g.Generate(test.Tree(test.Write(0)))
			second := g.Generate(test.Tree(test.Write(0)))
			Expect(second).To(Equal(first))
		})
	})

	Describe("source maps", func() {
		It("maps each statement to its source offset", func() {
			source := "+[>.]"
			gen := sourcemap.NewGenerator(source)
			tree, err := parser.Parse(source)
			Expect(err).NotTo(HaveOccurred())

			cgen.Generate(tree, cgen.Options{SourceMap: gen})

			Expect(gen.Mappings()).To(Equal([]sourcemap.Mapping{
				{GenLine: 6, GenCol: 4, SrcLine: 0, SrcCol: 0},
				{GenLine: 7, GenCol: 4, SrcLine: 0, SrcCol: 1},
				{GenLine: 8, GenCol: 8, SrcLine: 0, SrcCol: 2},
				{GenLine: 9, GenCol: 8, SrcLine: 0, SrcCol: 3},
			}))
		})

		It("tracks columns in compact mode", func() {
			gen := sourcemap.NewGenerator("+.")
			cgen.Generate(test.Tree(test.Cell(1, 0, 0), test.Write(1)), cgen.Options{Compact: true, SourceMap: gen})

			prefix := len("int main(void){static unsigned char tape[30000];unsigned char *ptr = tape;")
			Expect(gen.Mappings()).To(HaveLen(2))
			Expect(gen.Mappings()[0]).To(Equal(sourcemap.Mapping{GenLine: 1, GenCol: prefix}))
			Expect(gen.Mappings()[1].GenCol).To(Equal(prefix + len("*ptr += 1;")))
		})

		It("skips nodes without a span", func() {
			gen := sourcemap.NewGenerator("")
			cgen.Generate(test.Tree(ast.Set{Amount: 0}), cgen.Options{SourceMap: gen})
			Expect(gen.Mappings()).To(BeEmpty())
		})
	})
})
