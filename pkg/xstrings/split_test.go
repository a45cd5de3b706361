package xstrings_test

import (
	"github.com/mudler/LocalPlanner/pkg/xstrings"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Wrap", func() {
	It("returns short text as a single line", func() {
		Expect(xstrings.Wrap("Short text", 20)).To(Equal([]string{"Short text"}))
	})

	It("wraps on word boundaries", func() {
		Expect(xstrings.Wrap("This is a longer text that needs to be split", 10)).
			To(Equal([]string{"This is a", "longer", "text that", "needs to", "be split"}))
	})

	It("keeps existing line breaks", func() {
		Expect(xstrings.Wrap("line1\n\nline2", 10)).To(Equal([]string{"line1", "", "line2"}))
	})

	It("leaves long words whole", func() {
		Expect(xstrings.Wrap("supercalifragilisticexpialidocious", 10)).
			To(Equal([]string{"supercalifragilisticexpialidocious"}))
	})
})

var _ = Describe("Truncate", func() {
	It("keeps short strings", func() {
		Expect(xstrings.Truncate("abc", 5)).To(Equal("abc"))
	})

	It("cuts long strings with an ellipsis", func() {
		Expect(xstrings.Truncate("Plan a trip to Japan", 10)).To(Equal("Plan a tr…"))
	})
})

var _ = Describe("UniqueFold", func() {
	It("removes blank and case-insensitive duplicates", func() {
		Expect(xstrings.UniqueFold([]string{"Gmail", " gmail ", "", "Google Calendar", "GMAIL"})).
			To(Equal([]string{"Gmail", "Google Calendar"}))
	})

	It("returns an empty, non-nil slice for nil input", func() {
		Expect(xstrings.UniqueFold(nil)).To(Equal([]string{}))
	})
})

var _ = Describe("UniqueSlice", func() {
	It("keeps the first occurrence", func() {
		Expect(xstrings.UniqueSlice([]int{3, 1, 3, 2, 1})).To(Equal([]int{3, 1, 2}))
	})
})
