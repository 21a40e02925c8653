package identity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"autodraft.app/assistant/internal/identity"
)

var systemTokens = []string{"google.com", "noreply"}

var _ = Describe("InvitedAddress", func() {
	DescribeTable("picks the first non-host participant",
		func(notes, want string) {
			Expect(identity.InvitedAddress(notes, "Marian Merour")).To(Equal(want))
		},
		Entry("angle brackets",
			"Summary\nInvited: Marian Merour <marian@21-draw.com>, Jane Doe <jane@example.com>\n", "jane@example.com"),
		Entry("bare address",
			"  invited : Marian Merour marian@21-draw.com, jane.doe@example.com", "jane.doe@example.com"),
		Entry("skips entries without an address",
			"Invited: Marian Merour <marian@21-draw.com>, Jane Doe, Ravi <ravi@example.org>", "ravi@example.org"),
		Entry("only the host", "Invited: Marian Merour <marian@21-draw.com>", ""),
		Entry("no invited line", "Attendees: Jane <jane@example.com>", ""),
	)
})

var _ = Describe("ParseAddressHeader", func() {
	It("prefers entries matching the hint", func() {
		header := "Ravi <ravi@example.org>, Jane Doe <jane@example.com>"
		Expect(identity.ParseAddressHeader(header, "jane", systemTokens)).To(Equal("jane@example.com"))
	})

	It("falls back to any valid entry", func() {
		Expect(identity.ParseAddressHeader("Ravi <ravi@example.org>", "Jane", systemTokens)).To(Equal("ravi@example.org"))
	})

	It("rejects system addresses", func() {
		header := "Gemini <gemini-notes@google.com>, no-reply <noreply@example.com>"
		Expect(identity.ParseAddressHeader(header, "", systemTokens)).To(BeEmpty())
	})

	It("accepts bare addresses", func() {
		Expect(identity.ParseAddressHeader("jane@example.com", "", systemTokens)).To(Equal("jane@example.com"))
	})

	It("keeps quoted display names with commas in one entry", func() {
		header := `Ravi <ravi@example.org>, "Doe, Jane" <jane@example.com>`
		Expect(identity.ParseAddressHeader(header, "Doe", systemTokens)).To(Equal("jane@example.com"))
	})
})

var _ = Describe("DisplayNameFromSender", func() {
	DescribeTable("extracts the display part",
		func(sender, want string) {
			Expect(identity.DisplayNameFromSender(sender)).To(Equal(want))
		},
		Entry("quoted", `"Jane Doe" <jane@example.com>`, "Jane Doe"),
		Entry("unquoted", "Jane Doe <jane@example.com>", "Jane Doe"),
		Entry("single quotes", "'Jane' <jane@example.com>", "Jane"),
		Entry("bare address", "jane@example.com", ""),
	)
})

var _ = Describe("NameFromAddress", func() {
	DescribeTable("derives a name from the local part",
		func(address, want string) {
			Expect(identity.NameFromAddress(address)).To(Equal(want))
		},
		Entry("dotted", "john.smith@gmail.com", "John Smith"),
		Entry("underscores and digits", "JANE_doe42@example.com", "Jane Doe"),
		Entry("drops single letters", "j.smith@example.com", "Smith"),
		Entry("nothing usable", "a1@example.com", ""),
		Entry("not an address", "jane", ""),
	)
})
