package sheets_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/api/option"

	"autodraft.app/assistant/internal/sheets"
)

// trackingRows builds a tab with artist names in row 3 and dates in rows 10 and 11.
func trackingRows(names []any, starts []any, ends []any) [][]any {
	rows := make([][]any, sheets.EndRow)
	for i := range rows {
		rows[i] = []any{}
	}
	rows[sheets.NameRow-1] = names
	rows[sheets.StartRow-1] = starts
	rows[sheets.EndRow-1] = ends
	return rows
}

var _ = Describe("FormatDate", func() {
	DescribeTable("formats known layouts",
		func(in, want string) {
			Expect(sheets.FormatDate(in)).To(Equal(want))
		},
		Entry("day first", "23/02/2026", "Feb 23"),
		Entry("iso", "2026-03-05", "Mar 5"),
		Entry("month first when day first is invalid", "02/23/2026", "Feb 23"),
		Entry("free text", "TBD", "TBD"),
		Entry("empty", "", ""),
	)
})

var _ = Describe("TimelineFromRows", func() {
	rows := trackingRows(
		[]any{"", "Jane Doe", "Ravi"},
		[]any{"", "05/01/2026", "2026-02-01"},
		[]any{"", "01/03/2026"},
	)

	It("joins start and end for the matching column", func() {
		Expect(sheets.TimelineFromRows(rows, "jane")).To(Equal("Jan 5 - Mar 1"))
	})

	It("returns the single bound when only one is present", func() {
		Expect(sheets.TimelineFromRows(rows, "Ravi")).To(Equal("Feb 1"))
	})

	It("returns empty when the artist has no column", func() {
		Expect(sheets.TimelineFromRows(rows, "Nobody")).To(BeEmpty())
	})

	It("returns empty for short tabs", func() {
		Expect(sheets.TimelineFromRows(rows[:4], "Jane")).To(BeEmpty())
	})
})

var _ = Describe("Client", func() {
	It("resolves the tab by gid once and reads its values", func() {
		metaCalls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if strings.HasSuffix(r.URL.Path, "/values/Tracking") {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"range": "Tracking",
					"values": trackingRows(
						[]any{"Jane Doe"},
						[]any{"2026-01-05"},
						[]any{"2026-03-01"},
					),
				})
				return
			}
			metaCalls++
			_ = json.NewEncoder(w).Encode(map[string]any{
				"sheets": []map[string]any{
					{"properties": map[string]any{"sheetId": 0, "title": "Summary"}},
					{"properties": map[string]any{"sheetId": 77, "title": "Tracking"}},
				},
			})
		}))
		defer server.Close()

		ctx := context.Background()
		client, err := sheets.NewClient(ctx, nil, "sheet-1", 77,
			option.WithEndpoint(server.URL+"/"),
			option.WithoutAuthentication(),
			option.WithHTTPClient(server.Client()),
		)
		Expect(err).NotTo(HaveOccurred())

		for range 2 {
			timeline, err := client.ContractTimeline(ctx, "Jane")
			Expect(err).NotTo(HaveOccurred())
			Expect(timeline).To(Equal("Jan 5 - Mar 1"))
		}
		Expect(metaCalls).To(Equal(1))
	})
})
