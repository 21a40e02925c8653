package mail_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/api/option"

	mailstore "autodraft.app/assistant/internal/mail"
	"autodraft.app/assistant/internal/model"
)

// fakeGmail serves the handful of Gmail endpoints the store touches.
type fakeGmail struct {
	mu           sync.Mutex
	labelLists   int
	labelCreates int
	labels       map[string][]string // message id -> label ids
	drafts       []map[string]any
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case strings.HasSuffix(path, "/labels") && r.Method == http.MethodGet:
		f.labelLists++
		_ = json.NewEncoder(w).Encode(map[string]any{"labels": []map[string]string{{"id": "Label_INBOX", "name": "INBOX"}}})
	case strings.HasSuffix(path, "/labels") && r.Method == http.MethodPost:
		f.labelCreates++
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "Label_42", "name": "AutoDraft/Processed"})
	case strings.HasSuffix(path, "/modify"):
		var req struct {
			AddLabelIds []string `json:"addLabelIds"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		trimmed := strings.TrimSuffix(path, "/modify")
		id := trimmed[strings.LastIndex(trimmed, "/")+1:]
		f.labels[id] = append(f.labels[id], req.AddLabelIds...)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "labelIds": f.labels[id]})
	case strings.HasSuffix(path, "/drafts"):
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.drafts = append(f.drafts, req)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "d-1", "message": map[string]string{"id": "m-77"}})
	case strings.Contains(path, "/messages/") && r.Method == http.MethodGet:
		id := path[strings.LastIndex(path, "/")+1:]
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "threadId": "t-" + id, "labelIds": f.labels[id]})
	case strings.HasSuffix(path, "/messages"):
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]string{{"id": "m-1", "threadId": "t-9"}}})
	default:
		http.NotFound(w, r)
	}
}

var _ = Describe("GmailStore", func() {
	var (
		fake   *fakeGmail
		server *httptest.Server
		store  *mailstore.GmailStore
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = &fakeGmail{labels: map[string][]string{}}
		server = httptest.NewServer(fake)

		var err error
		store, err = mailstore.NewGmailStore(ctx, nil,
			option.WithEndpoint(server.URL+"/"),
			option.WithoutAuthentication(),
			option.WithHTTPClient(server.Client()),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("creates the processed label once and caches its id", func() {
		has, err := store.HasLabel(ctx, "m-1", "AutoDraft/Processed")
		Expect(err).NotTo(HaveOccurred())
		Expect(has).To(BeFalse())

		Expect(store.AddLabel(ctx, "m-1", "AutoDraft/Processed")).To(Succeed())

		has, err = store.HasLabel(ctx, "m-1", "AutoDraft/Processed")
		Expect(err).NotTo(HaveOccurred())
		Expect(has).To(BeTrue())

		Expect(fake.labelLists).To(Equal(1))
		Expect(fake.labelCreates).To(Equal(1))
	})

	It("returns the thread of the latest message with a contact", func() {
		threadID, err := store.FindThreadWithContact(ctx, "jane@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(threadID).To(Equal("t-9"))
	})

	It("creates drafts in the requested thread", func() {
		draft, err := store.CreateDraft(ctx, model.DraftRequest{
			To: "jane@example.com", Subject: "Re: x", TextBody: "hi", HTMLBody: "<p>hi</p>", ThreadID: "t-9",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(draft.ID).To(Equal("d-1"))
		Expect(draft.DraftLink()).To(HaveSuffix("compose=m-77"))

		Expect(fake.drafts).To(HaveLen(1))
		message := fake.drafts[0]["message"].(map[string]any)
		Expect(message["threadId"]).To(Equal("t-9"))
		Expect(message["raw"]).NotTo(BeEmpty())
	})
})
