package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"autodraft.app/assistant/common/llm"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("New", func() {
	It("requires an API key", func() {
		_, err := llm.New(llm.Config{Provider: llm.ProviderAnthropic})
		Expect(err).To(MatchError(ContainSubstring("API key is required")))
	})

	It("rejects unknown providers", func() {
		_, err := llm.New(llm.Config{Provider: "mistral", APIKey: "k"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM provider")))
	})

	It("defaults to anthropic with its default model", func() {
		client, err := llm.New(llm.Config{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("claude-sonnet-4-20250514"))
	})

	It("keeps an explicit model", func() {
		client, err := llm.New(llm.Config{Provider: llm.ProviderOpenAI, APIKey: "k", Model: "gpt-4.1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Model()).To(Equal("gpt-4.1"))
	})
})

var _ = Describe("Complete", func() {
	var (
		server   *httptest.Server
		captured map[string]any
		reply    string
	)

	BeforeEach(func() {
		captured = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &captured)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, reply)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("joins anthropic text blocks", func() {
		reply = `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"{\"a\":"},{"type":"text","text":"1}"}],
			"stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":4}}`

		client, err := llm.New(llm.Config{APIKey: "k", BaseURL: server.URL, Model: "claude-test", MaxTokens: 256})
		Expect(err).NotTo(HaveOccurred())

		resp, err := client.Complete(context.Background(), llm.Request{Prompt: "extract"})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(Equal(`{"a":1}`))
		Expect(resp.PromptTokens).To(Equal(12))
		Expect(resp.CompletionTokens).To(Equal(4))
		Expect(captured).To(HaveKeyWithValue("model", "claude-test"))
		Expect(captured).To(HaveKeyWithValue("max_tokens", BeNumerically("==", 256)))
	})

	It("returns the first openai choice", func() {
		reply = `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`

		client, err := llm.New(llm.Config{Provider: llm.ProviderOpenAI, APIKey: "k", BaseURL: server.URL, Model: "gpt-test"})
		Expect(err).NotTo(HaveOccurred())

		resp, err := client.Complete(context.Background(), llm.Request{SystemPrompt: "sys", Prompt: "hi"})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(Equal("hello"))
		Expect(captured).To(HaveKeyWithValue("model", "gpt-test"))
		Expect(captured["messages"]).To(HaveLen(2))
	})

	It("fails when openai returns no choices", func() {
		reply = `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test","choices":[],
			"usage":{"prompt_tokens":3,"completion_tokens":0,"total_tokens":3}}`

		client, err := llm.New(llm.Config{Provider: llm.ProviderOpenAI, APIKey: "k", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = client.Complete(context.Background(), llm.Request{Prompt: "hi"})
		Expect(err).To(MatchError(ContainSubstring("no choices")))
	})
})

var _ = Describe("GenerateSchema", func() {
	type sample struct {
		Name  string   `json:"name" jsonschema_description:"first name only"`
		Items []string `json:"items"`
	}

	It("inlines properties in declaration order", func() {
		schema := llm.GenerateSchema[sample]()
		Expect(schema.Properties).NotTo(BeNil())

		var keys []string
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
		}
		Expect(keys).To(Equal([]string{"name", "items"}))

		name, ok := schema.Properties.Get("name")
		Expect(ok).To(BeTrue())
		Expect(name.Description).To(Equal("first name only"))
	})
})
