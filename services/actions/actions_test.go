package actions_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/mudler/LocalPlanner/core/types"
	. "github.com/mudler/LocalPlanner/services/actions"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeNotifier struct {
	name string
	err  error
	got  []Notification
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(ctx context.Context, n Notification) error {
	f.got = append(f.got, n)
	return f.err
}

var _ = Describe("Runner", func() {
	agent := types.Agent{Name: "Voyager", Goal: "Plan a trip to Japan"}
	task := types.Task{
		ID:           "t1",
		Title:        "Book flights",
		Description:  "Round trip to Tokyo",
		Due:          "2026-11-01",
		DurationMins: 90,
		ActionType:   types.ActionReminder,
	}

	It("only reminds in the chat without notifiers", func() {
		result, err := NewRunner().Run(context.Background(), agent, task)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success).To(BeTrue())
		Expect(result.Message).To(Equal(`⏰ Reminder: "Book flights" is due.`))
	})

	It("fans out to every notifier", func() {
		a, b := &fakeNotifier{name: "a"}, &fakeNotifier{name: "b"}
		runner := NewRunner(a, b)
		Expect(runner.Notifiers()).To(Equal([]string{"a", "b"}))

		result, err := runner.Run(context.Background(), agent, task)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Message).To(HaveSuffix("(sent via a, b)"))
		Expect(result.Details).To(HaveKeyWithValue("delivered", []string{"a", "b"}))

		Expect(a.got).To(HaveLen(1))
		Expect(a.got[0].Subject).To(Equal("[Voyager] Book flights"))
		Expect(a.got[0].Body).To(ContainSubstring("Round trip to Tokyo"))
		Expect(a.got[0].Body).To(ContainSubstring("Due: 2026-11-01"))
		Expect(a.got[0].Body).To(ContainSubstring("Estimated time: 90 min"))
	})

	It("tolerates partial failures", func() {
		ok, broken := &fakeNotifier{name: "ok"}, &fakeNotifier{name: "broken", err: errors.New("down")}
		result, err := NewRunner(broken, ok).Run(context.Background(), agent, task)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Details).To(HaveKeyWithValue("delivered", []string{"ok"}))
		Expect(result.Details).To(HaveKeyWithValue("errors", "broken: down"))
	})

	It("fails when nothing was delivered", func() {
		broken := &fakeNotifier{name: "broken", err: errors.New("down")}
		_, err := NewRunner(broken).Run(context.Background(), agent, task)
		Expect(err).To(MatchError(ContainSubstring("broken: down")))
	})
})

var _ = Describe("Email", func() {
	It("needs a server, a sender and recipients", func() {
		_, err := NewEmail(EmailConfig{Server: "localhost:25"})
		Expect(err).To(HaveOccurred())
	})

	It("renders a plain text message", func() {
		e, err := NewEmail(EmailConfig{Server: "localhost:25", From: "planner@example.com", To: []string{"alex@example.com"}})
		Expect(err).NotTo(HaveOccurred())

		msg, err := e.Message(Notification{Agent: "Voyager", Subject: "[Voyager] Book flights", Body: "line one\nline two"})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(MatchRegexp(`(?m)^From: "?Voyager"? <planner@example\.com>\r$`))
		Expect(msg).To(MatchRegexp(`(?m)^To: <?alex@example\.com>?\r$`))
		Expect(msg).To(ContainSubstring("Subject: [Voyager] Book flights\r\n"))
		Expect(msg).To(HaveSuffix("\r\n\r\nline one\r\nline two\r\n"))
	})

	It("keeps model-written names and titles inside their header", func() {
		e, err := NewEmail(EmailConfig{Server: "localhost:25", From: "planner@example.com", To: []string{"alex@example.com"}})
		Expect(err).NotTo(HaveOccurred())

		msg, err := e.Message(Notification{
			Agent:   "Voyager\r\nBcc: eve@example.com",
			Subject: "Book flights\nX-Injected: yes",
			Body:    "body",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).NotTo(MatchRegexp(`(?m)^Bcc:`))
		Expect(msg).NotTo(MatchRegexp(`(?m)^X-Injected:`))
	})

	It("encodes non-ASCII subjects", func() {
		e, err := NewEmail(EmailConfig{Server: "localhost:25", From: "planner@example.com", To: []string{"alex@example.com"}})
		Expect(err).NotTo(HaveOccurred())

		msg, err := e.Message(Notification{Agent: "Voyager", Subject: "Réserver l'hôtel à Kyōto", Body: "body"})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(MatchRegexp(`(?i)Subject: =\?utf-8\?[qb]\?`))
		Expect(msg).NotTo(ContainSubstring("Kyōto"))
	})
})

var _ = Describe("Webhook", func() {
	It("posts the notification as JSON", func() {
		var received map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		err := NewWebhook(server.URL).Notify(context.Background(), Notification{Agent: "Voyager", Task: "Book flights", ActionType: types.ActionTask})
		Expect(err).NotTo(HaveOccurred())
		Expect(received).To(HaveKeyWithValue("task", "Book flights"))
		Expect(received).To(HaveKeyWithValue("action_type", "task"))
	})

	It("reports non-2xx answers", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		defer server.Close()

		err := NewWebhook(server.URL).Notify(context.Background(), Notification{})
		Expect(err).To(MatchError(ContainSubstring("webhook returned 500")))
	})
})
