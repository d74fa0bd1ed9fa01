package services

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/messaging"
)

type stubSender struct {
	sent []*messaging.Message
	fail map[string]bool
}

func (s *stubSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	if s.fail[m.Token] {
		return "", errors.New("unregistered")
	}
	s.sent = append(s.sent, m)
	return "msg-" + m.Token, nil
}

type stubTokens map[int64][]string

func (s stubTokens) TokensByUser(_ context.Context, userID int64) ([]string, error) {
	return s[userID], nil
}

func TestFCMNotifierSendsToEveryToken(t *testing.T) {
	sender := &stubSender{fail: map[string]bool{"bad": true}}
	n := &FCMNotifier{Client: sender, Tokens: stubTokens{1: {"a", "bad", "b"}}, Title: "Dobro"}

	err := n.NotifyUser(context.Background(), 1, "someone responded")
	if err == nil {
		t.Fatal("expected error for the failing token")
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 delivered messages, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Notification.Title != "Dobro" || msg.Notification.Body != "someone responded" {
		t.Fatalf("unexpected notification: %+v", msg.Notification)
	}
	if msg.Android == nil || msg.Android.Priority != "high" {
		t.Fatal("android priority should be high")
	}
}

func TestMultiNotifierJoinsErrors(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("down")}
	m := MultiNotifier{ok, nil, failing}

	err := m.NotifyUser(context.Background(), 4, "hi")
	if err == nil || err.Error() != "down" {
		t.Fatalf("expected joined error, got %v", err)
	}
	if ok.count(4) != 1 || failing.count(4) != 1 {
		t.Fatal("every notifier should be tried")
	}
}
