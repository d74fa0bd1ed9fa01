package services

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/messaging"
)

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TokenSource returns the push tokens a user registered.
type TokenSource interface {
	TokensByUser(ctx context.Context, userID int64) ([]string, error)
}

// FCMNotifier pushes notifications to all devices of a user via Firebase.
type FCMNotifier struct {
	Client messageSender
	Tokens TokenSource
	Title  string
	Logger Logger
}

func NewFCMNotifier(client *messaging.Client, tokens TokenSource, title string, logger Logger) *FCMNotifier {
	return &FCMNotifier{Client: client, Tokens: tokens, Title: title, Logger: logger}
}

func (n *FCMNotifier) message(token, body string) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  body,
		},
		Data: map[string]string{
			"link": "my_requests",
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority": "10",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: n.Title,
						Body:  body,
					},
					Sound: "default",
				},
			},
		},
	}
}

func (n *FCMNotifier) NotifyUser(ctx context.Context, userID int64, text string) error {
	tokens, err := n.Tokens.TokensByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("fcm tokens for user %d: %w", userID, err)
	}
	logger := n.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	var errs []error
	for _, token := range tokens {
		id, err := n.Client.Send(ctx, n.message(token, text))
		if err != nil {
			errs = append(errs, fmt.Errorf("fcm send: %w", err))
			continue
		}
		logger.Infof("fcm: notification %s sent to user %d", id, userID)
	}
	return errors.Join(errs...)
}
