// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides configuration loading and Google Cloud helpers.
// This file defines PubSubListener, which runs a command for every message
// on a subscription.
//
// Each message gets a fresh cor.Context seeded with the message body under
// cor.CtxIn and a span for the delivery. The message is acknowledged when the
// command records no errors; otherwise it is nacked so Pub/Sub redelivers it.
// Runs are not concurrent: the subscription receives one message at a time
// because a batch rewrites shared relations.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener binds a subscription to a command.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// NewPubSubListener creates a listener for subscriptionID. command may be
// set later with SetCommand.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	sub.ReceiveSettings.MaxOutstandingMessages = 1
	sub.ReceiveSettings.NumGoroutines = 1
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand sets the command if none is set yet.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Handle runs the command for one message body and reports whether it
// succeeded.
func (m *PubSubListener) Handle(ctx context.Context, data []byte) bool {
	tracer := otel.Tracer("message-listener")
	spanCtx, span := tracer.Start(ctx, "receive-message")
	defer span.End()
	span.SetAttributes(attribute.String("msg", string(data)))

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(spanCtx)
	chainCtx.Add(cor.CtxIn, string(data))

	m.command.Execute(chainCtx)

	if chainCtx.HasErrors() {
		span.SetStatus(codes.Error, "failed")
		for stage, e := range chainCtx.GetErrors() {
			slog.ErrorContext(spanCtx, "error executing chain", "stage", stage, "error", e)
		}
		return false
	}
	span.SetStatus(codes.Ok, "success")
	return true
}

// Listen receives messages until ctx is cancelled. It blocks.
func (m *PubSubListener) Listen(ctx context.Context) error {
	slog.Info("listening", "subscription", m.subscription.String())
	return m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
		if m.Handle(ctx, msg.Data) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}
