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

package cloud_test

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/jaycherian/gcp-go-movie-etl/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-etl/internal/core/cor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// recorder remembers the message it ran for and optionally fails.
type recorder struct {
	cor.BaseCommand
	seen string
	fail bool
}

func (r *recorder) Execute(context cor.Context) {
	r.seen = context.Get(cor.CtxIn).(string)
	if r.fail {
		r.Fail(context, errors.New("sink unavailable"))
	}
}

func fakePubSub(t *testing.T) *pubsub.Client {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })
	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	client, err := pubsub.NewClient(context.Background(), "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestPubSubListenerHandle(t *testing.T) {
	client := fakePubSub(t)

	ok := &recorder{BaseCommand: *cor.NewBaseCommand("ok")}
	listener, err := cloud.NewPubSubListener(client, "source-uploads-sub", nil)
	require.NoError(t, err)
	listener.SetCommand(ok)
	// The first command stays.
	listener.SetCommand(&recorder{BaseCommand: *cor.NewBaseCommand("ignored")})

	assert.True(t, listener.Handle(context.Background(), []byte(`{"name":"ratings.csv"}`)))
	assert.Equal(t, `{"name":"ratings.csv"}`, ok.seen)

	failing := &recorder{BaseCommand: *cor.NewBaseCommand("failing"), fail: true}
	listener, err = cloud.NewPubSubListener(client, "source-uploads-sub", failing)
	require.NoError(t, err)
	assert.False(t, listener.Handle(context.Background(), []byte("{}")))
	assert.Equal(t, "{}", failing.seen)
}
