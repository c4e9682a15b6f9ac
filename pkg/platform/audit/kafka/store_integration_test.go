//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "linkage/pkg/platform/audit"
	"linkage/pkg/platform/audit/kafka"
	"linkage/pkg/testutil/containers"
)

func TestKafkaStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker := containers.GetManager().GetRedpanda(t).Broker
	cfg := kafka.Config{Brokers: []string{broker}, Topic: "linkage.audit.test"}

	client, err := kafka.Dial(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()

	// A second Dial must tolerate the existing topic.
	again, err := kafka.Dial(ctx, cfg)
	require.NoError(t, err)
	again.Close()

	store := kafka.New(client, cfg.Topic)
	require.NoError(t, store.Append(ctx, audit.Event{
		Action:     audit.EventLinkageInserted,
		LinkageKey: "key-1",
		Status:     "SUCCESS",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())

	var got []audit.Event
	fetches.EachRecord(func(r *kgo.Record) {
		var e audit.Event
		require.NoError(t, json.Unmarshal(r.Value, &e))
		require.Equal(t, "key-1", string(r.Key))
		got = append(got, e)
	})
	require.Len(t, got, 1)
	require.Equal(t, audit.EventLinkageInserted, got[0].Action)
}
